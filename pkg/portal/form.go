package portal

import (
	"fmt"
	"strconv"

	"github.com/entrhq/fbsbot/pkg/booking"
	"github.com/entrhq/fbsbot/pkg/catalog"
)

// timeOptionEpoch prefixes every time-of-day option value on the create
// form. The portal encodes times against this fixed date whatever day is booked.
const timeOptionEpoch = "1800/01/01 "

// formValues are the strings typed or selected into the portal for one request.
type formValues struct {
	facilityType string
	location     string
	usageType    string

	// year as four digits; month and day unpadded, as the calendar popup lists them
	year  string
	month string
	day   string

	// slotPrefix is YYYYMMDD, zero-padded, as used in availability cell ids
	slotPrefix string

	from      string
	to        string
	attendees string
	purpose   string
}

func newFormValues(venue catalog.Venue, usageKey string, req booking.Request) formValues {
	start, end := req.Start, req.End
	return formValues{
		facilityType: venue.FacilityType,
		location:     venue.Location,
		usageType:    usageKey,
		year:         strconv.Itoa(start.Year()),
		month:        strconv.Itoa(int(start.Month())),
		day:          strconv.Itoa(start.Day()),
		slotPrefix:   start.Format("20060102"),
		from:         timeOptionEpoch + start.Format("15:04:05"),
		to:           timeOptionEpoch + end.Format("15:04:05"),
		attendees:    strconv.Itoa(req.Attendees),
		purpose:      req.Purpose,
	}
}

// dayCell selects the calendar popup cell whose text is exactly the day.
func (f formValues) dayCell() string {
	return fmt.Sprintf(`td:text-is("%s")`, f.day)
}

// slotCell matches the available cells of the booking day. Clicks are
// strict, so the day must offer exactly one available cell; several matches
// fail the click with an error that is not a timeout.
func (f formValues) slotCell() string {
	return fmt.Sprintf(`div.divAvailable[id^="%s"]`, f.slotPrefix)
}

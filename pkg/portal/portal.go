// Package portal books rooms on the UTown Facilities Booking System by
// scripting its web UI.
//
// The portal has no API. An Engine logs in through the student SSO page,
// walks the frame-nested search form, picks the first available cell for the
// requested day, fills the create-booking form and reads the result back. Each
// Book call runs in its own browser session and returns a booking.Outcome.
package portal

import "time"

// DefaultLoginURL is the portal's login page.
const DefaultLoginURL = "https://utownfbs.nus.edu.sg/utown/loginpage.aspx"

// Login page controls.
const (
	studentLoginButton = `span[id="StudentLoginButton"]`
	usernameInput      = `input[id="userNameInput"]`
	passwordInput      = `input[id="passwordInput"]`
	loginSubmitButton  = `span[id="submitButton"]`
)

// Frames are matched by a substring of their URL.
const (
	searchFrameURL     = "modules/booking/search.aspx"
	calendarFrameURL   = "calendar/calendar.htm"
	bookingCalendarURL = "BookingCalendar/Default.aspx"
)

// Search frame controls.
const (
	facilityTypeSelect  = `select[name="FacilityType$ctl02"]`
	locationSelect      = `select[name="Facility$ctl02"]`
	startDateInput      = `table[id="StartDate"] input[name="StartDate$ctl03"]`
	endDateInput        = `table[id="StartDate"] input[name="StartDate$ctl10"]`
	viewAvailabilityBtn = `input[name="btnViewAvailability"]`
)

// Calendar popup controls.
const (
	monthSelect = `select#selectMonth`
	yearSelect  = `select#selectYear`
)

// Booking calendar and create-booking form controls.
const (
	createFrameSelector = `iframe[id="frmCreate"]`
	usageTypeSelect     = `select[name="UsageType$ctl02"]`
	fromSelect          = `select[name="from$ctl02"]`
	toSelect            = `select[name="to$ctl02"]`
	attendeesInput      = `input[name="ExpectedNoAttendees$ctl02"]`
	chargeGroupSelect   = `select[name="ChargeGroup$ctl02"]`
	purposeTextarea     = `textarea[name="Purpose$ctl02"]`
	createBookingButton = `input[id="btnCreateBooking"]`

	// chargeGroupOption is the only charge group students may use.
	chargeGroupOption = "1"
)

// Timings are fixed pauses after steps whose effect the portal does not
// signal. Each pause lets the next control's options load.
type Timings struct {
	Login        time.Duration `yaml:"login"`
	Facility     time.Duration `yaml:"facility"`
	Location     time.Duration `yaml:"location"`
	CalendarOpen time.Duration `yaml:"calendar_open"`
	StartDate    time.Duration `yaml:"start_date"`
	EndDate      time.Duration `yaml:"end_date"`
	Availability time.Duration `yaml:"availability"`
	Slot         time.Duration `yaml:"slot"`
	UsageType    time.Duration `yaml:"usage_type"`
	Times        time.Duration `yaml:"times"`
	Purpose      time.Duration `yaml:"purpose"`
	Submit       time.Duration `yaml:"submit"`
}

// DefaultTimings are calibrated against the live portal.
func DefaultTimings() Timings {
	return Timings{
		Login:        20 * time.Second,
		Facility:     2 * time.Second,
		Location:     5 * time.Second,
		CalendarOpen: 2 * time.Second,
		StartDate:    5 * time.Second,
		EndDate:      3 * time.Second,
		Availability: 5 * time.Second,
		Slot:         2 * time.Second,
		UsageType:    2 * time.Second,
		Times:        2 * time.Second,
		Purpose:      2 * time.Second,
		Submit:       15 * time.Second,
	}
}

// Options configures an Engine.
type Options struct {
	// LoginURL is the portal entry point
	LoginURL string

	// Timings are the pauses between dependent steps
	Timings Timings

	// FrameTimeout bounds each frame lookup after its pause
	FrameTimeout time.Duration

	// ResultTimeout bounds the wait for a message or reference table after submit
	ResultTimeout time.Duration

	// PollInterval is the delay between readiness checks
	PollInterval time.Duration
}

// DefaultOptions returns options matching the live portal.
func DefaultOptions() Options {
	return Options{
		LoginURL:      DefaultLoginURL,
		Timings:       DefaultTimings(),
		FrameTimeout:  30 * time.Second,
		ResultTimeout: 30 * time.Second,
		PollInterval:  500 * time.Millisecond,
	}
}

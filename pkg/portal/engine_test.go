package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/fbsbot/pkg/booking"
	"github.com/entrhq/fbsbot/pkg/browser"
	"github.com/entrhq/fbsbot/pkg/catalog"
	"github.com/entrhq/fbsbot/pkg/logging"
)

var sgt = time.FixedZone("SGT", 8*60*60)

func testOptions() Options {
	return Options{
		LoginURL:      DefaultLoginURL,
		FrameTimeout:  50 * time.Millisecond,
		ResultTimeout: 50 * time.Millisecond,
		PollInterval:  time.Millisecond,
	}
}

func testRequest() booking.Request {
	return booking.Request{
		VenueID:     1,
		Start:       time.Date(2024, time.January, 5, 14, 0, 0, 0, sgt),
		End:         time.Date(2024, time.January, 5, 16, 30, 0, 0, sgt),
		Purpose:     "Telegram booking by alice",
		UsageType:   catalog.DefaultUsageType,
		Attendees:   2,
		Credentials: booking.Credentials{Username: "e0123456", Password: "secret"},
	}
}

func newTestEngine(p *fakePortal) *Engine {
	return NewEngine(p, catalog.Default(), testOptions(), logging.Nop())
}

func assertTornDownOnce(t *testing.T, p *fakePortal) {
	t.Helper()
	opens, closes := p.counts()
	assert.Equal(t, 1, opens, "sessions opened")
	assert.Equal(t, 1, closes, "sessions closed")
}

func TestBook_Success(t *testing.T) {
	p := newFakePortal()

	out, err := newTestEngine(p).Book(context.Background(), testRequest())
	require.NoError(t, err)

	success, ok := out.(booking.Success)
	require.True(t, ok, "got %#v", out)
	assert.Equal(t, "BR12345", success.Reference)
	assert.Equal(t, p.screenshot, success.Screenshot)
	assertTornDownOnce(t, p)

	assert.Equal(t, []string{
		"page: goto " + DefaultLoginURL,
		"page: click " + studentLoginButton,
		"page: fill " + usernameInput + "=e0123456",
		"page: fill " + passwordInput + "=secret",
		"page: click " + loginSubmitButton,
		"search: select " + facilityTypeSelect + "=b0b1df78-0e74-4b3c-8033-ced5e3e32413",
		"search: select " + locationSelect + "=4ada4203-06ab-48ac-8a14-1bb8c26474e2",
		"search: click " + startDateInput,
		"popup: select " + monthSelect + "=1",
		"popup: select " + yearSelect + "=2024",
		`popup: click td:text-is("5")`,
		"search: click " + endDateInput,
		"popup: select " + monthSelect + "=1",
		"popup: select " + yearSelect + "=2024",
		`popup: click td:text-is("5")`,
		"search: click " + viewAvailabilityBtn,
		`calendar: click div.divAvailable[id^="20240105"]`,
		"create: select " + usageTypeSelect + "=d946c992-97e3-4a44-bb11-07ad0440563d",
		"create: select " + fromSelect + "=1800/01/01 14:00:00",
		"create: select " + toSelect + "=1800/01/01 16:30:00",
		"create: click " + attendeesInput,
		"create: fill " + attendeesInput + "=2",
		"create: select " + chargeGroupSelect + "=1",
		"create: click " + purposeTextarea,
		"create: fill " + purposeTextarea + "=Telegram booking by alice",
		"create: click " + createBookingButton,
	}, p.recorded())
}

func TestBook_ClassifiedOutcomes(t *testing.T) {
	tests := []struct {
		name string
		html string
		want booking.Outcome
	}{
		{
			name: "invalid time",
			html: messagePage("Start time must be later than the current time"),
			want: booking.InvalidTime{Message: "Start time must be later than the current time"},
		},
		{
			name: "slot taken",
			html: messagePage("The slot has been booked by another user"),
			want: booking.SlotTaken{Message: "The slot has been booked by another user"},
		},
		{
			name: "unrecognised message",
			html: messagePage("Account suspended"),
			want: booking.Failure{Message: "Booking failed: Account suspended"},
		},
		{
			name: "malformed reference table",
			html: `<table id="BookingReferenceNumber"><tr><td>Reference No:</td></tr></table>`,
			want: booking.Failure{Message: "No booking reference number found."},
		},
		{
			name: "result never settles",
			html: `<html><body>Processing</body></html>`,
			want: booking.Failure{Message: "No booking reference number found."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePortal()
			p.resultHTML = tt.html

			out, err := newTestEngine(p).Book(context.Background(), testRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assertTornDownOnce(t, p)
		})
	}
}

func TestBook_ElementNotFound(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *fakePortal)
		want  string
	}{
		{"search frame", func(p *fakePortal) { p.hiddenFrame = searchFrameURL }, "Search Frame not found"},
		{"start calendar", func(p *fakePortal) { p.hiddenFrame = calendarFrameURL }, "Start Calendar Frame not found"},
		{"end calendar", func(p *fakePortal) { p.maxPopups = 1 }, "End Calendar Frame not found"},
		{"booking calendar", func(p *fakePortal) { p.hiddenFrame = bookingCalendarURL }, "Booking Calendar Frame not found"},
		{"create iframe inaccessible", func(p *fakePortal) { p.createInaccessible = true }, "Booking Frame not accessible"},
		{"create iframe missing", func(p *fakePortal) { p.missingSelector = createFrameSelector }, "Booking Frame not found"},
		{"facility selector", func(p *fakePortal) { p.missingSelector = facilityTypeSelect }, "Facility type selector not found"},
		{"login button", func(p *fakePortal) { p.missingSelector = studentLoginButton }, "Student login button not found"},
		{"no available slot", func(p *fakePortal) { p.missingSelector = `div.divAvailable[id^="20240105"]` }, "Available slot not found"},
		{"day cell", func(p *fakePortal) { p.missingSelector = `td:text-is("5")` }, "Day 5 not found in calendar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePortal()
			tt.setup(p)

			out, err := newTestEngine(p).Book(context.Background(), testRequest())
			require.NoError(t, err)
			assert.Equal(t, booking.ElementNotFound{Context: tt.want}, out)
			assertTornDownOnce(t, p)
		})
	}
}

func TestBook_Faults(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		setup func(p *fakePortal)
	}{
		{"navigation failure", func(p *fakePortal) { p.gotoErr = boom }},
		{"screenshot failure", func(p *fakePortal) { p.screenshotErr = boom }},
		{"content failure", func(p *fakePortal) { p.contentErr = boom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePortal()
			tt.setup(p)

			out, err := newTestEngine(p).Book(context.Background(), testRequest())
			assert.ErrorIs(t, err, boom)
			assert.Nil(t, out)
			assertTornDownOnce(t, p)
		})
	}
}

func TestBook_SeveralAvailableSlotsIsFault(t *testing.T) {
	p := newFakePortal()
	p.ambiguousSelector = `div.divAvailable[id^="20240105"]`

	out, err := newTestEngine(p).Book(context.Background(), testRequest())
	require.Error(t, err)
	assert.Nil(t, out)
	assert.NotErrorIs(t, err, browser.ErrTimeout)
	assert.Contains(t, err.Error(), "Available slot not found")
	assert.Contains(t, err.Error(), "strict mode violation")
	assertTornDownOnce(t, p)
}

func TestBook_LaunchFailure(t *testing.T) {
	p := newFakePortal()
	p.launchErr = errors.New("chromium missing")

	out, err := newTestEngine(p).Book(context.Background(), testRequest())
	assert.ErrorIs(t, err, p.launchErr)
	assert.Nil(t, out)

	opens, closes := p.counts()
	assert.Zero(t, opens)
	assert.Zero(t, closes)
}

func TestBook_Deadline(t *testing.T) {
	p := newFakePortal()
	opts := testOptions()
	opts.Timings.Login = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out, err := NewEngine(p, catalog.Default(), opts, nil).Book(ctx, testRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, out)
	assertTornDownOnce(t, p)
}

func TestBook_UnknownCatalogEntries(t *testing.T) {
	p := newFakePortal()
	engine := newTestEngine(p)

	req := testRequest()
	req.VenueID = 99
	_, err := engine.Book(context.Background(), req)
	assert.ErrorIs(t, err, catalog.ErrUnknownVenue)

	req = testRequest()
	req.UsageType = "Party"
	_, err = engine.Book(context.Background(), req)
	assert.ErrorIs(t, err, catalog.ErrUnknownUsageType)

	opens, _ := p.counts()
	assert.Zero(t, opens)
}

func TestFormValues(t *testing.T) {
	venue, err := catalog.Default().VenueByName("MPSH")
	require.NoError(t, err)

	req := testRequest()
	req.Start = time.Date(2024, time.December, 25, 9, 5, 0, 0, sgt)
	req.End = time.Date(2024, time.December, 25, 11, 0, 0, 0, sgt)
	req.Attendees = 12

	f := newFormValues(venue, "usage-key", req)
	assert.Equal(t, "2024", f.year)
	assert.Equal(t, "12", f.month)
	assert.Equal(t, "25", f.day)
	assert.Equal(t, "20241225", f.slotPrefix)
	assert.Equal(t, "1800/01/01 09:05:00", f.from)
	assert.Equal(t, "1800/01/01 11:00:00", f.to)
	assert.Equal(t, "12", f.attendees)
	assert.Equal(t, "775b9829-d80e-4191-bebb-a9219b9c3d10", f.facilityType)
	assert.Equal(t, `td:text-is("25")`, f.dayCell())
	assert.Equal(t, `div.divAvailable[id^="20241225"]`, f.slotCell())
}

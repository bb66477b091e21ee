package portal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/fbsbot/pkg/booking"
	"github.com/entrhq/fbsbot/pkg/browser"
	"github.com/entrhq/fbsbot/pkg/catalog"
	"github.com/entrhq/fbsbot/pkg/logging"
)

// Engine implements booking.Engine against the live portal.
type Engine struct {
	launcher browser.Launcher
	catalog  *catalog.Catalog
	opts     Options
	logger   *logging.Logger
}

var _ booking.Engine = (*Engine)(nil)

// NewEngine creates an engine that opens one session from launcher per booking.
func NewEngine(launcher browser.Launcher, cat *catalog.Catalog, opts Options, logger *logging.Logger) *Engine {
	if opts.LoginURL == "" {
		opts.LoginURL = DefaultLoginURL
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = browser.DefaultPollInterval
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{
		launcher: launcher,
		catalog:  cat,
		opts:     opts,
		logger:   logger,
	}
}

// notFoundError marks a step whose frame or control never appeared.
type notFoundError struct {
	context string
	err     error
}

func (e *notFoundError) Error() string {
	if e.err == nil {
		return e.context
	}
	return fmt.Sprintf("%s: %v", e.context, e.err)
}

func (e *notFoundError) Unwrap() error { return e.err }

// step names a failed action. Timeouts become notFoundError; anything else
// is an unclassified fault.
func step(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, browser.ErrTimeout) {
		return &notFoundError{context: what, err: err}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Book runs the whole portal script for req in a fresh browser session.
// Classified results are returned as an Outcome with a nil error.
func (e *Engine) Book(ctx context.Context, req booking.Request) (booking.Outcome, error) {
	venue, err := e.catalog.VenueByID(req.VenueID)
	if err != nil {
		return nil, err
	}
	usageKey, err := e.catalog.UsageType(req.UsageType)
	if err != nil {
		return nil, err
	}
	form := newFormValues(venue, usageKey, req)

	e.logger.Infof("Starting booking for %s (%s) from %s to %s as %s",
		venue.Name, venue.Description, req.Start.Format(time.DateTime), req.End.Format(time.DateTime), req.Credentials)

	outcome, err := browser.WithSession(ctx, e.launcher, func(ctx context.Context, page browser.Page) (booking.Outcome, error) {
		defer e.logger.Debugf("Closing browser")

		out, err := e.drive(ctx, page, req.Credentials, form)
		var nf *notFoundError
		if errors.As(err, &nf) {
			e.logger.Errorf("%v", nf)
			return booking.ElementNotFound{Context: nf.context}, nil
		}
		return out, err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		e.logger.Errorf("Error during booking process: %v", err)
		return nil, err
	}

	e.logger.Infof("Booking for %s finished: %s", venue.Name, outcome.Kind())
	return outcome, nil
}

func (e *Engine) drive(ctx context.Context, page browser.Page, creds booking.Credentials, form formValues) (booking.Outcome, error) {
	t := e.opts.Timings

	if err := e.login(ctx, page, creds); err != nil {
		return nil, err
	}

	search, err := e.frame(ctx, page.Frames, searchFrameURL, "Search Frame not found")
	if err != nil {
		return nil, err
	}

	e.logger.Debugf("Selecting facility and location")
	if err := step("Facility type selector not found", search.SelectOption(facilityTypeSelect, form.facilityType)); err != nil {
		return nil, err
	}
	if err := browser.Sleep(ctx, t.Facility); err != nil {
		return nil, err
	}
	if err := step("Location selector not found", search.SelectOption(locationSelect, form.location)); err != nil {
		return nil, err
	}
	if err := browser.Sleep(ctx, t.Location); err != nil {
		return nil, err
	}

	e.logger.Debugf("Setting start date")
	if err := e.pickDate(ctx, search, startDateInput, "Start Calendar Frame not found", form, t.StartDate); err != nil {
		return nil, err
	}

	// Bookings are same-day: the end date widget gets the start date.
	e.logger.Debugf("Setting end date")
	if err := e.pickDate(ctx, search, endDateInput, "End Calendar Frame not found", form, t.EndDate); err != nil {
		return nil, err
	}

	e.logger.Debugf("Viewing availability")
	if err := step("Availability button not found", search.Click(viewAvailabilityBtn)); err != nil {
		return nil, err
	}
	if err := browser.Sleep(ctx, t.Availability); err != nil {
		return nil, err
	}

	calendar, err := e.frame(ctx, page.Frames, bookingCalendarURL, "Booking Calendar Frame not found")
	if err != nil {
		return nil, err
	}
	if err := step("Available slot not found", calendar.Click(form.slotCell())); err != nil {
		return nil, err
	}
	if err := browser.Sleep(ctx, t.Slot); err != nil {
		return nil, err
	}

	e.logger.Debugf("Accessing booking form")
	create, err := e.createFrame(calendar)
	if err != nil {
		return nil, err
	}

	e.logger.Debugf("Filling booking form")
	if err := e.fillForm(ctx, create, form); err != nil {
		return nil, err
	}

	e.logger.Debugf("Submitting booking form")
	if err := step("Create booking button not found", create.Click(createBookingButton)); err != nil {
		return nil, err
	}
	if err := browser.Sleep(ctx, t.Submit); err != nil {
		return nil, err
	}

	return e.result(ctx, page, create)
}

// login drives the SSO form. Success is not signalled; the Login pause stands
// in for it, and a failed login shows up as a missing search frame.
func (e *Engine) login(ctx context.Context, page browser.Page, creds booking.Credentials) error {
	e.logger.Infof("Navigating to login page")
	if err := page.Goto(e.opts.LoginURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := step("Student login button not found", page.Click(studentLoginButton)); err != nil {
		return err
	}

	e.logger.Debugf("Attempting login as %s", creds)
	if err := step("Username field not found", page.Fill(usernameInput, creds.Username)); err != nil {
		return err
	}
	if err := step("Password field not found", page.Fill(passwordInput, creds.Password)); err != nil {
		return err
	}
	if err := step("Login submit button not found", page.Click(loginSubmitButton)); err != nil {
		return err
	}

	e.logger.Debugf("Waiting for login completion")
	return browser.Sleep(ctx, e.opts.Timings.Login)
}

// frame resolves a frame by URL substring, re-reading list on every poll.
func (e *Engine) frame(ctx context.Context, list func() []browser.Frame, urlPart, missing string) (browser.Frame, error) {
	f, err := browser.WaitForFrame(ctx, list, urlPart, e.opts.FrameTimeout, e.opts.PollInterval)
	if err != nil {
		return nil, step(missing, err)
	}
	return f, nil
}

// pickDate opens the calendar popup behind input and picks the booking day.
// The popup is resolved afresh each time; a closed popup's frame is stale.
func (e *Engine) pickDate(ctx context.Context, search browser.Frame, input, missing string, form formValues, settle time.Duration) error {
	if err := step("Date input not found", search.Click(input)); err != nil {
		return err
	}
	if err := browser.Sleep(ctx, e.opts.Timings.CalendarOpen); err != nil {
		return err
	}

	popup, err := e.frame(ctx, search.ChildFrames, calendarFrameURL, missing)
	if err != nil {
		return err
	}
	if err := step("Month selector not found", popup.SelectOption(monthSelect, form.month)); err != nil {
		return err
	}
	if err := step("Year selector not found", popup.SelectOption(yearSelect, form.year)); err != nil {
		return err
	}
	if err := step(fmt.Sprintf("Day %s not found in calendar", form.day), popup.Click(form.dayCell())); err != nil {
		return err
	}
	return browser.Sleep(ctx, settle)
}

func (e *Engine) createFrame(calendar browser.Frame) (browser.Frame, error) {
	if err := step("Booking Frame not found", calendar.WaitForSelector(createFrameSelector, e.opts.FrameTimeout)); err != nil {
		return nil, err
	}
	create, err := calendar.ContentFrame(createFrameSelector)
	if err != nil {
		return nil, step("Booking Frame not found", err)
	}
	if create == nil {
		return nil, &notFoundError{context: "Booking Frame not accessible"}
	}
	return create, nil
}

func (e *Engine) fillForm(ctx context.Context, create browser.Frame, form formValues) error {
	t := e.opts.Timings

	if err := step("Usage type selector not found", create.SelectOption(usageTypeSelect, form.usageType)); err != nil {
		return err
	}
	if err := browser.Sleep(ctx, t.UsageType); err != nil {
		return err
	}

	if err := step("Start time selector not found", create.SelectOption(fromSelect, form.from)); err != nil {
		return err
	}
	if err := step("End time selector not found", create.SelectOption(toSelect, form.to)); err != nil {
		return err
	}
	if err := browser.Sleep(ctx, t.Times); err != nil {
		return err
	}

	if err := step("Attendees field not found", create.Click(attendeesInput)); err != nil {
		return err
	}
	if err := step("Attendees field not found", create.Fill(attendeesInput, form.attendees)); err != nil {
		return err
	}
	if err := step("Charge group selector not found", create.SelectOption(chargeGroupSelect, chargeGroupOption)); err != nil {
		return err
	}
	if err := step("Purpose field not found", create.Click(purposeTextarea)); err != nil {
		return err
	}
	if err := step("Purpose field not found", create.Fill(purposeTextarea, form.purpose)); err != nil {
		return err
	}
	return browser.Sleep(ctx, t.Purpose)
}

// result waits for the create frame to show a message or a reference table,
// classifies it, and captures the page when the booking went through.
func (e *Engine) result(ctx context.Context, page browser.Page, create browser.Frame) (booking.Outcome, error) {
	var res booking.Result
	err := browser.Poll(ctx, e.opts.ResultTimeout, e.opts.PollInterval, func() (bool, error) {
		html, err := create.Content()
		if err != nil {
			return false, err
		}
		res, err = booking.ParseResult(html)
		if err != nil {
			return false, err
		}
		return res.Settled(), nil
	})
	// A page that never settles is classified like any other empty result.
	if err != nil && !errors.Is(err, browser.ErrTimeout) {
		return nil, fmt.Errorf("failed to read booking result: %w", err)
	}

	outcome := booking.Classify(res)
	success, ok := outcome.(booking.Success)
	if !ok {
		e.logger.Warnf("Booking form returned: %s", describe(outcome))
		return outcome, nil
	}

	e.logger.Infof("Booking successful. Reference number: %s", success.Reference)
	png, err := page.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("failed to capture confirmation: %w", err)
	}
	success.Screenshot = png
	return success, nil
}

func describe(o booking.Outcome) string {
	switch o := o.(type) {
	case booking.InvalidTime:
		return o.Message
	case booking.SlotTaken:
		return o.Message
	case booking.Failure:
		return o.Message
	case booking.ElementNotFound:
		return o.Context
	default:
		return string(o.Kind())
	}
}

package portal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/fbsbot/pkg/browser"
)

const (
	portalHost = "https://utownfbs.nus.edu.sg/utown/"

	referencePage = `<html><body>
		<span id="labelMessage1"></span>
		<table id="BookingReferenceNumber"><tr><td>Reference No:</td><td>BR12345</td></tr></table>
	</body></html>`
)

func messagePage(msg string) string {
	return fmt.Sprintf(`<html><body><span id="labelMessage1">%s</span></body></html>`, msg)
}

// fakePortal is a scripted stand-in for the FBS portal. Frames appear as the
// real ones do: the calendar popup after a date input is clicked, the booking
// calendar after availability is requested.
type fakePortal struct {
	mu sync.Mutex

	// script
	launchErr          error
	gotoErr            error
	screenshotErr      error
	contentErr         error
	hiddenFrame        string
	missingSelector    string
	ambiguousSelector  string
	maxPopups          int
	createInaccessible bool
	resultHTML         string
	screenshot         []byte

	// observed
	opens     int
	closes    int
	actions   []string
	popupOpen bool
	popups    int
	showCal   bool
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		resultHTML: referencePage,
		screenshot: []byte("\x89PNG fake"),
	}
}

func (p *fakePortal) Launch(ctx context.Context) (browser.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.launchErr != nil {
		return nil, p.launchErr
	}
	p.opens++
	return &fakeSession{portal: p}, nil
}

func (p *fakePortal) record(format string, args ...interface{}) {
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
}

func (p *fakePortal) counts() (opens, closes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens, p.closes
}

func (p *fakePortal) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

func (p *fakePortal) visible(frames ...*fakeFrame) []browser.Frame {
	var out []browser.Frame
	for _, f := range frames {
		if p.hiddenFrame != "" && strings.Contains(f.url, p.hiddenFrame) {
			continue
		}
		out = append(out, f)
	}
	return out
}

type fakeSession struct {
	portal *fakePortal
}

func (s *fakeSession) Page() browser.Page {
	p := s.portal
	page := &fakePage{fakeFrame: &fakeFrame{portal: p, name: "page", url: portalHost + "loginpage.aspx"}}
	page.search = &fakeFrame{portal: p, name: "search", url: portalHost + "modules/booking/search.aspx"}
	page.popup = &fakeFrame{portal: p, name: "popup", url: portalHost + "calendar/calendar.htm?ctl=StartDate"}
	page.calendar = &fakeFrame{portal: p, name: "calendar", url: portalHost + "modules/booking/BookingCalendar/Default.aspx"}
	page.create = &fakeFrame{portal: p, name: "create", url: portalHost + "modules/booking/create.aspx"}
	page.search.children = func() []browser.Frame {
		if !p.popupOpen {
			return nil
		}
		return p.visible(page.popup)
	}
	page.calendar.content = page.create
	return page
}

func (s *fakeSession) Close() error {
	s.portal.mu.Lock()
	defer s.portal.mu.Unlock()
	s.portal.closes++
	return nil
}

type fakeFrame struct {
	portal   *fakePortal
	name     string
	url      string
	children func() []browser.Frame
	content  *fakeFrame
}

func (f *fakeFrame) URL() string { return f.url }

func (f *fakeFrame) ChildFrames() []browser.Frame {
	if f.children == nil {
		return nil
	}
	f.portal.mu.Lock()
	defer f.portal.mu.Unlock()
	return f.children()
}

func (f *fakeFrame) missing(op, selector string) error {
	if selector == f.portal.missingSelector {
		return fmt.Errorf("%s %s: %w", op, selector, browser.ErrTimeout)
	}
	return nil
}

func (f *fakeFrame) Click(selector string) error {
	p := f.portal
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := f.missing("click", selector); err != nil {
		return err
	}
	if selector == p.ambiguousSelector {
		return fmt.Errorf("click %s failed: strict mode violation: selector resolved to 3 elements", selector)
	}
	p.record("%s: click %s", f.name, selector)

	switch {
	case selector == startDateInput || selector == endDateInput:
		if p.maxPopups == 0 || p.popups < p.maxPopups {
			p.popupOpen = true
			p.popups++
		}
	case f.name == "popup" && strings.HasPrefix(selector, "td:text-is"):
		p.popupOpen = false
	case selector == viewAvailabilityBtn:
		p.showCal = true
	}
	return nil
}

func (f *fakeFrame) Fill(selector, value string) error {
	f.portal.mu.Lock()
	defer f.portal.mu.Unlock()
	if err := f.missing("fill", selector); err != nil {
		return err
	}
	f.portal.record("%s: fill %s=%s", f.name, selector, value)
	return nil
}

func (f *fakeFrame) SelectOption(selector, value string) error {
	f.portal.mu.Lock()
	defer f.portal.mu.Unlock()
	if err := f.missing("select", selector); err != nil {
		return err
	}
	f.portal.record("%s: select %s=%s", f.name, selector, value)
	return nil
}

func (f *fakeFrame) WaitForSelector(selector string, timeout time.Duration) error {
	f.portal.mu.Lock()
	defer f.portal.mu.Unlock()
	return f.missing("wait for", selector)
}

func (f *fakeFrame) ContentFrame(selector string) (browser.Frame, error) {
	f.portal.mu.Lock()
	defer f.portal.mu.Unlock()
	if f.portal.createInaccessible || f.content == nil {
		return nil, nil
	}
	return f.content, nil
}

func (f *fakeFrame) Content() (string, error) {
	f.portal.mu.Lock()
	defer f.portal.mu.Unlock()
	if f.portal.contentErr != nil {
		return "", f.portal.contentErr
	}
	if f.name != "create" {
		return "<html></html>", nil
	}
	return f.portal.resultHTML, nil
}

type fakePage struct {
	*fakeFrame
	search   *fakeFrame
	popup    *fakeFrame
	calendar *fakeFrame
	create   *fakeFrame
}

func (p *fakePage) Goto(url string) error {
	p.portal.mu.Lock()
	defer p.portal.mu.Unlock()
	if p.portal.gotoErr != nil {
		return p.portal.gotoErr
	}
	p.portal.record("page: goto %s", url)
	return nil
}

func (p *fakePage) Frames() []browser.Frame {
	p.portal.mu.Lock()
	defer p.portal.mu.Unlock()
	frames := []*fakeFrame{p.fakeFrame, p.search}
	if p.portal.showCal {
		frames = append(frames, p.calendar)
	}
	return p.portal.visible(frames...)
}

func (p *fakePage) Screenshot() ([]byte, error) {
	p.portal.mu.Lock()
	defer p.portal.mu.Unlock()
	if p.portal.screenshotErr != nil {
		return nil, p.portal.screenshotErr
	}
	return p.portal.screenshot, nil
}

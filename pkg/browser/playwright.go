package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// pwFrame adapts a playwright.Frame to Frame.
type pwFrame struct {
	frame playwright.Frame
}

func (f *pwFrame) URL() string {
	return f.frame.URL()
}

func (f *pwFrame) ChildFrames() []Frame {
	return wrapFrames(f.frame.ChildFrames())
}

func (f *pwFrame) Click(selector string) error {
	if err := f.frame.Locator(selector).Click(); err != nil {
		return translate("click", selector, err)
	}
	return nil
}

func (f *pwFrame) Fill(selector, value string) error {
	if err := f.frame.Locator(selector).Fill(value); err != nil {
		return translate("fill", selector, err)
	}
	return nil
}

func (f *pwFrame) SelectOption(selector, value string) error {
	_, err := f.frame.Locator(selector).SelectOption(playwright.SelectOptionValues{
		ValuesOrLabels: &[]string{value},
	})
	if err != nil {
		return translate("select", selector, err)
	}
	return nil
}

func (f *pwFrame) WaitForSelector(selector string, timeout time.Duration) error {
	_, err := f.frame.WaitForSelector(selector, playwright.FrameWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return translate("wait for", selector, err)
	}
	return nil
}

func (f *pwFrame) ContentFrame(selector string) (Frame, error) {
	handle, err := f.frame.Locator(selector).ElementHandle()
	if err != nil {
		return nil, translate("locate", selector, err)
	}
	content, err := handle.ContentFrame()
	if err != nil {
		return nil, fmt.Errorf("failed to get content frame of %s: %w", selector, err)
	}
	if content == nil {
		return nil, nil
	}
	return &pwFrame{frame: content}, nil
}

func (f *pwFrame) Content() (string, error) {
	html, err := f.frame.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read frame content: %w", err)
	}
	return html, nil
}

// pwPage adapts a playwright.Page to Page.
type pwPage struct {
	pwFrame
	page playwright.Page
}

func newPage(page playwright.Page) *pwPage {
	return &pwPage{
		pwFrame: pwFrame{frame: page.MainFrame()},
		page:    page,
	}
}

func (p *pwPage) Goto(url string) error {
	if _, err := p.page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *pwPage) Frames() []Frame {
	return wrapFrames(p.page.Frames())
}

func (p *pwPage) Screenshot() ([]byte, error) {
	png, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return png, nil
}

func wrapFrames(frames []playwright.Frame) []Frame {
	out := make([]Frame, len(frames))
	for i, f := range frames {
		out[i] = &pwFrame{frame: f}
	}
	return out
}

// translate maps Playwright timeouts onto ErrTimeout and wraps everything else.
func translate(op, selector string, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s %s: %w", op, selector, ErrTimeout)
	}
	return fmt.Errorf("%s %s failed: %w", op, selector, err)
}

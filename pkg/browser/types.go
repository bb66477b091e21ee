package browser

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout reports that an element, frame or condition did not appear in time.
var ErrTimeout = errors.New("timed out waiting for page")

// Frame is a browsing context: the page's main frame or a nested iframe.
type Frame interface {
	// URL returns the frame's current URL.
	URL() string

	// ChildFrames returns the frame's direct children.
	ChildFrames() []Frame

	// Click clicks the first element matching selector.
	Click(selector string) error

	// Fill replaces the value of the input matching selector.
	Fill(selector, value string) error

	// SelectOption selects the option with the given value (or label) in a select element.
	SelectOption(selector, value string) error

	// WaitForSelector blocks until an element matching selector is attached.
	WaitForSelector(selector string, timeout time.Duration) error

	// ContentFrame returns the document frame of the iframe matching selector.
	// It returns nil and no error when the iframe exists but its frame is not accessible.
	ContentFrame(selector string) (Frame, error)

	// Content returns the frame's serialized HTML.
	Content() (string, error)
}

// Page is a top-level page. Frame methods act on its main frame.
type Page interface {
	Frame

	// Goto navigates to url and waits for the load event.
	Goto(url string) error

	// Frames returns every frame attached to the page, main frame included.
	Frames() []Frame

	// Screenshot captures the full scrollable page as PNG.
	Screenshot() ([]byte, error)
}

// Session owns one browser, its context and a single page.
type Session interface {
	Page() Page
	Close() error
}

// Launcher starts new, isolated sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// SessionOptions configures sessions started by a SessionManager.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for page operations
	Timeout time.Duration
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default values for sessions and polling
const (
	DefaultTimeout        = 30 * time.Second
	DefaultPollInterval   = 250 * time.Millisecond
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 4
)

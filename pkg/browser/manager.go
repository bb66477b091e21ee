package browser

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

// SessionManager launches Playwright-backed sessions and tracks the ones
// still open so Shutdown can reclaim them.
type SessionManager struct {
	mu          sync.Mutex
	sessions    map[string]*pwSession
	playwright  *playwright.Playwright
	opts        SessionOptions
	maxSessions int
	initialized bool
}

// NewSessionManager creates a new session manager. Zero-valued options are
// replaced by their defaults.
func NewSessionManager(opts SessionOptions) *SessionManager {
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	return &SessionManager{
		sessions:    make(map[string]*pwSession),
		opts:        opts,
		maxSessions: DefaultMaxSessions,
	}
}

// Initialize installs the browser driver if needed and starts Playwright.
// This must be called before launching any sessions.
func (m *SessionManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// Launch starts a new browser with a fresh context and a single page.
func (m *SessionManager) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("session manager not initialized")
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("maximum number of sessions (%d) reached", m.maxSessions)
	}

	browser, err := m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.opts.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.opts.Viewport.Width,
			Height: m.opts.Viewport.Height,
		},
	})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(m.opts.Timeout.Milliseconds()))

	s := &pwSession{
		id:        uuid.NewString(),
		browser:   browser,
		context:   bctx,
		page:      newPage(page),
		createdAt: time.Now(),
		release:   m.release,
	}
	m.sessions[s.id] = s
	return s, nil
}

func (m *SessionManager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// ActiveSessions returns the number of sessions not yet closed.
func (m *SessionManager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SetMaxSessions sets the maximum number of concurrent sessions.
func (m *SessionManager) SetMaxSessions(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = max
}

// Shutdown closes any open sessions and stops Playwright.
func (m *SessionManager) Shutdown() error {
	m.mu.Lock()
	open := make([]*pwSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		_ = s.Close() // Ignore errors, continue cleanup
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}
	return nil
}

// pwSession is a Session backed by a real browser.
type pwSession struct {
	id        string
	browser   playwright.Browser
	context   playwright.BrowserContext
	page      *pwPage
	createdAt time.Time
	release   func(id string)

	closeOnce sync.Once
	closeErr  error
}

func (s *pwSession) Page() Page {
	return s.page
}

// Close closes the page, context and browser. Safe to call multiple times.
func (s *pwSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.page.page.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.context.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		s.release(s.id)

		if len(errs) > 0 {
			s.closeErr = fmt.Errorf("errors closing session: %v", errs)
		}
	})
	return s.closeErr
}

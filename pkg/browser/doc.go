// Package browser drives Chromium through Playwright for the booking engine.
//
// The package is split between a thin Playwright layer and the narrow
// interfaces the engine is written against:
//
//  1. Frame and Page: the handful of operations the portal script needs
//     (click, fill, select, wait, read HTML, resolve child frames)
//  2. Session and Launcher: one isolated browser, context and page per
//     booking attempt
//  3. SessionManager: the Playwright-backed Launcher
//
// Tests substitute an in-memory Launcher; nothing outside this package imports
// playwright-go.
//
// # Session Lifecycle
//
// WithSession is the only way the engine obtains a page:
//
//  1. Launch: a fresh browser with an empty context, so every attempt logs in
//  2. Use: the body runs against the session's page
//  3. Close: the session is closed exactly once on every exit path, including
//     panics and context cancellation
//
// Cancelling the context closes the browser underneath a running body, which
// unblocks any Playwright call in flight.
//
// # Readiness
//
// The portal exposes no events to await. Poll retries a condition until it
// holds or a bound elapses and reports the latter as ErrTimeout; WaitForFrame
// uses it to resolve frames by URL substring, fresh on every step.
//
// # Example Usage
//
//	manager := browser.NewSessionManager(browser.SessionOptions{Headless: true})
//	if err := manager.Initialize(); err != nil {
//	    return err
//	}
//	defer manager.Shutdown()
//
//	ref, err := browser.WithSession(ctx, manager, func(ctx context.Context, page browser.Page) (string, error) {
//	    if err := page.Goto("https://example.com"); err != nil {
//	        return "", err
//	    }
//	    return page.URL(), nil
//	})
package browser

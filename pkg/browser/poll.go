package browser

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Poll evaluates cond every interval until it reports true, returns an error,
// or timeout elapses. Expiry of the timeout is reported as ErrTimeout; expiry
// of ctx is reported as the context's error.
func Poll(ctx context.Context, timeout, interval time.Duration, cond func() (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("condition not met after %s: %w", timeout, ErrTimeout)
		case <-ticker.C:
		}
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FindFrame returns the first frame whose URL contains substr.
func FindFrame(frames []Frame, substr string) (Frame, bool) {
	for _, f := range frames {
		if strings.Contains(f.URL(), substr) {
			return f, true
		}
	}
	return nil, false
}

// WaitForFrame polls list until one of its frames matches substr. The list
// is re-read on every attempt because the portal replaces frames as it goes.
func WaitForFrame(ctx context.Context, list func() []Frame, substr string, timeout, interval time.Duration) (Frame, error) {
	var found Frame
	err := Poll(ctx, timeout, interval, func() (bool, error) {
		f, ok := FindFrame(list(), substr)
		if ok {
			found = f
		}
		return ok, nil
	})
	if err != nil {
		return nil, fmt.Errorf("frame %q: %w", substr, err)
	}
	return found, nil
}

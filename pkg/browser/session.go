package browser

import (
	"context"
	"fmt"
	"sync"
)

// WithSession launches a session, runs body against its page and closes the
// session exactly once on every exit path. A launch failure is returned as is.
//
// If ctx is cancelled while body runs, the session is closed immediately so
// that blocked browser calls fail instead of hanging; body then observes the
// cancellation through ctx.
func WithSession[T any](ctx context.Context, l Launcher, body func(ctx context.Context, page Page) (T, error)) (T, error) {
	var zero T

	sess, err := l.Launch(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to start browser session: %w", err)
	}

	closeSession := sync.OnceValue(sess.Close)
	stop := context.AfterFunc(ctx, func() { _ = closeSession() })
	defer func() {
		stop()
		_ = closeSession()
	}()

	return body(ctx, sess.Page())
}

package dispatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Coordinator serializes booking attempts. At most maxSessions browser
// sessions run at once, and attempts for the same venue on the same calendar
// day never overlap.
type Coordinator struct {
	sessions *semaphore.Weighted

	mu    sync.Mutex
	slots map[slotKey]*slotLock
}

type slotKey struct {
	venue int
	day   string
}

type slotLock struct {
	ch   chan struct{}
	refs int
}

// NewCoordinator allows up to maxSessions concurrent attempts. Values below
// one mean one.
func NewCoordinator(maxSessions int) *Coordinator {
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &Coordinator{
		sessions: semaphore.NewWeighted(int64(maxSessions)),
		slots:    make(map[slotKey]*slotLock),
	}
}

// Acquire blocks until an attempt for venue on day may start. The slot lock
// is taken before a session permit so a queued request does not hold a permit
// while it waits. The returned release must be called exactly once.
func (c *Coordinator) Acquire(ctx context.Context, venue int, day time.Time) (release func(), err error) {
	key := slotKey{venue: venue, day: day.Format(time.DateOnly)}
	lock := c.ref(key)

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		c.unref(key)
		return nil, ctx.Err()
	}

	if err := c.sessions.Acquire(ctx, 1); err != nil {
		<-lock.ch
		c.unref(key)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.sessions.Release(1)
			<-lock.ch
			c.unref(key)
		})
	}, nil
}

// Pending returns the number of attempts holding or waiting for slot locks.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.slots {
		n += l.refs
	}
	return n
}

func (c *Coordinator) ref(key slotKey) *slotLock {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.slots[key]
	if !ok {
		l = &slotLock{ch: make(chan struct{}, 1)}
		c.slots[key] = l
	}
	l.refs++
	return l
}

func (c *Coordinator) unref(key slotKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.slots[key]
	l.refs--
	if l.refs == 0 {
		delete(c.slots, key)
	}
}

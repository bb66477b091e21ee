package booking

import (
	"context"
	"fmt"
	"time"
)

// Credentials is a portal login. The password never appears in formatted output.
type Credentials struct {
	Username string
	Password string
}

// String returns the username only.
func (c Credentials) String() string {
	return c.Username
}

// GoString keeps %#v from printing the password.
func (c Credentials) GoString() string {
	return fmt.Sprintf("booking.Credentials{Username: %q}", c.Username)
}

// Request is a validated booking request. Start is before End; the engine
// does not check this again and leaves any other rejection to the portal.
type Request struct {
	VenueID     int
	Start       time.Time
	End         time.Time
	Purpose     string
	UsageType   string
	Attendees   int
	Credentials Credentials
}

// Engine books one slot per call. Each call owns its own browser session.
type Engine interface {
	Book(ctx context.Context, req Request) (Outcome, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, req Request) (Outcome, error)

// Book calls f.
func (f EngineFunc) Book(ctx context.Context, req Request) (Outcome, error) {
	return f(ctx, req)
}

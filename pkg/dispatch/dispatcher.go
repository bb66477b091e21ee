// Package dispatch turns chat messages into booking requests and booking
// outcomes into replies.
//
// A Dispatcher authorizes the sender, validates the command, waits for the
// Coordinator, runs the engine under a deadline and renders the result. The
// engine is never invoked for a message that fails any check.
package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/fbsbot/pkg/booking"
	"github.com/entrhq/fbsbot/pkg/catalog"
	"github.com/entrhq/fbsbot/pkg/logging"
)

// Message is an inbound chat message.
type Message struct {
	UserID   int64
	Username string
	Text     string
}

// Reply is an outbound message. When Photo is set, Text is its caption.
type Reply struct {
	Text     string
	Markdown bool
	Photo    []byte
}

// Replier delivers replies to the sender of the message being handled.
type Replier interface {
	Reply(ctx context.Context, r Reply) error
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(ctx context.Context, r Reply) error

// Reply calls f.
func (f ReplierFunc) Reply(ctx context.Context, r Reply) error {
	return f(ctx, r)
}

// Authorizer maps chat users to portal credentials.
type Authorizer interface {
	Lookup(userID int64) (booking.Credentials, bool)
}

// Recorder observes dispatcher activity. Metrics implement it.
type Recorder interface {
	ObserveRejection(reason string)
	ObserveBooking(venue string, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRejection(string)                     {}
func (nopRecorder) ObserveBooking(string, string, time.Duration) {}

// Options configures a Dispatcher.
type Options struct {
	// Location is the time zone commands are written in
	Location *time.Location

	// UsageType is the catalog label applied to every booking
	UsageType string

	// Attendees is the head count entered on the form
	Attendees int

	// Timeout bounds one engine invocation; zero means no bound
	Timeout time.Duration

	// MaxSessions is the number of attempts allowed to run at once
	MaxSessions int
}

// Dispatcher handles chat messages.
type Dispatcher struct {
	engine   booking.Engine
	catalog  *catalog.Catalog
	users    Authorizer
	parser   *Parser
	coord    *Coordinator
	opts     Options
	logger   *logging.Logger
	recorder Recorder
	now      func() time.Time
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder reports rejections and attempts to r.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithLogger sets the dispatcher's logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a dispatcher.
func New(engine booking.Engine, cat *catalog.Catalog, users Authorizer, opts Options, options ...Option) *Dispatcher {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.UsageType == "" {
		opts.UsageType = catalog.DefaultUsageType
	}
	if opts.Attendees <= 0 {
		opts.Attendees = 2
	}

	d := &Dispatcher{
		engine:   engine,
		catalog:  cat,
		users:    users,
		parser:   NewParser(cat, opts.Location),
		coord:    NewCoordinator(opts.MaxSessions),
		opts:     opts,
		logger:   logging.Nop(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, o := range options {
		o(d)
	}
	return d
}

// Coordinator returns the dispatcher's serialization point.
func (d *Dispatcher) Coordinator() *Coordinator {
	return d.coord
}

// Handle processes one message. The returned error only reports a failure
// to deliver a reply; every other problem is answered in chat.
func (d *Dispatcher) Handle(ctx context.Context, msg Message, r Replier) error {
	username := msg.Username
	if username == "" {
		username = "Unknown user"
	}
	text := strings.TrimSpace(msg.Text)
	d.logger.Infof("Received message from user %s (ID: %d): %s", username, msg.UserID, text)

	if strings.HasPrefix(text, "/") {
		if command(text) == "/start" {
			return r.Reply(ctx, Reply{Text: startText, Markdown: true})
		}
		return nil
	}

	creds, ok := d.users.Lookup(msg.UserID)
	if !ok {
		d.logger.Warnf("Unauthorized access attempt from user %s (ID: %d)", username, msg.UserID)
		d.recorder.ObserveRejection("unauthorized")
		return r.Reply(ctx, Reply{Text: unauthorizedText})
	}

	cmd, err := d.parser.Parse(text, d.now().In(d.opts.Location))
	if err != nil {
		reply, reason := rejection(err, d.catalog.Names())
		d.logger.Infof("Rejected command from %s: %v", username, err)
		d.recorder.ObserveRejection(reason)
		return r.Reply(ctx, reply)
	}

	if err := r.Reply(ctx, Reply{Text: processingText}); err != nil {
		return err
	}

	req := booking.Request{
		VenueID:     cmd.Venue.ID,
		Start:       cmd.Start,
		End:         cmd.End,
		Purpose:     "Telegram booking by " + username,
		UsageType:   d.opts.UsageType,
		Attendees:   d.opts.Attendees,
		Credentials: creds,
	}
	return r.Reply(ctx, d.book(ctx, req, cmd.Venue.Name, username))
}

func (d *Dispatcher) book(ctx context.Context, req booking.Request, venue, username string) Reply {
	log := d.logger.With("attempt", uuid.NewString())

	release, err := d.coord.Acquire(ctx, req.VenueID, req.Start)
	if err != nil {
		log.Errorf("Gave up waiting for a booking slot for %s: %v", username, err)
		d.recorder.ObserveBooking(venue, "error", 0)
		return Reply{Text: unexpectedText}
	}
	defer release()

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	started := time.Now()
	outcome, err := d.engine.Book(ctx, req)
	elapsed := time.Since(started)
	if err != nil {
		log.Errorf("Booking failed for user %s: %v", username, err)
		d.recorder.ObserveBooking(venue, "error", elapsed)
		return Reply{Text: unexpectedText}
	}

	d.recorder.ObserveBooking(venue, string(outcome.Kind()), elapsed)
	switch o := outcome.(type) {
	case booking.Success:
		log.Infof("Booking successful for user %s. Reference: %s", username, o.Reference)
	default:
		log.Warnf("Booking failed for user %s: %s", username, outcome.Kind())
	}
	return RenderOutcome(outcome)
}

// command returns the bot command of text without arguments or @botname.
func command(text string) string {
	c, _, _ := strings.Cut(text, " ")
	c, _, _ = strings.Cut(c, "@")
	return strings.ToLower(c)
}

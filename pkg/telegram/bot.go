package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/entrhq/fbsbot/pkg/browser"
	"github.com/entrhq/fbsbot/pkg/dispatch"
	"github.com/entrhq/fbsbot/pkg/logging"
)

const (
	defaultPollTimeout = 30 * time.Second
	defaultRetryDelay  = time.Second
	replyTimeout       = 30 * time.Second

	// pollSlack is how much longer than a long poll an HTTP request may take
	pollSlack = 30 * time.Second
)

func effectivePollTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultPollTimeout
	}
	return d
}

// Handler consumes one chat message. dispatch.Dispatcher implements it.
type Handler interface {
	Handle(ctx context.Context, msg dispatch.Message, r dispatch.Replier) error
}

// Observer receives polling events. metrics.Metrics implements it.
type Observer interface {
	UpdateReceived()
	HandlingStarted()
	HandlingFinished()
}

type nopObserver struct{}

func (nopObserver) UpdateReceived()   {}
func (nopObserver) HandlingStarted()  {}
func (nopObserver) HandlingFinished() {}

// BotOptions tunes the polling loop.
type BotOptions struct {
	PollTimeout time.Duration
	RetryDelay  time.Duration
	Observer    Observer
	Logger      *logging.Logger
}

// Bot long-polls for updates and hands each text message to a Handler on
// its own goroutine.
type Bot struct {
	client      *Client
	handler     Handler
	pollTimeout time.Duration
	retryDelay  time.Duration
	observer    Observer
	logger      *logging.Logger
	wg          sync.WaitGroup
}

// NewBot wires a client to a handler.
func NewBot(client *Client, handler Handler, opts BotOptions) *Bot {
	b := &Bot{
		client:      client,
		handler:     handler,
		pollTimeout: effectivePollTimeout(opts.PollTimeout),
		retryDelay:  opts.RetryDelay,
		observer:    opts.Observer,
		logger:      opts.Logger,
	}
	if b.retryDelay <= 0 {
		b.retryDelay = defaultRetryDelay
	}
	if b.observer == nil {
		b.observer = nopObserver{}
	}
	if b.logger == nil {
		b.logger = logging.Nop()
	}
	return b
}

// Run polls until ctx is cancelled, then waits for in-flight handlers.
// It fails only when the token is rejected at startup.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return err
	}
	b.logger.Infof("Polling as @%s", me.Username)

	defer b.wg.Wait()

	var offset int64
	for {
		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logger.Warnf("getUpdates failed: %v", err)
			if browser.Sleep(ctx, b.retryDelay) != nil {
				return nil
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.observer.UpdateReceived()

			msg := u.Message
			if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
				continue
			}

			b.wg.Add(1)
			go func(msg *Message) {
				defer b.wg.Done()
				b.handle(ctx, msg)
			}(msg)
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg *Message) {
	b.observer.HandlingStarted()
	defer b.observer.HandlingFinished()

	in := dispatch.Message{
		UserID:   msg.From.ID,
		Username: msg.From.Username,
		Text:     msg.Text,
	}
	r := &chatReplier{client: b.client, chatID: msg.Chat.ID}

	if err := b.handler.Handle(ctx, in, r); err != nil {
		b.logger.Errorf("Handling message from %d failed: %v", msg.From.ID, err)
	}
}

// chatReplier answers into one chat. Replies outlive ctx cancellation so a
// shutdown still tells the user what happened.
type chatReplier struct {
	client *Client
	chatID int64
}

func (c *chatReplier) Reply(ctx context.Context, r dispatch.Reply) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
	defer cancel()

	opts := SendOptions{}
	if r.Markdown {
		opts.ParseMode = "Markdown"
	}
	if len(r.Photo) > 0 {
		return c.client.SendPhoto(ctx, c.chatID, r.Photo, r.Text, opts)
	}
	return c.client.SendMessage(ctx, c.chatID, r.Text, opts)
}

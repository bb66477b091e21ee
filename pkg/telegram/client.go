// Package telegram is a minimal Telegram Bot API client and the long-polling
// loop that feeds chat messages to the dispatcher.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// User is a Telegram account.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat is a conversation.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      *Chat  `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
}

// Update is one item from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// APIError is an unsuccessful Bot API response.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed (%d): %s", e.Method, e.Code, e.Description)
}

type response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// Client calls the Bot API for one bot token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithAPIURL points the client at another Bot API server. Empty keeps the default.
func WithAPIURL(base string) ClientOption {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithPollTimeout sizes the HTTP timeout to outlast long polls of d. Zero
// or negative d means the bot's default poll timeout.
func WithPollTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http = &http.Client{Timeout: effectivePollTimeout(d) + pollSlack}
	}
}

// WithHTTPClient replaces the HTTP client. Its timeout must exceed the poll timeout.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultAPIURL,
		token:   token,
		http:    &http.Client{Timeout: defaultPollTimeout + pollSlack},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// call posts body with contentType and decodes the result into out.
func (c *Client) call(ctx context.Context, method, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		// the URL carries the token; keep it out of the error
		return fmt.Errorf("telegram %s request failed: %w", method, unwrapURLError(err))
	}
	defer resp.Body.Close()

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("failed to decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !r.OK {
		return &APIError{Method: method, Code: r.ErrorCode, Description: r.Description}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(r.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) callJSON(ctx context.Context, method string, params interface{}, out interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode %s params: %w", method, err)
	}
	return c.call(ctx, method, "application/json", bytes.NewReader(body), out)
}

// GetMe returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.callJSON(ctx, "getMe", struct{}{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for message updates with update_id >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := struct {
		Offset         int64    `json:"offset,omitempty"`
		Timeout        int      `json:"timeout"`
		AllowedUpdates []string `json:"allowed_updates"`
	}{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: []string{"message"},
	}

	var updates []Update
	if err := c.callJSON(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendOptions are optional message parameters.
type SendOptions struct {
	ParseMode string
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) error {
	params := struct {
		ChatID    int64  `json:"chat_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode,omitempty"`
	}{
		ChatID:    chatID,
		Text:      text,
		ParseMode: opts.ParseMode,
	}
	return c.callJSON(ctx, "sendMessage", params, nil)
}

// SendPhoto uploads a PNG with an optional caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string, opts SendOptions) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fields := map[string]string{
		"chat_id": strconv.FormatInt(chatID, 10),
	}
	if caption != "" {
		fields["caption"] = caption
	}
	if opts.ParseMode != "" {
		fields["parse_mode"] = opts.ParseMode
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write %s field: %w", k, err)
		}
	}

	part, err := w.CreateFormFile("photo", "booking.png")
	if err != nil {
		return fmt.Errorf("failed to create photo part: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return fmt.Errorf("failed to write photo: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return c.call(ctx, "sendPhoto", w.FormDataContentType(), &body, nil)
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

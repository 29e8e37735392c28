// Package api implements the HTTP client for the remote todo service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// genericFailure is the fallback error message when a failed response carries
// no usable body.
const genericFailure = "request failed"

// Notifier receives user-visible notifications. The TUI surfaces them as
// toasts; the CLI prints them to stderr.
type Notifier interface {
	Notify(message string, isError bool)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(string, bool) {}

// RequestError describes a failed request: a network failure (StatusCode 0)
// or a non-2xx response. Message carries the server's error field, message
// field, or raw body, in that priority order.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Client issues requests against the todo service.
type Client struct {
	baseURL string
	httpc   *http.Client
	notify  Notifier
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpc = hc
	}
}

// WithNotifier sets the notifier for user-visible failure messages.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notify = n
		}
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		notify:  NopNotifier{},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetNotifier replaces the failure notifier. The TUI installs its toast
// channel after the client is constructed.
func (c *Client) SetNotifier(n Notifier) {
	if n == nil {
		c.notify = NopNotifier{}
		return
	}
	c.notify = n
}

// Request issues an HTTP call and returns the response payload as raw JSON.
//
// A non-nil body is serialized as JSON. JSON responses are parsed; any other
// content type is treated as opaque text and returned as a JSON string. When
// the parsed body is an object with a "data" key, that key's value is returned
// in its place (envelope unwrapping). Failures are logged, surfaced through
// the notifier, and returned as *RequestError so callers can abort dependent
// state mutations.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		reqErr := &RequestError{Message: err.Error()}
		c.fail(method, path, reqErr)
		return nil, reqErr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		reqErr := &RequestError{StatusCode: resp.StatusCode, Message: err.Error()}
		c.fail(method, path, reqErr)
		return nil, reqErr
	}

	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &RequestError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody, isJSON),
		}
		c.fail(method, path, reqErr)
		return nil, reqErr
	}

	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("request")

	if !isJSON {
		text, err := json.Marshal(string(respBody))
		if err != nil {
			return nil, fmt.Errorf("encoding text response: %w", err)
		}
		return text, nil
	}

	return unwrapEnvelope(respBody), nil
}

// unwrapEnvelope returns the "data" field when the payload is an object that
// carries one, and the payload itself otherwise.
func unwrapEnvelope(payload []byte) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return payload
	}
	if data, ok := envelope["data"]; ok {
		return data
	}
	return payload
}

// errorMessage extracts a failure message from a response body: the "error"
// field, then the "message" field, then the raw body, then a generic fallback.
func errorMessage(body []byte, isJSON bool) string {
	if isJSON {
		var parsed struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &parsed); err == nil {
			if parsed.Error != "" {
				return parsed.Error
			}
			if parsed.Message != "" {
				return parsed.Message
			}
		}
		var text string
		if err := json.Unmarshal(body, &text); err == nil && text != "" {
			return text
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return genericFailure
}

func (c *Client) fail(method, path string, err *RequestError) {
	c.log.Error().Str("method", method).Str("path", path).Int("status", err.StatusCode).Msg(err.Message)
	c.notify.Notify(err.Message, true)
}

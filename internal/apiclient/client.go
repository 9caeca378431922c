// Package apiclient is the single outbound channel to the content service.
// Every call reads the current credential from a TokenSource and attaches
// it as a bearer token when present. Nothing here retries.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds a single request. A timeout surfaces exactly
	// like any other transport failure.
	DefaultTimeout = 10 * time.Second

	requestIDHeader = "X-Request-Id"
)

var (
	// ErrUnexpectedPayload marks a response whose transport succeeded but
	// whose body is missing an expected field or container.
	ErrUnexpectedPayload = errors.New("apiclient: unexpected payload")
	// ErrNoToken is returned when login succeeds without a credential.
	ErrNoToken = errors.New("apiclient: no token received")
	// ErrMissingSchedule is returned when a schedule call has no target time.
	ErrMissingSchedule = errors.New("apiclient: scheduled time is required")
)

// TokenSource supplies the current bearer credential ("" when logged out).
type TokenSource interface {
	Token() string
}

// APIError represents a non-success HTTP response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client calls the content service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger routes request diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New constructs a client for baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("apiclient: build %s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			"method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("request completed",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(started))

	if resp.StatusCode >= 400 {
		apiErr := decodeAPIError(resp)
		c.logger.Warn("request rejected",
			"method", method, "path", path, "status", resp.StatusCode,
			"request_id", requestID, "message", apiErr.Message)
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s %s returned an empty body", ErrUnexpectedPayload, method, path)
		}
		return fmt.Errorf("%w: %s %s: %v", ErrUnexpectedPayload, method, path, err)
	}
	return nil
}

// decodeAPIError prefers FastAPI's "detail", then "error", then the status line.
func decodeAPIError(resp *http.Response) *APIError {
	var errResp struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errResp)
	msg := ""
	if len(errResp.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
			msg = strings.TrimSpace(detail)
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(errResp.Error)
	}
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func shapeError(op, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrUnexpectedPayload, op, detail)
}

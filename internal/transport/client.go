// Package transport performs single authenticated HTTP exchanges against the
// backend and normalizes their outcomes into the shared error taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkarelin/docforge/internal/errs"
	"github.com/mkarelin/docforge/internal/session"
)

// Result is the normalized outcome of a successful exchange.
type Result struct {
	// Body holds the raw JSON payload for 2xx responses with a body.
	Body json.RawMessage
	// Blob holds the raw bytes when the call was made with Binary().
	Blob []byte
	// NoContent is set for HTTP 204, distinct from a null JSON body.
	NoContent bool
}

type callOptions struct {
	unauthenticated bool
	binary          bool
}

// CallOption adjusts a single exchange.
type CallOption func(*callOptions)

// Unauthenticated skips the bearer header; used by register/login.
func Unauthenticated() CallOption {
	return func(o *callOptions) { o.unauthenticated = true }
}

// Binary returns the raw response bytes instead of parsed JSON; used by export.
func Binary() CallOption {
	return func(o *callOptions) { o.binary = true }
}

// Client issues authenticated requests. Every call is single-attempt: no
// retries, no backoff; a retry is always a fresh user-triggered action.
type Client struct {
	baseURL   string
	http      *http.Client
	store     session.Store
	log       *zap.Logger
	onExpired func()
	timeout   time.Duration
}

// ClientOption configures a Client at construction.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds each exchange end to end. It applies to the final
// *http.Client, regardless of ordering relative to WithHTTPClient.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithSessionExpiredHook registers a callback fired when a 401 terminates the
// session, after the token has been cleared. The view layer uses it to force
// navigation back to login.
func WithSessionExpiredHook(fn func()) ClientOption {
	return func(c *Client) { c.onExpired = fn }
}

// New builds a Client for the given base URL and credential store.
func New(baseURL string, store session.Store, log *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		store:   store,
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 {
		c.http.Timeout = c.timeout
	}
	return c
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Do performs one exchange. The body, when non-nil, is sent as JSON. Outcomes
// map onto the errs sentinels: 401 clears the token and fires the expiry hook,
// 404 maps to ErrNotFound, other non-2xx to ErrRequestFailed with the server
// detail, and network failures to ErrTransport.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...CallOption) (*Result, error) {
	var o callOptions
	for _, fn := range opts {
		fn(&o)
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !o.unauthenticated {
		if tok, ok := c.store.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed before response",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %s %s: %v", errs.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("http",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// Hard session termination, not a retryable failure.
		if err := c.store.Clear(); err != nil {
			c.log.Warn("clearing token after 401", zap.Error(err))
		}
		if c.onExpired != nil {
			c.onExpired()
		}
		return nil, fmt.Errorf("%w: %s %s", errs.ErrUnauthorized, method, path)

	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, serverDetail(resp.Body, path))

	case resp.StatusCode == http.StatusNoContent:
		return &Result{NoContent: true}, nil

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s (status %d)",
			errs.ErrRequestFailed, serverDetail(resp.Body, "request failed"), resp.StatusCode)
	}

	if o.binary {
		blob, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: reading binary payload: %v", errs.ErrTransport, err)
		}
		return &Result{Blob: blob}, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", errs.ErrTransport, err)
	}
	return &Result{Body: raw}, nil
}

// GetJSON issues a GET and decodes the payload into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	res, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(res, path, out)
}

// PostJSON issues a POST and, when out is non-nil, decodes the payload into it.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	res, err := c.Do(ctx, http.MethodPost, path, body, opts...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(res, path, out)
}

// Delete issues a DELETE; a 204 is the expected success.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil)
	return err
}

// GetBinary issues a GET for a binary payload.
func (c *Client) GetBinary(ctx context.Context, path string) ([]byte, error) {
	res, err := c.Do(ctx, http.MethodGet, path, nil, Binary())
	if err != nil {
		return nil, err
	}
	return res.Blob, nil
}

func decode(res *Result, path string, out any) error {
	if res.NoContent || len(res.Body) == 0 {
		return fmt.Errorf("%w: empty response for %s", errs.ErrRequestFailed, path)
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return fmt.Errorf("%w: decoding response for %s: %v", errs.ErrRequestFailed, path, err)
	}
	return nil
}

// serverDetail extracts the backend's {"detail": ...} message, falling back
// when the body is absent or not JSON.
func serverDetail(r io.Reader, fallback string) string {
	b, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(b) == 0 {
		return fallback
	}
	var eb errorBody
	if json.Unmarshal(b, &eb) == nil && eb.Detail != "" {
		return eb.Detail
	}
	return fallback
}

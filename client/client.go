// Package client implements the core HTTP client shared by the Bonsai
// service clients: request plumbing, retries with jittered backoff,
// pluggable authentication and a typed error taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/mhkc/bonsai-libs/version"
)

const (
	defaultTimeout        = 5 * time.Second
	defaultRetries        = 2
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 500 * time.Millisecond
	maxErrorBodySize      = 4096
)

// Client is the reusable HTTP core the per-service clients are built
// on. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	userAgent  string
	logger     *slog.Logger

	maxRetries     uint64
	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu   sync.RWMutex
	auth Auth

	newRequestID func() string
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
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

// WithAuth installs an authentication strategy.
func WithAuth(a Auth) Option {
	return func(c *Client) { c.auth = a }
}

// WithHeader adds a default header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithRetry configures the retry budget and backoff window.
func WithRetry(maxRetries uint64, initial, max time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		if initial > 0 {
			c.initialBackoff = initial
		}
		if max > 0 {
			c.maxBackoff = max
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New constructs a Client pointing at the provided service base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, errors.New("base url must not be empty")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c := &Client{
		baseURL:        strings.TrimRight(trimmed, "/"),
		httpClient:     &http.Client{Timeout: defaultTimeout},
		headers:        http.Header{},
		userAgent:      version.UserAgent(),
		logger:         slog.Default(),
		maxRetries:     defaultRetries,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		newRequestID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// SetAuth swaps the authentication strategy, e.g. after a login call.
func (c *Client) SetAuth(a Auth) {
	c.mu.Lock()
	c.auth = a
	c.mu.Unlock()
}

func (c *Client) currentAuth() Auth {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, "", nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	payload, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, "application/json", payload, out)
}

// PostForm performs a POST request with a form-encoded body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	payload := []byte(form.Encode())
	return c.do(ctx, http.MethodPost, path, nil, "application/x-www-form-urlencoded", payload, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	payload, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, nil, "application/json", payload, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", nil, nil)
}

func encodeJSON(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return payload, nil
}

// do runs a request with retries. Network errors, timeouts, 429 and
// 5xx responses are retried with exponential backoff and jitter; other
// 4xx responses fail immediately. A 401 triggers at most one forced
// auth refresh followed by a replay.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, payload []byte, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	didForceRefresh := false
	attempt := 0

	operation := func() error {
		attempt++
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		for key, values := range c.headers {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", c.newRequestID())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		auth := c.currentAuth()
		if auth != nil {
			authHeaders, err := auth.Headers(ctx)
			if err != nil {
				// Token fetch failures are usually transient; let the
				// retry budget decide.
				return &transportError{err: fmt.Errorf("auth headers: %w", err)}
			}
			for key, values := range authHeaders {
				for _, v := range values {
					req.Header.Set(key, v)
				}
			}
		}

		c.logger.DebugContext(ctx, "api request", "method", method, "url", endpoint, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.DebugContext(ctx, "api request attempt failed", "method", method, "url", endpoint, "attempt", attempt, "error", err)
			return &transportError{err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized && auth != nil && !didForceRefresh {
			didForceRefresh = true
			c.logger.WarnContext(ctx, "401 received, attempting token refresh and replay", "url", endpoint)
			changed, refreshErr := auth.ForceRefresh(ctx)
			if refreshErr != nil {
				return backoff.Permanent(fmt.Errorf("token refresh failed: %w: %v", ErrUnauthorized, refreshErr))
			}
			if changed {
				return &transportError{err: errors.New("replaying request with refreshed credentials")}
			}
			return backoff.Permanent(c.errorFromResponse(resp))
		}

		if resp.StatusCode >= http.StatusBadRequest {
			apiErr := c.errorFromResponse(resp)
			if retryableStatus(resp.StatusCode) {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.MaxInterval = c.maxBackoff
	bo.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx))
	if err == nil {
		return nil
	}
	var tErr *transportError
	if errors.As(err, &tErr) {
		return fmt.Errorf("%w: %s %s: %v", ErrExhausted, method, endpoint, tErr.err)
	}
	return err
}

// transportError marks failures that never produced a usable response,
// so that exhausted retries surface as ErrExhausted.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

// retryableStatus reports whether a response status is worth retrying.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// errorFromResponse builds an APIError from an error response, reading
// at most maxErrorBodySize bytes of the body.
func (c *Client) errorFromResponse(resp *http.Response) *APIError {
	buf, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	body := strings.TrimSpace(string(buf))
	return &APIError{
		Status:  resp.StatusCode,
		Message: extractErrorMessage(body),
		Body:    body,
	}
}

// extractErrorMessage pulls a human-readable message out of an error
// body. Bonsai services answer with {"detail": ...}; some older ones
// use {"error": ...}.
func extractErrorMessage(body string) string {
	if body == "" {
		return ""
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return body
	}
	if payload.Error != "" {
		return payload.Error
	}
	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			return detail
		}
		return strings.TrimSpace(string(payload.Detail))
	}
	return body
}

package sheetrows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// Client is the row operations client
type Client struct {
	config Config
	http   *http.Client
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// New creates a new client with the given configuration. A nil config uses
// DefaultConfig.
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := config.withDefaults()

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: cfg.RequestTimeout}
	}

	httpClient := base
	ts := cfg.TokenSource
	if ts == nil && cfg.AccessToken != "" {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
	}
	if ts != nil {
		transport := base.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		httpClient = &http.Client{
			Timeout:       base.Timeout,
			CheckRedirect: base.CheckRedirect,
			Jar:           base.Jar,
			Transport:     &oauth2.Transport{Source: ts, Base: transport},
		}
	}

	return &Client{
		config: cfg,
		http:   httpClient,
		logger: cfg.Logger,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Close releases idle connections. Calls made after Close fail with
// ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// do sends a request and decodes a successful body into out. in is
// marshaled once so retries resend identical bytes.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) (*Response, error) {
	if c.isClosed() {
		return nil, ErrClientClosed
	}

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	requestID := uuid.NewString()

	var resp *Response
	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		resp, body, err = c.send(ctx, method, path, payload, requestID)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if !apiErr.retryable(method) {
				return backoff.Permanent(err)
			}
			return err
		}
		// transport errors leave the outcome unknown
		if !idempotent(method) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.RetryInterval
	policy.MaxInterval = 20 * c.config.RetryInterval
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying request",
			"method", method,
			"path", path,
			"attempt", attempt,
			"wait", wait,
			"request_id", requestID,
			"error", err)
	}

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.config.MaxRetries)), ctx),
		notify)
	if err != nil {
		if attempt > 1 {
			return resp, fmt.Errorf("failed after %d attempts: %w", attempt, err)
		}
		return resp, err
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp, nil
}

// send performs one HTTP exchange. Non-2xx statuses become *APIError.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, requestID string) (*Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	httpResp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error("http request failed",
			"method", method,
			"path", path,
			"duration", duration,
			"request_id", requestID,
			"error", err)
		return nil, nil, fmt.Errorf("http request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		RequestID:  requestID,
		Header:     httpResp.Header,
	}
	if id := httpResp.Header.Get(RequestIDHeader); id != "" {
		resp.RequestID = id
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", httpResp.StatusCode,
		"duration", duration,
		"request_id", resp.RequestID)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: httpResp.StatusCode, RequestID: resp.RequestID}
		if err := json.Unmarshal(body, &apiErr.ErrorDetail); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(httpResp.StatusCode)
		}
		return resp, body, apiErr
	}

	return resp, body, nil
}

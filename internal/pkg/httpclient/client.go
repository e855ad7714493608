// Package httpclient provides a shared JSON-over-HTTP client with retry and
// rate limiting for the keeper's off-chain data sources.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/archon-research/keeper/internal/pkg/retry"
)

// ErrRateLimited is returned for HTTP 429 responses.
var ErrRateLimited = errors.New("rate limited (HTTP 429)")

// Config holds the configuration for the HTTP client.
type Config struct {
	Timeout   time.Duration
	Retry     retry.Policy
	RateLimit rate.Limit
	RateBurst int
}

// DefaultConfig returns sensible defaults for the HTTP client.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		Retry:     retry.Exponential(3, time.Second, 30*time.Second),
		RateLimit: rate.Limit(5),
		RateBurst: 1,
	}
}

// Request describes one JSON request.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is JSON encoded when non-nil.
	Body any
	// Retry overrides the client's policy for this request.
	Retry *retry.Policy
}

// ErrorParser parses API-specific error responses.
// It returns an error if the response body contains an API error, or nil if no error.
type ErrorParser func(statusCode int, body []byte) error

// Client wraps an HTTP client with retry logic and rate limiting.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	policy      retry.Policy
	logger      *slog.Logger
	errorParser ErrorParser
}

// NewClient creates a new HTTP client with the given configuration.
func NewClient(cfg Config, logger *slog.Logger, errorParser ErrorParser) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if errorParser == nil {
		errorParser = func(_ int, _ []byte) error { return nil }
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = rate.Inf
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(cfg.RateLimit, cfg.RateBurst),
		policy:      cfg.Retry,
		logger:      logger,
		errorParser: errorParser,
	}
}

// Get performs a GET request and decodes the JSON response into result.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, result any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url, Headers: headers}, result)
}

// PostJSON posts body as JSON and decodes the JSON response into result.
func (c *Client) PostJSON(ctx context.Context, url string, body, result any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: url, Body: body}, result)
}

// Do performs the request under the retry policy and rate limiter.
// Transport failures, 429 and 5xx responses are retried; other 4xx responses
// and undecodable bodies are not.
func (c *Client) Do(ctx context.Context, req Request, result any) error {
	policy := c.policy
	if req.Retry != nil {
		policy = *req.Retry
	}

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	onRetry := func(attempt int, err error, backoff time.Duration) {
		c.logger.Warn("request failed, retrying",
			"url", req.URL,
			"attempt", attempt,
			"maxRetries", policy.MaxRetries,
			"backoff", backoff,
			"error", err,
		)
	}

	return retry.DoVoid(ctx, policy, IsRetryable, onRetry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return WrapNonRetryable(fmt.Errorf("rate limiter: %w", err))
		}
		return c.doSingleRequest(ctx, req, payload, result)
	})
}

func (c *Client) doSingleRequest(ctx context.Context, req Request, payload []byte, result any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return WrapNonRetryable(fmt.Errorf("creating request: %w", err))
	}

	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error (HTTP %d)", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		if apiErr := c.errorParser(resp.StatusCode, respBody); apiErr != nil {
			return WrapNonRetryable(apiErr)
		}
		return WrapNonRetryable(fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, string(respBody)))
	}

	if apiErr := c.errorParser(resp.StatusCode, respBody); apiErr != nil {
		return apiErr
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return WrapNonRetryable(fmt.Errorf("parsing response: %w", err))
	}

	return nil
}

// NonRetryableError wraps errors that should not be retried.
type NonRetryableError struct {
	err error
}

func (e *NonRetryableError) Error() string {
	return e.err.Error()
}

func (e *NonRetryableError) Unwrap() error {
	return e.err
}

// WrapNonRetryable wraps an error to indicate it should not be retried.
func WrapNonRetryable(err error) error {
	return &NonRetryableError{err: err}
}

// IsRetryable reports whether err may succeed on another attempt.
func IsRetryable(err error) bool {
	var nonRetryable *NonRetryableError
	return !errors.As(err, &nonRetryable)
}

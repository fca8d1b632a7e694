// Package httpclient provides an HTTP client with retry logic shared by the
// registry client and the file downloader.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Error variables for HTTP client errors
var (
	// ErrMaxRetriesExceeded is returned when all retry attempts have failed
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrRequestTimeout is returned when a request times out
	ErrRequestTimeout = errors.New("request timeout")
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int
	// BaseDelay is the initial delay before first retry (default: 1s)
	BaseDelay time.Duration
	// MaxDelay is the maximum delay between retries (default: 4s)
	MaxDelay time.Duration
	// Timeout is the timeout for each individual request (default: 5m).
	// Downloads share this client so the default is generous.
	Timeout time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
// Uses exponential backoff with delays of 1s, 2s, 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   4 * time.Second,
		Timeout:    5 * time.Minute,
	}
}

// Client wraps an HTTP client with retry logic.
// It implements exponential backoff for failed requests and is safe for
// concurrent use.
type Client struct {
	client *http.Client
	config RetryConfig
	// delayFunc replaces the backoff wait in tests; nil waits on a timer
	delayFunc func(time.Duration)
	// mu guards recordedDelays
	mu             sync.Mutex
	recordedDelays []time.Duration
	// headers are applied to every request unless already set
	headers map[string]string
}

// New creates a new HTTP client with the default retry configuration.
func New() *Client {
	return NewWithConfig(DefaultRetryConfig())
}

// NewWithConfig creates a new HTTP client with custom retry configuration.
func NewWithConfig(config RetryConfig) *Client {
	return &Client{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		config:  config,
		headers: make(map[string]string),
	}
}

// SetHTTPClient sets a custom underlying HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.client = client
}

// SetDelayFunc sets a custom delay function (useful for testing).
// The function receives the delay duration that would normally be slept.
func (c *Client) SetDelayFunc(fn func(time.Duration)) {
	c.delayFunc = fn
}

// SetUserAgent sets the User-Agent header sent with every request.
func (c *Client) SetUserAgent(ua string) {
	c.SetHeader("User-Agent", ua)
}

// SetHeader sets a default header applied to all requests.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// RecordedDelays returns the backoff delays applied so far.
func (c *Client) RecordedDelays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.recordedDelays...)
}

func (c *Client) recordDelay(d time.Duration) {
	c.mu.Lock()
	c.recordedDelays = append(c.recordedDelays, d)
	c.mu.Unlock()
}

// Do executes an HTTP request with retry logic.
// It retries on network errors, 429 and 5xx responses with exponential
// backoff. The request context is honoured between attempts.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := c.calculateDelay(attempt)
			c.recordDelay(delay)
			if err := c.wait(ctx, delay); err != nil {
				return nil, err
			}
		}

		reqCopy := req.Clone(ctx)
		for key, value := range c.headers {
			if reqCopy.Header.Get(key) == "" {
				reqCopy.Header.Set(key, value)
			}
		}

		resp, err := c.client.Do(reqCopy)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if isTimeoutError(err) {
				lastErr = fmt.Errorf("%w: %v", ErrRequestTimeout, err)
			}
			continue
		}

		if shouldRetry(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
	}
	return nil, ErrMaxRetriesExceeded
}

// wait blocks for d or until ctx is done.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if c.delayFunc != nil {
		c.delayFunc(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Get performs an HTTP GET request with retry logic.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// calculateDelay calculates the delay for a given retry attempt.
// delay = baseDelay * 2^(attempt-1), capped at MaxDelay
func (c *Client) calculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	multiplier := 1 << (attempt - 1)
	delay := c.config.BaseDelay * time.Duration(multiplier)

	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}

	return delay
}

// shouldRetry reports whether a response status is worth another attempt.
func shouldRetry(statusCode int) bool {
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	return statusCode == http.StatusTooManyRequests
}

// isTimeoutError checks if an error is a timeout error.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	type timeoutError interface {
		Timeout() bool
	}
	var te timeoutError
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}

// Config returns the current retry configuration.
func (c *Client) Config() RetryConfig {
	return c.config
}

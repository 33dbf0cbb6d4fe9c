package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vantage-quant/vantage/pkg/logger"
)

// Client is an HTTP client with rate limiting and retry on transient
// failures. Upstream data providers throttle aggressively, so every
// outbound request goes through the shared limiter.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	log        *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBaseDelay sets the initial backoff delay.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

// NewClient creates a rate-limited HTTP client. rps is the sustained
// requests-per-second allowance shared across all callers.
func NewClient(timeout time.Duration, rps float64, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request, waiting on the rate limiter first and
// retrying with exponential backoff on 429 and 5xx responses.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.baseDelay) * math.Pow(2, float64(attempt-1)))
			c.log.WithFields(map[string]interface{}{
				"attempt": attempt,
				"delay":   delay.String(),
				"url":     req.URL.Host,
			}).Debug("retrying request")

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("httputil: rate limit wait: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if !isRetryable(resp.StatusCode) {
			return resp, nil
		}

		lastErr = fmt.Errorf("httputil: status %d from %s", resp.StatusCode, req.URL.Host)
		resp.Body.Close()
	}

	return nil, fmt.Errorf("httputil: all %d attempts failed: %w", c.maxRetries+1, lastErr)
}

// GetBody fetches url and returns the response body. Non-2xx statuses
// after retries are errors.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httputil: build request: %w", err)
	}
	req.Header.Set("User-Agent", "vantage/1.0")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("httputil: unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httputil: read body: %w", err)
	}
	return body, nil
}

func isRetryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

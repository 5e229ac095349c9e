package provider

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/naoka/internal/cache"
	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/ratelimit"
)

const (
	defaultMaxAttempts = 3
	defaultTimeout     = 30 * time.Second
	userAgent          = "naoka/1.0 (+https://github.com/lepinkainen/naoka)"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client performs rate-limited JSON requests against one remote catalog and
// reports failures as RemoteFetchError.
type Client struct {
	provider      string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	retryAttempts int
	pageCache     bool
	sleep         func(context.Context, time.Duration) error
}

// NewClient creates a client for provider. Without options it allows one
// request per second.
func NewClient(provider string, opts ...Option) *Client {
	client := &Client{
		provider:      provider,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		rateLimiter:   ratelimit.New(provider, 1),
		retryAttempts: defaultMaxAttempts,
		sleep:         sleepContext,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithRetryAttempts sets the number of attempts for retryable failures.
func WithRetryAttempts(attempts int) Option {
	return func(client *Client) {
		if attempts > 0 {
			client.retryAttempts = attempts
		}
	}
}

// WithRateLimiter sets a custom rate limiter for the client.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

// WithPageCache stores fetched pages in the page cache under the client's
// provider code.
func WithPageCache() Option {
	return func(client *Client) {
		client.pageCache = true
	}
}

// Provider returns the provider name used in errors and logs.
func (c *Client) Provider() string {
	return c.provider
}

// GetJSON fetches endpoint and decodes the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, endpoint string, target any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, target)
}

// PostJSON sends body as JSON to endpoint and decodes the response into target.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, payload, target)
}

// Cached runs fetch through the client's page cache when one is configured.
// Only successful fetches are stored.
func Cached[T any](c *Client, key string, fetch func() (T, error)) (T, error) {
	if !c.pageCache {
		return fetch()
	}
	value, fromCache, err := cache.GetOrFetch(c.provider, key, cache.FetchFunc[T](fetch))
	if fromCache {
		slog.Debug("Page served from cache", "provider", c.provider, "key", key)
	}
	return value, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, target any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		retryAfter, err := c.doJSONRequest(ctx, method, endpoint, payload, target)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == c.retryAttempts || ctx.Err() != nil {
			break
		}

		delay := backoffDelay(attempt)
		if retryAfter > delay {
			delay = retryAfter
		}
		slog.Warn("Retrying request", "provider", c.provider, "url", endpoint, "attempt", attempt, "delay", delay, "error", err)
		if err := c.sleep(ctx, delay); err != nil {
			break
		}
	}
	return lastErr
}

func (c *Client) doJSONRequest(ctx context.Context, method, endpoint string, payload []byte, target any) (time.Duration, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, errors.NewRemoteFetchError(c.provider, endpoint, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.NewRemoteFetchError(c.provider, endpoint, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		fetchErr := errors.NewRemoteFetchError(c.provider, endpoint, resp.StatusCode,
			fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))))
		fetchErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return fetchErr.RetryAfter, fetchErr
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return 0, errors.NewRemoteFetchError(c.provider, endpoint, resp.StatusCode,
			fmt.Errorf("failed to decode response: %w", err))
	}
	return 0, nil
}

func isRetryable(err error) bool {
	var fetchErr *errors.RemoteFetchError
	if !stdErrors.As(err, &fetchErr) {
		return false
	}

	switch {
	case fetchErr.StatusCode == http.StatusTooManyRequests:
		return true
	case fetchErr.StatusCode >= 500:
		return true
	case fetchErr.StatusCode != 0:
		return false
	}

	var urlErr *url.Error
	if stdErrors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		// Network errors (connection resets etc.)
		if strings.Contains(urlErr.Error(), "connection") {
			return true
		}
	}
	return false
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func backoffDelay(attempt int) time.Duration {
	// exponential backoff capped at 10 seconds
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > 10*time.Second {
		return 10 * time.Second
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

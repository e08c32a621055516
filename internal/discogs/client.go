package discogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"phonodex/internal/logging"
	"phonodex/internal/ratelimit"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultMaxRetries  = 3
	defaultRetryDelay  = 2 * time.Second
)

// StatusError reports a non-2xx response from the search endpoint.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discogs search returned HTTP %d", e.StatusCode)
}

// Searcher defines the search operation the resolver depends on.
type Searcher interface {
	Search(ctx context.Context, query string) (*SearchResponse, ratelimit.Snapshot, error)
}

// Client provides rate-limited access to the Discogs search API.
type Client struct {
	token      string
	searchURL  string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetries overrides the retry bound and delay between attempts.
func WithRetries(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// WithSleep overrides the inter-retry sleep, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New creates a search client. The limiter is consulted before every request
// and updated from every response.
func New(token, searchURL string, limiter *ratelimit.Limiter, logger *slog.Logger, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("discogs token required")
	}
	searchURL = strings.TrimSpace(searchURL)
	if searchURL == "" {
		return nil, errors.New("discogs search url required")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter required")
	}
	client := &Client{
		token:      token,
		searchURL:  searchURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    limiter,
		logger:     logging.NewComponentLogger(logger, "discogs"),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		sleep:      sleepWithContext,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search runs one release search. It returns the decoded payload and the
// rate-limit snapshot taken from the final response's headers. Retries are
// bounded; after the bound the last error is returned.
func (c *Client) Search(ctx context.Context, query string) (*SearchResponse, ratelimit.Snapshot, error) {
	endpoint, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, ratelimit.Snapshot{}, fmt.Errorf("parse search url: %w", err)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("token", c.token)
	params.Set("type", "release")
	endpoint.RawQuery = params.Encode()

	logger := c.logger.With(logging.String(logging.FieldCorrelationID, uuid.NewString()))

	var lastErr error
	var lastSnap ratelimit.Snapshot
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, lastSnap, err
		}

		payload, snap, err := c.searchOnce(ctx, endpoint.String(), logger)
		if err == nil {
			logger.Debug("search results received",
				logging.String("query", query),
				logging.Int("results", len(payload.Results)),
				logging.Int("total_items", payload.Pagination.Items),
				logging.Int("per_page", payload.Pagination.PerPage),
				logging.Int("page", payload.Pagination.Page))
			return payload, snap, nil
		}
		lastErr = err
		lastSnap = snap

		delay, retry := c.retryDecision(err, attempt)
		if !retry {
			return nil, lastSnap, err
		}
		logger.Debug("retrying search",
			logging.Int("attempt", attempt),
			logging.Int("max_retries", c.maxRetries),
			logging.Duration("delay", delay),
			logging.Error(err))
		if err := c.sleep(ctx, delay); err != nil {
			return nil, lastSnap, err
		}
	}

	return nil, lastSnap, fmt.Errorf("search failed after %d attempts: %w", c.maxRetries, lastErr)
}

// searchOnce performs a single request. Any received response updates the
// limiter exactly once, regardless of status.
func (c *Client) searchOnce(ctx context.Context, endpoint string, logger *slog.Logger) (*SearchResponse, ratelimit.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, ratelimit.Snapshot{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ratelimit.Snapshot{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	snap := c.limiter.Observe(resp.Header)
	logger.Info("api budget",
		logging.String("calls", fmt.Sprintf("%d/%d", snap.Used, snap.Total)),
		logging.Int("remaining", snap.Remaining))

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), c.retryDelay)
		return nil, snap, &StatusError{StatusCode: resp.StatusCode, RetryAfter: retryAfter}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, snap, &StatusError{StatusCode: resp.StatusCode}
	}

	var payload SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, snap, fmt.Errorf("decode search response: %w", err)
	}
	return &payload, snap, nil
}

// retryDecision maps an attempt error to a delay and whether to retry.
// 429 waits out Retry-After; other HTTP statuses are final; everything else
// is treated as a transient transport failure.
func (c *Client) retryDecision(err error, attempt int) (time.Duration, bool) {
	if attempt >= c.maxRetries {
		return 0, false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests {
			delay := statusErr.RetryAfter
			if delay <= 0 {
				delay = c.retryDelay
			}
			return delay, true
		}
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	return c.retryDelay, true
}

func parseRetryAfter(value string, fallback time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

package oasis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethgrid/pester"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/adsarch/greylit/internal/logging"
)

const (
	// DefaultTimeout is the default per-attempt HTTP timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultRateLimit is the default request rate (requests per second).
	DefaultRateLimit = 2.0

	// DefaultMaxRetries is the default number of attempts per request.
	DefaultMaxRetries = 3

	// MaxFeedSize caps the body read from the API.
	MaxFeedSize = 64 * 1024 * 1024
)

// Client is a rate-limited, retrying HTTP client for the OASIS API.
type Client struct {
	http       *pester.Client
	limiter    *rate.Limiter
	apiKey     string
	timeout    time.Duration
	maxRetries int
	backoff    pester.BackoffStrategy
	log        *logrus.Entry
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key sent as x-api-key.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithRateLimit sets the request rate. Zero or less disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithMaxRetries sets the number of attempts per request (at least one).
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithBackoff replaces the exponential backoff between attempts.
func WithBackoff(b pester.BackoffStrategy) ClientOption {
	return func(c *Client) {
		c.backoff = b
	}
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a new OASIS API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		backoff:    pester.ExponentialBackoff,
		log:        logging.NewLogger("oasis"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.http = pester.New()
	c.http.Backoff = c.backoff
	c.http.MaxRetries = max(1, c.maxRetries)
	c.http.Timeout = c.timeout
	c.http.KeepLog = true

	return c
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, url string) error {
	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	case resp.StatusCode == 404:
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode == 429:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{StatusCode: resp.StatusCode, URL: url}
	}
	return nil
}

// Fetch downloads and decodes the feed at url.
func (c *Client) Fetch(ctx context.Context, url string) (*Feed, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithField("attempts", c.http.LogString()).Debug("fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp, url); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	feed, err := Parse(data)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"url":      url,
		"bytes":    len(data),
		"projects": len(feed.Projects),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("fetched OASIS feed")

	return feed, nil
}

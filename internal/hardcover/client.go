// Package hardcover provides a client for the Hardcover book catalog
// GraphQL API with rate limiting, retries, and two-tier caching.
package hardcover

import (
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/readstack/readstack/internal/cache"
	"github.com/readstack/readstack/internal/ratelimit"
)

const (
	defaultBaseURL     = "https://api.hardcover.app/v1/graphql"
	defaultMaxAttempts = 5
	defaultMaxBackoff  = 10 * time.Second
	defaultMaxJitter   = 250 * time.Millisecond
	// defaultMinInterval spaces outbound requests; Hardcover throttles
	// aggressively and the limiter is shared by every concurrent import.
	defaultMinInterval = time.Second
	defaultTimeout     = 15 * time.Second
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a Hardcover catalog API client.
type Client struct {
	token         string
	baseURL       string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	cache         cache.Cache
	retryAttempts int
	sleep         func(time.Duration)
	jitter        func() time.Duration
}

// NewClient creates a new Hardcover API client. The cache is shared with
// every other client in the process; pass an isolated instance in tests.
func NewClient(token string, c cache.Cache, opts ...Option) *Client {
	client := &Client{
		token:         token,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		rateLimiter:   ratelimit.NewInterval("Hardcover", defaultMinInterval),
		cache:         c,
		retryAttempts: defaultMaxAttempts,
		sleep:         time.Sleep,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(defaultMaxJitter)))
		},
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

// WithBaseURL sets a custom GraphQL endpoint URL.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithRetryAttempts sets the number of retry attempts for failed requests.
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

// WithSleep replaces the backoff sleep function. Tests use this to avoid
// real delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(client *Client) {
		if sleep != nil {
			client.sleep = sleep
		}
	}
}

// WithJitter replaces the backoff jitter source.
func WithJitter(jitter func() time.Duration) Option {
	return func(client *Client) {
		if jitter != nil {
			client.jitter = jitter
		}
	}
}

// Package client is the HTTP client for the Unicorn job-marketplace
// API. Every call goes through one request gateway that attaches the
// access token, refreshes it on a 401 and replays the request exactly
// once. The refresh credential is an HTTP-only cookie held by the
// transport's cookie jar; application code never reads it.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/devprozorov/unicorn/credstore"
	"github.com/devprozorov/unicorn/session"
)

const defaultTimeout = 30 * time.Second

// Client talks to the Unicorn API on behalf of one session.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   credstore.Store
	session *session.Manager
	logger  *slog.Logger
	metrics *metricsCollector

	refreshFlight singleflight.Group

	userAgent string

	// expired guards the session-expired hook: one firing per failure
	// episode, reset when a token is obtained again.
	expired          atomic.Bool
	onSessionExpired func()
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the structured logger. If not set, a JSON logger
// writing to stderr at warn level is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is
// installed if the client has none; without one the refresh credential
// cannot survive between calls.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithCredentialStore sets the persistence slot for the access token.
// Without one the token lives in memory only.
func WithCredentialStore(store credstore.Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithSessionExpiredHook registers a callback fired at most once per
// failure episode, after the session has been cleared. The UI-level
// consumer decides what "go to the login screen" means and guards
// against redirect loops by checking where it already is.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a Client for the API rooted at baseURL (for example
// "https://unicorn.example.com/api").
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("client: base URL is required")
	}

	c := &Client{
		baseURL:   baseURL,
		metrics:   &metricsCollector{},
		userAgent: "unicorn-go",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
	}
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: defaultTimeout}
	}
	if c.httpc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client: creating cookie jar: %w", err)
		}
		c.httpc.Jar = jar
	}

	tokens := session.NewTokenStore(c.store, c.logger)
	c.session = session.NewManager(tokens, c.fetchProfile, c.logger)
	return c, nil
}

// Session returns the session manager backing this client.
func (c *Client) Session() *session.Manager {
	return c.session
}

// setToken stores a freshly issued token and ends any failure episode.
func (c *Client) setToken(ctx context.Context, tok string) {
	c.session.SetAccessToken(ctx, tok)
	c.expired.Store(false)
}

// expireSession clears the session and fires the expired hook once.
func (c *Client) expireSession(ctx context.Context) {
	c.session.Clear(ctx, session.ClearOptions{})
	c.metrics.sessionExpiry()
	if c.expired.CompareAndSwap(false, true) && c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

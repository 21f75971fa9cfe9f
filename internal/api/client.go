package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config holds common client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. https://api.pennywise.app
	BaseURL string

	// Timeout applies to general authenticated calls.
	Timeout time.Duration

	// AuthTimeout applies to login/register/refresh/logout calls, which are
	// held to a stricter bound than data fetches.
	AuthTimeout time.Duration

	// UserAgent identifies this client to the backend.
	UserAgent string

	Debug bool
}

// DefaultConfig returns a default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.pennywise.app",
		Timeout:     30 * time.Second,
		AuthTimeout: 15 * time.Second,
		UserAgent:   "pennywise-cli",
	}
}

// Client is a JSON REST client for the Pennywise backend. All authorization
// concerns live in the transport it is constructed with.
type Client struct {
	baseURL     string
	userAgent   string
	authTimeout time.Duration
	http        *http.Client
}

// NewClient creates a client using the given transport. Pass an
// *AuthTransport for authenticated traffic, or any round tripper for
// specialised clients (e.g. a caching transport for summary reads).
func NewClient(cfg Config, transport http.RoundTripper) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultConfig().Timeout
	}
	authTimeout := cfg.AuthTimeout
	if authTimeout == 0 {
		authTimeout = DefaultConfig().AuthTimeout
	}

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		authTimeout: authTimeout,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Do issues a JSON request and unwraps the enveloped response into out.
// body may be nil for GETs; out may be nil when the payload is irrelevant.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	return decodeResponse(resp, out)
}

// Get issues an authenticated GET.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// authContext bounds auth calls to the stricter auth timeout unless the
// caller already set an earlier deadline.
func (c *Client) authContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.authTimeout)
}

package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// TokenSource provides the current access token, or "" when none is held.
type TokenSource interface {
	Get() string
}

// Refresher exchanges the stored refresh token for a new access token.
// Implementations must be single-flight: concurrent calls share one exchange.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// unauthenticatedPaths are the endpoints that must never carry a bearer
// token: sending one is meaningless there and a 401 from them must not
// trigger a refresh.
var unauthenticatedPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/refresh",
}

func isAuthEndpoint(path string) bool {
	for _, p := range unauthenticatedPaths {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}

// AuthTransport decorates outbound requests with the device id and bearer
// token, and recovers from an expired access token by refreshing and
// replaying the request exactly once. The retry budget of one bounds
// recovery under persistent 401s (e.g. a revoked session).
type AuthTransport struct {
	// Base is the underlying round tripper. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// Tokens supplies the in-memory access token.
	Tokens TokenSource

	// Refresher performs the single-flight token exchange. When nil, 401s
	// propagate unchanged.
	Refresher Refresher

	// DeviceID is attached as X-Device-ID to every request, authenticated
	// or not.
	DeviceID string
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	authenticated := !isAuthEndpoint(req.URL.Path)

	out := t.decorate(req, authenticated, "")

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if !authenticated || resp.StatusCode != http.StatusUnauthorized || t.Refresher == nil {
		return resp, nil
	}

	// A bodied request without GetBody cannot be replayed.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	drain(resp)

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Msg("access token rejected, refreshing")

	token, err := t.Refresher.Refresh(req.Context())
	if err != nil {
		return nil, err
	}

	retry := t.decorate(req, true, token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}

	return t.base().RoundTrip(retry)
}

// decorate clones req and applies the device id and, for authenticated
// endpoints, the bearer token. An explicit token overrides the cached one.
func (t *AuthTransport) decorate(req *http.Request, authenticated bool, token string) *http.Request {
	out := req.Clone(req.Context())

	if t.DeviceID != "" {
		out.Header.Set("X-Device-ID", t.DeviceID)
	}

	if authenticated {
		if token == "" && t.Tokens != nil {
			token = t.Tokens.Get()
		}
		if token != "" {
			out.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return out
}

// drain discards a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	_ = resp.Body.Close()
}

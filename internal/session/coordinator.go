package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pennywise-app/pennywise-cli/internal/api"
)

// ExchangeFunc performs the network half of a refresh: it trades the stored
// refresh token (plus device id) for a new token pair.
type ExchangeFunc func(ctx context.Context, refreshToken, deviceID string) (*api.TokenPair, error)

// refreshCall is one in-flight exchange. Waiters block on done and then
// read token/err; both are written before done is closed.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// Coordinator serializes refresh-token exchanges. While one exchange is
// outstanding no second network call is issued; every concurrent caller
// waits on the same completion and observes the same outcome. Concurrent
// refreshes would race on token rotation and invalidate each other's new
// refresh token, so the single-flight property is load-bearing, not an
// optimisation.
type Coordinator struct {
	store    SecretStore
	cache    *TokenCache
	exchange ExchangeFunc

	mu       sync.Mutex
	inflight *refreshCall
}

// NewCoordinator creates a refresh coordinator over the given store, cache
// and exchange function.
func NewCoordinator(store SecretStore, cache *TokenCache, exchange ExchangeFunc) *Coordinator {
	return &Coordinator{store: store, cache: cache, exchange: exchange}
}

// Refresh returns a fresh access token, starting an exchange if none is in
// flight or joining the existing one otherwise. On any failure the local
// session is cleared: an ambiguous refresh must not leave the process
// holding a possibly-expired token silently.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if call := c.inflight; call != nil {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	c.inflight = call
	c.mu.Unlock()

	call.token, call.err = c.doRefresh(ctx)

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
	close(call.done)

	return call.token, call.err
}

// doRefresh runs exactly one exchange, rotating the stored refresh token on
// success.
func (c *Coordinator) doRefresh(ctx context.Context) (string, error) {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		c.cache.Clear()
		return "", ErrNoRefreshToken
	}

	pair, err := c.exchange(ctx, refreshToken, c.store.DeviceID())
	if err != nil {
		c.clearSession()

		if api.IsStatus(err, http.StatusUnauthorized) || api.IsStatus(err, http.StatusBadRequest) {
			// The refresh token itself was rejected. Terminal; no retry.
			log.Info().
				Str("fingerprint", Fingerprint(refreshToken)).
				Msg("refresh token rejected by server, session cleared")
			return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}

		log.Warn().Err(err).Msg("token refresh failed, session cleared")
		return "", err
	}

	// Strict rotation: the previous refresh token is invalid from here on,
	// so a persist failure leaves us with no trustworthy session.
	if err := c.store.StoreRefreshToken(pair.RefreshToken); err != nil {
		c.clearSession()
		return "", err
	}

	c.cache.Set(pair.AccessToken)

	log.Debug().
		Str("fingerprint", Fingerprint(pair.RefreshToken)).
		Msg("token refresh complete, refresh token rotated")

	return pair.AccessToken, nil
}

func (c *Coordinator) clearSession() {
	c.cache.Clear()
	c.store.RemoveRefreshToken()
}

package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pennywise-app/pennywise-cli/internal/api"
)

// Manager is the public surface for session transitions: login, register,
// logout, startup restoration and profile refresh. It owns the user
// snapshot and composes the credential store, token cache and refresh
// coordinator.
type Manager struct {
	store SecretStore
	cache *TokenCache
	coord *Coordinator
	api   *api.Client

	mu   sync.Mutex
	user *api.User
}

// NewManager wires up a manager and the authenticated transport behind its
// API client. The transport shares the manager's token cache and refresh
// coordinator, so request-issuing code never mutates token state directly.
func NewManager(cfg api.Config, store SecretStore, base http.RoundTripper) *Manager {
	cache := NewTokenCache()

	transport := &api.AuthTransport{
		Base:     base,
		Tokens:   cache,
		DeviceID: store.DeviceID(),
	}

	client := api.NewClient(cfg, transport)
	coord := NewCoordinator(store, cache, client.Refresh)
	transport.Refresher = coord

	return &Manager{
		store: store,
		cache: cache,
		coord: coord,
		api:   client,
	}
}

// API exposes the authenticated client for domain packages built on top of
// the session (transactions, summaries).
func (m *Manager) API() *api.Client {
	return m.api
}

// Transport returns an authenticated round tripper suitable for wrapping
// with additional layers (e.g. a response cache).
func (m *Manager) Transport(base http.RoundTripper) http.RoundTripper {
	return &api.AuthTransport{
		Base:      base,
		Tokens:    m.cache,
		Refresher: m.coord,
		DeviceID:  m.store.DeviceID(),
	}
}

// Login authenticates with the backend and establishes a session: access
// token in memory, refresh token in the secure store, profile snapshot
// recorded. Failures always propagate for display; a failed login must be
// visible to the user.
func (m *Manager) Login(ctx context.Context, email, password string) (*api.User, error) {
	resp, err := m.api.Login(ctx, email, password, m.store.DeviceID())
	if err != nil {
		return nil, mapCredentialError(err)
	}

	if err := m.establish(resp); err != nil {
		return nil, err
	}

	log.Info().Str("email", email).Msg("logged in")

	return resp.User, nil
}

// Register creates an account and auto-logs in with the returned tokens.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*api.User, error) {
	resp, err := m.api.Register(ctx, name, email, password, m.store.DeviceID())
	if err != nil {
		if api.IsConflict(err) {
			return nil, fmt.Errorf("%w: %v", ErrEmailTaken, err)
		}
		return nil, mapCredentialError(err)
	}

	if err := m.establish(resp); err != nil {
		return nil, err
	}

	log.Info().Str("email", email).Msg("registered and logged in")

	return resp.User, nil
}

// establish applies a fresh token pair and profile snapshot. The refresh
// token must be durably stored before the session counts as established.
func (m *Manager) establish(resp *api.AuthResponse) error {
	if err := m.store.StoreRefreshToken(resp.Tokens.RefreshToken); err != nil {
		return err
	}
	m.cache.Set(resp.Tokens.AccessToken)
	m.setUser(resp.User)
	return nil
}

// Logout revokes the session server-side on a best-effort basis and then
// unconditionally clears local state. The device always ends up logged out
// locally, network or not.
func (m *Manager) Logout(ctx context.Context, allDevices bool) {
	if refreshToken := m.store.RefreshToken(); refreshToken != "" {
		if err := m.api.Logout(ctx, refreshToken, allDevices); err != nil {
			log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
		}
	}

	m.cache.Clear()
	m.store.RemoveRefreshToken()
	m.setUser(nil)

	log.Info().Bool("allDevices", allDevices).Msg("logged out")
}

// Restore recovers an authenticated state at startup using only the stored
// refresh token. It returns (nil, false) without any network call when no
// token is stored, and (nil, false) on any exchange failure; a false result
// means "show the login screen", never an error the caller must handle.
// On success the profile may be nil if the follow-up fetch failed; it is
// stale until RefreshUser succeeds.
func (m *Manager) Restore(ctx context.Context) (*api.User, bool) {
	if !m.store.HasRefreshToken() {
		return nil, false
	}

	if _, err := m.coord.Refresh(ctx); err != nil {
		log.Debug().Err(err).Msg("session restoration failed")
		return nil, false
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("session restored but profile fetch failed")
		return nil, true
	}

	m.setUser(user)

	log.Debug().Str("email", user.Email).Msg("session restored")

	return user, true
}

// RefreshUser re-fetches the profile snapshot. Calling it while logged out
// is a caller mistake, not a system fault: it warns and returns nil.
func (m *Manager) RefreshUser(ctx context.Context) (*api.User, error) {
	if !m.cache.IsPresent() {
		log.Warn().Msg("profile refresh requested without an active session")
		return nil, nil
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		return nil, err
	}

	m.setUser(user)

	return user, nil
}

// CurrentUser returns the last known profile snapshot, which may be stale
// or nil until RefreshUser succeeds.
func (m *Manager) CurrentUser() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// AccessToken returns the in-memory access token, or "" when logged out.
func (m *Manager) AccessToken() string {
	return m.cache.Get()
}

// IsAuthenticated reports whether an access token is currently held.
func (m *Manager) IsAuthenticated() bool {
	return m.cache.IsPresent()
}

func (m *Manager) setUser(user *api.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
}

// mapCredentialError folds the backend's 400/401 rejections into the
// user-correctable sentinel; everything else passes through unchanged.
func mapCredentialError(err error) error {
	if api.IsStatus(err, http.StatusUnauthorized) || api.IsStatus(err, http.StatusBadRequest) {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return err
}

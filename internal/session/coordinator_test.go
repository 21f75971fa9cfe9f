package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennywise-app/pennywise-cli/internal/api"
)

func newTestCoordinator(t *testing.T, exchange ExchangeFunc) (*Coordinator, *FileStore, *TokenCache) {
	t.Helper()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	cache := NewTokenCache()

	return NewCoordinator(store, cache, exchange), store, cache
}

func TestCoordinator_Refresh(t *testing.T) {
	t.Run("rotates the refresh token and caches the access token", func(t *testing.T) {
		coord, store, cache := newTestCoordinator(t, func(ctx context.Context, refreshToken, deviceID string) (*api.TokenPair, error) {
			assert.Equal(t, "RT1", refreshToken)
			assert.NotEmpty(t, deviceID)
			return &api.TokenPair{AccessToken: "AT2", RefreshToken: "RT2"}, nil
		})
		require.NoError(t, store.StoreRefreshToken("RT1"))
		cache.Set("AT1")

		token, err := coord.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "AT2", token)
		assert.Equal(t, "AT2", cache.Get())
		assert.Equal(t, "RT2", store.RefreshToken())
	})

	t.Run("fails without a stored refresh token", func(t *testing.T) {
		coord, _, cache := newTestCoordinator(t, func(ctx context.Context, refreshToken, deviceID string) (*api.TokenPair, error) {
			t.Fatal("exchange must not be called")
			return nil, nil
		})
		cache.Set("stale")

		_, err := coord.Refresh(context.Background())
		require.ErrorIs(t, err, ErrNoRefreshToken)
		assert.False(t, cache.IsPresent())
	})

	t.Run("rejected refresh token clears the session", func(t *testing.T) {
		coord, store, cache := newTestCoordinator(t, func(ctx context.Context, refreshToken, deviceID string) (*api.TokenPair, error) {
			return nil, &api.Error{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}
		})
		require.NoError(t, store.StoreRefreshToken("RT1"))
		cache.Set("AT1")

		_, err := coord.Refresh(context.Background())
		require.ErrorIs(t, err, ErrSessionExpired)
		assert.False(t, cache.IsPresent())
		assert.False(t, store.HasRefreshToken())
	})

	t.Run("network failure clears the session and propagates", func(t *testing.T) {
		netErr := errors.New("connection refused")
		coord, store, cache := newTestCoordinator(t, func(ctx context.Context, refreshToken, deviceID string) (*api.TokenPair, error) {
			return nil, netErr
		})
		require.NoError(t, store.StoreRefreshToken("RT1"))
		cache.Set("AT1")

		_, err := coord.Refresh(context.Background())
		require.ErrorIs(t, err, netErr)
		assert.NotErrorIs(t, err, ErrSessionExpired)
		assert.False(t, cache.IsPresent())
		assert.False(t, store.HasRefreshToken())
	})
}

func TestCoordinator_SingleFlight(t *testing.T) {
	t.Run("concurrent refreshes share one exchange", func(t *testing.T) {
		var calls atomic.Int32
		release := make(chan struct{})

		coord, store, _ := newTestCoordinator(t, func(ctx context.Context, refreshToken, deviceID string) (*api.TokenPair, error) {
			calls.Add(1)
			<-release
			return &api.TokenPair{AccessToken: "AT2", RefreshToken: "RT2"}, nil
		})
		require.NoError(t, store.StoreRefreshToken("RT1"))

		const n = 20
		var wg sync.WaitGroup
		tokens := make([]string, n)
		errs := make([]error, n)

		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tokens[i], errs[i] = coord.Refresh(context.Background())
			}()
		}

		// Give every goroutine a chance to reach the coordinator before
		// the exchange completes.
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for i := range n {
			require.NoError(t, errs[i])
			assert.Equal(t, "AT2", tokens[i])
		}
		assert.Equal(t, "RT2", store.RefreshToken())
	})

	t.Run("concurrent refreshes share one failure", func(t *testing.T) {
		var calls atomic.Int32
		release := make(chan struct{})

		coord, store, _ := newTestCoordinator(t, func(ctx context.Context, refreshToken, deviceID string) (*api.TokenPair, error) {
			calls.Add(1)
			<-release
			return nil, &api.Error{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}
		})
		require.NoError(t, store.StoreRefreshToken("RT1"))

		const n = 10
		var wg sync.WaitGroup
		errs := make([]error, n)

		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = coord.Refresh(context.Background())
			}()
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for i := range n {
			assert.ErrorIs(t, errs[i], ErrSessionExpired)
		}
	})

	t.Run("waiter honours context cancellation", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})

		coord, store, _ := newTestCoordinator(t, func(ctx context.Context, refreshToken, deviceID string) (*api.TokenPair, error) {
			close(started)
			<-release
			return &api.TokenPair{AccessToken: "AT2", RefreshToken: "RT2"}, nil
		})
		require.NoError(t, store.StoreRefreshToken("RT1"))

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = coord.Refresh(context.Background())
		}()
		<-started

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := coord.Refresh(ctx)
		require.ErrorIs(t, err, context.Canceled)

		close(release)
		<-done
	})

	t.Run("a later refresh issues a new exchange", func(t *testing.T) {
		var calls atomic.Int32

		coord, store, _ := newTestCoordinator(t, func(ctx context.Context, refreshToken, deviceID string) (*api.TokenPair, error) {
			n := calls.Add(1)
			if n == 1 {
				assert.Equal(t, "RT1", refreshToken)
				return &api.TokenPair{AccessToken: "AT2", RefreshToken: "RT2"}, nil
			}
			assert.Equal(t, "RT2", refreshToken)
			return &api.TokenPair{AccessToken: "AT3", RefreshToken: "RT3"}, nil
		})
		require.NoError(t, store.StoreRefreshToken("RT1"))

		_, err := coord.Refresh(context.Background())
		require.NoError(t, err)
		token, err := coord.Refresh(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "AT3", token)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, "RT3", store.RefreshToken())
	})
}

package session

import "sync"

// TokenCache holds the current access token for the life of the process.
// It is never written to disk; a restart always starts empty.
type TokenCache struct {
	mu    sync.RWMutex
	token string
}

// NewTokenCache creates an empty token cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

// Set replaces the current access token.
func (c *TokenCache) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Get returns the current access token, or "" when none is held.
func (c *TokenCache) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Clear drops the current access token.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// IsPresent reports whether an access token is held.
func (c *TokenCache) IsPresent() bool {
	return c.Get() != ""
}

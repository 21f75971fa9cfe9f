package session

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrInvalidCredentials is returned when the backend rejects a login
	// or registration for bad credentials.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering with an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrSessionExpired is returned when the refresh token is invalid or
	// revoked. Terminal: the local session has been cleared.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoRefreshToken is returned when a refresh is requested but no
	// refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token stored")

	// ErrNotAuthenticated is returned when an operation requires an active
	// session and there is none.
	ErrNotAuthenticated = errors.New("not logged in")
)

// StorageError indicates the secure credential store failed. A token that
// cannot be persisted cannot be trusted to survive a restart, so write
// failures are fatal to the login or refresh that caused them.
type StorageError struct {
	Op  string // "store", "read", "remove"
	Err error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("credential store: %s failed", e.Op)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

package session

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "pennywise-cli"
	keyringAccount = "refresh_token"
)

// KeyringStore keeps the refresh token in the OS-native credential store
// (macOS Keychain, Windows Credential Manager, Secret Service). The device
// id is not a secret and stays in the file store so it survives keyring
// resets.
type KeyringStore struct {
	file *FileStore
}

// OpenStore returns the OS keyring store when one is available, falling back
// to the file store otherwise. The file store is created either way for the
// device id.
func OpenStore(baseDir string) (SecretStore, error) {
	file, err := NewFileStore(baseDir)
	if err != nil {
		return nil, err
	}

	// Probe the keyring; anything other than "not found" means it is
	// unusable on this host (headless Linux without a secret service, etc).
	if _, err := keyring.Get(keyringService, keyringAccount); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.Debug().Err(err).Msg("OS keyring unavailable, using file credential store")
		return file, nil
	}

	log.Debug().Msg("using OS keyring credential store")

	return &KeyringStore{file: file}, nil
}

func (s *KeyringStore) StoreRefreshToken(token string) error {
	if err := keyring.Set(keyringService, keyringAccount, token); err != nil {
		return &StorageError{Op: "store", Err: err}
	}

	log.Debug().
		Str("fingerprint", Fingerprint(token)).
		Msg("refresh token stored in keyring")

	return nil
}

func (s *KeyringStore) RefreshToken() string {
	token, err := keyring.Get(keyringService, keyringAccount)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			log.Warn().Err(err).Msg("failed to read refresh token from keyring, treating as absent")
		}
		return ""
	}
	return token
}

func (s *KeyringStore) RemoveRefreshToken() {
	err := keyring.Delete(keyringService, keyringAccount)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.Warn().Err(err).Msg("failed to remove refresh token from keyring")
	}
}

func (s *KeyringStore) HasRefreshToken() bool {
	return s.RefreshToken() != ""
}

func (s *KeyringStore) DeviceID() string {
	return s.file.DeviceID()
}

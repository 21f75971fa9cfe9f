package session

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
)

// SecretStore persists exactly two values: the current refresh token and the
// installation's device id. Failure semantics are deliberately asymmetric:
// writes propagate, reads fail open to "no token", removes are swallowed so
// logout always succeeds locally.
type SecretStore interface {
	// StoreRefreshToken overwrites the persisted refresh token.
	StoreRefreshToken(token string) error

	// RefreshToken returns the stored refresh token, or "" when absent or
	// unreadable.
	RefreshToken() string

	// RemoveRefreshToken deletes the refresh token. Never fails.
	RemoveRefreshToken()

	// HasRefreshToken reports whether a refresh token is stored. Used at
	// startup to decide whether session restoration is worth attempting.
	HasRefreshToken() bool

	// DeviceID returns the persisted device id, generating one on first
	// use. A persist failure degrades to a process-local id rather than
	// blocking usage.
	DeviceID() string
}

// fileCreds is the on-disk shape of the file store.
type fileCreds struct {
	Version      int    `json:"version"`
	RefreshToken string `json:"refresh_token,omitempty"`
	DeviceID     string `json:"device_id,omitempty"`
}

// FileStore keeps credentials in a mode-0600 JSON file under a mode-0700
// directory. It is the fallback when no OS keyring is available, and always
// owns the (non-secret) device id.
type FileStore struct {
	mu   sync.Mutex
	path string

	// volatileDeviceID holds a generated id that could not be persisted.
	volatileDeviceID string
}

// NewFileStore creates a file-backed store.
// If baseDir is empty, uses ~/.pennywise/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".pennywise")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("file credential store initialized")

	return &FileStore{path: filepath.Join(baseDir, "credentials.json")}, nil
}

func (s *FileStore) StoreRefreshToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := s.load()
	creds.RefreshToken = token

	if err := s.save(creds); err != nil {
		return &StorageError{Op: "store", Err: err}
	}

	log.Debug().
		Str("fingerprint", Fingerprint(token)).
		Msg("refresh token stored")

	return nil
}

func (s *FileStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load().RefreshToken
}

func (s *FileStore) RemoveRefreshToken() {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := s.load()
	if creds.RefreshToken == "" {
		return
	}
	creds.RefreshToken = ""

	if err := s.save(creds); err != nil {
		// Logout must succeed locally regardless.
		log.Warn().Err(err).Msg("failed to remove refresh token from disk")
		return
	}

	log.Debug().Msg("refresh token removed")
}

func (s *FileStore) HasRefreshToken() bool {
	return s.RefreshToken() != ""
}

func (s *FileStore) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.volatileDeviceID != "" {
		return s.volatileDeviceID
	}

	creds := s.load()
	if creds.DeviceID != "" {
		return creds.DeviceID
	}

	id := uuid.New().String()
	creds.DeviceID = id

	if err := s.save(creds); err != nil {
		// Device binding degrades to this process rather than blocking.
		log.Warn().Err(err).Msg("failed to persist device id, using process-local id")
		s.volatileDeviceID = id
		return id
	}

	log.Info().Str("deviceID", id).Msg("generated device id")

	return id
}

// load reads the credentials file. Read failures are treated as an empty
// store: a storage glitch should force re-login, not crash restoration.
func (s *FileStore) load() fileCreds {
	creds := fileCreds{Version: 1}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("failed to read credentials file, treating as empty")
		}
		return creds
	}

	if err := json.Unmarshal(data, &creds); err != nil {
		log.Warn().Err(err).Msg("failed to parse credentials file, treating as empty")
		return fileCreds{Version: 1}
	}

	return creds
}

// save writes the credentials file atomically via temp file + rename.
func (s *FileStore) save(creds fileCreds) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

// Fingerprint returns a short Base58-encoded SHA256 digest of a token,
// safe to log in place of the raw value.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	fp := base58.Encode(hash[:])
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return fp
}

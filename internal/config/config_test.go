package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"server_url: https://finance.example.com\nauth_timeout: 5s\n",
		), 0600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://finance.example.com", cfg.ServerURL)
		assert.Equal(t, 5*time.Second, cfg.AuthTimeout)
		// Unset values keep their defaults.
		assert.Equal(t, Default().RequestTimeout, cfg.RequestTimeout)
		assert.Equal(t, Default().AnalysisTimeout, cfg.AnalysisTimeout)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server_url: [oops"), 0600))

		_, err := Load(path)
		require.Error(t, err)
	})
}

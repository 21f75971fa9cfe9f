package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds client configuration loaded from ~/.pennywise/config.yaml.
// Flags override file values; file values override defaults.
type Config struct {
	// ServerURL is the backend root URL.
	ServerURL string

	// AuthTimeout bounds login/register/refresh/logout calls.
	AuthTimeout time.Duration

	// RequestTimeout bounds general authenticated calls.
	RequestTimeout time.Duration

	// AnalysisTimeout bounds the natural-language parse endpoint, which is
	// backed by a slower model call.
	AnalysisTimeout time.Duration

	// CacheDir holds the summary response cache. Defaults to
	// <BaseDir>/cache when empty.
	CacheDir string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL:       "https://api.pennywise.app",
		AuthTimeout:     15 * time.Second,
		RequestTimeout:  30 * time.Second,
		AnalysisTimeout: 60 * time.Second,
	}
}

// BaseDir returns the per-user state directory (~/.pennywise), creating it
// if necessary.
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, ".pennywise")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	return dir, nil
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. If path is empty, <BaseDir>/config.yaml is used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		dir, err := BaseDir()
		if err != nil {
			return cfg, err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Config file values override defaults where set.
	if file.ServerURL != "" {
		cfg.ServerURL = file.ServerURL
	}
	if file.CacheDir != "" {
		cfg.CacheDir = file.CacheDir
	}
	for _, d := range []struct {
		raw  string
		into *time.Duration
	}{
		{file.AuthTimeout, &cfg.AuthTimeout},
		{file.RequestTimeout, &cfg.RequestTimeout},
		{file.AnalysisTimeout, &cfg.AnalysisTimeout},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid duration %q in config file: %w", d.raw, err)
		}
		*d.into = parsed
	}

	return cfg, nil
}

// fileConfig is the on-disk shape; durations are strings ("15s", "1m").
type fileConfig struct {
	ServerURL       string `yaml:"server_url"`
	AuthTimeout     string `yaml:"auth_timeout"`
	RequestTimeout  string `yaml:"request_timeout"`
	AnalysisTimeout string `yaml:"analysis_timeout"`
	CacheDir        string `yaml:"cache_dir"`
}

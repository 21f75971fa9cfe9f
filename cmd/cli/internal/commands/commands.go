package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/pennywise-app/pennywise-cli/internal/api"
	"github.com/pennywise-app/pennywise-cli/internal/config"
	"github.com/pennywise-app/pennywise-cli/internal/finance"
	"github.com/pennywise-app/pennywise-cli/internal/logger"
	"github.com/pennywise-app/pennywise-cli/internal/session"
)

type Globals struct {
	Debug   bool
	Server  string
	Config  string
	Version string
}

// app wires config, session manager and finance client for a command run.
type app struct {
	cfg     config.Config
	session *session.Manager
	finance *finance.Client
}

func newApp(globals *Globals) (*app, error) {
	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, err
	}
	if globals.Server != "" {
		cfg.ServerURL = globals.Server
	}

	baseDir, err := config.BaseDir()
	if err != nil {
		return nil, err
	}

	store, err := session.OpenStore(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	apiCfg := api.Config{
		BaseURL:     cfg.ServerURL,
		Timeout:     cfg.RequestTimeout,
		AuthTimeout: cfg.AuthTimeout,
		UserAgent:   "pennywise-cli/" + globals.Version,
		Debug:       globals.Debug,
	}

	base := logger.NewHTTPRequests(nil, log.Logger)
	mgr := session.NewManager(apiCfg, store, base)

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(baseDir, "cache")
	}

	fin := finance.NewClient(apiCfg, mgr.API(), mgr.Transport(base), cacheDir, cfg.AnalysisTimeout)

	return &app{cfg: cfg, session: mgr, finance: fin}, nil
}

// requireSession restores the saved session or tells the user to log in.
func (a *app) requireSession(ctx context.Context) error {
	if _, ok := a.session.Restore(ctx); !ok {
		return fmt.Errorf("%w\n\nLog in first:\n  pennywise login --email <email>", session.ErrNotAuthenticated)
	}
	return nil
}

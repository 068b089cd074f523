package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/adapters/sqlite"
	"github.com/aretw0/espalier/pkg/catalog"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
	"github.com/aretw0/espalier/pkg/ports"
)

// loadConfig reads the configuration file and folds the command line
// overrides on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if dir, _ := cmd.Flags().GetString("workspace"); dir != "" {
		cfg.Workspace = dir
	}
	if backend, _ := cmd.Flags().GetString("store"); backend != "" {
		cfg.Store.Backend = backend
	}
	return cfg, nil
}

// newLogger builds the application logger from the log section.
func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Log.Format == "json" {
		return logging.NewJSON(level), nil
	}
	return logging.New(level), nil
}

// buildStore constructs the configured backend and wraps it with the
// middleware chain: logging, then metrics, then redaction, and encryption
// as the innermost wrapper so only ciphertext reaches the backend.
func buildStore(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (ports.DocumentStore, error) {
	var base ports.DocumentStore
	switch cfg.Store.Backend {
	case "file":
		base = file.New(filepath.Join(cfg.Workspace, ".espalier", "documents"))
	case "memory":
		base = memory.NewStore()
	case "redis":
		base = redis.New(cfg.Store.RedisAddr, "", 0)
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.Workspace, ".espalier", "documents.db")
		}
		s, err := sqlite.New(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		base = s
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var mws []middleware.Middleware
	mws = append(mws, middleware.NewLoggingMiddleware(logger))
	if reg != nil {
		mws = append(mws, middleware.NewMetricsMiddleware(reg))
	}
	if len(cfg.Store.Redact) > 0 {
		mws = append(mws, middleware.NewRedactionMiddleware(cfg.Store.Redact))
	}
	active, fallbacks, err := cfg.Store.EncryptionKeys(os.Getenv)
	if err != nil {
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
	}
	return middleware.Chain(base, mws...), nil
}

// buildWorkspace wires the store, the template catalog and any extra
// options into a workspace. A templates/ directory under the workspace
// replaces the built-in catalog.
func buildWorkspace(cfg config.Config, logger *slog.Logger, store ports.DocumentStore, extra ...espalier.Option) (*espalier.Workspace, error) {
	opts := []espalier.Option{
		espalier.WithStore(store),
		espalier.WithLogger(logger),
	}

	templatesDir := filepath.Join(cfg.Workspace, "templates")
	if info, err := os.Stat(templatesDir); err == nil && info.IsDir() {
		cat, err := catalog.Open(templatesDir, catalog.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("open template catalog: %w", err)
		}
		opts = append(opts, espalier.WithCatalog(cat))
	}

	opts = append(opts, extra...)
	return espalier.New(cfg.Workspace, opts...)
}

// openWorkspace is the common path for one-shot commands: config, logger,
// store, workspace.
func openWorkspace(cmd *cobra.Command) (*espalier.Workspace, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, config.Config{}, err
	}
	store, err := buildStore(cfg, logger, nil)
	if err != nil {
		return nil, config.Config{}, err
	}
	ws, err := buildWorkspace(cfg, logger, store)
	if err != nil {
		return nil, config.Config{}, err
	}
	return ws, cfg, nil
}

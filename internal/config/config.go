// Package config loads the optional espalier.yaml configuration file and
// the ESPALIER_* environment overrides used by the command line tool.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration for the espalier command. Every field
// has a usable default, so a missing file just means "defaults".
type Config struct {
	// Workspace is the directory holding document files when the file
	// backend is selected.
	Workspace string `yaml:"workspace" json:"workspace"`

	Store StoreConfig `yaml:"store" json:"store"`
	Serve ServeConfig `yaml:"serve" json:"serve"`
	Log   LogConfig   `yaml:"log" json:"log"`
}

// StoreConfig selects and parameterizes the persistence backend.
type StoreConfig struct {
	// Backend is one of file, memory, redis or sqlite.
	Backend string `yaml:"backend" json:"backend"`

	RedisAddr  string `yaml:"redis_addr" json:"redis_addr"`
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`

	// ArchiveDir enables checkpoint archiving when set.
	ArchiveDir string `yaml:"archive_dir" json:"archive_dir"`

	// EncryptionKeyEnv names an environment variable holding a base64
	// encoded 32-byte key. When set, documents are encrypted at rest.
	// FallbackKeyEnvs name old keys kept readable during rotation.
	EncryptionKeyEnv string   `yaml:"encryption_key_env" json:"encryption_key_env"`
	FallbackKeyEnvs  []string `yaml:"fallback_key_envs" json:"fallback_key_envs"`

	// Redact lists regular expressions masked out of document text before
	// it reaches the backend.
	Redact []string `yaml:"redact" json:"redact"`
}

// ServeConfig parameterizes the HTTP server.
type ServeConfig struct {
	Addr string `yaml:"addr" json:"addr"`

	// Autosave is a cron expression for periodically checkpointing every
	// stored document into the archive, e.g. "@every 30s". Takes effect
	// only when store.archive_dir is set. Empty disables autosaving.
	Autosave string `yaml:"autosave" json:"autosave"`

	// IdleTimeout is how long an editor may sit unused before eviction,
	// in time.ParseDuration syntax. Empty disables eviction.
	IdleTimeout string `yaml:"idle_timeout" json:"idle_timeout"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Workspace: ".",
		Store:     StoreConfig{Backend: "file"},
		Serve: ServeConfig{
			Addr:        ":8080",
			IdleTimeout: "10m",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file (YAML or JSON by extension) and applies
// environment overrides. A missing file is not an error: defaults plus the
// environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if strings.ToLower(filepath.Ext(path)) == ".json" {
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		} else {
			// Default to YAML
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	case os.IsNotExist(err):
		// Run on defaults.
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv lets deployments override file settings without editing the
// file.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Workspace, "ESPALIER_WORKSPACE")
	set(&c.Store.Backend, "ESPALIER_STORE")
	set(&c.Store.RedisAddr, "ESPALIER_REDIS_ADDR")
	set(&c.Store.SQLitePath, "ESPALIER_SQLITE_PATH")
	set(&c.Store.ArchiveDir, "ESPALIER_ARCHIVE_DIR")
	set(&c.Serve.Addr, "ESPALIER_ADDR")
	set(&c.Serve.Autosave, "ESPALIER_AUTOSAVE")
	set(&c.Log.Level, "ESPALIER_LOG_LEVEL")
	set(&c.Log.Format, "ESPALIER_LOG_FORMAT")
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "file", "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q (want file, memory, redis or sqlite)", c.Store.Backend)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	if _, err := c.Serve.EvictAfter(); err != nil {
		return err
	}
	return nil
}

// EvictAfter parses the idle timeout. Zero means eviction is disabled.
func (s ServeConfig) EvictAfter() (time.Duration, error) {
	if s.IdleTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.IdleTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid idle_timeout: %w", err)
	}
	return d, nil
}

// EncryptionKeys resolves the configured key environment variables into raw
// keys. All three results are nil when encryption is not configured.
func (s StoreConfig) EncryptionKeys(getenv func(string) string) (active []byte, fallbacks [][]byte, err error) {
	if s.EncryptionKeyEnv == "" {
		return nil, nil, nil
	}
	active, err = decodeKey(getenv, s.EncryptionKeyEnv)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range s.FallbackKeyEnvs {
		key, err := decodeKey(getenv, name)
		if err != nil {
			return nil, nil, err
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

func decodeKey(getenv func(string) string, name string) ([]byte, error) {
	raw := getenv(name)
	if raw == "" {
		return nil, fmt.Errorf("environment variable %s is empty", name)
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid base64: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", name, len(key))
	}
	return key, nil
}

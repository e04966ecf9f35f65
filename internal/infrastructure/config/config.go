// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultConfigDir is the directory name for historian configuration.
	DefaultConfigDir = ".historian"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the database file name inside the config directory.
	DefaultDatabaseFile = "history.db"
	// DefaultEnvFile holds optional HISTORIAN_ overrides inside the config directory.
	DefaultEnvFile = ".env"
	// EnvPrefix prefixes environment overrides, e.g. HISTORIAN_SQLITE__PATH.
	EnvPrefix = "HISTORIAN_"

	// MinCacheTTLSeconds is the shortest name lookup cache lifetime accepted.
	MinCacheTTLSeconds = 60
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite  SQLiteConfig  `koanf:"sqlite" yaml:"sqlite"`
	Lookups LookupsConfig `koanf:"lookups" yaml:"lookups"`
	API     APIConfig     `koanf:"api" yaml:"api"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
	Import  ImportConfig  `koanf:"import" yaml:"import"`
}

// SQLiteConfig holds configuration for the SQLite history database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. Relative paths are
	// resolved against the project directory. Empty means
	// .historian/history.db.
	Path string `koanf:"path" yaml:"path,omitempty"`
}

// LookupsConfig holds configuration for the external profile service.
type LookupsConfig struct {
	Enabled         bool   `koanf:"enabled" yaml:"enabled"`
	BaseURL         string `koanf:"base_url" yaml:"base_url"`
	TimeoutMS       int    `koanf:"timeout_ms" yaml:"timeout_ms"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
}

// Timeout returns the per-request timeout.
func (c LookupsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// CacheTTL returns how long name lookups are cached, never below a minute.
func (c LookupsConfig) CacheTTL() time.Duration {
	return time.Duration(max(c.CacheTTLSeconds, MinCacheTTLSeconds)) * time.Second
}

// APIConfig holds configuration for the HTTP server.
type APIConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`   // debug, info, warn, error
	Format string `koanf:"format" yaml:"format"` // text or json
	Output string `koanf:"output" yaml:"output"` // stdout, stderr or a file path
}

// ImportConfig holds bulk import settings.
type ImportConfig struct {
	Concurrency int `koanf:"concurrency" yaml:"concurrency"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Lookups: LookupsConfig{
			Enabled:         true,
			BaseURL:         "https://api.mojang.com",
			TimeoutMS:       5000,
			CacheTTLSeconds: MinCacheTTLSeconds,
		},
		API: APIConfig{
			Addr: ":8420",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Import: ImportConfig{
			Concurrency: 4,
		},
	}
}

// Load loads configuration from the .historian directory in the given path.
// Later layers win: defaults, config.yaml, .historian/.env, then HISTORIAN_
// environment variables.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)
	if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file not found: %s (run 'historian init' first)", configFile)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := loadEnvFile(k, filepath.Join(ConfigDir(basePath), DefaultEnvFile)); err != nil {
		return nil, err
	}

	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.SQLite.Path = DatabasePath(basePath, cfg.SQLite.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps HISTORIAN_LOOKUPS__BASE_URL to lookups.base_url.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// loadEnvFile applies the HISTORIAN_ entries of a dotenv file, if one exists.
// The process environment is left untouched.
func loadEnvFile(k *koanf.Koanf, path string) error {
	vars, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for key, value := range vars {
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if err := k.Set(envKey(key), value); err != nil {
			return fmt.Errorf("applying %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.API.Addr == "" {
		return errors.New("api.addr must not be empty")
	}
	if c.Import.Concurrency < 1 {
		return fmt.Errorf("import.concurrency must be at least 1, got %d", c.Import.Concurrency)
	}
	if c.Lookups.Enabled {
		if c.Lookups.BaseURL == "" {
			return errors.New("lookups.base_url must not be empty when lookups are enabled")
		}
		if c.Lookups.TimeoutMS <= 0 {
			return fmt.Errorf("lookups.timeout_ms must be positive, got %d", c.Lookups.TimeoutMS)
		}
	}
	return nil
}

// DatabasePath resolves the configured database path against basePath.
func DatabasePath(basePath, configured string) string {
	switch {
	case configured == "":
		return filepath.Join(basePath, DefaultConfigDir, DefaultDatabaseFile)
	case configured == ":memory:", filepath.IsAbs(configured):
		return configured
	default:
		return filepath.Join(basePath, configured)
	}
}

// ConfigDir returns the path to the .historian config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

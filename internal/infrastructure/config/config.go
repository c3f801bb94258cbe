// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for famtree configuration.
	DefaultConfigDir = ".famtree"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultCasesFile is the default case aliases file name.
	DefaultCasesFile = "cases.yaml"
	// DefaultDatabaseFile is the local store file name.
	DefaultDatabaseFile = "famtree.db"
)

// Store modes.
const (
	StoreHTTP   = "http"
	StoreSQLite = "sqlite"
)

// Environment variables that override the config file.
const (
	EnvAPIURL   = "FAMTREE_API_URL"
	EnvAPIToken = "FAMTREE_API_TOKEN"
	EnvLogLevel = "FAMTREE_LOG_LEVEL"
	EnvStore    = "FAMTREE_STORE"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	API    APIConfig    `yaml:"api,omitempty"`
	Store  StoreConfig  `yaml:"store,omitempty"`
	SQLite SQLiteConfig `yaml:"sqlite,omitempty"`
	Log    LogConfig    `yaml:"log,omitempty"`
}

// APIConfig holds configuration for the remote case store.
type APIConfig struct {
	BaseURL string        `yaml:"base_url,omitempty"`
	Token   string        `yaml:"token,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// StoreConfig selects the case store implementation.
type StoreConfig struct {
	// Mode is "http" for the remote store or "sqlite" for the local one.
	Mode string `yaml:"mode,omitempty"`
}

// SQLiteConfig holds configuration for the local SQLite store.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. Relative paths are
	// resolved against the config directory.
	Path string `yaml:"path,omitempty"`
	// UserID is recorded as the owner of cases created locally.
	UserID int64 `yaml:"user_id,omitempty"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Mode: StoreHTTP,
		},
		SQLite: SQLiteConfig{
			Path:   DefaultDatabaseFile,
			UserID: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the .famtree directory in the given path.
// A .env file in basePath is loaded first; variables already set win.
func Load(basePath string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(basePath, ".env"))

	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'famtree init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv(EnvAPIURL); url != "" {
		c.API.BaseURL = url
	}
	if token := os.Getenv(EnvAPIToken); token != "" {
		c.API.Token = token
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
	if mode := os.Getenv(EnvStore); mode != "" {
		c.Store.Mode = mode
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Mode {
	case StoreHTTP:
		if c.API.BaseURL == "" {
			return fmt.Errorf("api.base_url is required when store.mode is %q", StoreHTTP)
		}
	case StoreSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required when store.mode is %q", StoreSQLite)
		}
	default:
		return fmt.Errorf("invalid store.mode %q (valid: http, sqlite)", c.Store.Mode)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	return nil
}

// SQLitePath returns the absolute database path for the given base path.
func (c *Config) SQLitePath(basePath string) string {
	if c.SQLite.Path == ":memory:" || filepath.IsAbs(c.SQLite.Path) {
		return c.SQLite.Path
	}
	return filepath.Join(ConfigDir(basePath), c.SQLite.Path)
}

// APIBaseURL returns the base URL without a trailing slash.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(c.API.BaseURL, "/")
}

// ConfigDir returns the path to the .famtree config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// CasesFilePath returns the path to the case aliases file.
func CasesFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultCasesFile)
}

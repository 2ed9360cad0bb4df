// ABOUTME: Configuration loading and parsing for kgconsole
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Storage drivers accepted in storage.driver
const (
	StorageDriverFile   = "file"
	StorageDriverSQLite = "sqlite"
	StorageDriverRedis  = "redis"
)

// Defaults applied by Default() and to zero fields after loading
const (
	DefaultBaseURL       = "http://localhost:8000/api"
	DefaultTimeout       = 10 * time.Second
	DefaultChatTimeout   = 90 * time.Second
	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPrefix   = "kgconsole:"
	DefaultAdminUserType = 1
	DefaultDedupeWindow  = 2 * time.Second
)

// Config represents the complete kgconsole configuration
type Config struct {
	API     APIConfig     `yaml:"api" toml:"api"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Session SessionConfig `yaml:"session" toml:"session"`
	Notify  NotifyConfig  `yaml:"notify" toml:"notify"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// APIConfig holds the admin service endpoint and request timeouts
type APIConfig struct {
	BaseURL     string        `yaml:"base_url" toml:"base_url"`
	Timeout     time.Duration `yaml:"-" toml:"-"`
	ChatTimeout time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	TimeoutRaw     string `yaml:"timeout" toml:"timeout"`
	ChatTimeoutRaw string `yaml:"chat_timeout" toml:"chat_timeout"`
}

// StorageConfig selects where the session token and profile are persisted
type StorageConfig struct {
	Driver      string `yaml:"driver" toml:"driver"`
	Path        string `yaml:"path" toml:"path"` // directory for file, database file for sqlite
	RedisAddr   string `yaml:"redis_addr" toml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db" toml:"redis_db"`
	RedisPrefix string `yaml:"redis_prefix" toml:"redis_prefix"`
}

// SessionConfig holds session store settings
type SessionConfig struct {
	// AdminUserType is the user_type value that marks an administrator.
	// Nil means unset; an explicit 0 is honored.
	AdminUserType *int `yaml:"admin_user_type" toml:"admin_user_type"`
}

// AdminType returns the configured administrator user_type, or the default.
func (s SessionConfig) AdminType() int {
	if s.AdminUserType == nil {
		return DefaultAdminUserType
	}
	return *s.AdminUserType
}

// NotifyConfig holds user-facing notice settings
type NotifyConfig struct {
	DedupeWindow    time.Duration `yaml:"-" toml:"-"`
	DedupeWindowRaw string        `yaml:"dedupe_window" toml:"dedupe_window"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default() when it does not.
// Env overrides are applied either way.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		applyEnvOverrides(cfg)
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// Path returns the path to the console config file.
// Priority: KGCONSOLE_CONFIG env var > XDG_CONFIG_HOME/kgconsole/config.yaml > ~/.config/kgconsole/config.yaml
func Path() string {
	if envPath := os.Getenv("KGCONSOLE_CONFIG"); envPath != "" {
		return envPath
	}
	return filepath.Join(configDir(), "config.yaml")
}

// configDir returns the kgconsole directory under the XDG config home.
func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "kgconsole"
		}
		dir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(dir, "kgconsole")
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// expandHome turns a leading ~/ into the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultTimeout
	}
	if cfg.API.ChatTimeout == 0 {
		cfg.API.ChatTimeout = DefaultChatTimeout
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageDriverFile
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Driver {
		case StorageDriverSQLite:
			cfg.Storage.Path = filepath.Join(configDir(), "session.db")
		default:
			cfg.Storage.Path = filepath.Join(configDir(), "session")
		}
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	if cfg.Storage.RedisAddr == "" {
		cfg.Storage.RedisAddr = DefaultRedisAddr
	}
	if cfg.Storage.RedisPrefix == "" {
		cfg.Storage.RedisPrefix = DefaultRedisPrefix
	}

	if cfg.Session.AdminUserType == nil {
		admin := DefaultAdminUserType
		cfg.Session.AdminUserType = &admin
	}
	if cfg.Notify.DedupeWindow == 0 {
		cfg.Notify.DedupeWindow = DefaultDedupeWindow
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// applyEnvOverrides lets KGCONSOLE_API_URL replace the configured base URL.
func applyEnvOverrides(cfg *Config) {
	if u := os.Getenv("KGCONSOLE_API_URL"); u != "" {
		cfg.API.BaseURL = strings.TrimRight(u, "/")
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 || c.API.ChatTimeout < 0 {
		return fmt.Errorf("api timeouts must not be negative")
	}

	switch c.Storage.Driver {
	case StorageDriverFile, StorageDriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for driver %q", c.Storage.Driver)
		}
	case StorageDriverRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("storage.driver must be one of file, sqlite, redis, got %q", c.Storage.Driver)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.API.TimeoutRaw != "" {
		cfg.API.Timeout, err = time.ParseDuration(cfg.API.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.API.TimeoutRaw, err)
		}
	}

	if cfg.API.ChatTimeoutRaw != "" {
		cfg.API.ChatTimeout, err = time.ParseDuration(cfg.API.ChatTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing chat_timeout %q: %w", cfg.API.ChatTimeoutRaw, err)
		}
	}

	if cfg.Notify.DedupeWindowRaw != "" {
		cfg.Notify.DedupeWindow, err = time.ParseDuration(cfg.Notify.DedupeWindowRaw)
		if err != nil {
			return fmt.Errorf("parsing dedupe_window %q: %w", cfg.Notify.DedupeWindowRaw, err)
		}
	}

	return nil
}

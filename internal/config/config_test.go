// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
api:
  base_url: "https://admin.example.com/api/"
  timeout: "15s"
  chat_timeout: "2m"

storage:
  driver: "sqlite"
  path: "/var/lib/kgconsole/session.db"

session:
  admin_user_type: 7

notify:
  dedupe_window: "500ms"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://admin.example.com/api" {
		t.Errorf("API.BaseURL = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("API.Timeout = %v, want %v", cfg.API.Timeout, 15*time.Second)
	}
	if cfg.API.ChatTimeout != 2*time.Minute {
		t.Errorf("API.ChatTimeout = %v, want %v", cfg.API.ChatTimeout, 2*time.Minute)
	}
	if cfg.Storage.Driver != StorageDriverSQLite {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, StorageDriverSQLite)
	}
	if cfg.Storage.Path != "/var/lib/kgconsole/session.db" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Session.AdminType() != 7 {
		t.Errorf("Session.AdminType() = %d, want 7", cfg.Session.AdminType())
	}
	if cfg.Notify.DedupeWindow != 500*time.Millisecond {
		t.Errorf("Notify.DedupeWindow = %v, want 500ms", cfg.Notify.DedupeWindow)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[api]
base_url = "http://127.0.0.1:9000/api"
timeout = "3s"

[storage]
driver = "redis"
redis_addr = "cache:6379"
redis_db = 2
redis_prefix = "console:"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "http://127.0.0.1:9000/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("API.Timeout = %v, want 3s", cfg.API.Timeout)
	}
	if cfg.API.ChatTimeout != DefaultChatTimeout {
		t.Errorf("API.ChatTimeout = %v, want default %v", cfg.API.ChatTimeout, DefaultChatTimeout)
	}
	if cfg.Storage.Driver != StorageDriverRedis {
		t.Errorf("Storage.Driver = %q, want redis", cfg.Storage.Driver)
	}
	if cfg.Storage.RedisAddr != "cache:6379" || cfg.Storage.RedisDB != 2 || cfg.Storage.RedisPrefix != "console:" {
		t.Errorf("Storage redis settings = %+v", cfg.Storage)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_KG_API", "http://from-env:8000/api")

	configPath := writeConfig(t, "config.yaml", `
api:
  base_url: "${TEST_KG_API}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "http://from-env:8000/api" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "http://from-env:8000/api")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("KGCONSOLE_API_URL", "http://override:1/api/")

	configPath := writeConfig(t, "config.yaml", `
api:
  base_url: "http://file:8000/api"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "http://override:1/api" {
		t.Errorf("API.BaseURL = %q, want env override", cfg.API.BaseURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configPath := writeConfig(t, "config.yaml", "{}\n")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Timeout != DefaultTimeout {
		t.Errorf("API.Timeout = %v, want %v", cfg.API.Timeout, DefaultTimeout)
	}
	if cfg.Storage.Driver != StorageDriverFile {
		t.Errorf("Storage.Driver = %q, want file", cfg.Storage.Driver)
	}
	if cfg.Storage.Path != "/tmp/xdg/kgconsole/session" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Session.AdminUserType == nil || *cfg.Session.AdminUserType != DefaultAdminUserType {
		t.Errorf("Session.AdminUserType = %v, want %d", cfg.Session.AdminUserType, DefaultAdminUserType)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want warn/text", cfg.Logging)
	}
}

func TestLoad_ExplicitZeroAdminUserType(t *testing.T) {
	for name, tc := range map[string]struct{ file, content string }{
		"yaml": {"config.yaml", "session:\n  admin_user_type: 0\n"},
		"toml": {"config.toml", "[session]\nadmin_user_type = 0\n"},
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tc.file, tc.content))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Session.AdminType() != 0 {
				t.Errorf("Session.AdminType() = %d, want explicit 0 kept", cfg.Session.AdminType())
			}
		})
	}
}

func TestSessionConfig_AdminTypeUnset(t *testing.T) {
	var s SessionConfig
	if got := s.AdminType(); got != DefaultAdminUserType {
		t.Errorf("AdminType() = %d, want %d", got, DefaultAdminUserType)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want default", cfg.API.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", "api:\n  base_url: [unclosed\n")
	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
api:
  timeout: "soon"
`)
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("Load() error = %v, want mention of timeout", err)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantErrSubstr string
	}{
		{
			name:          "non-http base url",
			content:       "api:\n  base_url: \"ftp://example.com\"\n",
			wantErrSubstr: "api.base_url",
		},
		{
			name:          "unknown storage driver",
			content:       "storage:\n  driver: \"etcd\"\n",
			wantErrSubstr: "storage.driver",
		},
		{
			name:          "unknown log format",
			content:       "logging:\n  format: \"xml\"\n",
			wantErrSubstr: "logging.format",
		},
		{
			name:          "negative timeout",
			content:       "api:\n  timeout: \"-1s\"\n",
			wantErrSubstr: "timeouts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, "config.yaml", tt.content)
			_, err := Load(configPath)
			if err == nil {
				t.Fatalf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %v, want substring %q", err, tt.wantErrSubstr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("KG_TEST_A", "alpha")

	tests := []struct {
		input string
		want  string
	}{
		{"${KG_TEST_A}", "alpha"},
		{"x-${KG_TEST_A}-y", "x-alpha-y"},
		{"${KG_TEST_UNSET_VAR}", ""},
		{"no vars here", "no vars here"},
	}

	for _, tt := range tests {
		if got := expandEnvVars(tt.input); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPath(t *testing.T) {
	t.Setenv("KGCONSOLE_CONFIG", "/etc/kgconsole.yaml")
	if got := Path(); got != "/etc/kgconsole.yaml" {
		t.Errorf("Path() = %q, want env value", got)
	}

	t.Setenv("KGCONSOLE_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/home/u/.cfg")
	if got := Path(); got != "/home/u/.cfg/kgconsole/config.yaml" {
		t.Errorf("Path() = %q", got)
	}
}

// Package config handles configuration loading for kgconsole.
//
// # Overview
//
// Configuration is loaded from YAML (or TOML, by file extension) with
// environment variable expansion. Missing values fall back to defaults and the
// result is validated before use.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path given with --config
//  2. Path from KGCONSOLE_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/kgconsole/config.yaml
//  4. ~/.config/kgconsole/config.yaml
//
// A missing file is not an error: LoadOrDefault returns Default().
//
// # Configuration Sections
//
// Admin service:
//
//	api:
//	  base_url: "http://localhost:8000/api"
//	  timeout: "10s"        # every request
//	  chat_timeout: "90s"   # assistant replies
//
// Session persistence:
//
//	storage:
//	  driver: "file"        # file, sqlite, redis
//	  path: "~/.config/kgconsole/session"
//	  redis_addr: "localhost:6379"
//	  redis_prefix: "kgconsole:"
//
// Administrator detection and notices:
//
//	session:
//	  admin_user_type: 1
//	notify:
//	  dedupe_window: "2s"
//
// Logging:
//
//	logging:
//	  level: "warn"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Environment
//
// KGCONSOLE_API_URL overrides api.base_url after the file is read.
package config

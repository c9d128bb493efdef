// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for nila.
//
// Configuration is a TOML file with two tables: [client] for the terminal
// program and [server] for the conversation service. Values resolve in
// order: built-in defaults, then the config file, then environment
// overrides.
//
// File location: <user-config-dir>/nila/config.toml
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete nila configuration.
type Config struct {
	Client ClientConfig `toml:"client"`
	Server ServerConfig `toml:"server"`
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	// ServerURL is the base URL of the conversation service.
	ServerURL string `toml:"server_url"`

	// RequestTimeoutSecs bounds each HTTP call the client makes.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
}

// ServerConfig configures the conversation service (`nila serve`).
type ServerConfig struct {
	// ListenAddr is the address the HTTP listener binds to.
	ListenAddr string `toml:"listen_addr"`

	// DBPath is the SQLite database file.
	DBPath string `toml:"db_path"`

	// UpstreamKey is the OpenRouter API key used to compose replies.
	// SECURITY: Usually supplied via environment, not the config file.
	UpstreamKey string `toml:"upstream_key"`

	// UpstreamModel overrides the default reply model.
	UpstreamModel string `toml:"upstream_model"`

	// CORSOrigins is the browser-origin allowlist.
	CORSOrigins []string `toml:"cors_origins"`

	// RateLimitPerSec is the sustained per-IP request rate.
	RateLimitPerSec float64 `toml:"rate_limit_per_sec"`

	// RateLimitBurst is the per-IP burst allowance.
	RateLimitBurst int `toml:"rate_limit_burst"`

	// SessionTTLHours is how long issued session tokens stay valid.
	SessionTTLHours int `toml:"session_ttl_hours"`

	// ShutdownTimeoutSecs bounds the graceful-shutdown drain.
	ShutdownTimeoutSecs int `toml:"shutdown_timeout_secs"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			ServerURL:          "http://localhost:8000",
			RequestTimeoutSecs: 30,
		},
		Server: ServerConfig{
			ListenAddr: ":8000",
			DBPath:     "nila.db",
			CORSOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
			},
			RateLimitPerSec:     5,
			RateLimitBurst:      10,
			SessionTTLHours:     24 * 7,
			ShutdownTimeoutSecs: 10,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the nila configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	return filepath.Join(base, "nila"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// ensureSecurePermissions checks and fixes permissions on the config file.
// SECURITY: The file may carry the upstream key, so it must be 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load loads configuration from the default file location.
// A missing file is not an error: defaults plus environment overrides apply.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation. Environment overrides are applied after the file.
func LoadFromPath(path string) (*Config, error) {
	// SECURITY: Check and fix file permissions if needed.
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %v\n", path, undecoded)
	}

	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Client.ServerURL == "" {
		cfg.Client.ServerURL = defaults.Client.ServerURL
	}
	if cfg.Client.RequestTimeoutSecs == 0 {
		cfg.Client.RequestTimeoutSecs = defaults.Client.RequestTimeoutSecs
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = defaults.Server.DBPath
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = append([]string(nil), defaults.Server.CORSOrigins...)
	}
	if cfg.Server.RateLimitPerSec == 0 {
		cfg.Server.RateLimitPerSec = defaults.Server.RateLimitPerSec
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = defaults.Server.RateLimitBurst
	}
	if cfg.Server.SessionTTLHours == 0 {
		cfg.Server.SessionTTLHours = defaults.Server.SessionTTLHours
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = defaults.Server.ShutdownTimeoutSecs
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save saves the configuration to the default file location.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates the file with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if the file already existed.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# nila configuration file")
	fmt.Fprintln(file, "# Generated by nila - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config field %q: %s", e.Field, e.Message)
}

// ValidateErrors aggregates all validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%d config errors: %s", len(e), strings.Join(msgs, "; "))
}

// Validate checks the configuration for invalid values.
// Returns ValidateErrors listing every problem, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Client.ServerURL != "" {
		u, err := url.Parse(c.Client.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "client.server_url",
				Message: "must be a valid http or https URL",
			})
		}
	}
	if c.Client.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "client.request_timeout_secs",
			Message: "must not be negative",
		})
	}

	if c.Server.RateLimitPerSec < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit_per_sec",
			Message: "must not be negative",
		})
	}
	if c.Server.RateLimitBurst < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit_burst",
			Message: "must not be negative",
		})
	}
	if c.Server.SessionTTLHours < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.session_ttl_hours",
			Message: "must not be negative",
		})
	}
	for _, origin := range c.Server.CORSOrigins {
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.Path != "" {
			errs = append(errs, ValidationError{
				Field:   "server.cors_origins",
				Message: fmt.Sprintf("%q is not a valid origin (scheme://host[:port], no path)", origin),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported variables:
//   - NILA_SERVER_URL: overrides client.server_url
//   - NILA_LISTEN_ADDR: overrides server.listen_addr
//   - NILA_DB_PATH: overrides server.db_path
//   - NILA_API_KEY / OPENROUTER_API_KEY: overrides server.upstream_key
//   - NILA_UPSTREAM_MODEL: overrides server.upstream_model
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NILA_SERVER_URL"); v != "" {
		c.Client.ServerURL = v
	}
	if v := os.Getenv("NILA_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("NILA_DB_PATH"); v != "" {
		c.Server.DBPath = v
	}
	// NILA_API_KEY wins over the generic OPENROUTER_API_KEY.
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.Server.UpstreamKey = v
	}
	if v := os.Getenv("NILA_API_KEY"); v != "" {
		c.Server.UpstreamKey = v
	}
	if v := os.Getenv("NILA_UPSTREAM_MODEL"); v != "" {
		c.Server.UpstreamModel = v
	}
}

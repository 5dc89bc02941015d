// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for hueychat.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/hueychat/internal/util"
)

// DefaultSystemPrompt is the persona given to implicitly created conversations.
const DefaultSystemPrompt = "You are a helpful AI assistant."

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete hueychat configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Chat    ChatConfig    `toml:"chat"`
	Storage StorageConfig `toml:"storage"`
	Auth    AuthConfig    `toml:"auth"`
	Log     LogConfig     `toml:"log"`
}

// APIConfig describes the remote chat API.
type APIConfig struct {
	// BaseURL is the prefix every endpoint path is appended to.
	BaseURL string `toml:"base_url"`
	// TimeoutSecs bounds a single remote call. 0 selects the default.
	TimeoutSecs int `toml:"timeout_secs"`
	// RatePerSec throttles outgoing requests (client side).
	RatePerSec float64 `toml:"rate_per_sec"`
	// Burst is the token bucket size for RatePerSec.
	Burst int `toml:"burst"`
}

// ChatConfig holds conversation defaults and presentation bounds.
type ChatConfig struct {
	DefaultPrompt string `toml:"default_prompt"`
	// SelectedModel is sent with every message when non-empty.
	SelectedModel string `toml:"selected_model"`
	TitleMax      int    `toml:"title_max"`
	PreviewMax    int    `toml:"preview_max"`
	// DateLayout formats list timestamps older than a day (Go time layout).
	DateLayout string `toml:"date_layout"`
}

// StorageConfig selects where local state lives.
type StorageConfig struct {
	// Backend is "file" (one file per key) or "sqlite".
	Backend string `toml:"backend"`
	// DataDir is the local state directory (empty = ~/.hueychat).
	DataDir string `toml:"data_dir"`
}

// AuthConfig controls the remembered-credentials convenience.
type AuthConfig struct {
	RememberDays int `toml:"remember_days"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// File is the log destination (empty = <data_dir>/hueychat.log).
	File string `toml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "https://chat.yinxh.fun/api/v1",
			TimeoutSecs: 30,
			RatePerSec:  2,
			Burst:       4,
		},
		Chat: ChatConfig{
			DefaultPrompt: DefaultSystemPrompt,
			TitleMax:      20,
			PreviewMax:    25,
			DateLayout:    "2006-01-02",
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Auth: AuthConfig{
			RememberDays: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Timeout returns the bounded remote call timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// RememberFor returns how long remembered credentials stay valid.
func (c *Config) RememberFor() time.Duration {
	return time.Duration(c.Auth.RememberDays) * 24 * time.Hour
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// ConfigDir returns the hueychat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".hueychat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir resolves the local state directory.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	return ConfigDir()
}

// LogFile resolves the log destination.
func (c *Config) LogFile() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hueychat.log"), nil
}

// ensureSecurePermissions tightens a config file to 0600.
// The file may hold a selected model and data paths; it is never group readable.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.hueychat/config.toml when present and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file on top of cfg and fills missing values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// fillDefaults fills zero values left by a partial config file.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	cfg.API.BaseURL = strings.TrimSuffix(cfg.API.BaseURL, "/")
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if cfg.API.RatePerSec == 0 {
		cfg.API.RatePerSec = defaults.API.RatePerSec
	}
	if cfg.API.Burst == 0 {
		cfg.API.Burst = defaults.API.Burst
	}

	// default_prompt is left alone: files are decoded on top of Default(),
	// so an absent key keeps the default and an explicit "" means no prompt.
	if cfg.Chat.TitleMax == 0 {
		cfg.Chat.TitleMax = defaults.Chat.TitleMax
	}
	if cfg.Chat.PreviewMax == 0 {
		cfg.Chat.PreviewMax = defaults.Chat.PreviewMax
	}
	if cfg.Chat.DateLayout == "" {
		cfg.Chat.DateLayout = defaults.Chat.DateLayout
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Auth.RememberDays == 0 {
		cfg.Auth.RememberDays = defaults.Auth.RememberDays
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# hueychat configuration file\n")
	sb.WriteString("# Generated by hueychat - edit with care\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL %q", c.API.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("unsupported scheme %q, must be http or https", u.Scheme),
		})
	}

	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.API.TimeoutSecs),
		})
	}
	if c.API.RatePerSec < 0 {
		errs = append(errs, ValidationError{Field: "api.rate_per_sec", Message: "cannot be negative"})
	}
	if c.API.Burst < 1 {
		errs = append(errs, ValidationError{Field: "api.burst", Message: "must be at least 1"})
	}

	if c.Chat.TitleMax < 1 {
		errs = append(errs, ValidationError{Field: "chat.title_max", Message: "must be at least 1"})
	}
	if c.Chat.PreviewMax < 1 {
		errs = append(errs, ValidationError{Field: "chat.preview_max", Message: "must be at least 1"})
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "file", "sqlite":
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite", c.Storage.Backend),
		})
	}

	if c.Auth.RememberDays < 1 {
		errs = append(errs, ValidationError{Field: "auth.remember_days", Message: "must be at least 1"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - HUEYCHAT_API_URL: overrides api.base_url
//   - HUEYCHAT_TIMEOUT: overrides api.timeout_secs
//   - HUEYCHAT_MODEL: overrides chat.selected_model
//   - HUEYCHAT_DATA_DIR: overrides storage.data_dir
//   - HUEYCHAT_STORAGE: overrides storage.backend
//   - HUEYCHAT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("HUEYCHAT_API_URL"); v != "" {
		c.API.BaseURL = strings.TrimSuffix(v, "/")
	}
	if v := os.Getenv("HUEYCHAT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("HUEYCHAT_MODEL"); v != "" {
		c.Chat.SelectedModel = v
	}
	if v := os.Getenv("HUEYCHAT_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("HUEYCHAT_STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("HUEYCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the configuration as TOML for `config show`.
func (c *Config) String() string {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Sprintf("<config encode error: %v>", err)
	}
	return sb.String()
}

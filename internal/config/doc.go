// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for hueychat.
//
// Configuration is read from ~/.hueychat/config.toml, falling back to
// built-in defaults, with environment variable overrides (HUEYCHAT_*)
// applied last.
//
// # Key Types
//
//   - Config: main configuration structure
//   - APIConfig: remote API location, timeout and client-side throttling
//   - ChatConfig: default prompt, selected model, title/preview bounds
//   - StorageConfig: local state backend (file or sqlite) and directory
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.Timeout()
//
// Watch the file for edits while the TUI runs:
//
//	go config.Watch(ctx, path, func(c *config.Config) { ... }, nil)
package config

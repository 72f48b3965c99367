// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for navshell.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ViewConfig: One [[views]] entry, turned into the view registry by Config.Registry
//   - RouterConfig: Location file, mount timeout, queue and history sizes
//   - ValidationError, ValidateErrors: Field-level validation failures
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (NAVSHELL_*)
//   - ~/.navshell/config.toml
//   - ~/.navshell/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil && cfg == nil {
//	    log.Fatal(err)
//	}
//	reg, err := cfg.Registry()
package config

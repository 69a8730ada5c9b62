// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for concierge.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - OpenAIConfig: Credentials and overrides for the Assistants API
//   - BrandingConfig: Deployment-specific display text with label fallbacks
//   - SessionConfig: Idle timeout behavior
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (API_KEY, ASSISTANT_KEY, PAGE_TITLE, ...)
//   - .env file in the working directory
//   - ~/.concierge/config.toml
//   - ~/.concierge/config.json
//   - Built-in defaults
//
// Every source may be absent; an unconfigured install still starts and
// reports missing credentials only when a request is attempted.
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	title := cfg.Branding.Title()
//	timeout := cfg.Session.IdleTimeout()
package config

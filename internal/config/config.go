// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for concierge.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.concierge/config.toml
//   - ~/.concierge/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/concierge/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete concierge configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// OpenAI Assistants configuration
	OpenAI OpenAIConfig `toml:"openai" json:"openai"`

	// Branding configuration (titles, prompts, deployment-specific text)
	Branding BrandingConfig `toml:"branding" json:"branding"`

	// Session configuration
	Session SessionConfig `toml:"session" json:"session"`

	// Server configuration (concierge serve)
	Server ServerConfig `toml:"server" json:"server"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// OpenAIConfig contains OpenAI Assistants API configuration.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key
	APIKey string `toml:"api_key" json:"api_key"`
	// AssistantID is the ID of the assistant this deployment fronts
	AssistantID string `toml:"assistant_id" json:"assistant_id"`
	// Model overrides the assistant's stored model when non-empty
	Model string `toml:"model" json:"model"`
	// Instructions overrides the assistant's stored instructions when non-empty
	Instructions string `toml:"instructions" json:"instructions"`
	// BaseURL overrides the API base URL (empty = api.openai.com)
	BaseURL string `toml:"base_url" json:"base_url"`
}

// Configured returns true when both credentials are present.
func (o OpenAIConfig) Configured() bool {
	return o.APIKey != "" && o.AssistantID != ""
}

// BrandingConfig contains deployment-specific display text.
//
// All fields tolerate being empty; the accessor methods supply neutral
// fallbacks for labels the UI cannot leave blank.
type BrandingConfig struct {
	// PageTitle is the application title shown in headers
	PageTitle string `toml:"page_title" json:"page_title"`
	// WelcomeMessage is shown on the welcome screen before a chat starts
	WelcomeMessage string `toml:"welcome_message" json:"welcome_message"`
	// UserPrompt is the input placeholder text
	UserPrompt string `toml:"user_prompt" json:"user_prompt"`
	// BeginMessage is shown when a new chat begins
	BeginMessage string `toml:"begin_message" json:"begin_message"`
	// ExitMessage is shown when the user leaves
	ExitMessage string `toml:"exit_message" json:"exit_message"`
	// StartButton is the label on the start-chat control
	StartButton string `toml:"start_button" json:"start_button"`
	// DisclaimerPath is a path to a markdown disclaimer shown on the
	// welcome screen (empty = none)
	DisclaimerPath string `toml:"disclaimer_path" json:"disclaimer_path"`
	// LogoPath is a path to an ASCII/ANSI logo shown on the welcome
	// screen (empty = none)
	LogoPath string `toml:"logo_path" json:"logo_path"`
}

// Title returns the page title, defaulting to "Concierge".
func (b BrandingConfig) Title() string {
	if b.PageTitle != "" {
		return b.PageTitle
	}
	return "Concierge"
}

// Prompt returns the input placeholder, defaulting to a neutral label.
func (b BrandingConfig) Prompt() string {
	if b.UserPrompt != "" {
		return b.UserPrompt
	}
	return "Type your message"
}

// StartLabel returns the start-chat control label.
func (b BrandingConfig) StartLabel() string {
	if b.StartButton != "" {
		return b.StartButton
	}
	return "Start chat"
}

// ExitText returns the farewell message.
func (b BrandingConfig) ExitText() string {
	if b.ExitMessage != "" {
		return b.ExitMessage
	}
	return "Goodbye."
}

// SessionConfig contains chat session configuration.
type SessionConfig struct {
	// IdleTimeoutSecs resets an inactive chat after this many seconds.
	// 0 disables the idle timeout.
	IdleTimeoutSecs int `toml:"idle_timeout_secs" json:"idle_timeout_secs"`
}

// IdleTimeout returns the idle timeout as a duration (0 = disabled).
func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSecs) * time.Second
}

// ServerConfig contains configuration for the HTTP server surface.
type ServerConfig struct {
	// Addr is the listen address for concierge serve
	Addr string `toml:"addr" json:"addr"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		OpenAI: OpenAIConfig{
			APIKey:       "",
			AssistantID:  "",
			Model:        "",
			Instructions: "",
			BaseURL:      "",
		},

		Branding: BrandingConfig{},

		Session: SessionConfig{
			IdleTimeoutSecs: 900, // 15 minutes, 0 disables
		},

		Server: ServerConfig{
			Addr: ":8080",
		},

		UI: UIConfig{
			Theme: "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the concierge configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".concierge"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err // File doesn't exist or not accessible
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the environment and config file(s).
//
// A .env file in the working directory is read into the process
// environment first (missing file is fine). Then the config file is
// loaded: TOML first, then JSON, falling back to defaults. Environment
// overrides are applied last and always win.
func Load() (*Config, error) {
	// .env is how branded deployments ship their settings.
	_ = godotenv.Load()

	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Defaults only (with any load error for informational purposes)
	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finishLoad applies the override/defaults/validation pipeline shared by
// every load path.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	// SECURITY: Check and fix file permissions if needed
	if err := ensureSecurePermissions(path); err != nil {
		// Log warning but don't fail - permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	// SECURITY: Check and fix file permissions if needed
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// SECURITY: Create file with restrictive permissions (0600 = owner read/write only)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	// Write header comment
	fmt.Fprintln(file, "# concierge configuration file")
	fmt.Fprintln(file, "# Generated by concierge - edit with care")
	fmt.Fprintln(file, "#")
	fmt.Fprintln(file, "# Environment variables (API_KEY, ASSISTANT_KEY, ...) override these values.")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
//
// Missing credentials are not a validation error: the application
// tolerates an unconfigured state and reports it when a request is
// actually attempted.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Validate base URL if specified
	if c.OpenAI.BaseURL != "" {
		if _, err := url.Parse(c.OpenAI.BaseURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "openai.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	// Validate disclaimer path if specified
	if p := c.Branding.DisclaimerPath; p != "" {
		if _, err := os.Stat(p); err != nil {
			errs = append(errs, ValidationError{
				Field:   "branding.disclaimer_path",
				Message: fmt.Sprintf("file not accessible: %v", err),
			})
		}
	}

	// Validate logo path if specified
	if p := c.Branding.LogoPath; p != "" {
		if _, err := os.Stat(p); err != nil {
			errs = append(errs, ValidationError{
				Field:   "branding.logo_path",
				Message: fmt.Sprintf("file not accessible: %v", err),
			})
		}
	}

	// Validate idle timeout (0 disables; otherwise a sane range)
	if t := c.Session.IdleTimeoutSecs; t != 0 && (t < 30 || t > 86400) {
		errs = append(errs, ValidationError{
			Field:   "session.idle_timeout_secs",
			Message: fmt.Sprintf("must be 0 (disabled) or 30-86400 seconds, got %d", t),
		})
	}

	// Validate server address
	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{
			Field:   "server.addr",
			Message: "listen address must not be empty",
		})
	}

	// Validate UI theme
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
//
// Branding fields are deliberately left alone: absent branding stays
// empty and display fallbacks live in the accessors.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// The variable names match the deployment convention this front-end
// inherits: a branded install ships a .env file with these names.
//
// Supported environment variables:
//   - API_KEY: overrides openai.api_key
//   - ASSISTANT_KEY: overrides openai.assistant_id
//   - OPENAI_MODEL: overrides openai.model
//   - INSTRUCTIONS: overrides openai.instructions
//   - OPENAI_BASE_URL: overrides openai.base_url
//   - PAGE_TITLE: overrides branding.page_title
//   - WELCOME_MESSAGE: overrides branding.welcome_message
//   - USER_PROMPT: overrides branding.user_prompt
//   - BEGIN_MESSAGE: overrides branding.begin_message
//   - EXIT_MESSAGE: overrides branding.exit_message
//   - START_CHAT_BUTTON: overrides branding.start_button
//   - DISCLAIMER: overrides branding.disclaimer_path
//   - LOGO: overrides branding.logo_path
//   - CHAT_IDLE_TIMEOUT: overrides session.idle_timeout_secs (unparseable values are ignored)
//   - CONCIERGE_ADDR: overrides server.addr
//   - CONCIERGE_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("ASSISTANT_KEY"); v != "" {
		c.OpenAI.AssistantID = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("INSTRUCTIONS"); v != "" {
		c.OpenAI.Instructions = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}

	if v := os.Getenv("PAGE_TITLE"); v != "" {
		c.Branding.PageTitle = v
	}
	if v := os.Getenv("WELCOME_MESSAGE"); v != "" {
		c.Branding.WelcomeMessage = v
	}
	if v := os.Getenv("USER_PROMPT"); v != "" {
		c.Branding.UserPrompt = v
	}
	if v := os.Getenv("BEGIN_MESSAGE"); v != "" {
		c.Branding.BeginMessage = v
	}
	if v := os.Getenv("EXIT_MESSAGE"); v != "" {
		c.Branding.ExitMessage = v
	}
	if v := os.Getenv("START_CHAT_BUTTON"); v != "" {
		c.Branding.StartButton = v
	}
	if v := os.Getenv("DISCLAIMER"); v != "" {
		c.Branding.DisclaimerPath = v
	}
	if v := os.Getenv("LOGO"); v != "" {
		c.Branding.LogoPath = v
	}

	if v := os.Getenv("CHAT_IDLE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Session.IdleTimeoutSecs = secs
		}
	}
	if v := os.Getenv("CONCIERGE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CONCIERGE_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "branding.page_title").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		// If this is the last part, return the value
		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		// Otherwise, navigate into the struct
		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		// If this is the last part, set the value
		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		// Otherwise, navigate into the struct
		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	// Handle string input with type conversion
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	// Direct assignment for matching types
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	// Type conversion for compatible types
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"openai.api_key",
		"openai.assistant_id",
		"openai.model",
		"openai.instructions",
		"openai.base_url",
		"branding.page_title",
		"branding.welcome_message",
		"branding.user_prompt",
		"branding.begin_message",
		"branding.exit_message",
		"branding.start_button",
		"branding.disclaimer_path",
		"branding.logo_path",
		"session.idle_timeout_secs",
		"server.addr",
		"ui.theme",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: Redacts the API key to prevent accidental exposure in logs,
// error messages, or debug output.
func (c *Config) String() string {
	safe := c.Clone()

	if safe.OpenAI.APIKey != "" {
		safe.OpenAI.APIKey = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration management command handler.
//
// CLI: Comprehensive help and examples for all commands
// SECURITY: API keys are never printed in full, only fingerprinted
//
// Handles the "concierge config" command group for inspecting and
// editing the on-disk configuration.
//
// Command: config [subcommand]
// Short:   Manage concierge configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print one value (dot notation)
//   set <key> <value>   Set one value and save
//   path                Print the config file path
//   reset [--force]     Reset configuration to defaults
//   keys                List all settable keys
//
// Examples:
//   concierge config
//   concierge config get openai.model
//   concierge config set ui.theme dark
//   concierge config set branding.welcome_message Welcome to the lodge!
//   concierge config reset --force
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"bufio"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/concierge/internal/config"
)

// HandleConfigCommand handles the "config" command group.
func HandleConfigCommand(args Args) error {
	rest := []string{}
	if len(args.Raw) > 1 {
		rest = args.Raw[1:]
	}
	parser := NewArgParser(rest)

	switch parser.Subcommand() {
	case "", "show":
		return handleConfigShow(args)
	case "get":
		return handleConfigGet(parser)
	case "set":
		return handleConfigSet(parser)
	case "path":
		return handleConfigPath(args)
	case "reset":
		return handleConfigReset(parser)
	case "keys":
		return handleConfigKeys()
	default:
		return fmt.Errorf("%w: unknown config subcommand %q (try show, get, set, path, reset, keys)",
			ErrInvalidFormat, parser.Subcommand())
	}
}

// =============================================================================
// SUBCOMMAND HANDLERS
// =============================================================================

// handleConfigShow displays the full configuration with secrets masked.
func handleConfigShow(args Args) error {
	cfg := config.Global()

	if OutputJSON(args.JSON, "config", func() (interface{}, error) {
		return buildConfigData(cfg), nil
	}) {
		return nil
	}

	fmt.Println(TitleStyle.Render("Concierge configuration"))
	if path := resolveConfigPath(); path != "" {
		fmt.Println(RenderLabel("Config file", path))
	}
	fmt.Println(RenderSeparator(60))

	fmt.Println(SectionStyle.Render("OpenAI"))
	fmt.Println(RenderLabel("API key", maskAPIKey(cfg.OpenAI.APIKey)))
	fmt.Println(RenderLabel("Assistant", valueOrUnset(cfg.OpenAI.AssistantID)))
	fmt.Println(RenderLabel("Model", valueOr(cfg.OpenAI.Model, "(assistant default)")))
	fmt.Println(RenderLabel("Base URL", valueOr(cfg.OpenAI.BaseURL, "(api.openai.com)")))

	fmt.Println(SectionStyle.Render("Branding"))
	fmt.Println(RenderLabel("Title", cfg.Branding.Title()))
	fmt.Println(RenderLabel("Prompt", cfg.Branding.Prompt()))
	fmt.Println(RenderLabel("Start button", cfg.Branding.StartLabel()))

	fmt.Println(SectionStyle.Render("Session"))
	fmt.Println(RenderLabel("Idle timeout", cfg.Session.IdleTimeout().String()))

	fmt.Println(SectionStyle.Render("Server"))
	fmt.Println(RenderLabel("Listen address", cfg.Server.Addr))

	fmt.Println(SectionStyle.Render("UI"))
	fmt.Println(RenderLabel("Theme", cfg.UI.Theme))

	if !cfg.OpenAI.Configured() {
		fmt.Println()
		fmt.Println(WarningStyle.Render("Assistant not configured. Set openai.api_key and openai.assistant_id."))
	}
	fmt.Println()
	fmt.Println(DimStyle.Render("Run 'concierge config keys' to list settable keys."))
	return nil
}

// handleConfigGet prints a single configuration value.
func handleConfigGet(parser *ArgParser) error {
	key := parser.Positional(1)
	if key == "" {
		return fmt.Errorf("%w: usage: concierge config get <key>", ErrMissingArgument)
	}
	key = normalizeKey(key)

	value, err := config.Global().Get(key)
	if err != nil {
		return NewValidationError("key", key, "unknown configuration key", "openai.model")
	}

	// SECURITY: never echo secrets back in full
	if isSecretKey(key) {
		if s, ok := value.(string); ok {
			value = maskAPIKey(s)
		}
	}

	fmt.Printf("%v\n", value)
	return nil
}

// handleConfigSet updates a single value, validates, and saves.
func handleConfigSet(parser *ArgParser) error {
	key := parser.Positional(1)
	value := JoinPositionalArgs(parser, 2)
	if key == "" || value == "" {
		return fmt.Errorf("%w: usage: concierge config set <key> <value>", ErrMissingArgument)
	}
	key = normalizeKey(key)

	cfg := config.Global().Clone()
	if err := cfg.Set(key, value); err != nil {
		return NewValidationError("key", key, err.Error(), "concierge config set ui.theme dark")
	}
	if err := cfg.Validate(); err != nil {
		return WrapError(err, "invalid configuration")
	}
	if err := config.Save(cfg); err != nil {
		return WrapError(err, "save configuration")
	}
	config.SetGlobal(cfg)

	display := value
	if isSecretKey(key) {
		display = maskAPIKey(value)
	}
	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("Saved:"), key, display)
	return nil
}

// handleConfigPath prints the config file location.
func handleConfigPath(args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return WrapError(err, "resolve config path")
	}

	if OutputJSON(args.JSON, "config", func() (interface{}, error) {
		return map[string]string{"path": path}, nil
	}) {
		return nil
	}

	fmt.Println(path)
	return nil
}

// handleConfigReset restores defaults, prompting unless --force is set.
func handleConfigReset(parser *ArgParser) error {
	if !parser.BoolFlag("force") && !parser.BoolFlag("f") {
		if !CanPrompt() {
			return fmt.Errorf("%w: pass --force to reset without a prompt", ErrMissingArgument)
		}
		fmt.Print("Reset configuration to defaults? [y/N] ")
		answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return WrapError(err, "read confirmation")
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cfg := config.Default()
	if err := config.Save(cfg); err != nil {
		return WrapError(err, "save configuration")
	}
	config.SetGlobal(cfg)

	fmt.Println(SuccessStyle.Render("Configuration reset to defaults."))
	return nil
}

// handleConfigKeys lists every key accepted by get/set.
func handleConfigKeys() error {
	for _, key := range config.GetAllKeys() {
		fmt.Println(key)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// normalizeKey accepts env-style names (openai_api_key) as well as dot
// notation (openai.api_key).
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if !strings.Contains(key, ".") {
		key = strings.Replace(key, "_", ".", 1)
	}
	return key
}

// isSecretKey reports whether a key holds a credential.
func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range []string{"key", "secret", "token", "password"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// maskAPIKey renders a credential as a short fingerprint so two configs
// can be compared without exposing the key itself.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) < 8 {
		return "[invalid key]"
	}
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("sha256:%x...", sum[:4])
}

func valueOrUnset(s string) string {
	return valueOr(s, "(not set)")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// resolveConfigPath returns the TOML config path or "" when the home
// directory cannot be determined.
func resolveConfigPath() string {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	return path
}

// buildConfigData assembles the JSON payload for config show.
func buildConfigData(cfg *config.Config) ConfigData {
	data := ConfigData{
		Path: resolveConfigPath(),
		OpenAI: OpenAIInfo{
			KeySet:      cfg.OpenAI.APIKey != "",
			AssistantID: cfg.OpenAI.AssistantID,
			Model:       cfg.OpenAI.Model,
			BaseURL:     cfg.OpenAI.BaseURL,
		},
		Branding: BrandingInfo{
			PageTitle:      cfg.Branding.Title(),
			WelcomeMessage: cfg.Branding.WelcomeMessage,
			UserPrompt:     cfg.Branding.Prompt(),
			StartButton:    cfg.Branding.StartLabel(),
			ExitMessage:    cfg.Branding.ExitText(),
		},
		Session: SessionInfo{IdleTimeoutSecs: cfg.Session.IdleTimeoutSecs},
		Server:  ServerInfo{Addr: cfg.Server.Addr},
		UI:      UIInfo{Theme: cfg.UI.Theme},
	}
	if data.OpenAI.KeySet {
		data.OpenAI.KeyFingerprint = maskAPIKey(cfg.OpenAI.APIKey)
	}
	return data
}

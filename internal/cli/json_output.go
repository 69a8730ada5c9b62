// json_output.go - JSON output support for scripted use of the CLI.
//
// Provides a standardized envelope so every command's --json output has
// the same shape: success flag, payload, error, timestamp, command.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONResponse is the standardized response format for CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
// Human-readable messages should go to stderr when JSON mode is enabled.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// OutputJSON runs handler and prints its result in the JSON envelope when
// jsonMode is set. Returns true when JSON output was produced, so callers
// can fall through to their human-readable path on false.
func OutputJSON(jsonMode bool, command string, handler func() (interface{}, error)) bool {
	if !jsonMode {
		return false
	}

	data, err := handler()
	if err != nil {
		NewJSONErrorResponse(command, err).Print()
		return true
	}
	NewJSONResponse(command, data).Print()
	return true
}

// =============================================================================
// COMMAND DATA PAYLOADS
// =============================================================================

// VersionData is the payload for version --json.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// AskData is the payload for ask --json.
type AskData struct {
	Question   string `json:"question"`
	Reply      string `json:"reply"`
	ThreadID   string `json:"thread_id"`
	Assistant  string `json:"assistant,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// ConfigData is the payload for config show --json. The API key itself
// never appears; only a presence flag and fingerprint.
type ConfigData struct {
	Path     string       `json:"path,omitempty"`
	OpenAI   OpenAIInfo   `json:"openai"`
	Branding BrandingInfo `json:"branding"`
	Session  SessionInfo  `json:"session"`
	Server   ServerInfo   `json:"server"`
	UI       UIInfo       `json:"ui"`
}

// OpenAIInfo describes the provider section of the config.
type OpenAIInfo struct {
	KeySet         bool   `json:"api_key_set"`
	KeyFingerprint string `json:"api_key_fingerprint,omitempty"`
	AssistantID    string `json:"assistant_id"`
	Model          string `json:"model,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
}

// BrandingInfo describes the branding section of the config.
type BrandingInfo struct {
	PageTitle      string `json:"page_title"`
	WelcomeMessage string `json:"welcome_message,omitempty"`
	UserPrompt     string `json:"user_prompt"`
	StartButton    string `json:"start_button"`
	ExitMessage    string `json:"exit_message"`
}

// SessionInfo describes the session section of the config.
type SessionInfo struct {
	IdleTimeoutSecs int `json:"idle_timeout_secs"`
}

// ServerInfo describes the server section of the config.
type ServerInfo struct {
	Addr string `json:"addr"`
}

// UIInfo describes the UI section of the config.
type UIInfo struct {
	Theme string `json:"theme"`
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for the concierge CLI.
//
// STANDARDIZED PATTERN:
//   - Handlers ALWAYS return errors (never print and return nil)
//   - The command wrappers in cli.go display them and map the exit code
//   - Structured error types carry enough context for --json output
//
// ERROR HANDLING: Errors must not be silently ignored
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/concierge/internal/assistant"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates missing or invalid configuration
	ExitConfigError = 3
	// ExitAuthError indicates the API rejected the credentials
	ExitAuthError = 4
	// ExitNetworkError indicates a network or connectivity error
	ExitNetworkError = 5
	// ExitNotFoundError indicates the assistant or thread was not found
	ExitNotFoundError = 6
	// ExitQuotaError indicates rate limiting or exhausted quota
	ExitQuotaError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "ask", "config")
	Action  string // Action being performed (e.g., "set", "read file")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a CommandError with full context.
func NewCommandError(command, action, reason string, err error) *CommandError {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewValidationError creates a ValidationError with an example.
func NewValidationError(field, value, reason, example string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// =============================================================================
// COMMON ERROR SENTINELS
// =============================================================================

var (
	// ErrMissingArgument indicates a required argument was not provided.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrInvalidFormat indicates an argument had an invalid format.
	ErrInvalidFormat = errors.New("invalid format")
)

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError prints an error to the appropriate stream. In JSON mode
// the error goes to stdout as a JSONResponse so machine consumers see a
// well-formed document; otherwise a styled line goes to stderr.
func DisplayError(err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[ERROR]"), err)
}

// DisplayErrorJSON prints an error as a JSON response on stdout,
// including structured detail for the typed errors.
func DisplayErrorJSON(err error) {
	detail := map[string]interface{}{
		"message":   err.Error(),
		"exit_code": GetExitCode(err),
	}

	var cmdErr *CommandError
	var valErr *ValidationError
	switch {
	case errors.As(err, &cmdErr):
		detail["type"] = "command"
		detail["command"] = cmdErr.Command
		detail["action"] = cmdErr.Action
		detail["reason"] = cmdErr.Reason
	case errors.As(err, &valErr):
		detail["type"] = "validation"
		detail["field"] = valErr.Field
		detail["reason"] = valErr.Reason
		if valErr.Example != "" {
			detail["example"] = valErr.Example
		}
	}

	resp := NewJSONErrorResponse("", err)
	resp.Data = detail
	resp.Print()
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to a process exit code. Provider sentinels
// are checked first since they are the common failure modes; string
// matching is the fallback for errors that arrive without their sentinel.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		return ExitConfigError
	case errors.Is(err, assistant.ErrAuthFailed):
		return ExitAuthError
	case errors.Is(err, assistant.ErrNotFound):
		return ExitNotFoundError
	case errors.Is(err, assistant.ErrRateLimited), errors.Is(err, assistant.ErrInsufficientQuota):
		return ExitQuotaError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, ErrMissingArgument), errors.Is(err, ErrInvalidFormat):
		return ExitUsageError
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return ExitUsageError
	}
	var ttyErr *TTYRequiredError
	if errors.As(err, &ttyErr) {
		return ExitUsageError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "authentication"):
		return ExitAuthError
	case strings.Contains(msg, "connection"), strings.Contains(msg, "network"), strings.Contains(msg, "dial"):
		return ExitNetworkError
	case strings.Contains(msg, "not found"):
		return ExitNotFoundError
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return ExitTimeoutError
	case strings.Contains(msg, "config"):
		return ExitConfigError
	}
	return ExitGeneralError
}

// WrapError adds context to an error while preserving the chain.
// Returns nil if err is nil so callers can wrap unconditionally.
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

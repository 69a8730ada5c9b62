// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for
// concierge.
//
// The package owns argument parsing and every non-TUI surface: the
// one-shot ask command, the interactive chat REPL, the HTTP serve
// command, and config management. Parse classifies os.Args into a
// Command plus an Args struct and main routes each command to its
// Handle* entry point. All surfaces drive the same conversation
// controller and assistant client as the TUI, so a thread started on
// one surface behaves exactly like a thread started on any other.
//
// # Key Types
//
//   - Command: Enumeration of the top-level commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ArgParser: Subcommand-level flag and positional parsing
//   - JSONResponse: Envelope for --json machine-readable output
//
// # Output Conventions
//
//   - Replies and requested data go to stdout.
//   - Status and progress messages go to stderr so piped output stays clean.
//   - --json switches stdout to a JSONResponse envelope.
//   - Exit codes are stable and documented in errors.go.
package cli

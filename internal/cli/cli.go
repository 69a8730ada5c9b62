// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for concierge.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/concierge/internal/assistant"
	"github.com/jeranaias/concierge/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI     Command = iota // Default: launch the terminal UI
	CmdAsk                    // One-shot question, reply to stdout
	CmdChat                   // Interactive terminal REPL (no TUI)
	CmdServe                  // HTTP chat surface
	CmdConfig                 // Configuration management
	CmdVersion                // Version information
	CmdHelp                   // Usage text
	CmdUnknown                // Unrecognized command word
)

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	Quiet   bool // Suppress status messages on stderr
	Verbose bool // Extra diagnostics
	JSON    bool // Machine-readable JSON output

	// Ask
	Query string // Question text assembled from positional args
	File  string // Optional file to include as context (-f/--file)

	// Unknown command handling
	Unknown string // The unrecognized command word

	// Raw holds the arguments remaining after global flag extraction.
	// Raw[0] is the command word when one was given; subcommand handlers
	// parse the rest themselves via ArgParser.
	Raw []string
}

const usageText = `concierge %s - chat front end for one OpenAI Assistant

USAGE:
    concierge [command] [options]

COMMANDS:
    (none)           Launch the terminal UI
    ask <question>   Ask one question and print the reply
    chat             Interactive chat in the terminal
    serve            Serve the chat UI over HTTP
    config           Show or modify configuration
    version          Show version information
    help             Show this help

OPTIONS:
    -q, --quiet      Suppress status messages
    -v, --verbose    Verbose output
    --json           Machine-readable JSON output
    -f, --file <p>   Include a file as context (ask only)
    --addr <addr>    Listen address (serve only)

EXAMPLES:
    concierge                            Launch the TUI
    concierge ask "When do you open?"    One-shot question
    cat notes.txt | concierge ask        Question from a pipe
    concierge chat                       Terminal chat session
    concierge serve --addr :8080         HTTP chat on port 8080
    concierge config set ui.theme dark   Change a setting

CONFIGURATION:
    File:        ~/.concierge/config.toml (or config.json)
    Environment: OPENAI_API_KEY, ASSISTANT_ID, and friends override
                 the file. Run 'concierge config keys' for the list.
`

// PrintUsage prints the usage text to stdout.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information to stdout.
func PrintVersion() {
	fmt.Printf("concierge %s\n", Version)
	if GitCommit != "unknown" {
		fmt.Printf("  commit: %s\n", GitCommit)
	}
	if BuildDate != "unknown" {
		fmt.Printf("  built:  %s\n", BuildDate)
	}
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// Parse parses os.Args and returns the command to run plus its arguments.
func Parse() (Command, Args) {
	args := Args{}
	rest := parseGlobalFlags(os.Args[1:], &args)
	args.Raw = rest

	if len(rest) == 0 {
		return CmdTUI, args
	}

	switch strings.ToLower(rest[0]) {
	case "tui":
		return CmdTUI, args
	case "ask":
		parseAskArgs(rest[1:], &args)
		return CmdAsk, args
	case "chat":
		return CmdChat, args
	case "serve", "server":
		return CmdServe, args
	case "config":
		return CmdConfig, args
	case "version", "--version", "-v": // -V lowers to -v; a bare -v was already taken as --verbose
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		args.Unknown = rest[0]
		return CmdUnknown, args
	}
}

// parseGlobalFlags extracts flags valid for every command and returns
// the remaining arguments in order.
func parseGlobalFlags(argv []string, args *Args) []string {
	remaining := make([]string, 0, len(argv))
	for _, arg := range argv {
		switch arg {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining
}

// parseAskArgs parses the ask command's arguments. Everything that is
// not a recognized flag joins the question text, so quoting is optional.
func parseAskArgs(argv []string, args *Args) {
	var queryParts []string
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-f" || arg == "--file":
			if i+1 < len(argv) {
				args.File = argv[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--file="):
			args.File = strings.TrimPrefix(arg, "--file=")
		default:
			queryParts = append(queryParts, arg)
		}
	}
	args.Query = strings.Join(queryParts, " ")
}

// =============================================================================
// COMMAND WRAPPERS
// =============================================================================
// Each wraps a Handle*Command that returns an error, displaying it and
// exiting with the mapped exit code. main stays a plain switch.

// HandleAsk runs the ask command and exits on error.
func HandleAsk(args Args) {
	exitOnError(HandleAskCommand(args), args.JSON)
}

// HandleChat runs the interactive chat REPL and exits on error.
func HandleChat(args Args) {
	exitOnError(HandleChatCommand(args), args.JSON)
}

// HandleServe runs the HTTP surface and exits on error.
func HandleServe(args Args) {
	exitOnError(HandleServeCommand(args), args.JSON)
}

// HandleConfig runs the config command and exits on error.
func HandleConfig(args Args) {
	exitOnError(HandleConfigCommand(args), args.JSON)
}

// HandleVersion prints version information, as JSON when requested.
func HandleVersion(args Args) {
	if args.JSON {
		NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
		return
	}
	PrintVersion()
}

// HandleHelp prints the usage text.
func HandleHelp() {
	PrintUsage()
}

// HandleUnknown reports an unrecognized command, suggesting the closest
// valid one, and exits with a usage error.
func HandleUnknown(args Args) {
	fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", args.Unknown)
	if suggestion := SuggestCommand(args.Unknown); suggestion != "" {
		fmt.Fprintf(os.Stderr, "Did you mean 'concierge %s'?\n", suggestion)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, usageText, Version)
	os.Exit(ExitUsageError)
}

// exitOnError displays err and exits with its mapped code. A nil err is
// a no-op so wrappers can call it unconditionally.
func exitOnError(err error, jsonMode bool) {
	if err == nil {
		return
	}
	DisplayError(err, jsonMode)
	os.Exit(GetExitCode(err))
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// buildClient constructs an assistant client from configuration. Every
// surface goes through here so option handling stays in one place.
func buildClient(cfg *config.Config) *assistant.Client {
	client := assistant.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.AssistantID)
	if cfg.OpenAI.BaseURL != "" {
		client = client.WithBaseURL(cfg.OpenAI.BaseURL)
	}
	if cfg.OpenAI.Model != "" {
		client = client.WithModel(cfg.OpenAI.Model)
	}
	if cfg.OpenAI.Instructions != "" {
		client = client.WithInstructions(cfg.OpenAI.Instructions)
	}
	return client
}

// requireConfigured returns an actionable error when the assistant
// credentials are missing.
func requireConfigured(cfg *config.Config) error {
	if cfg.OpenAI.Configured() {
		return nil
	}
	return fmt.Errorf("%w: set OPENAI_API_KEY and ASSISTANT_ID, or run 'concierge config set openai.api_key <key>'",
		assistant.ErrNotConfigured)
}

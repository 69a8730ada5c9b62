// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command handler for the concierge CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering for better CLI experience
//
// Handles the "concierge ask" command which sends one question to the
// configured assistant and streams the reply to stdout.
//
// Command: ask [question]
// Short:   Ask a single question
//
// Examples:
//   concierge ask "What are your opening hours?"
//   concierge ask --json "Do you allow pets?"
//   concierge ask "Review this draft:" --file draft.txt
//   cat notes.txt | concierge ask "Summarize this"
//
// Flags:
//   -f, --file FILE     Include file content with the question
//   --json              Output response as JSON
//   -q, --quiet         Suppress status messages
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/concierge/internal/assistant"
	"github.com/jeranaias/concierge/internal/config"
	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/ui/styles"
)

// MaxFileSize is the maximum file size to include as context (50KB).
const MaxFileSize = 50 * 1024

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
// USABILITY: Renders markdown replies with syntax highlighting and formatting.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse displays a reply with markdown rendering when appropriate.
// Only renders markdown when stdout is a TTY to avoid corrupting piped output.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Println(response)
	}
}

// =============================================================================
// STYLES
// =============================================================================

var (
	// Status prefix style for stderr progress lines
	askStatusStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan)

	// Summary label style
	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(styles.TextSecondary)

	// Summary value style
	summaryValueStyle = lipgloss.NewStyle().
				Foreground(styles.Emerald)
)

// statusf prints a status line to stderr unless quiet. The styled prefix
// only applies when stderr is a terminal so redirected logs stay clean.
func statusf(quiet bool, format string, a ...interface{}) {
	if quiet {
		return
	}
	prefix := "[+]"
	if IsStderrTTY() {
		prefix = askStatusStyle.Render("[+]")
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", prefix, fmt.Sprintf(format, a...))
}

// =============================================================================
// QUESTION ASSEMBLY
// =============================================================================

// readFileForContext reads a file and formats it for inclusion in a
// question. Files larger than MaxFileSize are rejected rather than
// truncated so the assistant never sees a silently clipped document.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("cannot access file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("file too large: %d bytes (max %d bytes)", info.Size(), MaxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("\n--- File: %s ---\n", path))
	builder.Write(content)
	builder.WriteString("\n--- End of file ---\n")

	return builder.String(), nil
}

// readStdinContext reads piped stdin, returning "" when stdin is a
// terminal or empty.
func readStdinContext() string {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return ""
	}
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return ""
	}

	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// buildQuestion assembles the final question from the positional query,
// piped stdin, and an optional context file.
func buildQuestion(args Args) (string, error) {
	question := strings.TrimSpace(args.Query)

	if stdinContent := readStdinContext(); stdinContent != "" {
		if question == "" {
			question = stdinContent
		} else {
			question = question + "\n\n" + stdinContent
		}
		statusf(args.Quiet, "Read %d bytes from stdin", len(stdinContent))
	}

	if args.File != "" {
		fileContent, err := readFileForContext(args.File)
		if err != nil {
			return "", NewCommandError("ask", "read context file", args.File, err)
		}
		question = question + fileContent
		statusf(args.Quiet, "Attached file %s", args.File)
	}

	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: usage: concierge ask \"<question>\"", ErrMissingArgument)
	}
	return question, nil
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAskCommand handles the "ask" command: start a fresh thread, send
// one question, stream the reply, exit. The thread is not reused.
func HandleAskCommand(args Args) error {
	question, err := buildQuestion(args)
	if err != nil {
		return err
	}

	cfg := config.Global()
	if err := requireConfigured(cfg); err != nil {
		return err
	}

	client := buildClient(cfg)
	ctrl := model.NewController(client)
	ctx := context.Background()

	statusf(args.Quiet, "Contacting assistant...")
	start := time.Now()

	if err := ctrl.Start(ctx); err != nil {
		return WrapError(err, "start conversation")
	}

	// Markdown needs the whole reply before rendering; plain text and
	// JSON differ in whether fragments stream straight through.
	useMarkdown := IsStdoutTTY() && !args.JSON
	streamPlain := !useMarkdown && !args.JSON

	var onFragment model.FragmentFunc
	if streamPlain {
		onFragment = func(text string) {
			fmt.Print(text)
		}
	}

	reply, err := ctrl.Submit(ctx, question, onFragment)
	elapsed := time.Since(start)

	if err != nil {
		// A partial reply stays visible: plain streaming already printed
		// it, the buffered paths print it here.
		var streamErr *assistant.StreamError
		if errors.As(err, &streamErr) && streamErr.Partial != "" && !args.JSON {
			if streamPlain {
				fmt.Println()
			} else {
				fmt.Println(streamErr.Partial)
			}
			statusf(args.Quiet, "Reply interrupted; partial text shown above")
		}
		return err
	}

	if args.JSON {
		return NewJSONResponse("ask", AskData{
			Question:   question,
			Reply:      reply,
			ThreadID:   ctrl.Conversation().ThreadID(),
			Assistant:  client.AssistantID(),
			DurationMs: elapsed.Milliseconds(),
		}).Print()
	}

	if streamPlain {
		fmt.Println()
	} else {
		displayResponse(reply)
	}

	if !args.Quiet && IsStderrTTY() {
		fmt.Fprintf(os.Stderr, "%s %s  %s %s\n",
			summaryLabelStyle.Render("answered in"),
			summaryValueStyle.Render(elapsed.Round(time.Millisecond).String()),
			summaryLabelStyle.Render("thread"),
			summaryValueStyle.Render(ctrl.Conversation().ThreadID()))
	}
	return nil
}

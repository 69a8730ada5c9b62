// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the concierge CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Readline editing and history for better CLI experience
//
// Handles the "concierge chat" command which provides an interactive
// line-mode REPL for conversing with the assistant. This is the
// lightweight alternative to the full-screen TUI.
//
// Command: chat
// Short:   Start an interactive chat session
// Aliases: (none)
//
// Examples:
//   concierge chat                    Start interactive chat
//   concierge chat --quiet            Suppress status messages
//
// Interactive Commands (during chat):
//   /help, /h, /?       Show available commands
//   /reset, /clear      Reset the conversation (new thread)
//   /status, /info      Show session statistics
//   /history            Show conversation history
//   /thread             Show the current thread ID
//   /quit, /exit, /q    Exit chat
//   Ctrl+C              Cancel current reply
//   Ctrl+D              Exit chat
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/concierge/internal/assistant"
	"github.com/jeranaias/concierge/internal/config"
	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/session"
	"github.com/jeranaias/concierge/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(styles.Cyan).
				Bold(true)
)

// =============================================================================
// CHAT CLI (readline wrapper)
// =============================================================================

// ChatCLI wraps liner for interactive input with persistent history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new interactive chat input handler.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyDir, _ := config.ConfigDir()
	if historyDir == "" {
		historyDir = os.TempDir()
	}

	return &ChatCLI{
		line:        line,
		historyFile: filepath.Join(historyDir, "chat_history"),
	}
}

// LoadHistory loads command history from disk. Missing history is not
// an error on first run.
func (c *ChatCLI) LoadHistory() {
	f, err := os.Open(c.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.ReadHistory(f)
}

// ReadInput reads a line of input with editing support. Non-empty lines
// are appended to the in-memory history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history to disk.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatSession holds the state for one interactive chat session.
type ChatSession struct {
	Controller    *model.Controller
	Client        *assistant.Client
	Config        *config.Config
	AssistantName string
	Quiet         bool
	StartTime     time.Time
	InputCLI      *ChatCLI

	// CancelFunc cancels the in-flight reply when Ctrl+C arrives.
	CancelFunc context.CancelFunc
}

// HandleChatCommand handles the "chat" command: an interactive REPL
// sharing the same conversation engine as the TUI and server.
func HandleChatCommand(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	cfg := config.Global()
	if err := requireConfigured(cfg); err != nil {
		return err
	}

	client := buildClient(cfg)
	sess := &ChatSession{
		Controller:    model.NewController(client),
		Client:        client,
		Config:        cfg,
		AssistantName: cfg.Branding.Title(),
		Quiet:         args.Quiet,
		StartTime:     time.Now(),
		InputCLI:      NewChatCLI(),
	}
	defer sess.InputCLI.Close()
	sess.InputCLI.LoadHistory()

	// Best-effort name lookup; branding title covers failures.
	infoCtx, infoCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if info, err := client.RetrieveAssistant(infoCtx); err == nil {
		sess.AssistantName = info.DisplayName()
	}
	infoCancel()

	// Ctrl+C cancels the in-flight reply instead of killing the REPL.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if sess.CancelFunc != nil {
				sess.CancelFunc()
				fmt.Println()
				fmt.Println(warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	sess.printWelcome()

	prompt := promptStyle.Render(cfg.Branding.Prompt() + " > ")
	for {
		input, err := sess.InputCLI.ReadInput(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				sess.printExitSummary()
				return nil
			}
			return WrapError(err, "read input")
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := sess.handleSlashCommand(input)
			if err != nil {
				fmt.Println(warningStyle.Render(err.Error()))
			}
			if !shouldContinue {
				sess.printExitSummary()
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			sess.printExitSummary()
			return nil
		}

		if err := sess.processMessage(input); err != nil {
			fmt.Println(warningStyle.Render(err.Error()))
		}
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand dispatches /commands. Returns false when the
// session should end.
func (s *ChatSession) handleSlashCommand(input string) (bool, error) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "/help", "/h", "/?":
		s.printHelp()
		return true, nil

	case "/reset", "/clear", "/new":
		s.Controller.Reset()
		fmt.Println(infoStyle.Render("Conversation reset. The next message starts a fresh thread."))
		return true, nil

	case "/status", "/info":
		s.printStatus()
		return true, nil

	case "/history":
		s.printHistory()
		return true, nil

	case "/thread":
		if id := s.Controller.Conversation().ThreadID(); id != "" {
			fmt.Println(commandStyle.Render(id))
		} else {
			fmt.Println(infoStyle.Render("No active thread. Send a message to start one."))
		}
		return true, nil

	case "/quit", "/exit", "/q":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

// processMessage sends one user message and streams the reply to stdout.
func (s *ChatSession) processMessage(input string) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.CancelFunc = cancel
	defer func() {
		s.CancelFunc = nil
		cancel()
	}()

	if !s.Controller.Started() {
		if !s.Quiet {
			fmt.Println(infoStyle.Render("Starting conversation..."))
		}
		if err := s.Controller.Start(ctx); err != nil {
			return WrapError(err, "start conversation")
		}
	}

	start := time.Now()
	fmt.Println()
	_, err := s.Controller.Submit(ctx, input, func(text string) {
		fmt.Print(text)
	})
	fmt.Println()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if !s.Quiet {
		elapsed := time.Since(start).Round(time.Millisecond)
		fmt.Println(infoStyle.Render(fmt.Sprintf("(%s)", elapsed)))
	}
	fmt.Println()
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (s *ChatSession) printWelcome() {
	width := GetTerminalWidth()
	if width > 70 {
		width = 70
	}
	separator := strings.Repeat("─", width)

	fmt.Println(infoStyle.Render(separator))
	fmt.Println(welcomeStyle.Render(s.Config.Branding.Title()))
	if s.AssistantName != s.Config.Branding.Title() {
		fmt.Println(infoStyle.Render("Assistant: " + s.AssistantName))
	}
	if msg := s.Config.Branding.WelcomeMessage; msg != "" {
		fmt.Println(WrapText(msg, width))
	}
	fmt.Println(infoStyle.Render("Type /help for commands, /quit to leave."))
	fmt.Println(infoStyle.Render(separator))
	fmt.Println()
}

func (s *ChatSession) printHelp() {
	fmt.Println(summaryHeaderStyle.Render("Commands"))
	commands := []struct {
		name string
		desc string
	}{
		{"/help", "Show this help"},
		{"/reset", "Reset the conversation (new thread)"},
		{"/status", "Show session statistics"},
		{"/history", "Show conversation history"},
		{"/thread", "Show the current thread ID"},
		{"/quit", "Exit chat"},
	}
	for _, c := range commands {
		fmt.Printf("  %s %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.name)),
			infoStyle.Render(c.desc))
	}
	fmt.Println()
}

func (s *ChatSession) printStatus() {
	thread := s.Controller.Conversation().ThreadID()
	if thread == "" {
		thread = "(not started)"
	}
	fmt.Println(summaryHeaderStyle.Render("Session"))
	fmt.Printf("  %s %s\n", infoStyle.Render("Assistant:"), s.AssistantName)
	fmt.Printf("  %s %s\n", infoStyle.Render("Thread:   "), thread)
	fmt.Printf("  %s %d\n", infoStyle.Render("Messages: "), s.Controller.Conversation().MessageCount())
	fmt.Printf("  %s %s\n", infoStyle.Render("Duration: "), time.Since(s.StartTime).Round(time.Second))
	fmt.Println()
}

func (s *ChatSession) printHistory() {
	transcript := s.Controller.Conversation().Transcript()
	if len(transcript) == 0 {
		fmt.Println(infoStyle.Render("No messages yet."))
		return
	}
	fmt.Println(summaryHeaderStyle.Render("History"))
	for _, msg := range transcript {
		fmt.Printf("  %s %s\n",
			commandStyle.Render(msg.Role.DisplayName()+":"),
			msg.Preview(100))
	}
	fmt.Println()
}

func (s *ChatSession) printExitSummary() {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session summary"))
	fmt.Printf("  %s %d\n", infoStyle.Render("Messages:"), s.Controller.Conversation().MessageCount())
	fmt.Printf("  %s %s\n", infoStyle.Render("Duration:"), session.FormatDuration(time.Since(s.StartTime)))
	fmt.Println(welcomeStyle.Render(s.Config.Branding.ExitText()))
}

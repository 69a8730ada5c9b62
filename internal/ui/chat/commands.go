// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the concierge TUI.
//
// This file implements the slash command handler registry. Command
// output lands in inline notices, never in the transcript, so the
// transcript stays a pure record of user and assistant turns.
package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler is a function that handles a specific slash command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names to their handler functions.
var commandHandlers = map[string]CommandHandler{
	// Help & Meta
	"help": handleHelpCommand,
	"h":    handleHelpCommand,
	"?":    handleHelpCommand,
	"quit": handleQuitCommand,
	"q":    handleQuitCommand,
	"exit": handleQuitCommand,

	// Session Management
	"reset": handleResetCommand,
	"r":     handleResetCommand,
	"new":   handleResetCommand,
	"n":     handleResetCommand,
	"clear": handleResetCommand,

	// Status & Information
	"status": handleStatusCommand,
	"thread": handleThreadCommand,
}

// handleCommand processes slash commands using the handler registry.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}

	cmdName := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	if handler, ok := commandHandlers[cmdName]; ok {
		return handler(&m, args)
	}

	m.pushNotice("Unknown command " + parts[0] + ". Type /help for the list.")
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// HELP AND META COMMANDS
// =============================================================================

func handleHelpCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.showHelp = true
	return m, nil
}

func handleQuitCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return m, tea.Quit
}

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func handleResetCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return m, requestReset()
}

// =============================================================================
// STATUS COMMANDS
// =============================================================================

func handleStatusCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	conv := m.controller.Conversation()

	name := m.assistantName
	if name == "" {
		name = "(unknown)"
	}
	if m.assistantModel != "" {
		name += " (" + m.assistantModel + ")"
	}

	thread := conv.ThreadID()
	if thread == "" {
		thread = "(none)"
	}

	var b strings.Builder
	b.WriteString("Session status\n")
	fmt.Fprintf(&b, "  %-10s %s\n", "Assistant:", name)
	fmt.Fprintf(&b, "  %-10s %s\n", "Thread:", thread)
	fmt.Fprintf(&b, "  %-10s %s\n", "Messages:", formatInt(conv.MessageCount()))
	fmt.Fprintf(&b, "  %-10s %s\n", "State:", m.state.String())
	fmt.Fprintf(&b, "  %-10s %s", "Started:", formatTimestamp(conv.CreatedAt()))

	m.pushNotice(b.String())
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func handleThreadCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	conv := m.controller.Conversation()
	if !conv.Started() {
		m.pushNotice("No conversation started yet.")
	} else {
		m.pushNotice("Thread: " + conv.ThreadID())
	}
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// COMMAND HELP TEXT
// =============================================================================

// commandHelp lists the available slash commands for the help overlay.
func commandHelp() string {
	rows := []struct {
		cmd  string
		desc string
	}{
		{"/help", "Show commands and shortcuts"},
		{"/reset", "Start the conversation over"},
		{"/status", "Show session details"},
		{"/thread", "Show the provider thread handle"},
		{"/quit", "Leave the application"},
	}

	var b strings.Builder
	b.WriteString("Commands\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-10s %s\n", r.cmd, r.desc)
	}
	return strings.TrimRight(b.String(), "\n")
}

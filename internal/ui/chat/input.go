// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the concierge TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

// submitInput handles enter on the input field. Slash commands run
// locally; anything else becomes a submission request for the Runner.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	m.resetCompletion()

	if strings.HasPrefix(content, "/") {
		return m.handleCommand(content)
	}

	// Without a live thread the turn has nowhere to go. It is refused,
	// never queued.
	if m.controller == nil || !m.controller.Started() {
		m.pushNotice("The conversation has not started yet. Press Ctrl+R to start fresh.")
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	m.input.Reset()
	return m, submitCmd(content)
}

// submitCmd wraps user input in a submission request message.
func submitCmd(content string) tea.Cmd {
	return func() tea.Msg {
		return SubmitInputMsg{Content: content}
	}
}

// requestReset asks the program root to reset the conversation.
func requestReset() tea.Cmd {
	return func() tea.Msg {
		return ResetRequestMsg{}
	}
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

// commandCompletions lists the canonical slash commands offered by tab
// completion, in cycling order.
var commandCompletions = []string{"/help", "/quit", "/reset", "/status", "/thread"}

// completeCommand cycles the input through the slash commands matching
// the typed prefix. A repeat press with the input unchanged advances to
// the next candidate.
func (m Model) completeCommand() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	if !strings.HasPrefix(value, "/") || strings.ContainsRune(value, ' ') {
		return m, nil
	}

	if m.completionBase != "" && value == m.completionLast {
		m.completionIdx++
	} else {
		m.completionBase = strings.ToLower(value)
		m.completionIdx = 0
	}

	matches := matchingCommands(m.completionBase)
	if len(matches) == 0 {
		m.resetCompletion()
		return m, nil
	}

	next := matches[m.completionIdx%len(matches)]
	m.input.SetValue(next)
	m.input.CursorEnd()
	m.completionLast = next
	return m, textinput.Blink
}

// matchingCommands returns the canonical commands starting with prefix.
func matchingCommands(prefix string) []string {
	var matches []string
	for _, name := range commandCompletions {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	return matches
}

// resetCompletion forgets any in-progress completion cycle.
func (m *Model) resetCompletion() {
	m.completionBase = ""
	m.completionIdx = 0
	m.completionLast = ""
}

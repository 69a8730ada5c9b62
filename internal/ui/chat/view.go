// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the concierge TUI.
//
// This file contains all rendering logic for the chat surface. Layout
// is measured, not assumed: renderChat sizes the transcript region from
// the actual rendered heights of the header, input area, and status bar.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/concierge/internal/config"
	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/ui/components"
	"github.com/jeranaias/concierge/internal/ui/styles"
	"github.com/jeranaias/concierge/internal/util"
)

// =============================================================================
// MAIN VIEW
// =============================================================================

// View renders the complete chat surface.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelpOverlay()
	}

	return m.renderChat()
}

// renderChat assembles the full layout: header, transcript, input area,
// status bar. The transcript region gets whatever height the chrome
// leaves over.
func (m Model) renderChat() string {
	header := m.renderHeader()
	inputArea := m.renderInput()
	statusBar := m.renderStatusBar()

	headerHeight := lipgloss.Height(header)
	inputHeight := lipgloss.Height(inputArea)
	statusHeight := lipgloss.Height(statusBar)

	availableHeight := m.height - headerHeight - inputHeight - statusHeight
	if availableHeight < 1 {
		availableHeight = 1
	}

	var middle string
	if m.state == StateError && m.errorDisplay.IsVisible() {
		// The error box takes over the transcript region; chrome stays
		// visible so the session never looks gone.
		middle = lipgloss.Place(
			m.width, availableHeight,
			lipgloss.Center, lipgloss.Center,
			m.errorDisplay.View(),
		)
	} else {
		middle = m.viewport.View()
		if m.viewport.Height != availableHeight {
			// Resize and render can briefly disagree; pin the region so
			// the chrome never jumps.
			middle = lipgloss.NewStyle().
				Height(availableHeight).
				MaxHeight(availableHeight).
				Width(m.width).
				Render(middle)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, middle, inputArea, statusBar)
}

// =============================================================================
// HEADER
// =============================================================================

// renderHeader renders the top bar: branded title, assistant name, and
// a connection state icon on the right.
func (m Model) renderHeader() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Purple).
		Render(m.appTitle)

	var sub string
	if m.assistantName != "" {
		sub = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(" | " + m.assistantName)
	}

	icon := m.stateIcon()

	left := title + sub
	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(icon)
	if gap < 1 {
		gap = 1
	}

	bar := left + strings.Repeat(" ", gap) + icon
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Width(width).
		Padding(0, 1).
		Render(bar)
}

// stateIcon returns the colored state indicator for the header.
func (m Model) stateIcon() string {
	switch m.state {
	case StateStreaming:
		return lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Render(components.StatusStreaming.Icon())
	case StateError:
		return lipgloss.NewStyle().
			Foreground(styles.Rose).
			Render(components.StatusError.Icon())
	default:
		return lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Render(components.StatusReady.Icon())
	}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders the settled transcript, inline entries, and
// the live tail of an in-flight reply.
//
// Settled messages come from the conversation snapshot. A message still
// streaming is skipped there and rendered from the flushed liveText
// instead, so the visible reply only ever advances on tick boundaries.
func (m Model) renderTranscript() string {
	var msgs []model.Message
	if m.controller != nil {
		msgs = m.controller.Conversation().Transcript()
	}

	if len(msgs) == 0 && len(m.entries) == 0 && m.state != StateStreaming {
		return m.renderEmptyState()
	}

	width := m.contentWidth()
	var sections []string

	for _, e := range m.entries {
		if e.anchorID == "" {
			sections = append(sections, m.renderEntry(e, width))
		}
	}

	for _, msg := range msgs {
		if msg.IsStreaming {
			continue
		}
		bubble := components.NewMessageBubble(msg, m.theme)
		sections = append(sections, bubble.Render(width))

		for _, e := range m.entries {
			if e.anchorID == msg.ID {
				sections = append(sections, m.renderEntry(e, width))
			}
		}
	}

	if m.state == StateStreaming {
		if m.isThinking {
			sections = append(sections, m.renderThinking())
		} else {
			live := model.Message{
				Role:        model.RoleAssistant,
				Timestamp:   m.streamStart,
				Content:     m.liveText,
				IsStreaming: true,
			}
			bubble := components.NewMessageBubble(live, m.theme)
			sections = append(sections, bubble.Render(width))
		}
	}

	return strings.Join(sections, "\n")
}

// renderEntry renders one inline entry: a system notice or a preserved
// partial reply shown as an interrupted bubble.
func (m Model) renderEntry(e inlineEntry, width int) string {
	switch e.kind {
	case entryPartial:
		bubble := components.NewMessageBubble(model.Message{
			Role:      model.RoleAssistant,
			Timestamp: e.when,
			Content:   e.text,
		}, m.theme)
		bubble.Interrupted = true
		return bubble.Render(width)
	default:
		notice := components.NewSystemNotice(e.text, m.theme)
		notice.When = e.when
		notice.SetWidth(width)
		return notice.View()
	}
}

// renderThinking renders the spinner shown between submission and the
// first fragment.
func (m Model) renderThinking() string {
	spin := m.spinner.View()
	if spin == "" {
		// The spinner has not ticked yet; pick a frame by the clock.
		frames := styles.LineSpinner.Frames
		frame := frames[int(time.Now().UnixMilli()/100)%len(frames)]
		spin = lipgloss.NewStyle().Foreground(styles.Purple).Render(frame)
	}

	label := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(" Thinking")
	dots := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Render("...")

	return lipgloss.NewStyle().
		Padding(0, 2).
		Render(spin + label + dots)
}

// renderEmptyState renders the centered prompt shown before the first
// message of a conversation.
func (m Model) renderEmptyState() string {
	width := m.contentWidth()
	cfg := config.Global()

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)
	mutedStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Amber)
	beginStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary).Italic(true)

	var sections []string

	sections = append(sections, titleStyle.Render(m.appTitle))
	if m.assistantName != "" {
		sections = append(sections, mutedStyle.Render(m.assistantName))
	}
	sections = append(sections, "")
	sections = append(sections, mutedStyle.Render(strings.Repeat("-", 40)))
	sections = append(sections, "")

	begin := cfg.Branding.BeginMessage
	if begin == "" {
		begin = "Say hello and the assistant will take it from there."
	}
	sections = append(sections, beginStyle.Render(begin))
	sections = append(sections, "")

	tips := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send your message"},
		{"/help", "Commands and shortcuts"},
		{"Ctrl+R", "Start the conversation over"},
	}
	for _, tip := range tips {
		sections = append(sections,
			keyStyle.Render(fmt.Sprintf("%-8s", tip.key))+mutedStyle.Render(tip.desc))
	}

	content := strings.Join(sections, "\n")
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(width).
		Padding(2, 0).
		Render(content)
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderInput renders the input area: a top border that doubles as a
// focus indicator, the input line, and the character count.
// Fixed height of 3 prevents layout shift while typing.
func (m Model) renderInput() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	borderColor := styles.Overlay
	if m.input.Focused() {
		borderColor = styles.Purple
	}
	topBorder := lipgloss.NewStyle().
		Foreground(borderColor).
		Render(strings.Repeat("─", width))

	inputView := m.input.View()

	var statusIndicator string
	if m.state == StateStreaming {
		statusIndicator = lipgloss.NewStyle().
			Foreground(styles.Amber).
			Render(" (streaming...)")
	}

	inputLineWidth := width - 4
	if inputLineWidth < 10 {
		inputLineWidth = 10
	}
	inputLine := lipgloss.NewStyle().
		Width(inputLineWidth).
		Render("  " + inputView + statusIndicator)

	charCount := m.renderCharCount()

	result := lipgloss.JoinVertical(
		lipgloss.Left,
		topBorder,
		inputLine,
		charCount,
	)

	return lipgloss.NewStyle().
		Height(3).
		MaxHeight(3).
		Width(width).
		Render(result)
}

// renderCharCount renders the character count indicator, colored by how
// close the input is to the limit.
func (m Model) renderCharCount() string {
	count := util.RuneLen(m.input.Value())
	max := m.input.CharLimit
	if max <= 0 {
		max = 1
	}

	var style lipgloss.Style
	percent := float64(count) / float64(max) * 100

	if percent >= 90 {
		style = lipgloss.NewStyle().Foreground(styles.Rose)
	} else if percent >= 75 {
		style = lipgloss.NewStyle().Foreground(styles.Amber)
	} else {
		style = lipgloss.NewStyle().Foreground(styles.TextMuted)
	}

	countStr := formatInt(count) + " / " + formatInt(max)

	width := m.width
	if width <= 0 {
		width = 80
	}
	charCountWidth := width - 4
	if charCountWidth < 10 {
		charCountWidth = 10
	}

	return lipgloss.NewStyle().
		Width(charCountWidth).
		Align(lipgloss.Right).
		Padding(0, 2).
		Render(style.Render(countStr))
}

// =============================================================================
// STATUS BAR
// =============================================================================

// renderStatusBar feeds current session facts into the status bar
// component and renders it.
func (m Model) renderStatusBar() string {
	m.statusBar.SetWidth(m.width)
	m.statusBar.SetAssistant(m.assistantName)
	m.statusBar.SetStatus(m.barStatus())
	m.statusBar.SetIdleRemaining(m.idleRemaining)

	if m.controller != nil {
		conv := m.controller.Conversation()
		m.statusBar.SetThread(conv.ThreadID())
		m.statusBar.SetMessageCount(conv.MessageCount())
	}

	return m.statusBar.View()
}

// barStatus maps the display state onto the status bar's vocabulary.
func (m Model) barStatus() components.Status {
	switch m.state {
	case StateStreaming:
		return components.StatusStreaming
	case StateError:
		return components.StatusError
	default:
		if m.controller == nil || !m.controller.Started() {
			return components.StatusIdle
		}
		return components.StatusReady
	}
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

// renderHelpOverlay renders the centered help screen with keyboard
// shortcuts and slash commands.
func (m Model) renderHelpOverlay() string {
	content := components.KeyboardShortcuts() + "\n\n" + commandHelp()

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Purple).
		Padding(1, 2).
		Render(content)

	hint := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("press any key to close")

	joined := lipgloss.JoinVertical(lipgloss.Center, box, hint)

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		joined,
	)
}

// =============================================================================
// LAYOUT HELPERS
// =============================================================================

// contentWidth returns the width available to transcript content.
func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 78
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return width
}

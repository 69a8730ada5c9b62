// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/concierge/internal/ui/styles"
	"github.com/jeranaias/concierge/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom status bar
// =============================================================================

// Status represents the current application status
type Status int

const (
	StatusReady Status = iota
	StatusConnecting
	StatusStreaming
	StatusError
	StatusIdle
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusConnecting:
		return "Connecting..."
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	case StatusIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success // Checkmark for ready
	case StatusConnecting:
		return "*"
	case StatusStreaming:
		return "~"
	case StatusError:
		return styles.StatusIndicators.Error // X mark for error
	case StatusIdle:
		return "-"
	default:
		return "?"
	}
}

// StatusBar represents the bottom status bar
type StatusBar struct {
	AssistantName string        // Display name of the assistant being fronted
	ThreadID      string        // Current conversation thread ("" before start)
	MessageCount  int           // Messages in the transcript
	Status        Status        // Current status
	IdleRemaining time.Duration // Time until idle reset (0 = not shown)
	Width         int           // Available width
	ShowShortcuts bool          // Show keyboard shortcuts
	theme         *styles.Theme
}

// NewStatusBar creates a new StatusBar component
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		AssistantName: "",
		ThreadID:      "",
		MessageCount:  0,
		Status:        StatusIdle,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the current status
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// SetAssistant updates the assistant display name
func (s *StatusBar) SetAssistant(name string) {
	s.AssistantName = name
}

// SetThread updates the conversation thread id
func (s *StatusBar) SetThread(id string) {
	s.ThreadID = id
}

// SetMessageCount updates the transcript message count
func (s *StatusBar) SetMessageCount(n int) {
	s.MessageCount = n
}

// SetIdleRemaining updates the idle countdown (0 hides it)
func (s *StatusBar) SetIdleRemaining(d time.Duration) {
	s.IdleRemaining = d
}

// View renders the status bar
func (s *StatusBar) View() string {
	// Choose layout based on width
	if s.Width < 60 {
		return s.viewNarrow()
	}
	if s.Width < 100 {
		return s.viewMedium()
	}
	return s.viewWide()
}

// viewNarrow renders a compact status bar for narrow terminals
// Format: [icon] 12 msgs idle
func (s *StatusBar) viewNarrow() string {
	parts := []string{}

	// Status icon
	statusStyle := s.getStatusStyle()
	parts = append(parts, statusStyle.Render(s.Status.Icon()))

	// Message count
	if s.MessageCount > 0 {
		countStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
		parts = append(parts, countStyle.Render(fmtNumber(s.MessageCount)+s.msgLabel()))
	}

	// Idle countdown
	if idle := s.renderIdleCountdown(); idle != "" {
		parts = append(parts, idle)
	}

	result := strings.Join(parts, " ")

	// Apply background
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// viewMedium renders a medium-width status bar
// Format: Assistant | thread | 12 msgs | Ready
func (s *StatusBar) viewMedium() string {
	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	parts := []string{}

	// Assistant name, clipped by display width so CJK names fit too
	if s.AssistantName != "" {
		name := util.TruncateWidth(s.AssistantName, 20)
		nameStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		parts = append(parts, nameStyle.Render(name))
	}

	// Thread id (shortened)
	if s.ThreadID != "" {
		threadStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
		parts = append(parts, threadStyle.Render(shortThreadID(s.ThreadID)))
	}

	// Message count
	countStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	parts = append(parts, countStyle.Render(fmtNumber(s.MessageCount)+s.msgLabel()))

	// Idle countdown
	if idle := s.renderIdleCountdown(); idle != "" {
		parts = append(parts, idle)
	}

	// Status
	statusStyle := s.getStatusStyle()
	parts = append(parts, statusStyle.Render(s.Status.String()))

	result := strings.Join(parts, separator)

	// Apply background
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// viewWide renders a full-featured status bar for wide terminals
// Format: Assistant | thread_...abc123    12 msgs  idle 2:00    Ready ^R reset ^C quit
func (s *StatusBar) viewWide() string {
	// Left section: assistant name and thread
	leftParts := []string{}

	if s.AssistantName != "" {
		nameStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary).Bold(true)
		leftParts = append(leftParts, nameStyle.Render(s.AssistantName))
	}

	if s.ThreadID != "" {
		threadStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
		leftParts = append(leftParts, threadStyle.Render(shortThreadID(s.ThreadID)))
	} else {
		noThread := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render("no conversation")
		leftParts = append(leftParts, noThread)
	}

	leftSep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
	leftSection := strings.Join(leftParts, leftSep)

	// Center section: message count and idle countdown
	centerParts := []string{}

	countStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	centerParts = append(centerParts, countStyle.Render(fmtNumber(s.MessageCount)+s.msgLabel()))

	if idle := s.renderIdleCountdown(); idle != "" {
		centerParts = append(centerParts, idle)
	}

	centerSection := strings.Join(centerParts, "  ")

	// Right section: status and shortcuts
	rightParts := []string{}

	statusStyle := s.getStatusStyle()
	rightParts = append(rightParts, statusStyle.Render(s.Status.String()))

	if s.ShowShortcuts {
		rightParts = append(rightParts, s.renderShortcuts())
	}

	rightSection := strings.Join(rightParts, " ")

	// Calculate spacing
	leftWidth := lipgloss.Width(leftSection)
	centerWidth := lipgloss.Width(centerSection)
	rightWidth := lipgloss.Width(rightSection)
	totalContent := leftWidth + centerWidth + rightWidth

	// Add spacing between sections
	spacing := s.Width - totalContent - 4 // Account for padding
	if spacing < 4 {
		spacing = 4
	}

	leftSpace := strings.Repeat(" ", spacing/2)
	rightSpace := strings.Repeat(" ", spacing-spacing/2)

	result := leftSection + leftSpace + centerSection + rightSpace + rightSection

	// Apply styled border for wide view
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(styles.Overlay).
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// ==========================================================================
// HELPER RENDER METHODS
// ==========================================================================

// renderIdleCountdown renders the time until the idle reset fires.
// Amber normally, rose inside the final thirty seconds.
func (s *StatusBar) renderIdleCountdown() string {
	if s.IdleRemaining <= 0 {
		return ""
	}

	color := styles.Amber
	if s.IdleRemaining < 30*time.Second {
		color = styles.Rose
	}

	return lipgloss.NewStyle().
		Foreground(color).
		Render("idle " + formatTimeRemaining(s.IdleRemaining))
}

// renderShortcuts renders keyboard shortcut hints
func (s *StatusBar) renderShortcuts() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	shortcuts := []string{
		keyStyle.Render("^R") + descStyle.Render("reset"),
		keyStyle.Render("^C") + descStyle.Render("quit"),
	}

	return strings.Join(shortcuts, " ")
}

// getStatusStyle returns the style for the current status
// ACCESSIBILITY: Uses high contrast colors with bold for colorblind users
func (s *StatusBar) getStatusStyle() lipgloss.Style {
	switch s.Status {
	case StatusReady:
		// ACCESSIBILITY: High contrast green with bold
		return lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
	case StatusConnecting, StatusStreaming:
		// ACCESSIBILITY: High contrast blue with bold
		return lipgloss.NewStyle().Foreground(styles.InfoHighContrast).Bold(true)
	case StatusError:
		// ACCESSIBILITY: High contrast red with bold
		return lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true)
	case StatusIdle:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	default:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	}
}

// msgLabel returns the message-count label with plural handling.
func (s *StatusBar) msgLabel() string {
	if s.MessageCount == 1 {
		return " msg"
	}
	return " msgs"
}

// ==========================================================================
// HELPER FUNCTIONS
// ==========================================================================

// shortThreadID shortens a thread id for display, keeping the
// distinguishing tail. Thread ids share a common prefix so the head
// alone is useless.
func shortThreadID(id string) string {
	r := []rune(id)
	if len(r) <= 16 {
		return id
	}
	return string(r[:7]) + "..." + string(r[len(r)-6:])
}

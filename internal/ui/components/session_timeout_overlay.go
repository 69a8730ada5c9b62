// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/concierge/internal/ui/styles"
)

// =============================================================================
// SESSION TIMEOUT OVERLAY
// =============================================================================

// SessionTimeoutOverlay warns that an idle conversation is about to be
// reset, then announces the reset once it happens. Kiosk deployments
// rely on this so one guest's conversation never lingers for the next.
type SessionTimeoutOverlay struct {
	// State
	visible       bool
	timeRemaining time.Duration
	expired       bool

	// Configuration
	warningThreshold time.Duration // Default: 2 minutes

	// Dimensions
	width  int
	height int
}

// NewSessionTimeoutOverlay creates a new session timeout overlay.
func NewSessionTimeoutOverlay() SessionTimeoutOverlay {
	return SessionTimeoutOverlay{
		visible:          false,
		warningThreshold: DefaultWarningThreshold,
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetSize sets the overlay dimensions.
func (o *SessionTimeoutOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// SetWarningThreshold sets when to show the warning (default: 2 minutes).
func (o *SessionTimeoutOverlay) SetWarningThreshold(threshold time.Duration) {
	o.warningThreshold = threshold
}

// WarningThreshold returns the configured warning threshold.
func (o *SessionTimeoutOverlay) WarningThreshold() time.Duration {
	return o.warningThreshold
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// Show displays the overlay with the given time remaining.
func (o *SessionTimeoutOverlay) Show(remaining time.Duration) {
	o.visible = true
	o.timeRemaining = remaining
	o.expired = remaining <= 0
}

// Hide hides the overlay.
func (o *SessionTimeoutOverlay) Hide() {
	o.visible = false
	o.expired = false
}

// UpdateTime updates the countdown timer.
func (o *SessionTimeoutOverlay) UpdateTime(remaining time.Duration) {
	o.timeRemaining = remaining
	if remaining <= 0 {
		o.expired = true
	}
}

// IsVisible returns whether the overlay is currently visible.
func (o *SessionTimeoutOverlay) IsVisible() bool {
	return o.visible
}

// IsExpired returns whether the idle timeout has fired.
func (o *SessionTimeoutOverlay) IsExpired() bool {
	return o.expired
}

// TimeRemaining returns the current time remaining.
func (o *SessionTimeoutOverlay) TimeRemaining() time.Duration {
	return o.timeRemaining
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// SessionTimeoutTickMsg signals a countdown tick for the overlay.
type SessionTimeoutTickMsg struct {
	Time time.Time
}

// SessionTimeoutWarningMsg signals the conversation is about to reset.
type SessionTimeoutWarningMsg struct {
	TimeRemaining time.Duration
}

// SessionExpiredMsg signals the idle timeout fired and the conversation
// must be reset.
type SessionExpiredMsg struct{}

// SessionExtendedMsg signals the user kept the session alive by
// pressing a key during the warning.
type SessionExtendedMsg struct{}

// Init initializes the overlay (no-op for overlays).
func (o SessionTimeoutOverlay) Init() tea.Cmd {
	return nil
}

// Update handles messages for the overlay.
func (o SessionTimeoutOverlay) Update(msg tea.Msg) (SessionTimeoutOverlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height

	case tea.KeyMsg:
		if o.visible && !o.expired {
			// Any key press while the warning is visible keeps the
			// session alive
			o.Hide()
			return o, func() tea.Msg {
				return SessionExtendedMsg{}
			}
		}
		if o.visible && o.expired {
			// The reset already happened; any key dismisses the notice
			o.Hide()
		}

	case SessionTimeoutTickMsg:
		if o.visible {
			// Update remaining time (caller should handle actual timing)
			if o.timeRemaining <= 0 {
				o.expired = true
			}
		}
	}

	return o, nil
}

// View renders the session timeout overlay.
func (o SessionTimeoutOverlay) View() string {
	if !o.visible {
		return ""
	}

	if o.expired {
		return o.viewExpired()
	}
	return o.viewWarning()
}

// =============================================================================
// RENDER METHODS
// =============================================================================

// viewWarning renders the warning overlay before the reset.
func (o SessionTimeoutOverlay) viewWarning() string {
	width := o.width
	if width == 0 {
		width = 60
	}
	height := o.height
	if height == 0 {
		height = 24
	}

	// Calculate max content width
	maxWidth := width - 8
	if maxWidth < 40 {
		maxWidth = 40
	}
	if maxWidth > 60 {
		maxWidth = 60
	}

	// Format remaining time as M:SS
	timeStr := formatTimeRemaining(o.timeRemaining)

	// Build content
	var parts []string

	// Warning icon and title
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true)
	parts = append(parts, titleStyle.Render(styles.StatusIndicators.Warning+" Still there?"))

	// Empty line
	parts = append(parts, "")

	// Main message with countdown
	timeStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true)

	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center)

	parts = append(parts, msgStyle.Render(
		"This conversation will reset in "+timeStyle.Render(timeStr)))

	// Empty line
	parts = append(parts, "")

	// Instruction
	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true).
		Align(lipgloss.Center)
	parts = append(parts, hintStyle.Render("Press any key to keep chatting"))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	// Create warning box with amber/yellow border
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Amber).
		Padding(1, 3).
		Width(maxWidth).
		Align(lipgloss.Center)

	box := boxStyle.Render(content)

	// Center the box
	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

// viewExpired renders the post-reset notice.
func (o SessionTimeoutOverlay) viewExpired() string {
	width := o.width
	if width == 0 {
		width = 60
	}
	height := o.height
	if height == 0 {
		height = 24
	}

	// Calculate max content width
	maxWidth := width - 8
	if maxWidth < 40 {
		maxWidth = 40
	}
	if maxWidth > 60 {
		maxWidth = 60
	}

	// Build content
	var parts []string

	// Title
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Rose).
		Bold(true)
	parts = append(parts, titleStyle.Render(styles.StatusIndicators.Info+" Conversation Reset"))

	// Empty line
	parts = append(parts, "")

	// Main message
	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center)
	parts = append(parts, msgStyle.Render(
		"This conversation was reset after a period of inactivity."))

	// Empty line
	parts = append(parts, "")

	// Instruction
	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Align(lipgloss.Center)
	parts = append(parts, hintStyle.Render("Press any key to start a new chat."))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	// Create expired box with rose/red border
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Rose).
		Padding(1, 3).
		Width(maxWidth).
		Align(lipgloss.Center)

	box := boxStyle.Render(content)

	// Center the box
	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimeRemaining formats a duration as M:SS for display.
func formatTimeRemaining(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}

	totalSecs := int(d.Seconds())
	mins := totalSecs / 60
	secs := totalSecs % 60

	return fmt.Sprintf("%d:%02d", mins, secs)
}

// =============================================================================
// TIMEOUT CONFIGURATION CONSTANTS
// =============================================================================

const (
	// DefaultWarningThreshold is when to show the warning overlay
	// (2 minutes before the idle reset).
	DefaultWarningThreshold = 2 * time.Minute
)

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/concierge/internal/ui/styles"
	"github.com/jeranaias/concierge/internal/util"
)

// =============================================================================
// WELCOME SCREEN MODEL
// =============================================================================

// Welcome is the branded welcome screen shown before a conversation
// starts. Every visible string comes from the deployment's branding
// configuration; absent values fall back to neutral labels.
type Welcome struct {
	// Branding
	title          string
	welcomeMessage string
	startLabel     string
	logo           string // Raw ASCII/ANSI logo, "" = generated title box
	disclaimerMD   string // Raw markdown disclaimer, "" = none
	version        string

	// Dimensions
	width  int
	height int

	// Theme
	theme *styles.Theme
}

// NewWelcome creates a new welcome screen.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{
		title:      "Concierge",
		startLabel: "Start chat",
		version:    "dev",
		theme:      theme,
	}
}

// SetBranding sets the deployment display strings.
func (w *Welcome) SetBranding(title, welcomeMessage, startLabel string) {
	if title != "" {
		w.title = title
	}
	w.welcomeMessage = welcomeMessage
	if startLabel != "" {
		w.startLabel = startLabel
	}
}

// SetLogo sets the raw logo asset ("" falls back to a generated box).
func (w *Welcome) SetLogo(logo string) {
	w.logo = strings.TrimRight(logo, "\n")
}

// SetDisclaimer sets the markdown disclaimer shown above the box.
func (w *Welcome) SetDisclaimer(md string) {
	w.disclaimerMD = md
}

// SetVersion sets the version string.
func (w *Welcome) SetVersion(version string) {
	w.version = version
}

// SetSize updates the dimensions.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the welcome screen.
func (w Welcome) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (w Welcome) Update(msg tea.Msg) (Welcome, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
	}
	return w, nil
}

// View renders the welcome screen.
// Responsive: adapts to terminal size, minimum 80x24 supported.
func (w Welcome) View() string {
	width := w.width
	if width == 0 {
		width = 80
	}
	height := w.height
	if height == 0 {
		height = 24
	}

	// Disclaimer banner first, content box in whatever room is left
	disclaimer := w.renderDisclaimer(width, height)
	disclaimerHeight := lipgloss.Height(disclaimer)
	if disclaimer == "" {
		disclaimerHeight = 0
	}

	remainingHeight := height - disclaimerHeight

	// Calculate box width - responsive to terminal width
	boxWidth := 62
	if width < 70 {
		boxWidth = width - 8
	}
	if boxWidth < 40 {
		boxWidth = 40
	}
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	// Adjust padding for narrow terminals
	horizontalPadding := 4
	verticalPadding := 1
	if width < 70 {
		horizontalPadding = 2
	}

	// Box overhead: 2 (border top/bottom) + 2*verticalPadding
	boxOverhead := 2 + 2*verticalPadding

	// Available lines for content inside the box
	availableContentLines := remainingHeight - boxOverhead

	// Wrap the welcome message to the inner box width so the tier
	// estimate matches what lipgloss will render.
	innerWidth := boxWidth - 2*horizontalPadding - 2
	if innerWidth < 20 {
		innerWidth = 20
	}
	welcome := ""
	welcomeLines := 0
	if w.welcomeMessage != "" {
		welcome = wordWrap(w.welcomeMessage, innerWidth)
		welcomeLines = len(strings.Split(welcome, "\n"))
	}

	logo := w.renderLogo(innerWidth)
	logoLines := len(strings.Split(logo, "\n"))

	// Build the content based on available space. Sections are dropped
	// from the bottom tier down: spacing first, then the welcome
	// message, then the logo.
	var sections []string
	separator := "\n\n"

	switch {
	case availableContentLines >= logoLines+welcomeLines+10:
		sections = append(sections, logo, w.renderTitle(), w.renderVersion())
		if welcome != "" {
			sections = append(sections, welcome)
		}
		sections = append(sections, w.renderStartControl())

	case availableContentLines >= logoLines+welcomeLines+6:
		separator = "\n"
		sections = append(sections, logo, w.renderTitle(), w.renderVersion())
		if welcome != "" {
			sections = append(sections, welcome)
		}
		sections = append(sections, w.renderStartControl())

	case availableContentLines >= 8:
		// Drop the welcome message, keep a compact logo
		separator = "\n"
		sections = append(sections, w.renderTitleBox(), w.renderVersion(), w.renderStartControl())

	default:
		// Ultra compact: title and start control only
		separator = "\n"
		sections = append(sections, w.renderTitle(), w.renderStartControl())
	}

	content := strings.Join(sections, separator)
	contentLines := len(strings.Split(content, "\n"))

	// If still too tight, remove vertical padding
	if contentLines+boxOverhead > remainingHeight {
		verticalPadding = 0
		boxOverhead = 2
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Purple).
		Padding(verticalPadding, horizontalPadding).
		Width(boxWidth).
		Align(lipgloss.Center).
		Render(content)

	boxHeight := lipgloss.Height(box)

	// Don't center if box is taller than available space. Align to top
	// so the disclaimer stays visible and overflow falls off the bottom.
	var centered string
	if boxHeight >= remainingHeight {
		centered = lipgloss.Place(
			width, remainingHeight,
			lipgloss.Center, lipgloss.Top,
			box,
		)
	} else {
		centered = lipgloss.Place(
			width, remainingHeight,
			lipgloss.Center, lipgloss.Center,
			box,
		)
	}

	if disclaimer == "" {
		return centered
	}
	return disclaimer + centered
}

// =============================================================================
// RENDER HELPERS
// =============================================================================

// renderDisclaimer renders the deployment's markdown disclaimer as a
// top banner. Returns "" when no disclaimer is configured.
func (w Welcome) renderDisclaimer(width, height int) string {
	if w.disclaimerMD == "" {
		return ""
	}

	wrapWidth := width - 8
	if wrapWidth > 76 {
		wrapWidth = 76
	}
	if wrapWidth < 30 {
		wrapWidth = 30
	}

	rendered := w.disclaimerMD
	styleName := "light"
	if lipgloss.HasDarkBackground() {
		styleName = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styleName),
		glamour.WithWordWrap(wrapWidth),
	)
	if err == nil {
		if out, rerr := renderer.Render(w.disclaimerMD); rerr == nil {
			rendered = out
		}
	}
	rendered = strings.Trim(rendered, "\n")

	// Keep the banner from eating the whole screen on short terminals
	maxLines := height / 3
	if maxLines < 3 {
		maxLines = 3
	}
	lines := strings.Split(rendered, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true).Render("..."))
		rendered = strings.Join(lines, "\n")
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, rendered) + "\n"
}

// renderLogo renders the deployment logo, falling back to a generated
// title box when no asset is configured or it does not fit.
func (w Welcome) renderLogo(innerWidth int) string {
	if w.logo != "" && maxLineWidth(w.logo) <= innerWidth {
		return lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true).
			Render(w.logo)
	}
	return w.renderTitleBox()
}

// renderTitleBox renders the title in a plain ASCII box (3 lines).
// Uses standard ASCII box drawing for maximum compatibility.
func (w Welcome) renderTitleBox() string {
	title := w.title
	inner := util.RuneLen(title) + 6
	if inner < 22 {
		inner = 22
	}

	pad := inner - util.RuneLen(title)
	left := pad / 2
	right := pad - left

	box := "+" + strings.Repeat("-", inner) + "+\n" +
		"|" + strings.Repeat(" ", left) + title + strings.Repeat(" ", right) + "|\n" +
		"+" + strings.Repeat("-", inner) + "+"

	return lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true).
		Render(box)
}

// renderTitle renders the page title.
func (w Welcome) renderTitle() string {
	return lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Bold(true).
		Render(w.title)
}

// renderVersion renders the version subtitle.
func (w Welcome) renderVersion() string {
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render("concierge v" + w.version)
}

// renderStartControl renders the start-chat control (2 lines).
func (w Welcome) renderStartControl() string {
	button := lipgloss.NewStyle().
		Foreground(styles.TextInverse).
		Background(styles.Purple).
		Bold(true).
		Padding(0, 2).
		Render(w.startLabel)

	hint := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("press Enter")

	return button + "\n" + hint
}

// =============================================================================
// KEYBOARD SHORTCUT HELP
// =============================================================================

// KeyboardShortcuts returns a formatted list of keyboard shortcuts.
func KeyboardShortcuts() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary)

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send message"},
		{"Ctrl+C", "Quit"},
		{"Ctrl+R", "Reset conversation"},
		{"Ctrl+L", "Clear screen"},
		{"Up/Down", "Scroll messages"},
		{"PgUp/PgDn", "Page scroll"},
		{"Esc", "Dismiss error"},
		{"/", "Commands (try /help)"},
	}

	lines := make([]string, len(shortcuts))
	for i, s := range shortcuts {
		lines[i] = keyStyle.Render(s.key) + descStyle.Render(s.desc)
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Bold(true)

	return titleStyle.Render("Keyboard Shortcuts") + "\n" +
		lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/ui/styles"
	"github.com/jeranaias/concierge/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT - Styled chat bubbles
// =============================================================================

// MessageBubble renders one conversation message as a styled bubble.
//
// Messages are value snapshots, so a bubble never observes a message
// mutating under it.
type MessageBubble struct {
	Message       model.Message
	Width         int
	ShowTimestamp bool
	Streaming     bool
	// Interrupted marks an assistant reply whose stream failed partway.
	// The partial content stays on screen with a trailing marker.
	Interrupted bool
	theme       *styles.Theme
}

// NewMessageBubble creates a new MessageBubble.
func NewMessageBubble(msg model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		Streaming:     msg.IsStreaming,
		theme:         theme,
	}
}

// SetWidth sets the bubble width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	switch b.Message.Role {
	case model.RoleUser:
		return b.renderUserBubble()
	case model.RoleAssistant:
		return b.renderAssistantBubble()
	default:
		return b.renderGenericBubble()
	}
}

// Render renders the bubble at the given width.
func (b *MessageBubble) Render(width int) string {
	b.SetWidth(width)
	return b.View()
}

// ==========================================================================
// USER BUBBLE - Blue tones, right-aligned feel
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	content := b.Message.GetDisplayContent()
	if content == "" {
		content = "..."
	}

	// Word wrap the content
	maxContentWidth := b.Width - 12 // Account for margins and padding
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	// Calculate actual content width (for the bubble)
	contentWidth := minInt(maxLineWidth(wrappedContent)+4, b.Width-8)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.UserBubbleFg).
		Background(styles.UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.UserBubbleBorder).
		Padding(0, 2).
		Width(contentWidth)

	bubble := bubbleStyle.Render(wrappedContent)

	// Role indicator - subtle, not bold
	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	roleIndicator := roleStyle.Render("you")

	// Timestamp (dimmed)
	timestamp := ""
	if b.ShowTimestamp {
		timestamp = b.renderTimestamp()
	}

	// Build the header (role + timestamp)
	headerParts := []string{roleIndicator}
	if timestamp != "" {
		headerParts = append(headerParts, timestamp)
	}
	header := strings.Join(headerParts, " ")

	// Right-align the bubble with left margin
	leftMargin := b.Width - contentWidth - 4
	if leftMargin < 0 {
		leftMargin = 0
	}

	marginStyle := lipgloss.NewStyle().MarginLeft(leftMargin)

	// Assemble: header above, bubble below (right-aligned)
	headerLine := marginStyle.Render(header)
	bubbleLine := marginStyle.Render(bubble)

	return lipgloss.JoinVertical(lipgloss.Right, headerLine, bubbleLine)
}

// ==========================================================================
// ASSISTANT BUBBLE - Purple/violet tones, left-aligned
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	content := b.Message.GetDisplayContent()

	// Show cursor for streaming messages
	if b.Streaming {
		content = content + b.renderStreamingCursor()
	}

	if content == "" {
		content = "..."
	}

	// Role indicator - subtle, not bold
	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	roleIndicator := roleStyle.Render("assistant")

	// Timestamp
	timestamp := ""
	if b.ShowTimestamp {
		timestamp = b.renderTimestamp()
	}

	// Build header
	headerParts := []string{roleIndicator}
	if timestamp != "" {
		headerParts = append(headerParts, timestamp)
	}
	header := strings.Join(headerParts, " ")

	// Fenced code only renders as highlighted blocks once the reply is
	// complete. A mid-stream fence would churn the highlighter on every
	// repaint.
	var body string
	if !b.Streaming && strings.Contains(content, "```") {
		body = b.renderAssistantParts(content)
	} else {
		body = b.renderAssistantText(content)
	}

	result := lipgloss.JoinVertical(lipgloss.Left, header, body)

	if b.Interrupted {
		tailStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			PaddingLeft(2)
		result = lipgloss.JoinVertical(lipgloss.Left, result, tailStyle.Render("[response interrupted]"))
	}

	return result
}

// renderAssistantText renders plain assistant text as a single bubble.
func (b *MessageBubble) renderAssistantText(content string) string {
	// Word wrap the content
	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	// Calculate actual content width
	contentWidth := minInt(maxLineWidth(wrappedContent)+4, b.Width-8)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.AssistantBubbleFg).
		Background(styles.AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.AssistantBubbleBorder).
		Padding(0, 2).
		Width(contentWidth).
		MarginRight(4)

	return bubbleStyle.Render(wrappedContent)
}

// renderAssistantParts renders an assistant reply containing fenced code:
// prose segments become bubbles, fenced segments become highlighted code
// blocks, joined vertically under one header.
func (b *MessageBubble) renderAssistantParts(content string) string {
	var rendered []string

	for _, part := range splitFencedParts(content) {
		if part.isCode {
			block := NewCodeBlock(part.language, part.text)
			block.SetMaxWidth(minInt(b.Width-8, 96))
			rendered = append(rendered, block.Render())
			continue
		}

		text := strings.TrimSpace(part.text)
		if text == "" {
			continue
		}
		rendered = append(rendered, b.renderAssistantText(text))
	}

	if len(rendered) == 0 {
		return b.renderAssistantText("...")
	}

	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

// ==========================================================================
// GENERIC BUBBLE - Fallback for unknown roles
// ==========================================================================

func (b *MessageBubble) renderGenericBubble() string {
	content := b.Message.GetDisplayContent()
	if content == "" {
		content = "..."
	}

	// Word wrap
	maxContentWidth := b.Width - 10
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	if maxContentWidth > b.Width-2 {
		maxContentWidth = b.Width - 2
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 2)

	return bubbleStyle.Render(wrappedContent)
}

// ==========================================================================
// HELPER METHODS
// ==========================================================================

// renderTimestamp renders a dimmed timestamp
func (b *MessageBubble) renderTimestamp() string {
	timestampStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	ts := b.Message.Timestamp
	if ts.IsZero() {
		return ""
	}

	// Format: "12:34 PM" or "Jan 5, 12:34 PM"
	now := time.Now()
	var formatted string

	if ts.Year() == now.Year() && ts.YearDay() == now.YearDay() {
		// Same day - just show time
		formatted = formatTime(ts)
	} else {
		// Different day - show date and time
		formatted = formatDate(ts) + ", " + formatTime(ts)
	}

	return timestampStyle.Render(formatted)
}

// renderStreamingCursor renders the streaming cursor animation
func (b *MessageBubble) renderStreamingCursor() string {
	cursorStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Blink(true)

	return cursorStyle.Render("_")
}

// ==========================================================================
// FENCED CODE SPLITTING
// ==========================================================================

// contentPart is one segment of an assistant reply: either prose or the
// body of a fenced code block.
type contentPart struct {
	isCode   bool
	language string
	text     string
}

// splitFencedParts splits content on ``` fences. An unclosed fence runs
// to the end of the content and still renders as code.
func splitFencedParts(content string) []contentPart {
	var parts []contentPart
	var current strings.Builder
	var language string
	inCode := false

	flush := func(isCode bool, lang string) {
		if current.Len() == 0 {
			return
		}
		parts = append(parts, contentPart{
			isCode:   isCode,
			language: lang,
			text:     strings.TrimRight(current.String(), "\n"),
		})
		current.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				// Closing fence
				flush(true, language)
				inCode = false
				language = ""
			} else {
				// Opening fence, may carry a language tag
				flush(false, "")
				inCode = true
				language = strings.TrimPrefix(trimmed, "```")
			}
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	flush(inCode, language)
	return parts
}

// ==========================================================================
// UTILITY FUNCTIONS
// ==========================================================================

// wordWrap wraps text to fit within the specified width
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for lineIdx, line := range lines {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLine := words[0]

		for _, word := range words[1:] {
			if util.RuneLen(currentLine)+1+util.RuneLen(word) <= width {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}

		result.WriteString(currentLine)
	}

	return result.String()
}

// maxLineWidth returns the width of the longest line in runes (characters).
// This correctly handles Unicode text where len() would return byte count.
func maxLineWidth(text string) int {
	maxWidth := 0
	for _, line := range strings.Split(text, "\n") {
		lineWidth := util.RuneLen(line)
		if lineWidth > maxWidth {
			maxWidth = lineWidth
		}
	}
	return maxWidth
}

// minInt returns the minimum of two integers
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// formatTime formats a time as "3:04 PM"
func formatTime(t time.Time) string {
	hour := t.Hour()
	minute := t.Minute()
	ampm := "AM"

	if hour >= 12 {
		ampm = "PM"
		if hour > 12 {
			hour -= 12
		}
	}
	if hour == 0 {
		hour = 12
	}

	minuteStr := util.IntToString(minute)
	if minute < 10 {
		minuteStr = "0" + minuteStr
	}

	return util.IntToString(hour) + ":" + minuteStr + " " + ampm
}

// formatDate formats a date as "Jan 5"
func formatDate(t time.Time) string {
	months := []string{
		"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
	}

	month := months[t.Month()-1]
	day := t.Day()

	return month + " " + util.IntToString(day)
}

// =============================================================================
// SYSTEM NOTICE COMPONENT - Centered announcements
// =============================================================================

// SystemNotice renders a centered notice box for conversation events
// that are not messages: resets, idle timeouts, the deployment's begin
// message. Notices live in the UI timeline only and are never sent to
// the provider.
type SystemNotice struct {
	Text          string
	Width         int
	When          time.Time
	ShowTimestamp bool
	theme         *styles.Theme
}

// NewSystemNotice creates a new SystemNotice.
func NewSystemNotice(text string, theme *styles.Theme) *SystemNotice {
	return &SystemNotice{
		Text:          text,
		Width:         80,
		ShowTimestamp: false,
		theme:         theme,
	}
}

// SetWidth sets the notice width.
func (n *SystemNotice) SetWidth(width int) {
	n.Width = width
}

// View renders the notice centered in its width.
func (n *SystemNotice) View() string {
	content := n.Text
	if content == "" {
		return ""
	}

	// Word wrap
	maxContentWidth := n.Width - 20
	if maxContentWidth < 30 {
		maxContentWidth = 30
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	// Calculate box width
	contentWidth := minInt(maxLineWidth(wrappedContent)+4, n.Width-16)

	boxStyle := lipgloss.NewStyle().
		Foreground(styles.SystemBubbleFg).
		Background(styles.SystemBubbleBg).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.SystemBubbleBorder).
		Padding(0, 2).
		Width(contentWidth).
		Align(lipgloss.Center)

	box := boxStyle.Render(wrappedContent)

	// Center the box
	centerStyle := lipgloss.NewStyle().
		Width(n.Width).
		Align(lipgloss.Center)

	if !n.ShowTimestamp || n.When.IsZero() {
		return centerStyle.Render(box)
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	header := labelStyle.Render(formatTime(n.When))

	return lipgloss.JoinVertical(
		lipgloss.Center,
		centerStyle.Render(header),
		centerStyle.Render(box),
	)
}

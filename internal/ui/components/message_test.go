// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/ui/styles"
	"github.com/jeranaias/concierge/internal/util"
)

// =============================================================================
// FENCED CODE SPLITTING TESTS
// =============================================================================

func TestSplitFencedPartsPlainProse(t *testing.T) {
	parts := splitFencedParts("Just a plain reply with no code.")

	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0].isCode {
		t.Error("plain prose should not be marked as code")
	}
	if parts[0].text != "Just a plain reply with no code." {
		t.Errorf("unexpected prose text: %q", parts[0].text)
	}
}

func TestSplitFencedPartsProseCodeProse(t *testing.T) {
	content := "Intro\n```go\nfmt.Println(1)\n```\nOutro"
	parts := splitFencedParts(content)

	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}

	if parts[0].isCode || parts[0].text != "Intro" {
		t.Errorf("part 0 = %+v, want prose %q", parts[0], "Intro")
	}
	if !parts[1].isCode {
		t.Error("part 1 should be code")
	}
	if parts[1].language != "go" {
		t.Errorf("part 1 language = %q, want %q", parts[1].language, "go")
	}
	if parts[1].text != "fmt.Println(1)" {
		t.Errorf("part 1 text = %q, want %q", parts[1].text, "fmt.Println(1)")
	}
	if parts[2].isCode || parts[2].text != "Outro" {
		t.Errorf("part 2 = %+v, want prose %q", parts[2], "Outro")
	}
}

func TestSplitFencedPartsUnclosedFence(t *testing.T) {
	// An unclosed fence runs to the end and still renders as code
	content := "Look:\n```python\nprint(1)"
	parts := splitFencedParts(content)

	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if !parts[1].isCode {
		t.Error("unclosed fence content should be code")
	}
	if parts[1].language != "python" {
		t.Errorf("language = %q, want %q", parts[1].language, "python")
	}
	if parts[1].text != "print(1)" {
		t.Errorf("text = %q, want %q", parts[1].text, "print(1)")
	}
}

func TestSplitFencedPartsNoLanguageTag(t *testing.T) {
	content := "```\nplain code\n```"
	parts := splitFencedParts(content)

	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if !parts[0].isCode {
		t.Error("fenced content should be code")
	}
	if parts[0].language != "" {
		t.Errorf("language = %q, want empty", parts[0].language)
	}
	if parts[0].text != "plain code" {
		t.Errorf("text = %q, want %q", parts[0].text, "plain code")
	}
}

func TestSplitFencedPartsIndentedFence(t *testing.T) {
	// Fences with leading whitespace still count as fences
	content := "  ```\nx := 1\n  ```"
	parts := splitFencedParts(content)

	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if !parts[0].isCode {
		t.Error("indented fence content should be code")
	}
	if parts[0].text != "x := 1" {
		t.Errorf("text = %q, want %q", parts[0].text, "x := 1")
	}
}

func TestSplitFencedPartsMultipleBlocks(t *testing.T) {
	content := "```go\na()\n```\nbetween\n```sh\nls\n```"
	parts := splitFencedParts(content)

	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if !parts[0].isCode || parts[0].language != "go" {
		t.Errorf("part 0 = %+v, want go code", parts[0])
	}
	if parts[1].isCode || parts[1].text != "between" {
		t.Errorf("part 1 = %+v, want prose %q", parts[1], "between")
	}
	if !parts[2].isCode || parts[2].language != "sh" {
		t.Errorf("part 2 = %+v, want sh code", parts[2])
	}
}

// =============================================================================
// WORD WRAP TESTS
// =============================================================================

func TestWordWrap(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"fits on one line", "hello world", 20, "hello world"},
		{"wraps at width", "alpha beta gamma", 10, "alpha beta\ngamma"},
		{"zero width returns input", "hello world", 0, "hello world"},
		{"negative width returns input", "hello", -5, "hello"},
		{"preserves blank lines", "a\n\nb", 10, "a\n\nb"},
		{"long word not broken", "abcdefghijklmnop", 5, "abcdefghijklmnop"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := wordWrap(tc.input, tc.width)
			if got != tc.want {
				t.Errorf("wordWrap(%q, %d) = %q, want %q", tc.input, tc.width, got, tc.want)
			}
		})
	}
}

func TestWordWrapNeverExceedsWidth(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	wrapped := wordWrap(text, 12)

	for _, line := range strings.Split(wrapped, "\n") {
		if util.RuneLen(line) > 12 {
			t.Errorf("line %q exceeds width 12", line)
		}
	}
}

// =============================================================================
// UTILITY TESTS
// =============================================================================

func TestMaxLineWidth(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"abc", 3},
		{"ab\nabcd\nabc", 4},
		{"héllo", 5},     // Rune count, not byte count
		{"日本語", 3},       // CJK runes
		{"a\n\nlong line", 9},
	}

	for _, tc := range tests {
		got := maxLineWidth(tc.input)
		if got != tc.want {
			t.Errorf("maxLineWidth(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestMinInt(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{1, 2, 1},
		{5, 3, 3},
		{-1, 0, -1},
		{4, 4, 4},
	}

	for _, tc := range tests {
		got := minInt(tc.a, tc.b)
		if got != tc.want {
			t.Errorf("minInt(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         string
	}{
		{15, 4, "3:04 PM"},
		{0, 5, "12:05 AM"},
		{12, 0, "12:00 PM"},
		{9, 7, "9:07 AM"},
		{23, 59, "11:59 PM"},
	}

	for _, tc := range tests {
		ts := time.Date(2025, time.March, 10, tc.hour, tc.minute, 0, 0, time.UTC)
		got := formatTime(ts)
		if got != tc.want {
			t.Errorf("formatTime(%02d:%02d) = %q, want %q", tc.hour, tc.minute, got, tc.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		month time.Month
		day   int
		want  string
	}{
		{time.January, 5, "Jan 5"},
		{time.December, 25, "Dec 25"},
		{time.June, 30, "Jun 30"},
	}

	for _, tc := range tests {
		ts := time.Date(2025, tc.month, tc.day, 12, 0, 0, 0, time.UTC)
		got := formatDate(ts)
		if got != tc.want {
			t.Errorf("formatDate(%v %d) = %q, want %q", tc.month, tc.day, got, tc.want)
		}
	}
}

// =============================================================================
// MESSAGE BUBBLE TESTS
// =============================================================================

func TestMessageBubbleDefaults(t *testing.T) {
	theme := styles.NewTheme()
	msg := model.Message{Role: model.RoleUser, Content: "hi"}

	bubble := NewMessageBubble(msg, theme)

	if bubble.Width != 80 {
		t.Errorf("default width = %d, want 80", bubble.Width)
	}
	if !bubble.ShowTimestamp {
		t.Error("timestamps should default to shown")
	}
	if bubble.Streaming {
		t.Error("non-streaming message should not create a streaming bubble")
	}
}

func TestMessageBubbleUserContent(t *testing.T) {
	theme := styles.NewTheme()
	msg := model.Message{Role: model.RoleUser, Content: "Hello there"}

	view := NewMessageBubble(msg, theme).Render(80)

	if view == "" {
		t.Fatal("user bubble rendered empty")
	}
	if !strings.Contains(view, "Hello there") {
		t.Error("user bubble should contain the message content")
	}
	if !strings.Contains(view, "you") {
		t.Error("user bubble should carry the role indicator")
	}
}

func TestMessageBubbleAssistantContent(t *testing.T) {
	theme := styles.NewTheme()
	msg := model.Message{Role: model.RoleAssistant, Content: "I can help with that."}

	view := NewMessageBubble(msg, theme).Render(80)

	if !strings.Contains(view, "I can help with that.") {
		t.Error("assistant bubble should contain the message content")
	}
	if !strings.Contains(view, "assistant") {
		t.Error("assistant bubble should carry the role indicator")
	}
}

func TestMessageBubbleEmptyContent(t *testing.T) {
	theme := styles.NewTheme()
	msg := model.Message{Role: model.RoleAssistant}

	view := NewMessageBubble(msg, theme).Render(80)

	if !strings.Contains(view, "...") {
		t.Error("empty bubble should render a placeholder")
	}
}

func TestMessageBubbleInterrupted(t *testing.T) {
	theme := styles.NewTheme()
	msg := model.Message{Role: model.RoleAssistant, Content: "partial rep"}

	bubble := NewMessageBubble(msg, theme)
	bubble.Interrupted = true
	view := bubble.Render(80)

	if !strings.Contains(view, "partial rep") {
		t.Error("interrupted bubble should keep the partial content")
	}
	if !strings.Contains(view, "[response interrupted]") {
		t.Error("interrupted bubble should carry the interruption marker")
	}
}

func TestMessageBubbleStreamingKeepsFencesInline(t *testing.T) {
	// Mid-stream fences must not trigger the highlighter
	theme := styles.NewTheme()
	msg := model.Message{Role: model.RoleAssistant, Content: "Here:\n```go\npartial"}

	bubble := NewMessageBubble(msg, theme)
	bubble.Streaming = true
	view := bubble.Render(80)

	if !strings.Contains(view, "```go") {
		t.Error("streaming bubble should render the fence as plain text")
	}
}

func TestMessageBubbleCompletedReplyHighlightsCode(t *testing.T) {
	theme := styles.NewTheme()
	msg := model.Message{
		Role:    model.RoleAssistant,
		Content: "Try this:\n```go\nfmt.Println(1)\n```",
	}

	view := NewMessageBubble(msg, theme).Render(100)

	if !strings.Contains(view, "Try this:") {
		t.Error("prose segment missing from rendered reply")
	}
	if !strings.Contains(view, "Println") {
		t.Error("code segment missing from rendered reply")
	}
	if strings.Contains(view, "```") {
		t.Error("fence markers should not survive into the rendered reply")
	}
}

func TestMessageBubbleUnknownRole(t *testing.T) {
	theme := styles.NewTheme()
	msg := model.Message{Role: model.Role("system"), Content: "fallback"}

	view := NewMessageBubble(msg, theme).Render(80)

	if !strings.Contains(view, "fallback") {
		t.Error("unknown roles should still render their content")
	}
}

func TestMessageBubbleZeroTimestamp(t *testing.T) {
	theme := styles.NewTheme()
	msg := model.Message{Role: model.RoleUser, Content: "no clock"}

	// Zero timestamps render no header time and must not panic
	view := NewMessageBubble(msg, theme).Render(80)
	if !strings.Contains(view, "no clock") {
		t.Error("bubble with zero timestamp should still render content")
	}
}

// =============================================================================
// SYSTEM NOTICE TESTS
// =============================================================================

func TestSystemNoticeEmpty(t *testing.T) {
	theme := styles.NewTheme()
	notice := NewSystemNotice("", theme)

	if view := notice.View(); view != "" {
		t.Errorf("empty notice should render nothing, got %q", view)
	}
}

func TestSystemNoticeContent(t *testing.T) {
	theme := styles.NewTheme()
	notice := NewSystemNotice("Conversation reset.", theme)
	notice.SetWidth(80)

	view := notice.View()
	if !strings.Contains(view, "Conversation reset.") {
		t.Error("notice should contain its text")
	}
}

func TestSystemNoticeTimestamp(t *testing.T) {
	theme := styles.NewTheme()
	notice := NewSystemNotice("Session expired.", theme)
	notice.ShowTimestamp = true
	notice.When = time.Date(2025, time.March, 10, 15, 4, 0, 0, time.UTC)

	view := notice.View()
	if !strings.Contains(view, "3:04 PM") {
		t.Error("notice with timestamp should render the time header")
	}
}

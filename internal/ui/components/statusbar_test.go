// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/concierge/internal/ui/styles"
)

// =============================================================================
// STATUS TYPE TESTS
// =============================================================================

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusConnecting, "Connecting..."},
		{StatusStreaming, "Streaming..."},
		{StatusError, "Error"},
		{StatusIdle, "Idle"},
		{Status(99), "Unknown"},
	}

	for _, tc := range tests {
		got := tc.status.String()
		if got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, styles.StatusIndicators.Success},
		{StatusConnecting, "*"},
		{StatusStreaming, "~"},
		{StatusError, styles.StatusIndicators.Error},
		{StatusIdle, "-"},
		{Status(99), "?"},
	}

	for _, tc := range tests {
		got := tc.status.Icon()
		if got != tc.want {
			t.Errorf("Status(%d).Icon() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

// =============================================================================
// THREAD ID SHORTENING TESTS
// =============================================================================

func TestShortThreadID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"thread_abc", "thread_abc"},
		{"exactly16runes!!", "exactly16runes!!"},
		{"thread_abc123def456ghi789", "thread_...ghi789"},
	}

	for _, tc := range tests {
		got := shortThreadID(tc.input)
		if got != tc.want {
			t.Errorf("shortThreadID(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestShortThreadIDKeepsTail(t *testing.T) {
	// Thread ids share a common prefix, so the tail is what
	// distinguishes them
	a := shortThreadID("thread_aaaaaaaaaaaaaaaa111111")
	b := shortThreadID("thread_aaaaaaaaaaaaaaaa222222")

	if a == b {
		t.Errorf("distinct thread ids shortened to the same string %q", a)
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestNewStatusBarDefaults(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())

	if bar.Width != 80 {
		t.Errorf("default width = %d, want 80", bar.Width)
	}
	if bar.Status != StatusIdle {
		t.Errorf("default status = %v, want StatusIdle", bar.Status)
	}
	if !bar.ShowShortcuts {
		t.Error("shortcuts should default to shown")
	}
	if bar.ThreadID != "" {
		t.Errorf("default thread id = %q, want empty", bar.ThreadID)
	}
}

func TestStatusBarNarrowView(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(50)
	bar.SetStatus(StatusReady)
	bar.SetMessageCount(3)

	view := bar.View()

	if !strings.Contains(view, styles.StatusIndicators.Success) {
		t.Error("narrow view should show the status icon")
	}
	if !strings.Contains(view, "3 msgs") {
		t.Error("narrow view should show the message count")
	}
}

func TestStatusBarMediumView(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(80)
	bar.SetAssistant("Concierge")
	bar.SetStatus(StatusReady)

	view := bar.View()

	if !strings.Contains(view, "Concierge") {
		t.Error("medium view should show the assistant name")
	}
	if !strings.Contains(view, "Ready") {
		t.Error("medium view should show the status text")
	}
	if !strings.Contains(view, "0 msgs") {
		t.Error("medium view should show the message count")
	}
}

func TestStatusBarMediumTruncatesLongName(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(80)
	bar.SetAssistant("Alexandria Concierge Desk")

	view := bar.View()

	if !strings.Contains(view, "Alexandria Concie...") {
		t.Error("long assistant names should be truncated with an ellipsis")
	}
}

func TestStatusBarWideViewNoThread(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(120)

	view := bar.View()

	if !strings.Contains(view, "no conversation") {
		t.Error("wide view without a thread should say so")
	}
}

func TestStatusBarWideViewWithThread(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(120)
	bar.SetAssistant("Concierge")
	bar.SetThread("thread_abc123def456ghi789")
	bar.SetStatus(StatusStreaming)
	bar.SetMessageCount(1)

	view := bar.View()

	if !strings.Contains(view, "thread_...ghi789") {
		t.Error("wide view should show the shortened thread id")
	}
	if !strings.Contains(view, "Streaming...") {
		t.Error("wide view should show the status text")
	}
	if !strings.Contains(view, "1 msg") {
		t.Error("wide view should show the message count")
	}
	if strings.Contains(view, "1 msgs") {
		t.Error("a single message should use the singular label")
	}
}

func TestStatusBarWideViewShortcuts(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(120)

	view := bar.View()

	if !strings.Contains(view, "^R") || !strings.Contains(view, "reset") {
		t.Error("wide view should show the reset shortcut")
	}
	if !strings.Contains(view, "^C") || !strings.Contains(view, "quit") {
		t.Error("wide view should show the quit shortcut")
	}

	bar.ShowShortcuts = false
	view = bar.View()
	if strings.Contains(view, "^R") {
		t.Error("shortcuts should be hidden when disabled")
	}
}

func TestStatusBarIdleCountdown(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(80)
	bar.SetIdleRemaining(90 * time.Second)

	view := bar.View()
	if !strings.Contains(view, "idle 1:30") {
		t.Error("status bar should show the idle countdown")
	}

	bar.SetIdleRemaining(0)
	view = bar.View()
	if strings.Contains(view, "idle") {
		t.Error("zero remaining should hide the idle countdown")
	}
}

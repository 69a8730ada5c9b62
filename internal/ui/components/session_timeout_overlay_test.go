// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// TIME FORMATTING TESTS
// =============================================================================

func TestFormatTimeRemaining(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{-5 * time.Second, "0:00"},
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{60 * time.Second, "1:00"},
		{90 * time.Second, "1:30"},
		{605 * time.Second, "10:05"},
		{15 * time.Minute, "15:00"},
	}

	for _, tc := range tests {
		got := formatTimeRemaining(tc.input)
		if got != tc.want {
			t.Errorf("formatTimeRemaining(%v) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// =============================================================================
// STATE TESTS
// =============================================================================

func TestOverlayDefaults(t *testing.T) {
	o := NewSessionTimeoutOverlay()

	if o.IsVisible() {
		t.Error("overlay should start hidden")
	}
	if o.WarningThreshold() != DefaultWarningThreshold {
		t.Errorf("warning threshold = %v, want %v", o.WarningThreshold(), DefaultWarningThreshold)
	}
}

func TestOverlayShowHide(t *testing.T) {
	o := NewSessionTimeoutOverlay()

	o.Show(3 * time.Minute)
	if !o.IsVisible() {
		t.Error("Show should make the overlay visible")
	}
	if o.IsExpired() {
		t.Error("positive remaining time should not be expired")
	}
	if o.TimeRemaining() != 3*time.Minute {
		t.Errorf("remaining = %v, want 3m", o.TimeRemaining())
	}

	o.Hide()
	if o.IsVisible() {
		t.Error("Hide should hide the overlay")
	}
}

func TestOverlayShowExpired(t *testing.T) {
	o := NewSessionTimeoutOverlay()

	o.Show(0)
	if !o.IsExpired() {
		t.Error("zero remaining time should be expired")
	}
}

func TestOverlayUpdateTime(t *testing.T) {
	o := NewSessionTimeoutOverlay()
	o.Show(time.Minute)

	o.UpdateTime(30 * time.Second)
	if o.TimeRemaining() != 30*time.Second {
		t.Errorf("remaining = %v, want 30s", o.TimeRemaining())
	}
	if o.IsExpired() {
		t.Error("30s remaining should not be expired")
	}

	o.UpdateTime(0)
	if !o.IsExpired() {
		t.Error("counting down to zero should expire the overlay")
	}
}

// =============================================================================
// UPDATE TESTS
// =============================================================================

func TestOverlayKeyExtendsSession(t *testing.T) {
	o := NewSessionTimeoutOverlay()
	o.Show(time.Minute)

	o, cmd := o.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})

	if o.IsVisible() {
		t.Error("a key press during the warning should hide the overlay")
	}
	if cmd == nil {
		t.Fatal("a key press during the warning should emit a command")
	}
	if _, ok := cmd().(SessionExtendedMsg); !ok {
		t.Errorf("expected SessionExtendedMsg, got %T", cmd())
	}
}

func TestOverlayKeyDismissesExpiredNotice(t *testing.T) {
	o := NewSessionTimeoutOverlay()
	o.Show(0)

	o, cmd := o.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if o.IsVisible() {
		t.Error("a key press should dismiss the expired notice")
	}
	if cmd != nil {
		t.Error("dismissing the expired notice should not extend anything")
	}
}

func TestOverlayKeyIgnoredWhenHidden(t *testing.T) {
	o := NewSessionTimeoutOverlay()

	o, cmd := o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("hidden overlay should ignore key presses")
	}
	if o.IsVisible() {
		t.Error("hidden overlay should stay hidden")
	}
}

// =============================================================================
// RENDER TESTS
// =============================================================================

func TestOverlayHiddenRendersNothing(t *testing.T) {
	o := NewSessionTimeoutOverlay()
	if view := o.View(); view != "" {
		t.Errorf("hidden overlay should render nothing, got %q", view)
	}
}

func TestOverlayWarningView(t *testing.T) {
	o := NewSessionTimeoutOverlay()
	o.SetSize(80, 24)
	o.Show(90 * time.Second)

	view := o.View()

	if !strings.Contains(view, "Still there?") {
		t.Error("warning view should show the warning title")
	}
	if !strings.Contains(view, "1:30") {
		t.Error("warning view should show the countdown")
	}
	if !strings.Contains(view, "Press any key to keep chatting") {
		t.Error("warning view should show the keep-alive hint")
	}
}

func TestOverlayExpiredView(t *testing.T) {
	o := NewSessionTimeoutOverlay()
	o.SetSize(80, 24)
	o.Show(0)

	view := o.View()

	if !strings.Contains(view, "Conversation Reset") {
		t.Error("expired view should announce the reset")
	}
	if !strings.Contains(view, "Press any key") {
		t.Error("expired view should show the dismiss hint")
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the concierge TUI.
package chat

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/concierge/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// stubProvider is a scripted conversation backend for tests.
type stubProvider struct {
	threadID  string
	createErr error
	postErr   error
	fragments []string
	streamErr error

	posted []string
}

func (p *stubProvider) CreateThread(ctx context.Context) (string, error) {
	if p.createErr != nil {
		return "", p.createErr
	}
	if p.threadID == "" {
		return "thread_stub", nil
	}
	return p.threadID, nil
}

func (p *stubProvider) PostMessage(ctx context.Context, threadID, role, content string) error {
	if p.postErr != nil {
		return p.postErr
	}
	p.posted = append(p.posted, content)
	return nil
}

func (p *stubProvider) StreamRun(ctx context.Context, threadID string, onText func(string)) error {
	for _, f := range p.fragments {
		onText(f)
	}
	return p.streamErr
}

// newTestModel builds a sized chat model over an unstarted controller.
func newTestModel(t *testing.T) (Model, *stubProvider) {
	t.Helper()
	p := &stubProvider{threadID: "thread_test123"}
	m := New(nil, model.NewController(p))
	m.width = 80
	m.height = 24
	return m, p
}

// newStartedModel builds a sized chat model whose conversation has a
// live thread.
func newStartedModel(t *testing.T) (Model, *stubProvider) {
	t.Helper()
	p := &stubProvider{threadID: "thread_test123"}
	ctrl := model.NewController(p)
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	m := New(nil, ctrl)
	m.width = 80
	m.height = 24
	return m, p
}

// asModel unwraps the tea.Model returned by Update. Slash command
// handlers return a pointer; everything else returns a value.
func asModel(t *testing.T, tm tea.Model) Model {
	t.Helper()
	switch v := tm.(type) {
	case Model:
		return v
	case *Model:
		return *v
	default:
		t.Fatalf("unexpected model type %T", tm)
		return Model{}
	}
}

// pressEnter types text into the input and presses enter.
func pressEnter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	um, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return asModel(t, um), cmd
}

// hasNotice reports whether any notice entry contains the substring.
func hasNotice(m Model, substr string) bool {
	for _, e := range m.entries {
		if e.kind == entryNotice && strings.Contains(e.text, substr) {
			return true
		}
	}
	return false
}

// =============================================================================
// CONSTRUCTION AND STATE TESTS
// =============================================================================

func TestNew(t *testing.T) {
	m, _ := newTestModel(t)

	if m.state != StateReady {
		t.Errorf("new model state = %v, want StateReady", m.state)
	}
	if m.Streaming() {
		t.Error("new model should not be streaming")
	}
	if m.appTitle == "" {
		t.Error("new model should carry a branded title")
	}
	if !m.input.Focused() {
		t.Error("input should start focused")
	}
	if m.buffer == nil {
		t.Error("streaming buffer should be initialized")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateReady, "Ready"},
		{StateStreaming, "Streaming"},
		{StateError, "Error"},
		{State(99), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestSetBranding(t *testing.T) {
	m, _ := newTestModel(t)

	m.SetBranding("Front Desk", "Ask me anything")
	if m.appTitle != "Front Desk" {
		t.Errorf("appTitle = %q, want %q", m.appTitle, "Front Desk")
	}
	if m.input.Placeholder != "Ask me anything" {
		t.Errorf("placeholder = %q, want %q", m.input.Placeholder, "Ask me anything")
	}

	// Empty values keep the current text
	m.SetBranding("", "")
	if m.appTitle != "Front Desk" {
		t.Error("empty title should not clear branding")
	}
}

func TestSetAssistantInfo(t *testing.T) {
	m, _ := newTestModel(t)

	m.SetAssistantInfo("Desk Assistant", "gpt-4o")
	if m.assistantName != "Desk Assistant" {
		t.Errorf("assistantName = %q", m.assistantName)
	}
	if m.assistantModel != "gpt-4o" {
		t.Errorf("assistantModel = %q", m.assistantModel)
	}
}

// =============================================================================
// RESIZE TESTS
// =============================================================================

func TestWindowResize(t *testing.T) {
	m, _ := newTestModel(t)

	um, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = asModel(t, um)

	if m.width != 100 || m.height != 30 {
		t.Errorf("size = %dx%d, want 100x30", m.width, m.height)
	}
	if m.viewport.Width != 100 {
		t.Errorf("viewport width = %d, want 100", m.viewport.Width)
	}
	// Header 1 + input 3 + status 1 leaves 25 rows for the transcript
	if m.viewport.Height != 25 {
		t.Errorf("viewport height = %d, want 25", m.viewport.Height)
	}
}

func TestWindowResizeTiny(t *testing.T) {
	m, _ := newTestModel(t)

	um, _ := m.Update(tea.WindowSizeMsg{Width: 10, Height: 4})
	m = asModel(t, um)

	if m.viewport.Height < 1 {
		t.Errorf("viewport height = %d, should be clamped to at least 1", m.viewport.Height)
	}
	if m.input.Width < 10 {
		t.Errorf("input width = %d, should be clamped to at least 10", m.input.Width)
	}
}

// =============================================================================
// INPUT SUBMISSION TESTS
// =============================================================================

func TestSubmitInputEmpty(t *testing.T) {
	m, _ := newStartedModel(t)

	m, cmd := pressEnter(t, m, "   ")
	if cmd != nil {
		t.Error("whitespace-only input should not produce a command")
	}
	if len(m.entries) != 0 {
		t.Error("whitespace-only input should not push entries")
	}
}

func TestSubmitInputNotStarted(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := pressEnter(t, m, "hello")
	if cmd != nil {
		t.Error("submit before start should not produce a command")
	}
	if !hasNotice(m, "has not started") {
		t.Error("submit before start should explain itself with a notice")
	}
}

func TestSubmitInputStarted(t *testing.T) {
	m, _ := newStartedModel(t)

	m, cmd := pressEnter(t, m, "What is 2+2?")
	if cmd == nil {
		t.Fatal("submit should produce a command")
	}

	msg := cmd()
	submit, ok := msg.(SubmitInputMsg)
	if !ok {
		t.Fatalf("expected SubmitInputMsg, got %T", msg)
	}
	if submit.Content != "What is 2+2?" {
		t.Errorf("submitted content = %q", submit.Content)
	}
	if m.input.Value() != "" {
		t.Error("input should be cleared after submit")
	}
}

func TestSubmitBlockedWhileStreaming(t *testing.T) {
	m, _ := newStartedModel(t)

	um, _ := m.Update(StreamStartMsg{})
	m = asModel(t, um)

	m, cmd := pressEnter(t, m, "another question")
	if cmd != nil {
		t.Error("typing during a stream should be ignored")
	}
}

// =============================================================================
// KEY HANDLING TESTS
// =============================================================================

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should produce a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}

func TestQuitKeyDuringError(t *testing.T) {
	m, _ := newTestModel(t)

	um, _ := m.Update(NewErrorMsg("Boom", "it broke"))
	m = asModel(t, um)
	if m.state != StateError {
		t.Fatal("error message should enter error state")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should still work in error state")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit even with an error up")
	}
}

func TestResetKey(t *testing.T) {
	m, _ := newStartedModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd == nil {
		t.Fatal("ctrl+r should produce a command")
	}
	if _, ok := cmd().(ResetRequestMsg); !ok {
		t.Error("ctrl+r should request a reset")
	}
}

func TestClearKeyKeepsPartials(t *testing.T) {
	m, _ := newStartedModel(t)
	m.pushNotice("a note")
	m.pushPartial("half a reply", m.streamStart)

	um, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = asModel(t, um)

	if len(m.entries) != 1 {
		t.Fatalf("expected 1 entry after clear, got %d", len(m.entries))
	}
	if m.entries[0].kind != entryPartial {
		t.Error("clear should keep preserved partial replies")
	}
}

func TestHelpOverlaySwallowsKey(t *testing.T) {
	m, _ := newTestModel(t)
	m.showHelp = true

	um, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = asModel(t, um)

	if m.showHelp {
		t.Error("any key should close the help overlay")
	}
	if m.input.Value() != "" {
		t.Error("the closing keypress should not reach the input")
	}
}

// =============================================================================
// ERROR DISPLAY TESTS
// =============================================================================

func TestErrorMsgEntersErrorState(t *testing.T) {
	m, _ := newTestModel(t)

	um, _ := m.Update(NewErrorMsg("Boom", "it broke"))
	m = asModel(t, um)

	if m.state != StateError {
		t.Error("error message should enter error state")
	}
	if !m.errorDisplay.IsVisible() {
		t.Error("error display should be visible")
	}
	if m.errorDisplay.GetTitle() != "Boom" {
		t.Errorf("error title = %q", m.errorDisplay.GetTitle())
	}
}

func TestErrorDismissedByEscape(t *testing.T) {
	m, _ := newTestModel(t)

	um, _ := m.Update(NewErrorMsg("Boom", "it broke"))
	m = asModel(t, um)

	um, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = asModel(t, um)

	if m.state != StateReady {
		t.Error("escape should return to ready state")
	}
	if m.errorDisplay.IsVisible() {
		t.Error("escape should hide the error display")
	}
	if !m.input.Focused() {
		t.Error("dismissing the error should refocus the input")
	}
}

func TestNoticeMsg(t *testing.T) {
	m, _ := newTestModel(t)

	um, _ := m.Update(NoticeMsg{Text: "Configuration reloaded."})
	m = asModel(t, um)

	if !hasNotice(m, "Configuration reloaded.") {
		t.Error("notice message should push an inline notice")
	}
}

// =============================================================================
// VIEW SMOKE TESTS
// =============================================================================

func TestViewBeforeSize(t *testing.T) {
	p := &stubProvider{}
	m := New(nil, model.NewController(p))

	if got := m.View(); got != "Loading..." {
		t.Errorf("unsized view = %q, want Loading...", got)
	}
}

func TestViewEmptyState(t *testing.T) {
	m, _ := newTestModel(t)
	m.updateViewport()

	view := m.View()
	if view == "" {
		t.Fatal("view should render")
	}
	if !strings.Contains(view, m.appTitle) {
		t.Error("empty state should show the branded title")
	}
}

func TestViewHelpOverlay(t *testing.T) {
	m, _ := newTestModel(t)
	m.showHelp = true

	view := m.View()
	if !strings.Contains(view, "/reset") {
		t.Error("help overlay should list slash commands")
	}
}

func TestViewWithTranscript(t *testing.T) {
	m, _ := newStartedModel(t)
	conv := m.controller.Conversation()
	conv.AddUserMessage("Hello there")
	conv.BeginAssistantMessage()
	conv.AppendFragment("Hi! How can I help?")
	conv.FinalizeLast()
	m.updateViewport()

	view := m.View()
	if !strings.Contains(view, "Hello there") {
		t.Error("transcript view should show the user message")
	}
	if !strings.Contains(view, "Hi! How can I help?") {
		t.Error("transcript view should show the assistant reply")
	}
}

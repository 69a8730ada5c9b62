// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal provides integration tests for the complete concierge system.
//
// These tests verify end-to-end functionality including:
// - Conversation lifecycle through the controller
// - Stream failure and recovery across turns
// - The HTTP surface from branding to transcript
// - Idle timeout driving a conversation reset
// - Branding asset reload through the file watcher
package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/concierge/internal/config"
	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/server"
	"github.com/jeranaias/concierge/internal/session"
)

// =============================================================================
// TEST UTILITIES
// =============================================================================

// runScript describes one streamed run: its fragments in order and the
// error to return after they are delivered.
type runScript struct {
	fragments []string
	err       error
}

// scriptedProvider plays a fixed sequence of runs. Calls beyond the
// script replay the last entry; an empty script streams nothing.
// Safe for concurrent use.
type scriptedProvider struct {
	mu      sync.Mutex
	calls   int
	scripts []runScript

	// delay is slept before each fragment, to hold runs open in
	// concurrency tests.
	delay time.Duration
}

func (p *scriptedProvider) CreateThread(ctx context.Context) (string, error) {
	return "thread_local", nil
}

func (p *scriptedProvider) PostMessage(ctx context.Context, threadID, role, content string) error {
	return nil
}

func (p *scriptedProvider) StreamRun(ctx context.Context, threadID string, onText func(text string)) error {
	p.mu.Lock()
	var script runScript
	switch {
	case p.calls < len(p.scripts):
		script = p.scripts[p.calls]
	case len(p.scripts) > 0:
		script = p.scripts[len(p.scripts)-1]
	}
	p.calls++
	delay := p.delay
	p.mu.Unlock()

	for _, f := range script.fragments {
		if delay > 0 {
			time.Sleep(delay)
		}
		onText(f)
	}
	return script.err
}

// newQuietServer builds a server over the given config and provider
// with logging swallowed.
func newQuietServer(cfg *config.Config, provider model.Provider) *server.Server {
	ctrl := model.NewController(provider)
	return server.NewServer(cfg, ctrl).WithLogger(log.New(&bytes.Buffer{}, "", 0))
}

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// TestConversationLifecycle walks a session end to end: start, one
// streamed exchange, reset.
func TestConversationLifecycle(t *testing.T) {
	provider := &scriptedProvider{scripts: []runScript{
		{fragments: []string{"Breakfast runs ", "7 to 10, ", "in the atrium."}},
	}}
	ctrl := model.NewController(provider)

	if ctrl.Started() {
		t.Fatal("controller should not be started before Start")
	}

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !ctrl.Started() {
		t.Fatal("controller should be started after Start")
	}

	var streamed strings.Builder
	reply, err := ctrl.Submit(context.Background(), "When is breakfast?", func(text string) {
		streamed.WriteString(text)
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	want := "Breakfast runs 7 to 10, in the atrium."
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
	if streamed.String() != reply {
		t.Errorf("fragments shown during streaming (%q) should concatenate to the committed reply (%q)",
			streamed.String(), reply)
	}

	transcript := ctrl.Conversation().Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(transcript))
	}
	if transcript[0].Role != model.RoleUser {
		t.Errorf("first message role = %s, want %s", transcript[0].Role, model.RoleUser)
	}
	if transcript[1].Role != model.RoleAssistant {
		t.Errorf("second message role = %s, want %s", transcript[1].Role, model.RoleAssistant)
	}
	if transcript[1].IsStreaming {
		t.Error("committed assistant message should not be marked streaming")
	}

	ctrl.Reset()
	if ctrl.Started() {
		t.Error("controller should not be started after Reset")
	}
	if n := ctrl.Conversation().MessageCount(); n != 0 {
		t.Errorf("message count after reset = %d, want 0", n)
	}
}

// TestStreamFailureThenRecovery verifies that a mid-stream failure
// leaves the user's turn in place and the next turn proceeds normally.
func TestStreamFailureThenRecovery(t *testing.T) {
	provider := &scriptedProvider{scripts: []runScript{
		{fragments: []string{"Checkout is at"}, err: errors.New("connection dropped")},
		{fragments: []string{"Checkout is at 11am."}},
	}}
	ctrl := model.NewController(provider)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	partial, err := ctrl.Submit(context.Background(), "When is checkout?", nil)
	if err == nil {
		t.Fatal("expected an error from the failed stream")
	}
	if partial != "Checkout is at" {
		t.Errorf("partial = %q, want %q", partial, "Checkout is at")
	}
	if n := ctrl.Conversation().MessageCount(); n != 1 {
		t.Fatalf("message count after failed stream = %d, want 1 (the user turn)", n)
	}

	reply, err := ctrl.Submit(context.Background(), "When is checkout?", nil)
	if err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	if reply != "Checkout is at 11am." {
		t.Errorf("reply = %q, want %q", reply, "Checkout is at 11am.")
	}

	transcript := ctrl.Conversation().Transcript()
	if len(transcript) != 3 {
		t.Fatalf("transcript has %d messages, want 3", len(transcript))
	}
	if transcript[2].Content != "Checkout is at 11am." {
		t.Errorf("final message = %q, want the recovered reply", transcript[2].Content)
	}
}

// =============================================================================
// HTTP SURFACE
// =============================================================================

// TestHTTPConversationFlow drives a whole visit through the HTTP
// handler chain: branding, start, a streamed chat turn, transcript,
// reset.
func TestHTTPConversationFlow(t *testing.T) {
	cfg := config.Default()
	cfg.Branding.PageTitle = "Harborview Hotel"
	cfg.Branding.BeginMessage = "How can I help with your stay?"

	provider := &scriptedProvider{scripts: []runScript{
		{fragments: []string{"The spa opens ", "at 9."}},
	}}
	s := newQuietServer(cfg, provider)
	h := s.Handler()

	do := func(method, path, body string) *httptest.ResponseRecorder {
		t.Helper()
		var r *http.Request
		if body == "" {
			r = httptest.NewRequest(method, path, nil)
		} else {
			r = httptest.NewRequest(method, path, strings.NewReader(body))
			r.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	// Branding is served before any conversation exists.
	w := do(http.MethodGet, "/api/branding", "")
	if w.Code != http.StatusOK {
		t.Fatalf("branding status = %d, want 200", w.Code)
	}
	var branding struct {
		PageTitle string `json:"page_title"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &branding); err != nil {
		t.Fatalf("branding decode failed: %v", err)
	}
	if branding.PageTitle != "Harborview Hotel" {
		t.Errorf("branding page_title = %q, want %q", branding.PageTitle, "Harborview Hotel")
	}

	// Start the conversation.
	w = do(http.MethodPost, "/api/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d, want 200: %s", w.Code, w.Body.String())
	}

	// One streamed turn.
	w = do(http.MethodPost, "/api/chat", `{"text":"When does the spa open?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("chat status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("chat Content-Type = %q, want text/event-stream", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: done") {
		t.Errorf("chat stream missing done event:\n%s", body)
	}
	if !strings.Contains(body, "The spa opens ") {
		t.Errorf("chat stream missing fragment text:\n%s", body)
	}

	// Transcript reflects the exchange.
	w = do(http.MethodGet, "/api/transcript", "")
	if w.Code != http.StatusOK {
		t.Fatalf("transcript status = %d, want 200", w.Code)
	}
	var transcript struct {
		Started  bool `json:"started"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &transcript); err != nil {
		t.Fatalf("transcript decode failed: %v", err)
	}
	if !transcript.Started {
		t.Error("transcript should report a started conversation")
	}
	if len(transcript.Messages) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(transcript.Messages))
	}
	if transcript.Messages[1].Content != "The spa opens at 9." {
		t.Errorf("assistant content = %q, want %q", transcript.Messages[1].Content, "The spa opens at 9.")
	}

	// Reset hands the kiosk to the next visitor.
	w = do(http.MethodPost, "/api/reset", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d, want 200", w.Code)
	}
	w = do(http.MethodGet, "/api/transcript", "")
	if err := json.Unmarshal(w.Body.Bytes(), &transcript); err != nil {
		t.Fatalf("transcript decode after reset failed: %v", err)
	}
	if transcript.Started || len(transcript.Messages) != 0 {
		t.Errorf("after reset: started=%v messages=%d, want a clean slate",
			transcript.Started, len(transcript.Messages))
	}
}

// =============================================================================
// IDLE TIMEOUT
// =============================================================================

// TestIdleResetFlow wires a fast session manager to a live conversation
// and verifies the timeout wipes it.
func TestIdleResetFlow(t *testing.T) {
	provider := &scriptedProvider{scripts: []runScript{
		{fragments: []string{"Of course."}},
	}}
	ctrl := model.NewController(provider)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := ctrl.Submit(context.Background(), "Can I get a late checkout?", nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	mgr := session.NewManager(session.Config{
		Timeout:       40 * time.Millisecond,
		WarningBefore: 10 * time.Millisecond,
	})
	mgr.SetTimeoutCallback(func() {
		ctrl.Reset()
	})

	time.Sleep(60 * time.Millisecond)

	if mgr.Check() {
		t.Fatal("session should have expired")
	}
	if ctrl.Started() {
		t.Error("conversation should be reset after the idle timeout")
	}
	if n := ctrl.Conversation().MessageCount(); n != 0 {
		t.Errorf("message count after idle reset = %d, want 0", n)
	}

	// The next visitor gets a fresh clock and a working session.
	mgr.Restart()
	if !mgr.Check() {
		t.Error("restarted session should be live")
	}
	if err := ctrl.Start(context.Background()); err != nil {
		t.Errorf("Start after idle reset failed: %v", err)
	}
}

// =============================================================================
// BRANDING ASSET RELOAD
// =============================================================================

// TestBrandingAssetReload edits a watched disclaimer file and verifies
// the watcher reports it and the re-read content is current.
func TestBrandingAssetReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disclaimer.md")
	if err := os.WriteFile(path, []byte("# Terms v1"), 0o644); err != nil {
		t.Fatalf("write disclaimer: %v", err)
	}

	reloaded := make(chan []string, 1)
	w := config.NewPollingWatcher([]string{path}, 20*time.Millisecond, func(changed []string) {
		select {
		case reloaded <- changed:
		default:
		}
	})
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("# Terms v2"), 0o644); err != nil {
		t.Fatalf("rewrite disclaimer: %v", err)
	}
	// Force a mod time the baseline cannot share, whatever the
	// filesystem's timestamp granularity.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	select {
	case changed := <-reloaded:
		if len(changed) != 1 || changed[0] != filepath.Clean(path) {
			t.Errorf("changed = %v, want [%s]", changed, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never reported the edit")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-read disclaimer: %v", err)
	}
	if string(data) != "# Terms v2" {
		t.Errorf("re-read content = %q, want the edited version", data)
	}
}

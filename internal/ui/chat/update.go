// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the concierge TUI.
//
// This file holds the stream message handlers and the Runner that
// executes controller operations off the UI goroutine.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/concierge/internal/assistant"
	"github.com/jeranaias/concierge/internal/config"
	"github.com/jeranaias/concierge/internal/model"
	"github.com/jeranaias/concierge/internal/ui/components"
)

// =============================================================================
// STREAM HANDLERS
// =============================================================================

// handleStreamStart moves the surface into the streaming state and
// begins the flush tick loop.
func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	m.state = StateStreaming
	m.isThinking = true
	m.streamStart = msg.StartTime
	if m.streamStart.IsZero() {
		m.streamStart = time.Now()
	}
	m.liveText = ""
	m.buffer.Reset()
	m.input.Blur()
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(m.spinner.Tick, streamTickCmd())
}

// handleStreamFragment buffers an arriving fragment. Rendering waits
// for the next tick so a fast stream cannot outrun the terminal.
func (m Model) handleStreamFragment(msg StreamFragmentMsg) (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		// Fragment from a run that already settled; drop it.
		return m, nil
	}
	if msg.IsFirst {
		m.isThinking = false
	}
	m.buffer.Write(msg.Text)
	return m, nil
}

// handleStreamTick drains the buffer into the visible reply and keeps
// the tick loop alive while the stream is in flight.
func (m Model) handleStreamTick(_ StreamTickMsg) (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}
	if chunk, ok := m.buffer.Flush(); ok {
		m.liveText += chunk
		m.updateViewport()
		m.viewport.GotoBottom()
	}
	return m, streamTickCmd()
}

// handleStreamComplete settles a finished reply. The committed message
// now lives in the transcript, so the live tail is dropped rather than
// shown twice.
func (m Model) handleStreamComplete(_ StreamCompleteMsg) (tea.Model, tea.Cmd) {
	m.buffer.Reset()
	m.liveText = ""
	m.state = StateReady
	m.isThinking = false
	m.updateViewport()
	m.viewport.GotoBottom()
	m.input.Focus()
	return m, textinput.Blink
}

// handleStreamError settles a failed run. Whatever text already
// streamed stays on screen as an interrupted bubble; the transcript
// keeps the user's turn and nothing else.
func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	if chunk, ok := m.buffer.ForceFlush(); ok {
		m.liveText += chunk
	}
	partial := msg.Partial
	if partial == "" {
		partial = m.liveText
	}
	when := m.streamStart
	if when.IsZero() {
		when = time.Now()
	}
	m.liveText = ""
	m.isThinking = false

	if partial != "" {
		m.pushPartial(partial, when)
	}

	m.errorDisplay = errorDisplayFor(msg.Err)
	m.errorDisplay.SetSize(m.width, m.height)
	m.state = StateError
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// handleThreadCreated acknowledges a fresh provider thread.
func (m Model) handleThreadCreated(_ ThreadCreatedMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady
	m.pushNotice("Conversation started.")
	m.input.Focus()
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, textinput.Blink
}

// handleThreadError surfaces a failed thread creation. The conversation
// is untouched; the user decides what happens next.
func (m Model) handleThreadError(msg ThreadErrorMsg) (tea.Model, tea.Cmd) {
	m.errorDisplay = errorDisplayFor(msg.Err)
	m.errorDisplay.SetSize(m.width, m.height)
	m.state = StateError
	m.updateViewport()
	return m, nil
}

// handleResetDone clears every trace of the previous conversation:
// notices, preserved partials, live text, and any error display.
func (m Model) handleResetDone(_ ResetDoneMsg) (tea.Model, tea.Cmd) {
	m.entries = nil
	m.liveText = ""
	m.buffer.Reset()
	m.isThinking = false
	m.errorDisplay.Hide()
	m.state = StateReady
	m.pushNotice("Conversation reset.")
	m.input.Reset()
	m.input.Focus()
	m.updateViewport()
	m.viewport.GotoTop()
	return m, textinput.Blink
}

// handleError shows a caller-supplied error display.
func (m Model) handleError(msg ErrorMsg) (tea.Model, tea.Cmd) {
	var display components.ErrorDisplay
	if len(msg.Suggestions) > 0 {
		display = components.NewErrorWithSuggestions(msg.Title, msg.Message, msg.Suggestions)
	} else {
		display = components.NewError(msg.Title, msg.Message)
	}
	display.SetDismissible(msg.Dismissible)
	display.SetSize(m.width, m.height)
	m.errorDisplay = display
	m.state = StateError
	m.updateViewport()
	return m, nil
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// errorDisplayFor maps a provider or controller failure to the matching
// error display. Sentinel checks run before the generic stream check so
// a stream that died of, say, rate limiting gets the specific display.
func errorDisplayFor(err error) components.ErrorDisplay {
	switch {
	case err == nil:
		return components.NewError("Error", "Something went wrong.")
	case errors.Is(err, assistant.ErrNotConfigured):
		return components.NotConfiguredError()
	case errors.Is(err, assistant.ErrAuthFailed):
		return components.AuthError()
	case errors.Is(err, assistant.ErrRateLimited):
		return components.RateLimitError()
	case errors.Is(err, assistant.ErrInsufficientQuota):
		return components.QuotaError()
	case errors.Is(err, assistant.ErrNotFound):
		return components.AssistantNotFoundError(config.Global().OpenAI.AssistantID)
	case errors.Is(err, assistant.ErrRunFailed):
		return components.RunFailedError(err.Error())
	case errors.Is(err, model.ErrBusy):
		return components.NewError("Reply In Flight",
			"A reply is still streaming. Wait for it to finish, then try again.")
	case errors.Is(err, model.ErrNotStarted):
		return components.NewError("No Conversation",
			"Start a conversation before sending a message. Press Ctrl+R to start fresh.")
	case isStreamFailure(err):
		return components.StreamInterruptedError()
	default:
		return components.ConnectionError(err.Error())
	}
}

// isStreamFailure reports whether err came from a broken stream.
func isStreamFailure(err error) bool {
	var streamErr *assistant.StreamError
	return errors.As(err, &streamErr)
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes controller operations off the UI goroutine and feeds
// the results back into the program as messages. Each method is meant
// to be called in its own goroutine; the controller's single-flight
// guard refuses overlap.
type Runner struct {
	program    *tea.Program
	controller *model.Controller
}

// NewRunner creates a runner bound to a program and controller.
func NewRunner(program *tea.Program, controller *model.Controller) *Runner {
	return &Runner{
		program:    program,
		controller: controller,
	}
}

// send delivers a message to the program if one is attached.
func (r *Runner) send(msg tea.Msg) {
	if r.program != nil {
		r.program.Send(msg)
	}
}

// Start opens the session by creating a provider thread.
func (r *Runner) Start(ctx context.Context) {
	if err := r.controller.Start(ctx); err != nil {
		r.send(ThreadErrorMsg{Err: err})
		return
	}
	r.send(ThreadCreatedMsg{ThreadID: r.controller.Conversation().ThreadID()})
}

// Submit sends one user turn and relays the streamed reply. Fragments
// arrive through the controller's callback on this goroutine, so the
// first-fragment flag needs no locking.
func (r *Runner) Submit(ctx context.Context, content string) {
	r.send(StreamStartMsg{StartTime: time.Now()})

	first := true
	reply, err := r.controller.Submit(ctx, content, func(text string) {
		r.send(StreamFragmentMsg{Text: text, IsFirst: first})
		first = false
	})
	if err != nil {
		// On failure the controller returns the partial accumulation;
		// the view preserves it as an interrupted bubble.
		r.send(StreamErrorMsg{Err: err, Partial: reply})
		return
	}

	r.send(StreamCompleteMsg{Content: reply})
}

// Reset ends the session and tells the view to wipe its display state.
func (r *Runner) Reset() {
	r.controller.Reset()
	r.send(ResetDoneMsg{})
}

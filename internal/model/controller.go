// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation state machine for concierge.
package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Errors returned by controller operations.
var (
	// ErrEmptyMessage is returned when Submit is called with blank text.
	ErrEmptyMessage = errors.New("message text must not be empty")

	// ErrNotStarted is returned when Submit is called before Start.
	ErrNotStarted = errors.New("conversation not started")

	// ErrBusy is returned when an operation arrives while a streaming
	// run is already in flight. The session has a single logical thread
	// of control; overlapping runs are refused, never queued.
	ErrBusy = errors.New("a response is already streaming")
)

// Provider is the remote thread/run surface the controller drives.
// assistant.Client satisfies it; tests substitute scripted stubs.
//
// StreamRun delivers the response as a finite sequence of text fragments,
// invoking onText once per fragment in arrival order before returning.
// The sequence is consumed exactly once; there is no rewind.
type Provider interface {
	// CreateThread allocates a remote conversation thread and returns
	// its opaque handle.
	CreateThread(ctx context.Context) (string, error)

	// PostMessage appends a message to the remote thread.
	PostMessage(ctx context.Context, threadID, role, content string) error

	// StreamRun executes the assistant against the thread, streaming
	// response text through onText. A nil return means the run
	// completed and the concatenation of all fragments is the full
	// reply.
	StreamRun(ctx context.Context, threadID string, onText func(text string)) error
}

// FragmentFunc receives each streamed fragment as it arrives. It is a
// presentation side effect: fragments shown through it are not recalled
// if the run later fails.
type FragmentFunc func(text string)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives a single conversation against a provider. It owns
// the session lifecycle: start a thread, submit user turns, reset.
//
// The controller never retries: any provider failure is reported to the
// caller once and the next action is the user's.
type Controller struct {
	provider Provider
	conv     *Conversation

	mu   sync.Mutex
	busy bool
}

// NewController creates a controller over a fresh conversation.
func NewController(provider Provider) *Controller {
	return &Controller{
		provider: provider,
		conv:     NewConversation(),
	}
}

// Conversation returns the conversation state object. Callers read it
// through its snapshot methods; all mutation goes through the
// controller.
func (ct *Controller) Conversation() *Conversation {
	return ct.conv
}

// Started reports whether the session has a live provider thread.
func (ct *Controller) Started() bool {
	return ct.conv.Started()
}

// Streaming reports whether a run is currently in flight.
func (ct *Controller) Streaming() bool {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.busy
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Start opens the session: a remote thread is created and the
// conversation enters the started state with an empty transcript.
//
// On provider failure the error is returned and the conversation is
// left exactly as it was: not started, no thread, no messages.
func (ct *Controller) Start(ctx context.Context) error {
	if ct.conv.Started() {
		return ErrAlreadyStarted
	}

	threadID, err := ct.provider.CreateThread(ctx)
	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}

	if err := ct.conv.Begin(threadID); err != nil {
		return err
	}
	return nil
}

// Reset ends the session unconditionally: transcript cleared, started
// flag dropped, thread handle discarded. The remote thread is abandoned,
// not deleted; the provider retains it.
func (ct *Controller) Reset() {
	ct.conv.Reset()
}

// Submit sends one user turn and streams the assistant's reply.
//
// Preconditions: text must be non-blank and the session started.
// Violating either returns an error with no state mutation and no
// provider call.
//
// Effect, in order:
//  1. The user turn is appended to the transcript.
//  2. The turn is posted to the remote thread. If posting fails, the
//     appended turn is rolled back and the transcript is unchanged.
//  3. A streaming run executes. Each fragment is forwarded to onFragment
//     (when non-nil) as it arrives and accumulated in arrival order.
//  4. On completion the full concatenation is committed as a single
//     assistant turn and returned.
//
// If the stream fails partway, no assistant turn is committed: the
// partial text is removed from the transcript (fragments already shown
// through onFragment stand) and the partial accumulation is returned
// alongside the error. The user turn from step 1 remains.
func (ct *Controller) Submit(ctx context.Context, text string, onFragment FragmentFunc) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if !ct.conv.Started() {
		return "", ErrNotStarted
	}

	if err := ct.beginRun(); err != nil {
		return "", err
	}
	defer ct.endRun()

	threadID := ct.conv.ThreadID()
	ct.conv.AddUserMessage(trimmed)

	if err := ct.provider.PostMessage(ctx, threadID, RoleUser.String(), trimmed); err != nil {
		ct.conv.DiscardLast()
		return "", fmt.Errorf("post message: %w", err)
	}

	ct.conv.BeginAssistantMessage()

	err := ct.provider.StreamRun(ctx, threadID, func(text string) {
		ct.conv.AppendFragment(text)
		if onFragment != nil {
			onFragment(text)
		}
	})
	if err != nil {
		partial, _ := ct.conv.DiscardStreaming()
		return partial, fmt.Errorf("stream run: %w", err)
	}

	reply, ok := ct.conv.FinalizeLast()
	if !ok {
		// The conversation was reset while the run was in flight; the
		// reply has nowhere to land.
		return "", ErrNotStarted
	}
	return reply.Content, nil
}

// =============================================================================
// RUN GUARD
// =============================================================================

// beginRun claims the single streaming slot.
func (ct *Controller) beginRun() error {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.busy {
		return ErrBusy
	}
	ct.busy = true
	return nil
}

// endRun releases the streaming slot.
func (ct *Controller) endRun() {
	ct.mu.Lock()
	ct.busy = false
	ct.mu.Unlock()
}

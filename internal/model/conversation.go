// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation state machine for concierge.
package model

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxMessages is the maximum number of messages to keep in conversation
// history. When exceeded, the oldest turns are pruned to prevent unbounded
// memory growth in long-lived kiosk sessions.
const MaxMessages = 1000

// Errors returned by conversation state transitions.
var (
	// ErrAlreadyStarted is returned when Begin is called on a
	// conversation that already has a live provider thread.
	ErrAlreadyStarted = errors.New("conversation already started")

	// ErrNoThreadID is returned when Begin is called with an empty
	// thread ID.
	ErrNoThreadID = errors.New("thread ID must not be empty")
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the per-session chat state: whether a provider
// thread is live, which one, and the ordered transcript.
//
// The invariant maintained by every transition: the thread ID is
// non-empty exactly when the conversation is started.
//
// All methods are safe for concurrent use; the render loop and the
// streaming goroutine both touch the same conversation. Internal message
// pointers never escape: read methods return value snapshots.
type Conversation struct {
	mu sync.RWMutex

	// Identity
	id        string
	createdAt time.Time
	updatedAt time.Time

	// Provider linkage. threadID is an opaque handle minted by the
	// provider; it is stored verbatim and only ever echoed back.
	threadID string
	started  bool

	// Ordered transcript
	messages []*Message
}

// NewConversation creates a new, not-yet-started conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		id:        "conv_" + uuid.New().String(),
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the local conversation identifier.
func (c *Conversation) ID() string {
	return c.id
}

// CreatedAt returns the creation time.
func (c *Conversation) CreatedAt() time.Time {
	return c.createdAt
}

// UpdatedAt returns the time of the last state change.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// =============================================================================
// STATE TRANSITIONS
// =============================================================================

// Begin marks the conversation as started and records the provider
// thread handle. It fails without mutating state when the conversation
// is already started or the thread ID is empty.
func (c *Conversation) Begin(threadID string) error {
	if threadID == "" {
		return ErrNoThreadID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrAlreadyStarted
	}

	c.threadID = threadID
	c.started = true
	c.updatedAt = time.Now()
	return nil
}

// Reset returns the conversation to its initial state: no messages, not
// started, no thread handle. It succeeds unconditionally from any state.
// The remote thread, if any, is abandoned rather than deleted.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = nil
	c.threadID = ""
	c.started = false
	c.updatedAt = time.Now()
}

// Started reports whether a provider thread is live.
func (c *Conversation) Started() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started
}

// ThreadID returns the provider thread handle, or "" when not started.
func (c *Conversation) ThreadID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.threadID
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddUserMessage appends a user turn and returns a snapshot of it.
func (c *Conversation) AddUserMessage(content string) Message {
	msg := NewUserMessage(content)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLocked(msg)
	return msg.snapshot()
}

// BeginAssistantMessage appends an assistant turn in streaming state and
// returns a snapshot of it. Fragments accumulate via AppendFragment until
// FinalizeLast or DiscardStreaming.
func (c *Conversation) BeginAssistantMessage() Message {
	msg := NewAssistantMessage()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLocked(msg)
	return msg.snapshot()
}

// AppendFragment appends a streamed fragment to the trailing streaming
// message. If no streaming message is present (e.g. the conversation was
// reset mid-stream) the fragment is dropped.
func (c *Conversation) AppendFragment(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.lastLocked()
	if last != nil && last.IsStreaming {
		last.AppendFragment(text)
		c.updatedAt = time.Now()
	}
}

// FinalizeLast completes the trailing streaming message, merging its
// fragments into final content. It returns a snapshot of the finalized
// message and true, or a zero Message and false when nothing was
// streaming.
func (c *Conversation) FinalizeLast() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.lastLocked()
	if last == nil || !last.IsStreaming {
		return Message{}, false
	}

	last.FinalizeStream()
	c.updatedAt = time.Now()
	return last.snapshot(), true
}

// DiscardStreaming removes the trailing streaming message, returning the
// partial content that was dropped. Used when a streaming run fails: the
// partial text is never committed to the transcript.
func (c *Conversation) DiscardStreaming() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.lastLocked()
	if last == nil || !last.IsStreaming {
		return "", false
	}

	partial := last.GetDisplayContent()
	c.messages = c.messages[:len(c.messages)-1]
	c.updatedAt = time.Now()
	return partial, true
}

// DiscardLast removes the most recent message regardless of state. Used
// to roll back a user turn whose delivery to the provider failed.
func (c *Conversation) DiscardLast() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.messages) == 0 {
		return false
	}
	c.messages = c.messages[:len(c.messages)-1]
	c.updatedAt = time.Now()
	return true
}

// LastMessage returns a snapshot of the most recent message.
func (c *Conversation) LastMessage() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	last := c.lastLocked()
	if last == nil {
		return Message{}, false
	}
	return last.snapshot(), true
}

// Transcript returns an ordered snapshot of all messages. Streaming
// messages appear with their partial content and IsStreaming set.
func (c *Conversation) Transcript() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, m.snapshot())
	}
	return out
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return c.MessageCount() == 0
}

// =============================================================================
// METADATA
// =============================================================================

// ConversationMeta holds lightweight state for display and health
// reporting.
type ConversationMeta struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id,omitempty"`
	Started      bool      `json:"started"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Meta returns a consistent snapshot of the conversation metadata.
func (c *Conversation) Meta() ConversationMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ConversationMeta{
		ID:           c.id,
		ThreadID:     c.threadID,
		Started:      c.started,
		MessageCount: len(c.messages),
		CreatedAt:    c.createdAt,
		UpdatedAt:    c.updatedAt,
	}
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// appendLocked adds a message and prunes history. Caller holds c.mu.
func (c *Conversation) appendLocked(msg *Message) {
	c.messages = append(c.messages, msg)
	c.updatedAt = time.Now()

	if len(c.messages) > MaxMessages {
		drop := len(c.messages) - MaxMessages
		c.messages = append([]*Message(nil), c.messages[drop:]...)
	}
}

// lastLocked returns the most recent message or nil. Caller holds c.mu.
func (c *Conversation) lastLocked() *Message {
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

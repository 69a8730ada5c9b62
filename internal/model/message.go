// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation state machine for concierge.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/concierge/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message. The transcript only ever
// contains user and assistant turns; assistant instructions live in the
// provider-side assistant definition, not in the transcript.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a conversation.
//
// An assistant message under construction accumulates streamed fragments
// in a builder and is merged into Content when the stream completes.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Streaming state
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool            `json:"streaming,omitempty"`
	streamContent strings.Builder `json:"-"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message in streaming state.
// Content stays empty until FinalizeStream merges the accumulated fragments.
func NewAssistantMessage() *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendFragment appends a streamed text fragment to a streaming message.
// Fragments concatenate in arrival order with no separators.
func (m *Message) AppendFragment(text string) {
	if m.IsStreaming {
		m.streamContent.WriteString(text)
	}
}

// FinalizeStream completes streaming, merging the accumulated fragments
// into Content. Calling it on a non-streaming message is a no-op.
func (m *Message) FinalizeStream() {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// GetDisplayContent returns the content to display (streaming or final).
// Value snapshots carry streamed text in Content with an empty builder,
// so the builder only wins while it actually holds fragments.
func (m *Message) GetDisplayContent() string {
	if m.IsStreaming && m.streamContent.Len() > 0 {
		return m.streamContent.String()
	}
	return m.Content
}

// Preview returns a single-line truncated preview of the message
// content. Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(util.FirstLine(m.GetDisplayContent()), maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// snapshot returns a value copy safe to hand outside the package.
// The stream builder is never copied; its current contents are
// materialized into Content instead.
func (m *Message) snapshot() Message {
	return Message{
		ID:          m.ID,
		Role:        m.Role,
		Timestamp:   m.Timestamp,
		Content:     m.GetDisplayContent(),
		IsStreaming: m.IsStreaming,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.New().String()
}

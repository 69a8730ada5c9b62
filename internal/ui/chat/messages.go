// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// This file defines all Bubble Tea message types used by the chat
// interface. Messages are organized into the following categories:
//   - Streaming: Stream start, fragment delivery, completion, and errors
//   - Conversation: Thread lifecycle (start, reset)
//   - Assistant: Provider-side assistant identity
//   - UI State: Notices, errors, and dismissal
//
// All message types follow Bubble Tea conventions and are immutable.

import (
	"time"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// SubmitInputMsg signals that the user submitted input.
type SubmitInputMsg struct {
	Content string
}

// StreamStartMsg signals that a run stream has begun.
type StreamStartMsg struct {
	StartTime time.Time
}

// StreamFragmentMsg delivers a new text fragment from the stream.
// Fragments concatenate in arrival order with no separators.
type StreamFragmentMsg struct {
	Text    string
	IsFirst bool // True if this is the first fragment of the reply
}

// StreamCompleteMsg signals that the run finished and the full reply
// was committed to the transcript.
type StreamCompleteMsg struct {
	Content string
}

// StreamErrorMsg signals an error during streaming. Partial carries
// whatever text arrived before the failure; it stays on screen but is
// not part of the transcript.
type StreamErrorMsg struct {
	Err     error
	Partial string
}

// StreamTickMsg is sent at 30fps during streaming to batch render
// fragments. This prevents excessive rendering which causes flicker
// and high CPU.
type StreamTickMsg struct {
	Time time.Time
}

// NewStreamTickMsg creates a streaming tick message.
func NewStreamTickMsg() StreamTickMsg {
	return StreamTickMsg{Time: time.Now()}
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// StartRequestMsg asks the root model to create a conversation thread.
type StartRequestMsg struct{}

// ThreadCreatedMsg confirms a conversation thread was created.
type ThreadCreatedMsg struct {
	ThreadID string
}

// ThreadErrorMsg signals that thread creation failed. The conversation
// stays unstarted.
type ThreadErrorMsg struct {
	Err error
}

// ResetRequestMsg asks the root model to reset the conversation.
type ResetRequestMsg struct{}

// ResetDoneMsg confirms the conversation was reset.
type ResetDoneMsg struct{}

// =============================================================================
// ASSISTANT MESSAGES
// =============================================================================

// AssistantInfoMsg delivers the provider-side assistant identity,
// fetched once at startup.
type AssistantInfoMsg struct {
	Name  string
	Model string
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// NoticeMsg adds a system notice to the conversation timeline.
// Notices are display-only and never sent to the provider.
type NoticeMsg struct {
	Text string
}

// ErrorMsg displays an error to the user.
type ErrorMsg struct {
	Title       string
	Message     string
	Suggestions []string
	Dismissible bool
}

// ErrorDismissMsg dismisses the current error.
type ErrorDismissMsg struct{}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// NewErrorMsg creates a new dismissible error message.
// Use this for non-critical errors that users can dismiss.
func NewErrorMsg(title, message string) ErrorMsg {
	return ErrorMsg{
		Title:       title,
		Message:     message,
		Dismissible: true,
	}
}

// NewErrorMsgWithSuggestions creates an error message with actionable
// suggestions. Use this when you can provide helpful guidance for
// resolving the error.
func NewErrorMsgWithSuggestions(title, message string, suggestions []string) ErrorMsg {
	return ErrorMsg{
		Title:       title,
		Message:     message,
		Suggestions: suggestions,
		Dismissible: true,
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the conversation view for the concierge TUI.

The chat package implements the terminal chat surface using the Bubble
Tea framework. It renders the transcript of a single assistant
conversation, collects user turns, and shows streamed replies as they
arrive. Provider traffic never originates here: the view emits request
messages (SubmitInputMsg, ResetRequestMsg) and consumes the stream
messages (StreamStartMsg, StreamFragmentMsg, StreamCompleteMsg,
StreamErrorMsg) a Runner goroutine sends back through the program.

# Key Components

## Model (model.go)

The Model struct is the central Bubble Tea model for the chat surface:
  - Read-only view over the conversation transcript
  - Input handling with slash command support
  - Viewport for transcript scrolling
  - Streaming display state for the in-flight reply

## View Rendering (view.go)

Rendering logic for the complete chat surface:
  - Header with the configured title and connection state
  - Message bubbles for user and assistant turns
  - Inline notices and preserved partial replies
  - Status bar with thread, message count and idle countdown

## Update Loop (update.go)

Handles all Bubble Tea messages and user interactions:
  - Stream fragment handling at a capped frame rate
  - Error mapping from provider failures to on-screen displays
  - The Runner that executes controller operations off the UI loop

## Streaming (streaming.go)

Buffered streaming for smooth assistant replies:
  - StreamingBuffer for batched fragment rendering
  - Flicker-free updates at capped frame rates

## Commands (commands.go)

Slash command handler registry supporting:
  - /help - Show commands and keyboard shortcuts
  - /reset - Start the conversation over
  - /status - Show session details
  - /thread - Show the provider thread handle
  - /quit - Leave the application

# Usage

Create a chat model, run it, then hand the program to a Runner so
controller operations execute off the UI goroutine:

	theme := styles.NewTheme()
	view := chat.New(theme, controller)
	p := tea.NewProgram(view, tea.WithAltScreen())
	runner := chat.NewRunner(p, controller)
	go runner.Start(ctx)
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}

The transcript never mutates from inside this package. Submissions and
resets travel up as messages, the Runner applies them to the
controller, and the view re-reads the transcript snapshot on the next
frame. A reply that fails mid-stream is kept on screen as an
interrupted bubble; it is display state only and never joins the
transcript.
*/
package chat

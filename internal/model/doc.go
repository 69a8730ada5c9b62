// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation state machine for concierge.
//
// This package defines the per-session chat state and the controller
// that drives it against a remote assistant provider. Every surface of
// the application (TUI, one-shot CLI, REPL, HTTP API) shares this one
// state machine.
//
// # Key Types
//
//   - Conversation: per-session state (started flag, provider thread
//     handle, ordered transcript). Thread handle is non-empty exactly
//     when started.
//   - Message: single turn with role, content, and timestamp; assistant
//     turns accumulate streamed fragments before finalizing.
//   - Controller: start/submit/reset operations over a Provider.
//   - Provider: the remote thread/run surface (create thread, post
//     message, stream run).
//   - Role: message role enumeration (user, assistant).
//
// # Usage
//
// Drive a session:
//
//	ctl := model.NewController(client)
//	if err := ctl.Start(ctx); err != nil {
//	    // provider unreachable; session remains unstarted
//	}
//	reply, err := ctl.Submit(ctx, "Hello!", func(fragment string) {
//	    fmt.Print(fragment)
//	})
//
// A successful submit appends exactly two turns to the transcript: the
// user turn and the assistant's full reply. A failed stream commits no
// assistant turn; fragments already emitted through the callback are
// not recalled.
package model

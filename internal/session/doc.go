// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks session identity and idle timeout for the
// concierge surfaces.
//
// A concierge deployment sits unattended: when a visitor walks away
// mid-conversation, the next visitor must not see their transcript.
// The Manager watches for idleness, warns shortly before the limit,
// and emits an expiry event the surfaces use to reset the conversation
// and start a fresh session.
//
// # Key Types
//
//   - Manager: idle tracking with one warning edge and one expiry edge
//   - TickMsg: Bubble Tea message driving periodic checks
//   - TimeoutWarningMsg: Bubble Tea message when expiry approaches
//   - TimeoutMsg: Bubble Tea message when the session idled out
//
// # Usage
//
// Create a manager from the configured idle limit:
//
//	mgr := session.NewManager(session.Config{
//	    Timeout: cfg.Session.IdleTimeout(),
//	})
//
// In a Bubble Tea program, start the tick loop with TickCmd and feed
// ticks back:
//
//	case session.TickMsg:
//	    return m, mgr.HandleTick()
//
// Record activity on user input:
//
//	mgr.RecordActivity()
//
// After handling TimeoutMsg (wiping the conversation), begin a fresh
// session:
//
//	mgr.Restart()
//
// Surfaces without a message loop call Check from their own ticker and
// register callbacks instead.
package session

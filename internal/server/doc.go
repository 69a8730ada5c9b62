// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the concierge conversation over a small HTTP
// API so an external page can render the chat front-end.
//
// The server drives the same single conversation controller as the
// terminal surfaces: one visitor session at a time, no accounts. A
// reply streams back as Server-Sent Events, one data frame per text
// fragment.
//
// # Endpoints
//
//   - GET  /health          - liveness plus assistant reachability
//   - GET  /api/branding    - deployment display text and disclaimer
//   - GET  /api/transcript  - ordered conversation transcript
//   - POST /api/start       - open the session thread
//   - POST /api/reset       - wipe the conversation for the next visitor
//   - POST /api/chat        - submit one user turn, reply streamed as SSE
//
// Operations that arrive while a reply is still streaming are refused
// with 409 Conflict.
//
// # Middleware
//
//   - Panic recovery with stack trace logging
//   - Security headers (X-Content-Type-Options, X-Frame-Options, etc.)
//   - CORS for the page origin
//   - Request logging with status, timing, and client IP
//
// # Usage
//
//	ctrl := model.NewController(client)
//	srv := server.NewServer(cfg, ctrl).WithAssistantClient(client)
//	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
//		log.Fatal(err)
//	}
package server

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant provides the OpenAI Assistants API client for concierge.
//
// The Assistants API keeps conversation state server-side: a thread holds
// the message history, and a run executes the configured assistant against
// that thread. This package implements thread creation, message posting,
// and streaming run execution for a single assistant.
//
// # Key Types
//
//   - Client: HTTP client for the Assistants v2 API, bound to one assistant
//   - Assistant: Remote assistant definition (name, model, instructions)
//   - StreamError: Streaming failure carrying partial content received
//   - SSEReader: Server-Sent Events reader for run streams
//
// # Usage
//
// Create a client, open a thread, and stream a run:
//
//	client := assistant.NewClient(apiKey, assistantID)
//	threadID, err := client.CreateThread(ctx)
//	err = client.PostMessage(ctx, threadID, "user", "Hello")
//	err = client.StreamRun(ctx, threadID, func(text string) {
//	    fmt.Print(text)
//	})
//
// # Security
//
// API keys are never logged; request logging records method, path, status,
// and duration only. All requests use TLS 1.2+. The client performs no
// automatic retries: every failure surfaces to the caller immediately.
package assistant

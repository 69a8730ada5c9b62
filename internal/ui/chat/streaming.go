// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the concierge TUI.
//
// This file implements streaming optimization for smooth, flicker-free
// rendering while a reply streams in. The StreamingBuffer batches
// fragments so the transcript redraws at a capped frame rate instead
// of once per fragment.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches stream fragments for efficient rendering.
// Fragments accumulate in the buffer and are flushed when either:
//  1. The batch size threshold is reached (e.g. 15 fragments)
//  2. Enough time has passed since the last flush (e.g. 33ms for 30fps)
//
// This prevents excessive rendering (>1000fps) which causes flicker and
// high CPU usage, while keeping the visible reply moving.
//
// Thread-safety: all operations are protected by a mutex since the
// Runner writes from its own goroutine while flushing happens in the
// main Bubble Tea loop.
type StreamingBuffer struct {
	mu            sync.Mutex
	buffer        strings.Builder
	fragmentCount int
	lastFlush     time.Time

	// Configuration
	batchSize  int           // Fragments per batch (default: 15)
	maxFPS     int           // Max frames per second (default: 30)
	minFlushMs time.Duration // Min time between flushes (1000/maxFPS)
}

// NewStreamingBuffer creates a streaming buffer with default settings:
// 15 fragments per batch and a 30fps flush cap.
func NewStreamingBuffer() *StreamingBuffer {
	const (
		defaultBatchSize = 15
		defaultMaxFPS    = 30
	)

	return &StreamingBuffer{
		batchSize:  defaultBatchSize,
		maxFPS:     defaultMaxFPS,
		minFlushMs: time.Duration(1000/defaultMaxFPS) * time.Millisecond,
		lastFlush:  time.Now(),
	}
}

// NewStreamingBufferWithConfig creates a streaming buffer with custom
// batch size and frame rate. Out-of-range values fall back to the
// defaults.
func NewStreamingBufferWithConfig(batchSize, maxFPS int) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = 15
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}

	return &StreamingBuffer{
		batchSize:  batchSize,
		maxFPS:     maxFPS,
		minFlushMs: time.Duration(1000/maxFPS) * time.Millisecond,
		lastFlush:  time.Now(),
	}
}

// Write adds a fragment to the buffer. Called from the Runner
// goroutine, so it's thread-safe.
func (sb *StreamingBuffer) Write(fragment string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.WriteString(fragment)
	sb.fragmentCount++
}

// Flush returns accumulated content when a flush is due.
// Returns (content, hasContent); hasContent is false when the buffer
// is empty or neither the size nor the time threshold has been reached.
// Called from the main Bubble Tea loop, so it's thread-safe.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}

	if !sb.shouldFlushLocked() {
		return "", false
	}

	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.fragmentCount = 0
	sb.lastFlush = time.Now()

	return content, true
}

// ShouldFlush reports whether a flush is due (time or size based).
// Thread-safe.
func (sb *StreamingBuffer) ShouldFlush() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.shouldFlushLocked()
}

// shouldFlushLocked checks flush conditions. Caller must hold the lock.
func (sb *StreamingBuffer) shouldFlushLocked() bool {
	if sb.buffer.Len() == 0 {
		return false
	}

	if sb.fragmentCount >= sb.batchSize {
		return true
	}

	// Flush on the clock as well so slow streams still animate.
	return time.Since(sb.lastFlush) >= sb.minFlushMs
}

// Reset clears the buffer without flushing. Use when a stream is
// abandoned or a new one starts. Thread-safe.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.Reset()
	sb.fragmentCount = 0
	sb.lastFlush = time.Now()
}

// Pending returns the number of fragments waiting to be flushed.
// Thread-safe.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.fragmentCount
}

// ForceFlush immediately returns all buffered content regardless of
// thresholds. Use when a stream completes so no trailing fragments are
// lost. Thread-safe.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}

	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.fragmentCount = 0
	sb.lastFlush = time.Now()

	return content, true
}

// GetConfig returns the current buffer configuration. Thread-safe.
func (sb *StreamingBuffer) GetConfig() (batchSize, maxFPS int, minFlushMs time.Duration) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.batchSize, sb.maxFPS, sb.minFlushMs
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd creates a tea.Cmd that sends StreamTickMsg at 30fps.
// The tick loop drains the buffer while a stream is in flight.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}

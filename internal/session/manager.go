// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks session identity and idle timeout for the
// concierge surfaces.
package session

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/concierge/internal/util"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks the active session and its idle state. An idle chat
// gets a warning first, then expires; the expiry event is what the
// surfaces use to wipe the conversation for the next visitor.
//
// Warning and expiry are edges, not levels: each fires once per idle
// period, and RecordActivity re-arms both.
type Manager struct {
	mu sync.Mutex

	// Session tracking
	sessionID    string
	startTime    time.Time
	lastActivity time.Time

	// Timeout configuration
	timeout       time.Duration // Idle duration before expiry (0 disables)
	warningBefore time.Duration // How long before expiry the warning shows
	warningShown  bool
	timeoutFired  bool

	// Callbacks for surfaces without a message loop
	onTimeout func()
	onWarning func(remaining time.Duration)
}

// Config holds configuration for the session manager.
type Config struct {
	// Timeout is the idle duration after which the conversation is
	// considered abandoned (0 disables idle handling).
	Timeout time.Duration

	// WarningBefore is how long before expiry to surface a warning.
	WarningBefore time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:       15 * time.Minute,
		WarningBefore: 2 * time.Minute,
	}
}

// NewManager creates a new session manager.
func NewManager(cfg Config) *Manager {
	warning := cfg.WarningBefore
	if warning <= 0 || warning >= cfg.Timeout {
		// The warning window must sit inside the timeout, or short
		// limits would warn immediately.
		warning = cfg.Timeout / 5
	}

	now := time.Now()
	return &Manager{
		sessionID:     generateSessionID(),
		startTime:     now,
		lastActivity:  now,
		timeout:       cfg.Timeout,
		warningBefore: warning,
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

// SessionID returns the current session ID.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// StartTime returns when the session started.
func (m *Manager) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime
}

// Duration returns how long the session has been active.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.startTime)
}

// IdleTime returns how long since last activity.
func (m *Manager) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActivity)
}

// RemainingTime returns time until idle expiry, or zero when idle
// handling is disabled.
func (m *Manager) RemainingTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timeout <= 0 {
		return 0
	}
	remaining := m.timeout - time.Since(m.lastActivity)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Enabled reports whether idle handling is configured.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout > 0
}

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

// RecordActivity updates the last activity timestamp and re-arms the
// warning and expiry edges. Call it on user input.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = time.Now()
	m.warningShown = false
	m.timeoutFired = false
}

// Restart begins a fresh session after an idle wipe: new identity, new
// clock, edges re-armed.
func (m *Manager) Restart() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.sessionID = generateSessionID()
	m.startTime = now
	m.lastActivity = now
	m.warningShown = false
	m.timeoutFired = false
}

// =============================================================================
// CALLBACKS
// =============================================================================

// SetTimeoutCallback sets the function called when the session expires.
func (m *Manager) SetTimeoutCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTimeout = fn
}

// SetWarningCallback sets the function called when expiry approaches.
func (m *Manager) SetWarningCallback(fn func(remaining time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWarning = fn
}

// =============================================================================
// TIMEOUT CHECKING
// =============================================================================

// IsExpired returns true if the session has been idle past the timeout.
func (m *Manager) IsExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout > 0 && time.Since(m.lastActivity) >= m.timeout
}

// ShouldShowWarning returns true if the timeout warning is due and has
// not been shown for this idle period.
func (m *Manager) ShouldShowWarning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timeout <= 0 || m.warningShown {
		return false
	}

	idle := time.Since(m.lastActivity)
	threshold := m.timeout - m.warningBefore

	return idle >= threshold && idle < m.timeout
}

// evaluateTick advances the warning and expiry edges under one lock.
func (m *Manager) evaluateTick() (warn bool, remaining time.Duration, expired bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timeout <= 0 {
		return false, 0, false
	}

	idle := time.Since(m.lastActivity)

	if idle >= m.timeout {
		if !m.timeoutFired {
			m.timeoutFired = true
			expired = true
		}
		return false, 0, expired
	}

	threshold := m.timeout - m.warningBefore
	if !m.warningShown && idle >= threshold {
		m.warningShown = true
		warn = true
		remaining = m.timeout - idle
	}
	return warn, remaining, false
}

// Check evaluates idle state and fires the registered callbacks. Used
// by surfaces without a message loop (the HTTP server's janitor).
// Returns true while the session is still live.
func (m *Manager) Check() bool {
	warn, remaining, expired := m.evaluateTick()

	m.mu.Lock()
	onTimeout := m.onTimeout
	onWarning := m.onWarning
	m.mu.Unlock()

	// Callbacks run outside the lock
	if warn && onWarning != nil {
		onWarning(remaining)
	}
	if expired && onTimeout != nil {
		onTimeout()
	}

	return !m.IsExpired()
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// TickMsg is sent periodically to check session state.
type TickMsg struct {
	Time time.Time
}

// TimeoutWarningMsg indicates the session is about to expire.
type TimeoutWarningMsg struct {
	Remaining time.Duration
}

// TimeoutMsg indicates the session idled out.
type TimeoutMsg struct{}

// TickCmd returns a command that ticks once per second.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// HandleTick processes a tick and returns the due messages plus the
// next tick.
func (m *Manager) HandleTick() tea.Cmd {
	var cmds []tea.Cmd

	warn, remaining, expired := m.evaluateTick()
	if warn {
		cmds = append(cmds, func() tea.Msg {
			return TimeoutWarningMsg{Remaining: remaining}
		})
	}
	if expired {
		cmds = append(cmds, func() tea.Msg {
			return TimeoutMsg{}
		})
	}

	// Continue ticking
	cmds = append(cmds, TickCmd())

	return tea.Batch(cmds...)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetTimeout updates the timeout duration. Used when a configuration
// reload changes the idle limit mid-session.
func (m *Manager) SetTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = d
	if m.warningBefore <= 0 || m.warningBefore >= d {
		m.warningBefore = d / 5
	}
}

// SetWarningTime updates when to show the timeout warning.
func (m *Manager) SetWarningTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warningBefore = d
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	return "sess_" + formatTimestamp(time.Now())
}

// formatTimestamp formats a time for use in IDs.
func formatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status represents the current session status.
type Status struct {
	SessionID     string
	StartTime     time.Time
	Duration      time.Duration
	IdleTime      time.Duration
	RemainingTime time.Duration
	IsExpired     bool
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	idle := now.Sub(m.lastActivity)
	remaining := time.Duration(0)
	expired := false
	if m.timeout > 0 {
		remaining = m.timeout - idle
		if remaining < 0 {
			remaining = 0
		}
		expired = idle >= m.timeout
	}

	return Status{
		SessionID:     m.sessionID,
		StartTime:     m.startTime,
		Duration:      now.Sub(m.startTime),
		IdleTime:      idle,
		RemainingTime: remaining,
		IsExpired:     expired,
	}
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		return util.IntToString(secs) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return util.IntToString(mins) + "m"
	}
	return util.IntToString(mins) + "m " + util.IntToString(secs) + "s"
}

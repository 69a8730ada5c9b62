// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the concierge TUI.
package chat

import (
	"time"

	"github.com/atotto/clipboard"
)

// =============================================================================
// FORMATTING UTILITIES
// =============================================================================

// formatTimestamp formats a timestamp for display. It uses smart
// formatting based on how recent the timestamp is:
//   - Today: just time (e.g., "15:04")
//   - This week: day and time (e.g., "Mon 15:04")
//   - Older: date and time (e.g., "Jan 2 15:04")
func formatTimestamp(t time.Time) string {
	now := time.Now()

	// Today: just time
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}

	// This week: day and time
	if now.Sub(t) < 7*24*time.Hour {
		return t.Format("Mon 15:04")
	}

	// Older: date and time
	return t.Format("Jan 2 15:04")
}

// formatInt formats an integer as a string without external dependencies.
func formatInt(n int) string {
	if n == 0 {
		return "0"
	}
	if n == -9223372036854775808 { // math.MinInt64
		return "-9223372036854775808"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}

	if negative {
		return "-" + string(digits)
	}
	return string(digits)
}

// =============================================================================
// CLIPBOARD UTILITIES
// =============================================================================

// copyToClipboard copies the given text to the system clipboard.
// Returns an error if the clipboard is not available or the operation fails.
func copyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}

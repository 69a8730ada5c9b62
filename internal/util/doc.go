// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the concierge application.
//
// This package contains common helper functions used throughout the
// application for string manipulation, display-width handling, type
// conversion, and file operations.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: terminal-column-aware truncation (CJK safe)
//   - StringWidth, PadRight: display width measurement and padding
//
// Type Conversion:
//   - IntToString, Int64ToString: Numeric to string conversion
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Truncate long strings safely for display
//	display := util.TruncateRunes(longText, 50)
//
//	// Fit a label into a fixed-width status bar cell
//	cell := util.PadRight(util.TruncateWidth(label, 24), 24)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util

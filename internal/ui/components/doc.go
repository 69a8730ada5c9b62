// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the concierge TUI.

This package contains a collection of styled components built on top of
the Bubble Tea and Lip Gloss libraries. Each component is designed to be
visually polished and consistent with the concierge design language.

# Core Components

## Display Components

Welcome (welcome.go) - Branded welcome screen with logo, disclaimer, and start control.
StatusBar (statusbar.go) - Bottom status bar with connection state, thread, and shortcuts.
MessageBubble (message.go) - Styled chat bubbles for user and assistant messages.
SystemNotice (message.go) - Centered notices for resets, timeouts, and announcements.
CodeBlock (codeblock.go) - Syntax-highlighted code blocks using Chroma.

## Feedback Components

ErrorDisplay (error.go) - Error messages with category, context, and suggestions.
SessionTimeoutOverlay (session_timeout_overlay.go) - Idle timeout warning with countdown.

# Key Types

## Theme Integration

All components accept a *styles.Theme for consistent styling:

	theme := styles.NewTheme()
	bar := components.NewStatusBar(theme)
	bar.SetWidth(80)
	bar.SetStatus(components.StatusReady)
	view := bar.View()

## Message Rendering

MessageBubble renders one conversation message, splitting fenced code out
of assistant replies into highlighted blocks:

	bubble := components.NewMessageBubble(msg, theme)
	view := bubble.Render(80)

## Error Handling

The error components provide structured error display:

	display := components.NewError("Connection Error", "connection refused")
	display.SetCategory(components.CategoryNetwork)
	display.SetSuggestions([]string{"Check your network connection", "Verify OPENAI_BASE_URL"})
	view := display.View()

# Helper Functions

The package includes shared helper functions in helpers.go:
  - toStr() - Integer to string conversion without fmt
  - fmtNumber() - Thousands-separated integer formatting
*/
package components

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the concierge TUI.

This package defines the color palette, theme, and spinner animations used
throughout the application. All colors use Lip Gloss AdaptiveColor for
automatic light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Purple - Primary accent for assistant messages and the welcome frame
  - Cyan - Brand color for info, commands, and user highlights
  - Emerald - Success states and the ready indicator
  - Amber - Warnings and idle timeout notices
  - Rose - Errors and interrupted streams

## Semantic Colors

Message bubbles use semantic color tokens:

	UserBubbleBg      - Background for user messages
	UserBubbleFg      - Text color for user messages
	AssistantBubbleBg - Background for assistant messages
	AssistantBubbleFg - Text color for assistant messages
	SystemBubbleBg    - Background for session notices

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text
	TextInverse   - Text on colored backgrounds

# Theme System (theme.go)

The Theme struct provides runtime color adaptation:

	theme := styles.NewThemeWithMode(cfg.UI.Theme)
	if theme.IsDark {
		// Dark terminal detected or forced
	}

# Animation System (animations.go)

Pre-defined spinner styles:

	LineSpinner - Simple line rotation for streaming replies
	DotsSpinner - Classic three-dot animation for run startup

# Usage Example

	import "github.com/jeranaias/concierge/internal/ui/styles"

	headerStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextPrimary)

	theme := styles.NewTheme()
	frame := styles.LineSpinner.Frame(tick)
*/
package styles

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// ADAPTIVE COLOR TESTS
// =============================================================================

// TestAdaptiveColorsDefined verifies the palette carries both light and
// dark variants for every color.
func TestAdaptiveColorsDefined(t *testing.T) {
	colors := []struct {
		name  string
		color lipgloss.AdaptiveColor
	}{
		{"Purple", Purple},
		{"Cyan", Cyan},
		{"Emerald", Emerald},
		{"Rose", Rose},
		{"Amber", Amber},
		{"Surface", Surface},
		{"SurfaceDim", SurfaceDim},
		{"Overlay", Overlay},
		{"TextPrimary", TextPrimary},
		{"TextSecondary", TextSecondary},
		{"TextMuted", TextMuted},
		{"TextInverse", TextInverse},
		{"UserBubbleBg", UserBubbleBg},
		{"AssistantBubbleBg", AssistantBubbleBg},
		{"SystemBubbleBg", SystemBubbleBg},
	}

	for _, tc := range colors {
		if tc.color.Light == "" {
			t.Errorf("%s missing Light variant", tc.name)
		}
		if tc.color.Dark == "" {
			t.Errorf("%s missing Dark variant", tc.name)
		}
		if !strings.HasPrefix(tc.color.Light, "#") {
			t.Errorf("%s Light = %q, want hex color", tc.name, tc.color.Light)
		}
	}
}

// =============================================================================
// ACCESSIBILITY INDICATOR TESTS
// =============================================================================

// TestStatusIndicators verifies shape indicators are ASCII-only.
func TestStatusIndicators(t *testing.T) {
	indicators := []struct {
		name  string
		value string
	}{
		{"Success", StatusIndicators.Success},
		{"Error", StatusIndicators.Error},
		{"Warning", StatusIndicators.Warning},
		{"Info", StatusIndicators.Info},
	}

	for _, tc := range indicators {
		if tc.value == "" {
			t.Errorf("StatusIndicators.%s should not be empty", tc.name)
		}
		for _, r := range tc.value {
			if r > 127 {
				t.Errorf("StatusIndicators.%s = %q contains non-ASCII rune", tc.name, tc.value)
			}
		}
	}
}

// TestRenderHelpers verifies status renderers include their shape indicator.
func TestRenderHelpers(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"RenderSuccess", RenderSuccess, StatusIndicators.Success},
		{"RenderError", RenderError, StatusIndicators.Error},
		{"RenderWarning", RenderWarning, StatusIndicators.Warning},
		{"RenderInfo", RenderInfo, StatusIndicators.Info},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.render("message")
			if !strings.Contains(out, tc.indicator) {
				t.Errorf("%s output %q should contain indicator %q", tc.name, out, tc.indicator)
			}
			if !strings.Contains(out, "message") {
				t.Errorf("%s output should contain the message", tc.name)
			}
		})
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the nila TUI.

This package defines the color palette, theme, and animation frames used
throughout the application. All colors use Lip Gloss AdaptiveColor for
automatic light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Rose - The companion's signature color; nila bubbles, prompts
  - Blue - User messages, links, info
  - Violet - Secondary accent for headers

## Semantic Colors

Message bubbles use semantic color tokens:

	UserBubbleBg - Background for user messages
	UserBubbleFg - Text color for user messages
	NilaBubbleBg - Background for nila messages
	NilaBubbleFg - Text color for nila messages

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text (timestamps, hints)
	TextInverse   - Text on colored backgrounds

# Theme System (theme.go)

The Theme struct provides runtime color adaptation:

	theme := styles.NewTheme()
	if theme.IsDark {
		// Dark terminal detected
	}

# Animation System (animations.go)

Pre-defined spinner styles:

	TypingSpinner - Three-dot "Nila is typing" animation
	LineSpinner   - Simple line rotation for network waits
	PulseSpinner  - Pulsing indicator for the login submit state

# Usage Example

	import "github.com/jeranaias/nila-tui/internal/ui/styles"

	headerStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextPrimary)

	spinner := styles.TypingSpinner
	interval := spinner.Duration()
*/
package styles

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the nila TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble lipgloss.Style
	NilaBubble lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputSeparator   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusNotice lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// TYPING INDICATOR STYLES
	// ==========================================================================

	Typing     lipgloss.Style
	TypingDots lipgloss.Style

	// ==========================================================================
	// LOGIN FORM STYLES
	// ==========================================================================

	FormBox        lipgloss.Style
	FormTitle      lipgloss.Style
	FormLabel      lipgloss.Style
	FormHint       lipgloss.Style
	FormError      lipgloss.Style
	FormTabActive  lipgloss.Style
	FormTabIdle    lipgloss.Style
	FormButton     lipgloss.Style
	FormButtonBusy lipgloss.Style

	// ==========================================================================
	// TIMESTAMP STYLE
	// ==========================================================================

	Stamp lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2)

	t.NilaBubble = lipgloss.NewStyle().
		Foreground(NilaBubbleFg).
		Background(NilaBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(NilaBubbleBorder).
		Padding(0, 2)

	// Input area
	t.InputSeparator = lipgloss.NewStyle().
		Foreground(Overlay)

	t.InputPrompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusNotice = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Crimson).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Blue)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Typing indicator
	t.Typing = lipgloss.NewStyle().
		Foreground(Rose).
		Italic(true)

	t.TypingDots = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	// Login form
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(1, 3)

	t.FormTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose).
		Align(lipgloss.Center)

	t.FormLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.FormHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.FormError = lipgloss.NewStyle().
		Foreground(Crimson).
		Bold(true)

	t.FormTabActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Rose).
		Padding(0, 2)

	t.FormTabIdle = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 2)

	t.FormButton = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Blue).
		Padding(0, 3)

	t.FormButtonBusy = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextMuted).
		Background(SurfaceDim).
		Padding(0, 3)

	// Timestamps
	t.Stamp = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme's layout dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

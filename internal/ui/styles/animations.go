// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the nila TUI.
package styles

import "time"

// =============================================================================
// SPINNER ANIMATIONS
// =============================================================================

// SpinnerConfig holds the configuration for a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the duration for each frame.
func (s SpinnerConfig) Duration() time.Duration {
	return time.Second / time.Duration(s.FPS)
}

// TypingSpinner - Three-dot "is typing" animation shown under the
// transcript while a reply is being revealed.
var TypingSpinner = SpinnerConfig{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    6,
}

// LineSpinner - Simple line rotation for network waits.
var LineSpinner = SpinnerConfig{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    10,
}

// PulseSpinner - Pulsing indicator for the login submit state.
var PulseSpinner = SpinnerConfig{
	Frames: []string{"( )", "(.)", "(o)", "(O)", "(o)", "(.)", "( )", "   "},
	FPS:    8,
}

// TypingLabel is the text rendered next to the typing animation.
const TypingLabel = "Nila is typing"

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// ConnIndicators for connection states in the header (ASCII-only).
var ConnIndicators = struct {
	Connected string
	Offline   string
}{
	Connected: "(+)",
	Offline:   "(-)",
}

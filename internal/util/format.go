// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// clockLayout is the short clock form message bubbles display, matching the
// stamp the service writes into history entries.
const clockLayout = "03:04 PM"

// ClockStamp formats t as the bubble timestamp, e.g. "09:41 AM".
func ClockStamp(t time.Time) string {
	return t.Format(clockLayout)
}

// UNICODE: Rune-aware truncation preserves multi-byte characters.

// TruncateRunes truncates s to at most maxRunes characters, appending "..."
// when anything was cut. Safe for UTF-8 input since it counts runes, not
// bytes.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// WrapText wraps text to the given display width, breaking at spaces where
// possible. Widths are measured in terminal cells (runewidth), so CJK and
// emoji don't overflow bubbles. Existing newlines are preserved.
func WrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}
		result.WriteString(wrapLine(line, maxWidth))
	}
	return result.String()
}

// wrapLine wraps a single newline-free line to maxWidth cells.
func wrapLine(line string, maxWidth int) string {
	if runewidth.StringWidth(line) <= maxWidth {
		return line
	}

	var result strings.Builder
	runes := []rune(line)

	for len(runes) > 0 {
		// Walk forward until the next rune would overflow.
		width := 0
		cut := 0
		for cut < len(runes) {
			w := runewidth.RuneWidth(runes[cut])
			if width+w > maxWidth {
				break
			}
			width += w
			cut++
		}
		if cut >= len(runes) {
			result.WriteString(string(runes))
			break
		}
		if cut == 0 {
			// Single rune wider than the window; emit it anyway.
			cut = 1
		}

		// Prefer breaking at the last space inside the window.
		breakAt := cut
		for j := cut; j > 0; j-- {
			if runes[j-1] == ' ' {
				breakAt = j
				break
			}
		}

		result.WriteString(strings.TrimRight(string(runes[:breakAt]), " "))
		result.WriteString("\n")
		runes = []rune(strings.TrimLeft(string(runes[breakAt:]), " "))
	}

	return result.String()
}

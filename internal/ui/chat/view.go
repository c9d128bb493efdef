// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation screen for the TUI.
//
// This file holds all rendering: the header, the message viewport with
// user/Nila bubbles, the typing indicator row, the input line, and the
// status bar. The view re-derives everything from the message log and
// the typing flag; it keeps no state of its own.
package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/nila-tui/internal/transcript"
	"github.com/jeranaias/nila-tui/internal/ui/styles"
	"github.com/jeranaias/nila-tui/internal/util"
)

// =============================================================================
// LAYOUT
// =============================================================================

// handleResize recomputes the layout for a new terminal size.
func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.viewport.Width = msg.Width
	m.viewport.Height = msg.Height - chromeHeight
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}

	m.input.Width = msg.Width - 6

	m.ready = true
	m.syncViewport(false)
	return m
}

// syncViewport re-renders the transcript into the viewport. When stick
// is true, or the user was already reading the newest messages, the
// viewport follows the bottom; otherwise their scroll position stands.
func (m *Model) syncViewport(stick bool) {
	if !m.ready {
		return
	}
	follow := stick || m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if follow {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the complete conversation screen.
func (m Model) View() string {
	if !m.ready {
		return "Connecting to Nila..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderTypingRow(),
		m.theme.InputSeparator.Render(strings.Repeat("-", m.width)),
		m.input.View(),
		m.renderStatusBar(),
	)
}

// renderHeader draws the title bar with the service address on the right.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Nila")
	where := m.theme.Stamp.Render(m.client.BaseURL())

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(where) - 2
	if gap < 1 {
		gap = 1
		where = ""
	}

	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + where)
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// renderMessages renders the full transcript, one bubble per message.
func (m *Model) renderMessages() string {
	if m.loading {
		return m.centered("Loading your conversation...")
	}
	if m.log.IsEmpty() {
		return m.centered("No messages yet. Say hi to Nila~")
	}

	var b strings.Builder
	for i, msg := range m.log.Messages() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

// renderMessage renders one bubble with its stamp: user messages hug the
// right edge in blue, Nila's hug the left in rose.
func (m *Model) renderMessage(msg *transcript.Message) string {
	maxWidth := (m.width * 2) / 3
	if maxWidth < 20 {
		maxWidth = 20
	}

	// Padding(0,2) plus the rounded border cost six cells.
	wrapWidth := maxWidth - 6
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	text := util.WrapText(msg.Text, wrapWidth)

	if msg.Sender == transcript.SenderUser {
		bubble := m.theme.UserBubble.MaxWidth(maxWidth).Render(text)
		block := lipgloss.JoinVertical(lipgloss.Right, bubble, m.theme.Stamp.Render(msg.Stamp))

		margin := m.width - lipgloss.Width(block) - 2
		if margin < 0 {
			margin = 0
		}
		return lipgloss.NewStyle().MarginLeft(margin).Render(block)
	}

	bubble := m.theme.NilaBubble.MaxWidth(maxWidth).Render(text)
	block := lipgloss.JoinVertical(lipgloss.Left, bubble, m.theme.Stamp.Render(msg.Stamp))
	return lipgloss.NewStyle().MarginLeft(1).Render(block)
}

// centered places a single line in the middle of the viewport.
func (m *Model) centered(text string) string {
	return lipgloss.Place(
		m.viewport.Width, m.viewport.Height,
		lipgloss.Center, lipgloss.Center,
		m.theme.Stamp.Render(text),
	)
}

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// renderTypingRow draws the "Nila is typing" line, or an empty row of
// the same height so the layout never jumps.
func (m Model) renderTypingRow() string {
	if !m.typingVisible() {
		return ""
	}
	return " " + m.theme.Typing.Render(styles.TypingLabel) + " " + m.spinner.View()
}

// =============================================================================
// STATUS BAR
// =============================================================================

// renderStatusBar draws shortcuts on the left and the transient notice
// on the right.
func (m Model) renderStatusBar() string {
	shortcuts := strings.Join([]string{
		m.theme.ShortcutKey.Render("enter") + m.theme.ShortcutDesc.Render(" send"),
		m.theme.ShortcutKey.Render("^r") + m.theme.ShortcutDesc.Render(" refresh"),
		m.theme.ShortcutKey.Render("^l") + m.theme.ShortcutDesc.Render(" logout"),
		m.theme.ShortcutKey.Render("^c") + m.theme.ShortcutDesc.Render(" quit"),
	}, m.theme.ShortcutDesc.Render("  "))

	var notice string
	if m.statusText != "" {
		text := util.TruncateRunes(m.statusText, m.width/2)
		if m.statusIsErr {
			notice = m.theme.StatusError.Render(text)
		} else {
			notice = m.theme.StatusNotice.Render(text)
		}
	}

	gap := m.width - lipgloss.Width(shortcuts) - lipgloss.Width(notice) - 2
	if gap < 1 {
		gap = 1
	}

	return m.theme.StatusBar.Width(m.width).Render(shortcuts + strings.Repeat(" ", gap) + notice)
}

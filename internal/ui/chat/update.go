// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation screen for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nila-tui/internal/api"
	"github.com/jeranaias/nila-tui/internal/reveal"
	"github.com/jeranaias/nila-tui/internal/session"
	"github.com/jeranaias/nila-tui/internal/transcript"
)

// statusTTL is how long a transient status-line notice stays visible.
const statusTTL = 4 * time.Second

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// requireLoginCmd emits the login redirect for the root router.
func requireLoginCmd() tea.Msg {
	return RequireLoginMsg{}
}

// loadHistory gates the history fetch on the session guard. No
// credential means no network call, just the redirect intent.
func (m Model) loadHistory() tea.Cmd {
	credential, intent := m.guard.Require()
	if intent == session.IntentLogin {
		return requireLoginCmd
	}
	return fetchHistoryCmd(m.client, credential, m.seq)
}

// fetchHistoryCmd fetches the transcript off the Update thread.
func fetchHistoryCmd(client *api.Client, credential string, seq int) tea.Cmd {
	return func() tea.Msg {
		entries, err := client.FetchHistory(context.Background(), credential)
		return HistoryLoadedMsg{Seq: seq, Entries: entries, Err: err}
	}
}

// sendMessageCmd submits one message off the Update thread.
func sendMessageCmd(client *api.Client, credential, text string, seq int) tea.Cmd {
	return func() tea.Msg {
		fragments, err := client.SendMessage(context.Background(), credential, text)
		return SendResultMsg{Seq: seq, Fragments: fragments, Err: err}
	}
}

// revealTickCmd arms the one-shot reveal timer the player asked for.
func revealTickCmd(t reveal.Tick) tea.Cmd {
	return tea.Tick(t.Delay, func(time.Time) tea.Msg {
		return RevealTickMsg{Run: t.Run}
	})
}

// statusExpiryCmd schedules the status-line clear.
func statusExpiryCmd(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all chat messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case HistoryLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case SendResultMsg:
		return m.handleSendResult(msg)

	case RevealTickMsg:
		return m.handleRevealTick(msg)

	case statusExpiredMsg:
		if msg.seq == m.statusSeq {
			m.statusText = ""
			m.statusIsErr = false
		}
		return m, nil

	case spinner.TickMsg:
		// Animate only while the indicator is on screen; swallowing the
		// tick otherwise ends the spin loop until the next send.
		if !m.typingVisible() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and other component messages.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m = m.Teardown()
		return m, tea.Quit

	case tea.KeyCtrlL:
		// Logout is unconditional: in-flight work falls stale.
		m = m.Teardown()
		m.guard.Logout()
		return m, requireLoginCmd

	case tea.KeyCtrlR:
		return m.reloadHistory()

	case tea.KeyEnter:
		return m.handleSend()

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSend runs the send pipeline: reject blank input, gate on the
// credential, append optimistically, clear the field, dispatch.
func (m Model) handleSend() (Model, tea.Cmd) {
	raw := m.input.Value()
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}

	credential, intent := m.guard.Require()
	if intent == session.IntentLogin {
		return m, requireLoginCmd
	}

	// Optimistic append: the user line stays even if the send fails.
	m.log.Append(transcript.NewUserMessage(raw))
	m.input.Reset()
	m.awaiting++
	m.syncViewport(true)

	return m, tea.Batch(
		sendMessageCmd(m.client, credential, raw, m.seq),
		m.spinner.Tick,
	)
}

// reloadHistory re-runs the activation fetch, invalidating whatever was
// still in flight.
func (m Model) reloadHistory() (Model, tea.Cmd) {
	m.seq++
	m.loading = true
	return m, m.loadHistory()
}

// =============================================================================
// NETWORK RESULT HANDLING
// =============================================================================

func (m Model) handleHistoryLoaded(msg HistoryLoadedMsg) (Model, tea.Cmd) {
	if msg.Seq != m.seq {
		return m, nil
	}
	m.loading = false

	if msg.Err != nil {
		if m.guard.Resolve(msg.Err) == session.IntentLogin {
			return m, requireLoginCmd
		}
		// Transient warning; the log stays empty and the user stays here.
		return m.setStatus("couldn't load history: "+errText(msg.Err), false)
	}

	msgs := make([]*transcript.Message, 0, len(msg.Entries))
	for _, e := range msg.Entries {
		msgs = append(msgs, transcript.NewHistoryMessage(transcript.Sender(e.Sender), e.Text, e.Time))
	}
	m.log.Replace(msgs)
	m.syncViewport(true)
	return m, nil
}

func (m Model) handleSendResult(msg SendResultMsg) (Model, tea.Cmd) {
	if msg.Seq != m.seq {
		return m, nil
	}
	if m.awaiting > 0 {
		m.awaiting--
	}

	if msg.Err != nil {
		if m.guard.Resolve(msg.Err) == session.IntentLogin {
			return m, requireLoginCmd
		}
		return m.setStatus(errText(msg.Err), true)
	}

	tick, scheduled := m.player.Enqueue(msg.Fragments)
	if !scheduled {
		return m, nil
	}
	return m, tea.Batch(revealTickCmd(tick), m.spinner.Tick)
}

func (m Model) handleRevealTick(msg RevealTickMsg) (Model, tea.Cmd) {
	rev, ok := m.player.Advance(msg.Run)
	if !ok {
		// Stale run: cancelled or superseded. Nothing to mutate.
		return m, nil
	}

	m.log.Append(transcript.NewNilaMessage(rev.Text))
	m.syncViewport(true)

	if rev.Done {
		return m, nil
	}
	return m, revealTickCmd(rev.Next)
}

// =============================================================================
// STATUS LINE
// =============================================================================

// setStatus shows a transient status-line notice and arms its expiry.
func (m Model) setStatus(text string, isErr bool) (Model, tea.Cmd) {
	m.statusSeq++
	m.statusText = text
	m.statusIsErr = isErr
	return m, statusExpiryCmd(m.statusSeq)
}

// errText maps service-client failures to short status-line text.
func errText(err error) string {
	switch {
	case errors.Is(err, api.ErrUnreachable):
		return "can't reach the service - is it running?"
	case errors.Is(err, api.ErrBadRequest):
		return "the service refused that message"
	default:
		return err.Error()
	}
}

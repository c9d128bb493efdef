// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation screen for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nila-tui/internal/api"
	"github.com/jeranaias/nila-tui/internal/reveal"
	"github.com/jeranaias/nila-tui/internal/session"
	"github.com/jeranaias/nila-tui/internal/transcript"
	"github.com/jeranaias/nila-tui/internal/ui/styles"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================

const (
	// inputCharLimit caps the message input field.
	inputCharLimit = 4096

	// chromeHeight is the vertical space around the viewport: header,
	// typing row, input separator, input line, status bar.
	chromeHeight = 5
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the conversation screen. It wires
// the message log, the staged reply player, the session guard, and the
// service client into the send pipeline and history load.
//
// All mutation happens in Update on the Bubble Tea thread. In-flight
// network results are tagged with seq; reveal timers are tagged with the
// player's run. Teardown bumps both so late arrivals fall stale.
type Model struct {
	// Collaborators
	theme  *styles.Theme
	client *api.Client
	guard  *session.Guard

	// Conversation state
	log    *transcript.Log
	player *reveal.Player

	// seq invalidates in-flight network results across teardowns and
	// reloads. Only results carrying the current value are applied.
	seq int

	// awaiting counts sends dispatched but not yet answered. The typing
	// indicator shows while awaiting > 0 or the player is mid-reveal.
	awaiting int

	// loading is true while the activation history fetch is in flight.
	loading bool

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Dimensions
	width  int
	height int
	ready  bool

	// Transient status line
	statusText  string
	statusIsErr bool
	statusSeq   int
}

// New creates the conversation screen. The caller supplies the shared
// session guard so credential state survives screen switches.
func New(client *api.Client, guard *session.Guard, theme *styles.Theme) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = "Message Nila..."
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.CharLimit = inputCharLimit
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.TypingSpinner.Frames,
		FPS:    styles.TypingSpinner.Duration(),
	}
	sp.Style = theme.TypingDots

	return Model{
		theme:    theme,
		client:   client,
		guard:    guard,
		log:      transcript.NewLog(),
		player:   reveal.NewPlayer(),
		viewport: vp,
		input:    ti,
		spinner:  sp,
	}
}

// Init starts the activation sequence: cursor blink plus the gated
// history load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadHistory())
}

// Teardown cancels the staged reveal and invalidates every in-flight
// network result. Call it when routing away from the conversation; late
// timer fires and late responses then mutate nothing.
func (m Model) Teardown() Model {
	m.player.Cancel()
	m.seq++
	m.awaiting = 0
	m.loading = false
	return m
}

// typingVisible reports whether the typing indicator row should render:
// from the moment a send is dispatched until strictly after the last
// fragment of its reply is revealed.
func (m Model) typingVisible() bool {
	return m.awaiting > 0 || m.player.Typing()
}

// Messages exposes the transcript for the root model and tests.
func (m Model) Messages() []*transcript.Message {
	return m.log.Messages()
}

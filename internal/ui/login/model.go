// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nila-tui/internal/api"
	"github.com/jeranaias/nila-tui/internal/session"
	"github.com/jeranaias/nila-tui/internal/ui/styles"
)

// authTimeout bounds one credential exchange with the service.
const authTimeout = 15 * time.Second

// =============================================================================
// MESSAGES
// =============================================================================

// LoggedInMsg tells the root model a credential has been stored and
// the chat screen can take over.
type LoggedInMsg struct{}

// authResultMsg carries the outcome of a login or register call. Seq
// drops results from submissions that are no longer current.
type authResultMsg struct {
	seq  int
	cred api.Credential
	err  error
}

// =============================================================================
// FORM STATE
// =============================================================================

// Tab selects which form is active.
type Tab int

const (
	TabLogin Tab = iota
	TabRegister
)

// field indexes the focusable inputs.
type field int

const (
	fieldUsername field = iota
	fieldPassword
)

// Model is the login/registration form. It collects a username and
// password, exchanges them for a credential, stores it, and announces
// the result; it never touches the transcript or any chat state.
type Model struct {
	theme  *styles.Theme
	client *api.Client
	store  *session.Store

	tab      Tab
	focus    field
	username textinput.Model
	password textinput.Model

	// seq invalidates in-flight submissions after a tab switch or a
	// newer submit.
	seq     int
	busy    bool
	errText string

	width  int
	height int
}

// New creates the form with the username field focused.
func New(client *api.Client, store *session.Store, theme *styles.Theme) Model {
	username := textinput.New()
	username.Prompt = ""
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Width = 28
	username.Focus()

	password := textinput.New()
	password.Prompt = ""
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 28
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return Model{
		theme:    theme,
		client:   client,
		store:    store,
		tab:      TabLogin,
		focus:    fieldUsername,
		username: username,
		password: password,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles one message and returns the successor model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case authResultMsg:
		return m.handleAuthResult(msg)
	}

	return m.updateFocused(msg)
}

// handleKey routes keys. While a submission is in flight everything
// except quit is ignored so the form cannot change under it.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlT:
		return m.toggleTab(), nil

	// Two fields, so either direction just toggles.
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyDown, tea.KeyUp:
		return m.setFocus(nextField(m.focus))

	case tea.KeyEnter:
		return m.handleSubmit()
	}

	return m.updateFocused(msg)
}

// toggleTab flips login/register and clears any stale error.
func (m Model) toggleTab() Model {
	if m.tab == TabLogin {
		m.tab = TabRegister
	} else {
		m.tab = TabLogin
	}
	m.errText = ""
	return m
}

// nextField cycles between the two inputs.
func nextField(f field) field {
	if f == fieldUsername {
		return fieldPassword
	}
	return fieldUsername
}

// setFocus moves the cursor to the given input.
func (m Model) setFocus(f field) (Model, tea.Cmd) {
	m.focus = f
	if f == fieldUsername {
		m.password.Blur()
		return m, m.username.Focus()
	}
	m.username.Blur()
	return m, m.password.Focus()
}

// handleSubmit validates the fields and dispatches the exchange.
func (m Model) handleSubmit() (Model, tea.Cmd) {
	username := strings.TrimSpace(m.username.Value())
	if username == "" {
		m.errText = "username cannot be empty"
		return m, nil
	}
	password := m.password.Value()
	if password == "" {
		m.errText = "password cannot be empty"
		return m, nil
	}

	m.busy = true
	m.errText = ""
	return m, authCmd(m.client, m.tab, username, password, m.seq)
}

// handleAuthResult finishes a submission: store the credential and
// hand off, or surface a readable failure.
func (m Model) handleAuthResult(msg authResultMsg) (Model, tea.Cmd) {
	if msg.seq != m.seq {
		return m, nil
	}
	m.busy = false

	if msg.err != nil {
		m.seq++
		m.errText = authErrText(msg.err)
		return m, nil
	}

	if err := m.store.Save(msg.cred.AccessToken); err != nil {
		m.seq++
		m.errText = "couldn't store the session: " + err.Error()
		return m, nil
	}

	return m, func() tea.Msg { return LoggedInMsg{} }
}

// updateFocused forwards a message to whichever input has the cursor.
func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == fieldUsername {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// COMMANDS
// =============================================================================

// authCmd performs the credential exchange off the update loop.
func authCmd(client *api.Client, tab Tab, username, password string, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()

		var (
			cred api.Credential
			err  error
		)
		if tab == TabRegister {
			cred, err = client.Register(ctx, username, password)
		} else {
			cred, err = client.Login(ctx, username, password)
		}
		return authResultMsg{seq: seq, cred: cred, err: err}
	}
}

// authErrText rewrites the service taxonomy for the error line.
func authErrText(err error) string {
	switch {
	case errors.Is(err, api.ErrInvalidCredentials):
		return "incorrect username or password"
	case errors.Is(err, api.ErrUsernameTaken):
		return "that username is already registered"
	case errors.Is(err, api.ErrUnreachable):
		return "can't reach the service - is it running?"
	case errors.Is(err, api.ErrBadRequest):
		return "the service refused that request"
	default:
		return err.Error()
	}
}

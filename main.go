// nila - a companion you talk to in your terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nila-tui/internal/api"
	"github.com/jeranaias/nila-tui/internal/cli"
	"github.com/jeranaias/nila-tui/internal/session"
	"github.com/jeranaias/nila-tui/internal/ui/chat"
	"github.com/jeranaias/nila-tui/internal/ui/login"
	"github.com/jeranaias/nila-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdServe:
		exitOnError(cli.HandleServe(args))
	case cli.CmdLogin:
		exitOnError(cli.HandleLogin(args))
	case cli.CmdRegister:
		exitOnError(cli.HandleRegister(args))
	case cli.CmdLogout:
		exitOnError(cli.HandleLogout(args))
	case cli.CmdHistory:
		exitOnError(cli.HandleHistory(args))
	case cli.CmdStatus:
		exitOnError(cli.HandleStatus(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		if args.Unknown != "" {
			fmt.Fprintf(os.Stderr, "nila: unknown command %q\n\n", args.Unknown)
			cli.PrintUsage()
			os.Exit(1)
		}
		cli.PrintUsage()
	default:
		runTUI(args)
	}
}

// exitOnError prints the error and exits non-zero. Handlers return
// errors so the process exit code is decided in exactly one place.
func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// TUI ENTRY POINT
// =============================================================================

// runTUI wires the service client and credential store, then runs the
// screen router in the alternate screen buffer.
func runTUI(args cli.Args) {
	client, err := cli.NewServiceClient(args)
	exitOnError(err)

	store, err := cli.CredentialStore()
	exitOnError(err)

	m := NewModel(client, store, styles.NewTheme())

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	// A login or logout performed by another process (second client,
	// `nila logout` in a different terminal) flips this screen too.
	watcher := session.NewWatcher(store, func() {
		p.Send(credentialChangedMsg{})
	})
	if err := watcher.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: credential watch unavailable: %v\n", err)
	} else {
		defer watcher.Stop()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running nila: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// SCREEN ROUTER
// =============================================================================

// screen identifies which sub-model owns the window.
type screen int

const (
	screenLogin screen = iota
	screenChat
)

// credentialChangedMsg arrives from the credential watcher when another
// process rewrites or removes the credential file.
type credentialChangedMsg struct{}

// Model routes between the login form and the chat screen. Navigation
// is message-driven: chat emits RequireLoginMsg when the session dies,
// login emits LoggedInMsg when a credential is stored. Each switch
// builds a fresh sub-model so no state leaks across sessions.
type Model struct {
	theme  *styles.Theme
	client *api.Client
	store  *session.Store
	guard  *session.Guard

	screen screen
	login  login.Model
	chat   chat.Model

	width  int
	height int
}

// NewModel picks the starting screen from the stored credential: absent
// means login, present means chat (the first history fetch will bounce
// back to login if the token turns out to be stale).
func NewModel(client *api.Client, store *session.Store, theme *styles.Theme) Model {
	guard := session.NewGuard(store)

	m := Model{
		theme:  theme,
		client: client,
		store:  store,
		guard:  guard,
	}

	if _, intent := guard.Require(); intent == session.IntentLogin {
		m.screen = screenLogin
		m.login = login.New(client, store, theme)
	} else {
		m.screen = screenChat
		m.chat = chat.New(client, guard, theme)
	}
	return m
}

// Init starts the active screen.
func (m Model) Init() tea.Cmd {
	if m.screen == screenChat {
		return m.chat.Init()
	}
	return m.login.Init()
}

// Update handles routing messages itself and forwards everything else
// to whichever screen is active.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Remember the size so a screen switch can replay it into the
		// fresh sub-model; the active screen still gets the original.
		m.width = msg.Width
		m.height = msg.Height

	case chat.RequireLoginMsg:
		return m.showLogin()

	case login.LoggedInMsg:
		return m.showChat()

	case credentialChangedMsg:
		return m.handleCredentialChanged()
	}

	var cmd tea.Cmd
	if m.screen == screenChat {
		m.chat, cmd = m.chat.Update(msg)
	} else {
		m.login, cmd = m.login.Update(msg)
	}
	return m, cmd
}

// View renders the active screen.
func (m Model) View() string {
	if m.screen == screenChat {
		return m.chat.View()
	}
	return m.login.View()
}

// showLogin tears down the chat screen (cancelling reveal timers and
// invalidating in-flight results) and swaps in a fresh login form.
func (m Model) showLogin() (tea.Model, tea.Cmd) {
	if m.screen == screenChat {
		m.chat = m.chat.Teardown()
	}
	m.screen = screenLogin
	m.login = login.New(m.client, m.store, m.theme)

	var cmds []tea.Cmd
	if m.width > 0 {
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, m.login.Init())
	return m, tea.Batch(cmds...)
}

// showChat swaps in a fresh chat screen, which loads history on Init.
func (m Model) showChat() (tea.Model, tea.Cmd) {
	m.screen = screenChat
	m.chat = chat.New(m.client, m.guard, m.theme)

	var cmds []tea.Cmd
	if m.width > 0 {
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, m.chat.Init())
	return m, tea.Batch(cmds...)
}

// handleCredentialChanged reconciles the screen with the credential
// file after an external change: gone while chatting means a logout
// elsewhere, present while on the form means a login elsewhere.
func (m Model) handleCredentialChanged() (tea.Model, tea.Cmd) {
	_, intent := m.guard.Require()

	if intent == session.IntentLogin && m.screen == screenChat {
		return m.showLogin()
	}
	if intent == session.IntentNone && m.screen == screenLogin {
		return m.showChat()
	}
	return m, nil
}

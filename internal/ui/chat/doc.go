// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the conversation screen for the nila TUI.

The chat controller is a Bubble Tea model wiring five collaborators into
one screen: the message log (ordered transcript, single source of truth
for rendering), the staged reply player (paced bubble reveals), the
session guard (credential gate and redirect intents), the conversation
service client, and the theme.

# Model (model.go)

Holds the transcript, the reveal player, the viewport/input/spinner
components, and two invalidation counters: seq for in-flight network
results and the player's run for reveal timers. Teardown bumps both, so
anything that lands afterwards is dropped without mutating state.

# Update Loop (update.go)

All mutation happens in Update on the Bubble Tea thread. Network calls
run as commands; their results re-enter Update tagged with seq. The send
pipeline appends the user's message optimistically (never rolled back),
clears the input, and turns the typing indicator on until the reply's
final fragment has been revealed. Authorization failures clear the
stored credential and emit RequireLoginMsg for the root router; other
failures surface as a transient status-line notice.

# View Rendering (view.go)

Header, message viewport (user bubbles right-aligned in blue, Nila's
left-aligned in rose, each with its clock stamp), typing indicator row,
input line, and status bar. The view re-derives everything from the log
and the typing flag each frame.

# Usage

	client := api.New(cfg.Client.ServerURL)
	guard := session.NewGuard(store)
	model := chat.New(client, guard, styles.NewTheme())
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package chat

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation screen for the TUI.
//
// This file defines the Bubble Tea message types the chat controller
// consumes. Network results carry the controller sequence number they
// were issued under; reveal ticks carry the player run. Stale values are
// dropped in Update without touching any state.
package chat

import (
	"github.com/jeranaias/nila-tui/internal/api"
)

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// RequireLoginMsg tells the root model to route to the login screen.
// Emitted when no credential exists, when the service rejects one, or on
// explicit logout. The session store has already been cleared by the
// time this fires.
type RequireLoginMsg struct{}

// =============================================================================
// NETWORK RESULT MESSAGES
// =============================================================================

// HistoryLoadedMsg delivers the result of the activation history fetch.
type HistoryLoadedMsg struct {
	Seq     int
	Entries []api.HistoryEntry
	Err     error
}

// SendResultMsg delivers the outcome of one send: either the reply
// fragment batch or the error the service client mapped it to.
type SendResultMsg struct {
	Seq       int
	Fragments []string
	Err       error
}

// =============================================================================
// TIMER MESSAGES
// =============================================================================

// RevealTickMsg fires when a staged-reveal timer elapses. Run ties it to
// the player run that armed it; the player ignores stale runs.
type RevealTickMsg struct {
	Run int
}

// statusExpiredMsg clears the transient status line. seq guards against
// clearing a newer notice than the one that armed the timer.
type statusExpiredMsg struct {
	seq int
}

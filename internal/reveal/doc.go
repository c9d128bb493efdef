// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal paces multi-fragment companion replies.
//
// The conversation service answers one send with an ordered batch of
// short fragments. Dumping the whole batch at once reads like a
// teletype, so the Player releases fragments one at a time: a longer
// pause before the first bubble of a batch, shorter pauses between the
// rest, each with random jitter, with a typing indicator held on until
// the final fragment lands.
//
// The Player is an explicit timer state machine, not a self-scheduling
// callback chain. Every step returns a Tick describing the one-shot
// timer the caller must arm (the chat controller turns Ticks into
// tea.Tick commands); when the timer fires the caller hands the Tick's
// run number back to Advance. Cancellation bumps the run counter, so a
// timer that fires late carries a stale run and mutates nothing.
package reveal

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the message data structures for a chat
// session.
//
// A Log is the single source of truth for what the chat view renders:
// an ordered, append-only sequence of Messages. Messages are never
// edited or removed once appended; Replace exists solely for the
// one-shot history load when a session activates.
package transcript

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the conversation service's state: user
// accounts, bearer sessions, and the per-user message history.
//
// # Key Types
//
//   - Store: SQLite-backed store, safe for concurrent use
//   - User: an account row
//   - Message: one stored chat message (user or model authored)
//
// # Usage
//
//	store, err := storage.Open("nila.db")
//	if err != nil { ... }
//	defer store.Close()
//
//	user, err := store.CreateUser(ctx, "maya", "s3cret")
//	token, err := store.CreateSession(ctx, user.ID)
//
// # Schema
//
// Three tables: users (unique lowercase usernames, bcrypt hashes),
// sessions (opaque UUID tokens with expiry), and messages (append-only
// per-user history). The database uses WAL mode with a single writer
// connection; the service process owns the file exclusively.
package storage

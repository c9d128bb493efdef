// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the client's single piece of persistent state:
// the bearer credential that proves a login happened.
//
// # Key Types
//
//   - Store: reads, writes, and clears the credential file
//   - Guard: decides when the client must return to the login screen
//   - Watcher: observes the credential file for out-of-process changes
//   - Intent: navigation expressed as data (none / go to login)
//
// # Usage
//
// Open the store at the default path and gate an operation on it:
//
//	store := session.NewStore(path)
//	guard := session.NewGuard(store)
//
//	cred, intent := guard.Require()
//	if intent == session.IntentLogin {
//	    // show login screen, do not call the service
//	}
//
// After any service call, let the guard interpret the error:
//
//	if guard.Resolve(err) == session.IntentLogin {
//	    // credential was rejected; it has already been cleared
//	}
//
// # Storage
//
// The credential lives in a single JSON file under the user config
// directory, mode 0600, written atomically (temp file + rename). An
// absent file, an empty file, and an empty token are the same state:
// logged out. The store never interprets the token; presence is the
// only signal.
package session

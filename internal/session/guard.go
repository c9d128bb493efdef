// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"

	"github.com/jeranaias/nila-tui/internal/api"
)

// =============================================================================
// NAVIGATION INTENT
// =============================================================================

// Intent is a navigation decision expressed as data. The guard never
// touches UI state; callers act on the returned intent.
type Intent int

const (
	// IntentNone means the caller may proceed.
	IntentNone Intent = iota

	// IntentLogin means the session is gone and the caller must route
	// to the login screen.
	IntentLogin
)

// String returns a short name for logging.
func (i Intent) String() string {
	switch i {
	case IntentNone:
		return "none"
	case IntentLogin:
		return "login"
	default:
		return "unknown"
	}
}

// =============================================================================
// SESSION GUARD
// =============================================================================

// Guard gates privileged operations on the presence of a credential
// and converts authorization failures into login redirects.
//
// Every privileged call follows the same shape: Require before the
// call, Resolve on its error. The guard owns the rule that a rejected
// credential is destroyed immediately, so a stale token can never be
// retried.
type Guard struct {
	store *Store
}

// NewGuard creates a guard over the given store.
func NewGuard(store *Store) *Guard {
	return &Guard{store: store}
}

// Require loads the credential for a privileged operation. An absent
// (or unreadable) credential yields IntentLogin and the caller must
// abort without making a network call.
func (g *Guard) Require() (string, Intent) {
	token, err := g.store.Load()
	if err != nil || token == "" {
		return "", IntentLogin
	}
	return token, IntentNone
}

// Resolve inspects the error from a completed service call. An
// authorization rejection clears the stored credential and yields
// IntentLogin; every other outcome, including success, yields
// IntentNone and leaves the session alone.
func (g *Guard) Resolve(err error) Intent {
	if err == nil {
		return IntentNone
	}
	if errors.Is(err, api.ErrUnauthorized) {
		// Best effort: a failed clear still redirects, and the next
		// Require will retry the load anyway.
		_ = g.store.Clear()
		return IntentLogin
	}
	return IntentNone
}

// Logout clears the credential unconditionally and yields IntentLogin,
// regardless of any in-flight operations.
func (g *Guard) Logout() Intent {
	_ = g.store.Clear()
	return IntentLogin
}

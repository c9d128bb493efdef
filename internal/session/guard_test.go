// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/nila-tui/internal/api"
)

// =============================================================================
// REQUIRE TESTS
// =============================================================================

func TestGuard_RequireWithCredential(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("tok-abc"))

	g := NewGuard(s)
	token, intent := g.Require()
	require.Equal(t, IntentNone, intent)
	require.Equal(t, "tok-abc", token)
}

func TestGuard_RequireAbsent(t *testing.T) {
	g := NewGuard(newTestStore(t))

	token, intent := g.Require()
	require.Equal(t, IntentLogin, intent, "Missing credential should demand login")
	require.Equal(t, "", token)
}

// =============================================================================
// RESOLVE TESTS
// =============================================================================

func TestGuard_Resolve(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantIntent  Intent
		wantCleared bool
	}{
		{
			name:        "nil error keeps session",
			err:         nil,
			wantIntent:  IntentNone,
			wantCleared: false,
		},
		{
			name:        "unauthorized clears session",
			err:         api.ErrUnauthorized,
			wantIntent:  IntentLogin,
			wantCleared: true,
		},
		{
			name:        "wrapped unauthorized clears session",
			err:         fmt.Errorf("fetching history: %w", api.ErrUnauthorized),
			wantIntent:  IntentLogin,
			wantCleared: true,
		},
		{
			name:        "unreachable keeps session",
			err:         api.ErrUnreachable,
			wantIntent:  IntentNone,
			wantCleared: false,
		},
		{
			name:        "bad request keeps session",
			err:         api.ErrBadRequest,
			wantIntent:  IntentNone,
			wantCleared: false,
		},
		{
			name:        "unrelated error keeps session",
			err:         errors.New("boom"),
			wantIntent:  IntentNone,
			wantCleared: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, s.Save("tok"))
			g := NewGuard(s)

			require.Equal(t, tt.wantIntent, g.Resolve(tt.err))

			token, err := s.Load()
			require.NoError(t, err)
			if tt.wantCleared {
				require.Equal(t, "", token, "Credential should be cleared")
			} else {
				require.Equal(t, "tok", token, "Credential should be kept")
			}
		})
	}
}

// =============================================================================
// LOGOUT TESTS
// =============================================================================

func TestGuard_Logout(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("tok"))

	g := NewGuard(s)
	require.Equal(t, IntentLogin, g.Logout())

	token, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "", token, "Logout should clear the stored credential")
}

func TestGuard_LogoutWithoutCredential(t *testing.T) {
	g := NewGuard(newTestStore(t))

	require.Equal(t, IntentLogin, g.Logout())
}

// =============================================================================
// INTENT TESTS
// =============================================================================

func TestIntent_String(t *testing.T) {
	tests := []struct {
		intent Intent
		want   string
	}{
		{IntentNone, "none"},
		{IntentLogin, "login"},
		{Intent(99), "unknown"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.intent.String(), "Intent(%d).String()", int(tt.intent))
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login implements the login/registration form shown whenever
// no session credential is stored.
//
// The form collects a username and password, exchanges them with the
// conversation service (login or register, switched with ctrl+t),
// stores the issued credential, and emits LoggedInMsg for the root
// model to route on. It holds no chat state; a submission that is no
// longer current (a newer submit happened) is dropped by sequence
// number, mirroring how the chat controller invalidates stale results.
package login

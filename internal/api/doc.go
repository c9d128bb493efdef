// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the client for the nila conversation service.
//
// The client is a thin wire wrapper: it attaches the caller's session
// credential as a bearer token, speaks the four service operations
// (history, send, register, login), and translates every failure into
// exactly one of the package's error kinds so the UI never sees a raw
// transport error. It performs no retries; whether to resend is the
// caller's decision.
package api

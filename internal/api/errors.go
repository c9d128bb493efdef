// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by this package wraps exactly one of
// these, so callers branch with errors.Is instead of inspecting transport
// details. None of them is fatal to the session controller; only
// ErrUnauthorized ends the session.
var (
	// ErrUnauthorized means the service rejected the session credential.
	// The session guard reacts by clearing the stored credential.
	ErrUnauthorized = errors.New("session credential rejected")

	// ErrUnreachable covers transport-level failures: connection refused,
	// DNS, timeouts. Transient; never a logout condition.
	ErrUnreachable = errors.New("conversation service unreachable")

	// ErrBadRequest means the service rejected the request payload.
	ErrBadRequest = errors.New("conversation service rejected request")

	// ErrUsernameTaken is the registration conflict.
	ErrUsernameTaken = errors.New("username already registered")

	// ErrInvalidCredentials is the login failure.
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// APIError carries the HTTP status and the service's detail message for a
// non-2xx response. It unwraps to the taxonomy kind the status mapped to,
// so errors.Is(err, ErrUnauthorized) works through it.
type APIError struct {
	Status  int
	Message string
	kind    error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("service error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("service error (HTTP %d)", e.Status)
}

// Unwrap exposes the taxonomy kind for errors.Is.
func (e *APIError) Unwrap() error {
	return e.kind
}

// newAPIError builds an APIError bound to a taxonomy kind. kind may be nil
// for statuses outside the taxonomy (surfaced as a transient UI notice).
func newAPIError(status int, message string, kind error) *APIError {
	return &APIError{Status: status, Message: message, kind: kind}
}

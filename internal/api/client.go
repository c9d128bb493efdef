// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds one request/response cycle.
	DefaultTimeout = 30 * time.Second

	// maxResponseSize caps response bodies.
	// SECURITY: Response size limit prevents memory exhaustion.
	maxResponseSize = 1 * 1024 * 1024 // 1MB

	userAgent = "nila/0.1.0"
)

// Credential is the opaque bearer token the service issues on login or
// registration. The client never interprets it.
type Credential struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HistoryEntry is one persisted message as the service returns it.
type HistoryEntry struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Sender string `json:"sender"` // "user" or "nila"
	Time   string `json:"time"`   // short clock stamp, e.g. "09:41 AM"
}

// Client talks to one conversation service instance. Safe for concurrent
// use; the session credential is passed per call, not stored.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests inject the
// httptest server's client here).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// PRIVILEGED OPERATIONS
// =============================================================================

// FetchHistory returns the caller's full transcript, oldest first. Fails
// with ErrUnauthorized when the credential is rejected and ErrUnreachable
// on transport failure.
func (c *Client) FetchHistory(ctx context.Context, credential string) ([]HistoryEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history", nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}
	c.setHeaders(req, credential)

	body, err := c.do(req, http.StatusOK, privilegedKinds)
	if err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parse history response: %w", err)
	}
	return entries, nil
}

// SendMessage submits one user message and returns the reply fragment
// batch, in order. Fails with ErrUnauthorized, ErrBadRequest, or
// ErrUnreachable.
func (c *Client) SendMessage(ctx context.Context, credential, text string) ([]string, error) {
	payload, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	c.setHeaders(req, credential)

	body, err := c.do(req, http.StatusOK, privilegedKinds)
	if err != nil {
		return nil, err
	}

	var reply struct {
		Messages []string `json:"messages"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("parse chat response: %w", err)
	}
	return reply.Messages, nil
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// Register creates an account and logs it in. A taken username fails with
// ErrUsernameTaken.
func (c *Client) Register(ctx context.Context, username, password string) (Credential, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return Credential{}, fmt.Errorf("encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register", bytes.NewReader(payload))
	if err != nil {
		return Credential{}, fmt.Errorf("build register request: %w", err)
	}
	c.setHeaders(req, "")

	body, err := c.do(req, http.StatusCreated, registerKinds)
	if err != nil {
		return Credential{}, err
	}
	return parseCredential(body)
}

// Login exchanges a username/password pair for a credential. The service
// takes this form-encoded. A bad pair fails with ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (Credential, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	body, err := c.do(req, http.StatusOK, loginKinds)
	if err != nil {
		return Credential{}, err
	}
	return parseCredential(body)
}

// Status pings the unauthenticated root route and returns the service's
// status line.
func (c *Client) Status(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return "", fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	body, err := c.do(req, http.StatusOK, nil)
	if err != nil {
		return "", err
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return "", fmt.Errorf("parse status response: %w", err)
	}
	return status.Status, nil
}

// =============================================================================
// WIRE PLUMBING
// =============================================================================

// kindMap translates a response status into the taxonomy kind for one
// operation family. Statuses absent from the map produce an APIError with
// no kind (generic transient failure).
type kindMap map[int]error

var (
	privilegedKinds = kindMap{
		http.StatusUnauthorized: ErrUnauthorized,
		http.StatusBadRequest:   ErrBadRequest,
	}
	registerKinds = kindMap{
		http.StatusConflict:   ErrUsernameTaken,
		http.StatusBadRequest: ErrBadRequest,
	}
	// The service answers a bad login with 401; on this path that means
	// the pair was wrong, not that a session expired.
	loginKinds = kindMap{
		http.StatusUnauthorized: ErrInvalidCredentials,
		http.StatusBadRequest:   ErrBadRequest,
	}
)

// setHeaders applies the standard headers; credential may be empty for
// unauthenticated calls.
func (c *Client) setHeaders(req *http.Request, credential string) {
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
}

// do runs one request and returns the body on the expected status. Any
// transport failure maps to ErrUnreachable; any other status maps through
// kinds into an *APIError.
func (c *Client) do(req *http.Request, wantStatus int, kinds kindMap) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode != wantStatus {
		return nil, newAPIError(resp.StatusCode, errorDetail(body), kinds[resp.StatusCode])
	}
	return body, nil
}

// readBody reads a response body under the size cap.
// SECURITY: the cap prevents a misbehaving service from exhausting memory.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) == maxResponseSize {
		return nil, fmt.Errorf("response exceeded %d bytes", maxResponseSize)
	}
	return body, nil
}

// errorDetail pulls the service's error message out of a failure body,
// falling back to the raw body text.
func errorDetail(body []byte) string {
	var detail struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Error != "" {
		return detail.Error
	}
	return strings.TrimSpace(string(body))
}

func parseCredential(body []byte) (Credential, error) {
	var cred Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		return Credential{}, fmt.Errorf("parse credential response: %w", err)
	}
	if cred.AccessToken == "" {
		return Credential{}, fmt.Errorf("credential response missing access token")
	}
	return cred, nil
}

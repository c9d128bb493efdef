// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the nila conversation service.
package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/nila-tui/internal/config"
	"github.com/jeranaias/nila-tui/internal/llm"
	"github.com/jeranaias/nila-tui/internal/storage"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

// testConfig returns a server config with limits loose enough that the
// rate limiter never interferes unless a test wants it to.
func testConfig() config.ServerConfig {
	cfg := config.Default().Server
	cfg.RateLimitPerSec = 1000
	cfg.RateLimitBurst = 1000
	return cfg
}

// newTestHandler builds a full handler stack backed by a throwaway
// SQLite store.
func newTestHandler(t *testing.T, cfg config.ServerConfig, replies *llm.Client) http.Handler {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "nila.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := New(cfg, store, replies).WithLogger(log.New(io.Discard, "", 0))
	return srv.Handler()
}

// fakeUpstream serves OpenAI-style completions with a fixed reply.
func fakeUpstream(t *testing.T, reply string) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": reply}},
			},
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

// brokenUpstream serves nothing but 500s.
func brokenUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, h http.Handler, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its bearer token.
func register(t *testing.T, h http.Handler, username, password string) string {
	t.Helper()

	rec := postJSON(t, h, "/register", `{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, "register body = %s", rec.Body.String())

	var cred struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cred))
	require.NotEqual(t, "", cred.AccessToken, "Register should return a usable token")
	require.Equal(t, "bearer", cred.TokenType)
	return cred.AccessToken
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "error body = %s", rec.Body.String())
	return body.Error
}

// =============================================================================
// LIVENESS TESTS
// =============================================================================

func TestRootStatus(t *testing.T) {
	h := newTestHandler(t, testConfig(), llm.New(""))

	rec := get(t, h, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, statusMessage, body.Status)

	// Security headers ride on every response.
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

// =============================================================================
// REGISTRATION TESTS
// =============================================================================

func TestRegister(t *testing.T) {
	h := newTestHandler(t, testConfig(), llm.New(""))

	token := register(t, h, "luna", "moonlight42")

	// The returned credential must open privileged routes immediately.
	rec := get(t, h, "/history", token)
	require.Equal(t, http.StatusOK, rec.Code, "Fresh token should open /history")
}

func TestRegisterDuplicate(t *testing.T) {
	h := newTestHandler(t, testConfig(), llm.New(""))

	register(t, h, "luna", "moonlight42")

	rec := postJSON(t, h, "/register", `{"username":"luna","password":"different"}`, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "username already registered", errorBody(t, rec))
}

func TestRegisterCaseInsensitiveDuplicate(t *testing.T) {
	h := newTestHandler(t, testConfig(), llm.New(""))

	register(t, h, "Luna", "moonlight42")

	rec := postJSON(t, h, "/register", `{"username":"luna","password":"other"}`, "")
	require.Equal(t, http.StatusConflict, rec.Code, "Case-folded duplicate should collide")
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty username", `{"username":"","password":"secret"}`},
		{"whitespace username", `{"username":"   ","password":"secret"}`},
		{"empty password", `{"username":"luna","password":""}`},
		{"malformed json", `{"username":`},
	}

	h := newTestHandler(t, testConfig(), llm.New(""))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/register", tt.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// =============================================================================
// TOKEN TESTS
// =============================================================================

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestToken(t *testing.T) {
	h := newTestHandler(t, testConfig(), llm.New(""))
	register(t, h, "luna", "moonlight42")

	rec := postForm(t, h, "/token", url.Values{
		"username": {"luna"},
		"password": {"moonlight42"},
	})
	require.Equal(t, http.StatusOK, rec.Code, "token body = %s", rec.Body.String())

	var cred struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cred))
	require.NotEqual(t, "", cred.AccessToken)
	require.Equal(t, "bearer", cred.TokenType)
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	h := newTestHandler(t, testConfig(), llm.New(""))
	register(t, h, "luna", "moonlight42")

	tests := []struct {
		name string
		form url.Values
	}{
		{"wrong password", url.Values{"username": {"luna"}, "password": {"wrong"}}},
		{"unknown user", url.Values{"username": {"nobody"}, "password": {"moonlight42"}}},
		{"empty form", url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(t, h, "/token", tt.form)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "incorrect username or password", errorBody(t, rec))
		})
	}
}

// =============================================================================
// AUTH MIDDLEWARE TESTS
// =============================================================================

func TestPrivilegedRoutesRequireAuth(t *testing.T) {
	h := newTestHandler(t, testConfig(), llm.New(""))

	tests := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage token", "not-a-session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/history", tt.token)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

			rec = postJSON(t, h, "/chat", `{"message":"hi"}`, tt.token)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	h := newTestHandler(t, testConfig(), llm.New(""))

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req.Header.Set("Authorization", "Basic bHVuYTpzZWNyZXQ=")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code, "Non-bearer scheme should be rejected")
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChatFlow(t *testing.T) {
	upstream := fakeUpstream(t, "Hey you~|How was your day?")
	replies := llm.New("test-key", llm.WithBaseURL(upstream.URL))
	h := newTestHandler(t, testConfig(), replies)
	token := register(t, h, "luna", "moonlight42")

	rec := postJSON(t, h, "/chat", `{"message":"hi nila"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, "chat body = %s", rec.Body.String())

	var reply struct {
		Messages []string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.Equal(t, []string{"Hey you~", "How was your day?"}, reply.Messages)

	// History now holds the user line plus one row per reply fragment,
	// oldest first.
	hrec := get(t, h, "/history", token)
	require.Equal(t, http.StatusOK, hrec.Code)

	var entries []struct {
		ID     int64  `json:"id"`
		Text   string `json:"text"`
		Sender string `json:"sender"`
		Time   string `json:"time"`
	}
	require.NoError(t, json.Unmarshal(hrec.Body.Bytes(), &entries))
	require.Equal(t, 3, len(entries))

	require.Equal(t, "user", entries[0].Sender)
	require.Equal(t, "hi nila", entries[0].Text)
	require.Equal(t, "nila", entries[1].Sender)
	require.Equal(t, "Hey you~", entries[1].Text)
	require.Equal(t, "nila", entries[2].Sender)
	require.Equal(t, "How was your day?", entries[2].Text)

	for i, e := range entries {
		_, err := time.Parse("03:04 PM", e.Time)
		require.NoError(t, err, "entries[%d].Time = %q should be a clock stamp", i, e.Time)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	upstream := fakeUpstream(t, "unreachable")
	replies := llm.New("test-key", llm.WithBaseURL(upstream.URL))
	h := newTestHandler(t, testConfig(), replies)
	token := register(t, h, "luna", "moonlight42")

	for _, body := range []string{`{"message":""}`, `{"message":"   "}`} {
		rec := postJSON(t, h, "/chat", body, token)
		require.Equal(t, http.StatusBadRequest, rec.Code, "chat %s", body)
		require.Equal(t, "message cannot be empty", errorBody(t, rec))
	}
}

func TestChatWithoutUpstreamKey(t *testing.T) {
	h := newTestHandler(t, testConfig(), llm.New(""))
	token := register(t, h, "luna", "moonlight42")

	rec := postJSON(t, h, "/chat", `{"message":"hello?"}`, token)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "reply model not configured", errorBody(t, rec))

	// Refusal happens before persistence: the message must not appear
	// in history.
	hrec := get(t, h, "/history", token)
	var entries []json.RawMessage
	require.NoError(t, json.Unmarshal(hrec.Body.Bytes(), &entries))
	require.Equal(t, 0, len(entries), "Refused chat should not be persisted")
}

func TestChatUpstreamFailure(t *testing.T) {
	upstream := brokenUpstream(t)
	replies := llm.New("test-key", llm.WithBaseURL(upstream.URL))
	h := newTestHandler(t, testConfig(), replies)
	token := register(t, h, "luna", "moonlight42")

	rec := postJSON(t, h, "/chat", `{"message":"are you there?"}`, token)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "reply model unavailable", errorBody(t, rec))

	// The user line was already persisted when the upstream fell over.
	hrec := get(t, h, "/history", token)
	var entries []struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(hrec.Body.Bytes(), &entries))
	require.Equal(t, 1, len(entries), "Only the user line should be persisted")
	require.Equal(t, "user", entries[0].Sender)
}

func TestHistoryIsolatedPerUser(t *testing.T) {
	upstream := fakeUpstream(t, "just for you")
	replies := llm.New("test-key", llm.WithBaseURL(upstream.URL))
	h := newTestHandler(t, testConfig(), replies)

	lunaToken := register(t, h, "luna", "moonlight42")
	mikaToken := register(t, h, "mika", "starlight99")

	postJSON(t, h, "/chat", `{"message":"secret"}`, lunaToken)

	rec := get(t, h, "/history", mikaToken)
	var entries []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Equal(t, 0, len(entries), "Mika should not see Luna's messages")
}

// =============================================================================
// SENDER MAPPING TESTS
// =============================================================================

func TestSenderFor(t *testing.T) {
	tests := []struct {
		role storage.Role
		want string
	}{
		{storage.RoleUser, "user"},
		{storage.RoleModel, "nila"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, senderFor(tt.role), "senderFor(%q)", tt.role)
	}
}

// =============================================================================
// CORS TESTS
// =============================================================================

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.CORSOrigins = []string{"http://localhost:5173"}
	h := newTestHandler(t, cfg, llm.New(""))

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.CORSOrigins = []string{"http://localhost:5173"}
	h := newTestHandler(t, cfg, llm.New(""))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "", rec.Header().Get("Access-Control-Allow-Origin"),
		"Unknown origin should not be echoed")
}

// =============================================================================
// RATE LIMIT TESTS
// =============================================================================

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	require.True(t, rl.Allow("10.0.0.1"), "First request should pass")
	require.True(t, rl.Allow("10.0.0.1"), "Second request should fit the burst")
	require.False(t, rl.Allow("10.0.0.1"), "Third immediate request should be limited")

	// Other IPs get their own bucket.
	require.True(t, rl.Allow("10.0.0.2"), "Fresh IP should pass")
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerSec = 1
	cfg.RateLimitBurst = 2
	h := newTestHandler(t, cfg, llm.New(""))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = get(t, h, "/", "")
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.NotEqual(t, "", last.Header().Get("Retry-After"), "429 should carry Retry-After")
	require.Equal(t, "too many requests", errorBody(t, last))
}

// =============================================================================
// RECOVERY TESTS
// =============================================================================

func TestRecoveryMiddleware(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "internal server error", errorBody(t, rec))
}

// =============================================================================
// REQUEST BODY LIMIT TESTS
// =============================================================================

func TestChatRejectsOversizedBody(t *testing.T) {
	upstream := fakeUpstream(t, "ok")
	replies := llm.New("test-key", llm.WithBaseURL(upstream.URL))
	h := newTestHandler(t, testConfig(), replies)
	token := register(t, h, "luna", "moonlight42")

	huge := `{"message":"` + strings.Repeat("a", maxRequestBody) + `"}`
	rec := postJSON(t, h, "/chat", huge, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

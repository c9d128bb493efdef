// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/history" {
			t.Errorf("path = %s, want /history", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok-123")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id": 1, "text": "hi", "sender": "user", "time": "09:41 AM"},
			{"id": 2, "text": "hello!", "sender": "nila", "time": "09:41 AM"}
		]`)
	}))
	defer server.Close()

	client := New(server.URL)
	entries, err := client.FetchHistory(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Sender != "user" || entries[0].Text != "hi" {
		t.Errorf("entries[0] = %+v, want the user greeting", entries[0])
	}
	if entries[1].Sender != "nila" || entries[1].Time != "09:41 AM" {
		t.Errorf("entries[1] = %+v, want nila's reply with its stamp", entries[1])
	}
}

func TestFetchHistoryUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": "could not validate credentials"}`)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.FetchHistory(context.Background(), "expired")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("error does not unwrap to *APIError")
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", apiErr.Status)
	}
	if apiErr.Message != "could not validate credentials" {
		t.Errorf("Message = %q, want the service detail", apiErr.Message)
	}
}

func TestFetchHistoryUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := New(server.URL, WithTimeout(500*time.Millisecond))
	_, err := client.FetchHistory(context.Background(), "tok")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("error = %v, want ErrUnreachable", err)
	}
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %s, want /chat", r.URL.Path)
		}
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Message != "How are you?" {
			t.Errorf("message = %q, want %q", payload.Message, "How are you?")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"messages": ["I'm good!", "Thanks for asking."]}`)
	}))
	defer server.Close()

	client := New(server.URL)
	fragments, err := client.SendMessage(context.Background(), "tok", "How are you?")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	want := []string{"I'm good!", "Thanks for asking."}
	if len(fragments) != len(want) {
		t.Fatalf("len(fragments) = %d, want %d", len(fragments), len(want))
	}
	for i := range want {
		if fragments[i] != want[i] {
			t.Errorf("fragments[%d] = %q, want %q", i, fragments[i], want[i])
		}
	}
}

func TestSendMessageErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": "expired"}`, ErrUnauthorized},
		{"bad request", http.StatusBadRequest, `{"error": "message must not be empty"}`, ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := New(server.URL)
			_, err := client.SendMessage(context.Background(), "tok", "hi")
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("error = %v, want kind %v", err, tt.wantKind)
			}
		})
	}
}

func TestSendMessageUnexpectedStatusHasNoKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error": "companion model failed"}`)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.SendMessage(context.Background(), "tok", "hi")
	if err == nil {
		t.Fatal("SendMessage() error = nil, want failure")
	}
	// A 502 is transient, not a session problem.
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrUnreachable) {
		t.Errorf("error = %v mapped to a session/transport kind, want plain APIError", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Errorf("error = %v, want *APIError with status 502", err)
	}
}

func TestRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/register" {
			t.Errorf("path = %s, want /register", r.URL.Path)
		}
		var payload struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Username != "asha" || payload.Password != "hunter22" {
			t.Errorf("payload = %+v, want the submitted pair", payload)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"access_token": "fresh-token", "token_type": "bearer"}`)
	}))
	defer server.Close()

	client := New(server.URL)
	cred, err := client.Register(context.Background(), "asha", "hunter22")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if cred.AccessToken != "fresh-token" {
		t.Errorf("AccessToken = %q, want %q", cred.AccessToken, "fresh-token")
	}
	if cred.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want %q", cred.TokenType, "bearer")
	}
}

func TestRegisterUsernameTaken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"error": "username already registered"}`)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Register(context.Background(), "asha", "hunter22")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("error = %v, want ErrUsernameTaken", err)
	}
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("path = %s, want /token", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q, want form encoding", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if r.PostForm.Get("username") != "asha" || r.PostForm.Get("password") != "hunter22" {
			t.Errorf("form = %v, want the submitted pair", r.PostForm)
		}
		io.WriteString(w, `{"access_token": "login-token", "token_type": "bearer"}`)
	}))
	defer server.Close()

	client := New(server.URL)
	cred, err := client.Login(context.Background(), "asha", "hunter22")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if cred.AccessToken != "login-token" {
		t.Errorf("AccessToken = %q, want %q", cred.AccessToken, "login-token")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": "incorrect username or password"}`)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Login(context.Background(), "asha", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("error = %v, want ErrInvalidCredentials", err)
	}
	// A login 401 is about the typed pair, not a dead session.
	if errors.Is(err, ErrUnauthorized) {
		t.Error("login failure also matched ErrUnauthorized; the kinds must stay distinct")
	}
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("path = %s, want /", r.URL.Path)
		}
		io.WriteString(w, `{"status": "Nila service is running"}`)
	}))
	defer server.Close()

	client := New(server.URL)
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status != "Nila service is running" {
		t.Errorf("status = %q, want the liveness line", status)
	}
}

func TestCredentialMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"token_type": "bearer"}`)
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.Login(context.Background(), "asha", "hunter22"); err == nil {
		t.Fatal("Login() accepted a credential response with no access token")
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// server.go - HTTP API server for the nila conversation service.
//
// Routes:
//   - GET  /         - liveness probe
//   - POST /register - create an account, auto-login (201 + credential)
//   - POST /token    - form-encoded login (200 + credential)
//   - GET  /history  - bearer auth; full transcript, oldest first
//   - POST /chat     - bearer auth; send a message, receive reply fragments
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jeranaias/nila-tui/internal/config"
	"github.com/jeranaias/nila-tui/internal/llm"
	"github.com/jeranaias/nila-tui/internal/storage"
	"github.com/jeranaias/nila-tui/internal/util"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// contextWindow is how many stored rows feed the upstream prompt.
	contextWindow = 20

	// maxRequestBody caps request body reads.
	// SECURITY: prevents memory exhaustion from oversized payloads.
	maxRequestBody = 1 << 20 // 1 MB

	// Liveness message returned by GET /.
	statusMessage = "Nila service is running"
)

// ============================================================================
// WIRE TYPES
// ============================================================================

// registerRequest is the JSON body of POST /register.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// credentialResponse is the body returned by /register and /token.
type credentialResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// historyEntry is one element of the GET /history response.
type historyEntry struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
	Time   string `json:"time"`
}

// chatRequest is the JSON body of POST /chat.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse carries the reply fragments, one bubble each.
type chatResponse struct {
	Messages []string `json:"messages"`
}

// senderFor maps a stored role to its wire sender tag.
func senderFor(role storage.Role) string {
	if role == storage.RoleModel {
		return "nila"
	}
	return "user"
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the HTTP front of the conversation service. It owns the
// listener; storage and the upstream reply client are injected.
type Server struct {
	cfg     config.ServerConfig
	store   *storage.Store
	replies *llm.Client
	logger  *log.Logger

	server *http.Server
}

// New creates a Server wired to the given storage and reply client.
func New(cfg config.ServerConfig, store *storage.Store, replies *llm.Client) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		replies: replies,
		logger:  log.Default(),
	}
}

// WithLogger sets a custom logger.
func (s *Server) WithLogger(logger *log.Logger) *Server {
	s.logger = logger
	return s
}

// Handler builds the full middleware/route stack. Exposed so tests can
// drive the service through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(LoggingMiddleware(s.logger))
	r.Use(SecurityHeadersMiddleware())
	r.Use(CORSMiddleware(NewCORSConfig(s.cfg.CORSOrigins)))
	r.Use(RateLimitMiddleware(NewRateLimiter(s.cfg.RateLimitPerSec, s.cfg.RateLimitBurst)))

	r.Get("/", s.handleRoot)
	r.Post("/register", s.handleRegister)
	r.Post("/token", s.handleToken)

	// Privileged routes sit behind session auth.
	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/history", s.handleHistory)
		r.Post("/chat", s.handleChat)
	})

	return r
}

// ============================================================================
// HANDLERS
// ============================================================================

// handleRoot is the liveness probe.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": statusMessage})
}

// handleRegister creates an account and logs it in, in one shot.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, storage.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username already registered")
		return
	case errors.Is(err, storage.ErrEmptyUsername), errors.Is(err, storage.ErrEmptyPassword):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Printf("REGISTER_FAILED | error=%v", err)
		writeError(w, http.StatusInternalServerError, "could not create account")
		return
	}

	token, err := s.store.CreateSession(r.Context(), user.ID)
	if err != nil {
		s.logger.Printf("SESSION_CREATE_FAILED | user=%d error=%v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	writeJSON(w, http.StatusCreated, credentialResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// handleToken performs a form-encoded login (the wire shape the service
// has always exposed) and mints a session token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	user, err := s.store.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if errors.Is(err, storage.ErrInvalidLogin) {
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}
	if err != nil {
		s.logger.Printf("LOGIN_FAILED | error=%v", err)
		writeError(w, http.StatusInternalServerError, "could not log in")
		return
	}

	token, err := s.store.CreateSession(r.Context(), user.ID)
	if err != nil {
		s.logger.Printf("SESSION_CREATE_FAILED | user=%d error=%v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	writeJSON(w, http.StatusOK, credentialResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// handleHistory returns the user's full transcript, oldest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := sessionUser(r.Context())

	msgs, err := s.store.History(r.Context(), user.ID)
	if err != nil {
		s.logger.Printf("HISTORY_FAILED | user=%d error=%v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}

	entries := make([]historyEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, historyEntry{
			ID:     m.ID,
			Text:   m.Content,
			Sender: senderFor(m.Role),
			Time:   util.ClockStamp(m.CreatedAt.Local()),
		})
	}

	writeJSON(w, http.StatusOK, entries)
}

// handleChat persists the user's message, composes a reply upstream,
// splits it into bubble fragments, and persists each fragment.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	user := sessionUser(r.Context())

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	// Refuse before persisting anything: a service without an upstream
	// key must not swallow messages it can never answer.
	if !s.replies.IsConfigured() {
		writeError(w, http.StatusInternalServerError, "reply model not configured")
		return
	}

	if _, err := s.store.AppendMessage(r.Context(), user.ID, storage.RoleUser, req.Message); err != nil {
		s.logger.Printf("CHAT_PERSIST_FAILED | user=%d error=%v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "could not store message")
		return
	}

	recent, err := s.store.RecentContext(r.Context(), user.ID, contextWindow)
	if err != nil {
		s.logger.Printf("CHAT_CONTEXT_FAILED | user=%d error=%v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "could not build context")
		return
	}

	history := make([]llm.Message, 0, len(recent))
	for _, m := range recent {
		if m.Role == storage.RoleModel {
			history = append(history, llm.ModelMessage(m.Content))
		} else {
			history = append(history, llm.UserMessage(m.Content))
		}
	}

	raw, err := s.replies.Reply(r.Context(), history)
	if err != nil {
		s.logger.Printf("CHAT_UPSTREAM_FAILED | user=%d error=%v", user.ID, err)
		writeError(w, http.StatusBadGateway, "reply model unavailable")
		return
	}

	fragments := llm.SplitReply(raw)
	for _, fragment := range fragments {
		if _, err := s.store.AppendMessage(r.Context(), user.ID, storage.RoleModel, fragment); err != nil {
			s.logger.Printf("CHAT_PERSIST_FAILED | user=%d error=%v", user.ID, err)
			writeError(w, http.StatusInternalServerError, "could not store reply")
			return
		}
	}

	writeJSON(w, http.StatusOK, chatResponse{Messages: fragments})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Printf("SERVER_START | addr=%s model=%s", s.cfg.ListenAddr, s.replies.Model())
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Printf("SERVER_SHUTDOWN | draining")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// decodeJSON decodes a bounded JSON request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the flat {"error": message} shape the clients parse.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrUsernameTaken   = errors.New("username already registered")
	ErrInvalidLogin    = errors.New("incorrect username or password")
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrEmptyUsername   = errors.New("username cannot be empty")
	ErrEmptyPassword   = errors.New("password cannot be empty")
)

// =============================================================================
// TYPES
// =============================================================================

// Role identifies who authored a stored message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// User is an account row.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// Message is one stored chat message.
type Message struct {
	ID        int64
	UserID    int64
	Role      Role
	Content   string
	CreatedAt time.Time
}

// DefaultSessionTTL is how long a bearer session stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// bcryptCost trades login latency for brute-force resistance. 12 is
// roughly 250ms per hash on commodity hardware.
const bcryptCost = 12

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    token      TEXT PRIMARY KEY,
    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

CREATE TABLE IF NOT EXISTS messages (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    role       TEXT NOT NULL CHECK (role IN ('user', 'model')),
    content    TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, id);
`

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite-backed persistence layer for the conversation
// service. All methods are safe for concurrent use.
type Store struct {
	db         *sql.DB
	sessionTTL time.Duration
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithSessionTTL overrides the default session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.sessionTTL = ttl
	}
}

// withClock injects a time source for tests.
func withClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (creating if necessary) the database at path and applies
// the schema.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	s := &Store{
		db:         db,
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// NormalizeUsername canonicalizes a username: trimmed, lowercased,
// NFC-normalized. Two visually identical names map to one account.
func NormalizeUsername(username string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(username)))
}

// =============================================================================
// USERS
// =============================================================================

// CreateUser registers a new account. The username is normalized
// before storage; a duplicate yields ErrUsernameTaken.
func (s *Store) CreateUser(ctx context.Context, username, password string) (*User, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// The single-writer connection makes check-then-insert atomic
	// within this process, and the UNIQUE constraint backstops it.
	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if exists > 0 {
		return nil, ErrUsernameTaken
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, string(hash), now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading user id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing user: %w", err)
	}

	return &User{ID: id, Username: username, CreatedAt: now}, nil
}

// Authenticate verifies a username/password pair. Unknown usernames
// and wrong passwords return the same ErrInvalidLogin; callers get no
// signal about which half was wrong.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = NormalizeUsername(username)

	var (
		user User
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?",
		username).Scan(&user.ID, &user.Username, &hash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Burn a hash comparison anyway so the response time does not
		// reveal whether the account exists.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$12$000000000000000000000uGyntbRCMKsxdDZyzr0lO41fjr3QdIp6"),
			[]byte(password))
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidLogin
	}
	return &user, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// CreateSession mints an opaque bearer token for the user.
func (s *Store) CreateSession(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	now := s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		token, userID, now, now.Add(s.sessionTTL))
	if err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	return token, nil
}

// ResolveSession maps a bearer token to its user. Expired or unknown
// tokens yield ErrSessionNotFound. Expired rows are purged
// opportunistically on the way through.
func (s *Store) ResolveSession(ctx context.Context, token string) (*User, error) {
	now := s.now().UTC()

	// Opportunistic purge keeps the table from accumulating dead rows
	// without needing a background sweeper.
	_, _ = s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now)

	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`,
		token, now).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolving session: %w", err)
	}
	return &user, nil
}

// PurgeExpiredSessions removes all expired session rows and returns
// how many were deleted.
func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged sessions: %w", err)
	}
	return n, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// AppendMessage stores one message in the user's history and returns
// the stored row.
func (s *Store) AppendMessage(ctx context.Context, userID int64, role Role, content string) (*Message, error) {
	now := s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (user_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		userID, string(role), content, now)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading message id: %w", err)
	}

	return &Message{ID: id, UserID: userID, Role: role, Content: content, CreatedAt: now}, nil
}

// History returns the user's full message history, oldest first.
func (s *Store) History(ctx context.Context, userID int64) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, created_at
		FROM messages WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// RecentContext returns the user's newest limit messages in
// chronological order, for building the upstream prompt.
func (s *Store) RecentContext(ctx context.Context, userID int64, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, created_at
		FROM messages WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent messages: %w", err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Newest-first from the query; replay oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var msgs []Message
	for rows.Next() {
		var m Message
		var role string
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = Role(role)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return msgs, nil
}

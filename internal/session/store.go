// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/nila-tui/internal/util"
)

// CredentialFileName is the name of the credential file inside the
// application config directory.
const CredentialFileName = "credential.json"

// credentialFile is the on-disk shape of the stored credential. It
// mirrors the token response from the service so a curious user can
// read the file and recognize what it holds.
type credentialFile struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// =============================================================================
// STORE
// =============================================================================

// Store persists the session credential to a single JSON file.
//
// All methods are safe for concurrent use. Writes are atomic (temp
// file + rename) so a reader never observes a half-written file, even
// when a second client process watches the same path.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the standard credential file location under the
// user config directory (e.g. ~/.config/nila/credential.json).
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(base, "nila", CredentialFileName), nil
}

// Path returns the file path this store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored access token. An absent file, an empty
// file, and an empty token all return "" with a nil error: logged out
// is not an error condition.
func (s *Store) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading credential file: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	var cred credentialFile
	if err := json.Unmarshal(data, &cred); err != nil {
		return "", fmt.Errorf("parsing credential file: %w", err)
	}
	return cred.AccessToken, nil
}

// Save writes the access token, replacing any previous credential.
// The parent directory is created on first use.
//
// SECURITY: the file is written with mode 0600 and the directory with
// 0700; the token grants full account access to whoever reads it.
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(credentialFile{
		AccessToken: token,
		TokenType:   "bearer",
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	if err := util.WriteFileAtomic(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	return nil
}

// Clear removes the credential file. Clearing an absent file is a
// no-op; absence already means logged out.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credential file: %w", err)
	}
	return nil
}

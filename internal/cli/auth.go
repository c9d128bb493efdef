// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth.go - Login, registration, and logout for the nila CLI.
//
// SECURITY: passwords are read without echo and never logged
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/jeranaias/nila-tui/internal/api"
	"github.com/jeranaias/nila-tui/internal/ui/styles"
)

// authTimeout bounds each credential exchange with the service.
const authTimeout = 15 * time.Second

// =============================================================================
// LOGIN
// =============================================================================

// HandleLogin prompts for a username and password, exchanges them for a
// session credential, and stores it for the TUI and other commands.
func HandleLogin(args Args) error {
	if err := RequiresTTY("log in"); err != nil {
		return err
	}

	username, err := promptUsername()
	if err != nil {
		return err
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	client, err := NewServiceClient(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	cred, err := client.Login(ctx, username, password)
	if err != nil {
		return friendlyAuthError(err, client.BaseURL())
	}

	if err := saveCredential(cred); err != nil {
		return err
	}

	fmt.Println(styles.RenderSuccess("Logged in as " + username))
	return nil
}

// =============================================================================
// REGISTER
// =============================================================================

// HandleRegister creates an account and logs it in. The password is
// asked twice; a mismatch aborts before anything touches the network.
func HandleRegister(args Args) error {
	if err := RequiresTTY("register"); err != nil {
		return err
	}

	username, err := promptUsername()
	if err != nil {
		return err
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if confirm != password {
		return errors.New("passwords do not match")
	}

	client, err := NewServiceClient(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	cred, err := client.Register(ctx, username, password)
	if err != nil {
		return friendlyAuthError(err, client.BaseURL())
	}

	if err := saveCredential(cred); err != nil {
		return err
	}

	fmt.Println(styles.RenderSuccess("Registered and logged in as " + username))
	return nil
}

// =============================================================================
// LOGOUT
// =============================================================================

// HandleLogout discards the stored credential. The session row on the
// service side simply ages out; there is nothing to revoke remotely.
func HandleLogout(args Args) error {
	store, err := CredentialStore()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	fmt.Println(styles.RenderSuccess("Logged out"))
	return nil
}

// =============================================================================
// PROMPTS
// =============================================================================

// promptUsername reads a username with line editing support.
func promptUsername() (string, error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	input, err := line.Prompt("Username: ")
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", errors.New("cancelled")
		}
		return "", fmt.Errorf("failed to read username: %w", err)
	}

	username := strings.TrimSpace(input)
	if username == "" {
		return "", errors.New("username cannot be empty")
	}
	return username, nil
}

// promptPassword reads a password without echoing it to the terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // Add newline after hidden input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(password), nil
}

// =============================================================================
// SHARED PLUMBING
// =============================================================================

// saveCredential persists the issued token where every command and the
// TUI look for it.
func saveCredential(cred api.Credential) error {
	store, err := CredentialStore()
	if err != nil {
		return err
	}
	if err := store.Save(cred.AccessToken); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// friendlyAuthError rewrites the service taxonomy into messages a
// person at a prompt can act on.
func friendlyAuthError(err error, baseURL string) error {
	switch {
	case errors.Is(err, api.ErrInvalidCredentials):
		return errors.New("incorrect username or password")
	case errors.Is(err, api.ErrUsernameTaken):
		return errors.New("that username is already registered")
	case errors.Is(err, api.ErrUnreachable):
		return fmt.Errorf("can't reach %s - is the service running?", baseURL)
	default:
		return err
	}
}

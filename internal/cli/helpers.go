// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared wiring used across the CLI command handlers.
package cli

import (
	"fmt"

	"github.com/jeranaias/nila-tui/internal/api"
	"github.com/jeranaias/nila-tui/internal/config"
	"github.com/jeranaias/nila-tui/internal/session"
)

// loadConfig loads the config file (honoring --config) with env overrides
// applied.
func loadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		return config.LoadFromPath(args.ConfigPath)
	}
	return config.Load()
}

// serviceURL resolves the conversation service address: the --server
// flag wins over the config file, which wins over the default.
func serviceURL(args Args) (string, error) {
	if args.ServerURL != "" {
		return args.ServerURL, nil
	}
	cfg, err := loadConfig(args)
	if err != nil {
		return "", err
	}
	return cfg.Client.ServerURL, nil
}

// NewServiceClient builds an api.Client for the resolved service
// address. Exported because the TUI entry point wires the same way.
func NewServiceClient(args Args) (*api.Client, error) {
	url, err := serviceURL(args)
	if err != nil {
		return nil, err
	}
	return api.New(url), nil
}

// CredentialStore opens the session store at the well-known path.
func CredentialStore() (*session.Store, error) {
	path, err := session.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("locating credential store: %w", err)
	}
	return session.NewStore(path), nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for nila.
//
// A single TOML file carries two tables: [client] for the terminal
// program and [server] for the conversation service.
//
// # Configuration Precedence
//
// Values resolve from (in order of precedence):
//   - Environment variables (NILA_*, OPENROUTER_API_KEY)
//   - <user-config-dir>/nila/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	serverURL := cfg.Client.ServerURL
//	listenAddr := cfg.Server.ListenAddr
package config

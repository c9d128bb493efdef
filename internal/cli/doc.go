// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands
// for nila.
//
// # Key Types
//
//   - Command: enumeration of the available commands
//   - Args: parsed global flags plus anything after the command name
//
// # Usage
//
// Parse and dispatch:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdServe:
//	    return cli.HandleServe(args)
//	case cli.CmdLogin:
//	    return cli.HandleLogin(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - (default): the companion chat TUI
//   - serve: run the conversation service
//   - login/register/logout: manage the stored session credential
//   - history: print the conversation transcript
//   - status: service reachability and session state
//
// Handlers return errors instead of exiting so main owns the process
// exit code. Interactive commands refuse to run without a TTY.
package cli

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for nila.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota // Default: the companion chat TUI
	CmdServe
	CmdLogin
	CmdRegister
	CmdLogout
	CmdHistory
	CmdStatus
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ServerURL  string // --server: conversation service override
	ConfigPath string // --config: config file override

	// Unknown holds an unrecognized command name so main can report it.
	Unknown string

	// Raw args remaining after the command name
	Raw []string
}

const usageText = `nila - a companion you talk to in your terminal

Nila is a terminal chat client for the nila conversation service.
Replies arrive as small bubbles, one at a time, the way she'd
actually type them.

Usage:
  nila                    Start the chat TUI (default)
  nila serve              Run the conversation service
  nila login              Log in and store the session credential
  nila register           Create an account and log in
  nila logout             Clear the stored session credential
  nila history            Print your conversation transcript
  nila status, s          Check service and session status
  nila version            Show version information
  nila help               Show this help

Global Flags:
  --server URL    Conversation service address (default from config)
  --config PATH   Config file path (default: <user-config-dir>/nila/config.toml)

Server Environment:
  NILA_LISTEN_ADDR     Listen address for serve (default :8000)
  NILA_DB_PATH         SQLite path for serve (default nila.db)
  NILA_API_KEY         Upstream reply model key (or OPENROUTER_API_KEY)
  NILA_UPSTREAM_MODEL  Upstream model override

  serve also loads a .env file from the working directory when present.

Examples:
  nila                                Chat with Nila
  nila --server http://host:8000      Chat against a remote service
  nila serve                          Run the service locally
  nila history | less                 Page through the transcript
`

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return parse(os.Args[1:])
}

// parse is the testable core of Parse.
func parse(argv []string) (Command, Args) {
	var args Args

	remaining := make([]string, 0, len(argv))
	i := 0
	for i < len(argv) {
		arg := argv[i]
		switch {
		case arg == "--server" || arg == "-s":
			if i+1 < len(argv) {
				args.ServerURL = argv[i+1]
				i += 2
				continue
			}
			i++
		case strings.HasPrefix(arg, "--server="):
			args.ServerURL = strings.TrimPrefix(arg, "--server=")
			i++
		case arg == "--config":
			if i+1 < len(argv) {
				args.ConfigPath = argv[i+1]
				i += 2
				continue
			}
			i++
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
			i++
		case arg == "--help" || arg == "-h":
			return CmdHelp, args
		case arg == "--version" || arg == "-v":
			return CmdVersion, args
		default:
			remaining = append(remaining, arg)
			i++
		}
	}

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	args.Raw = remaining[1:]

	switch cmd {
	case "tui", "chat":
		return CmdTUI, args
	case "serve", "server":
		return CmdServe, args
	case "login":
		return CmdLogin, args
	case "register", "signup":
		return CmdRegister, args
	case "logout":
		return CmdLogout, args
	case "history", "transcript":
		return CmdHistory, args
	case "status", "s":
		return CmdStatus, args
	case "version":
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	default:
		args.Unknown = remaining[0]
		return CmdHelp, args
	}
}

// PrintUsage prints the usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("nila %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

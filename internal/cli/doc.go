// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the navshell command line and implements every command
// except the full-screen TUI, which main wires from the same App.
//
// # Commands
//
//   - tui (default): full-screen shell, see internal/ui/shell
//   - repl: line-mode shell driven by peterh/liner
//   - serve: chat and navigation HTTP API, see internal/server
//   - views, go, where: registry listing and external navigation through
//     the location file
//   - history: search and print stored conversations
//   - config: show, path, init, get, set, keys
//   - passwd: bcrypt password and optional TOTP enrollment for the login view
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdViews:
//	    err = cli.HandleViews(args, os.Stdout)
//	// ... other commands
//	}
//
// App holds the shared wiring (config, log file, registry, history store,
// Ollama client) and builds routers for a given mount point.
package cli

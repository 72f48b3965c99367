// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and usage text for navshell.
package cli

import (
	"fmt"
	"io"
	"os"
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
	CmdTUI Command = iota
	CmdREPL
	CmdServe
	CmdViews
	CmdGo
	CmdWhere
	CmdHistory
	CmdConfig
	CmdPasswd
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdREPL:
		return "repl"
	case CmdServe:
		return "serve"
	case CmdViews:
		return "views"
	case CmdGo:
		return "go"
	case CmdWhere:
		return "where"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdPasswd:
		return "passwd"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	View       string
	Verbose    bool

	// Parser holds everything after the command name.
	Parser *ArgParser
}

const usageText = `navshell - single-pane view shell with hash-style navigation

Usage:
  navshell [flags]                 Start the TUI (default)
  navshell [flags] VIEW            Start the TUI on VIEW
  navshell tui                     Start the TUI
  navshell repl                    Line-mode shell (no full-screen UI)
  navshell serve [--port N]        Serve the chat and navigation API
  navshell views                   List registered views
  navshell go VIEW                 Navigate a running shell to VIEW
  navshell where                   Show the current location
  navshell history [QUERY]         List or search chat history
  navshell history show ID         Print one conversation as markdown
  navshell config show             Show the effective configuration
  navshell config path             Show the config file path
  navshell config init [--force]   Write a default config file
  navshell config get KEY          Print one setting (dot notation)
  navshell config set KEY VALUE    Change one setting
  navshell passwd [--totp]         Set login view credentials
  navshell version                 Show version information
  navshell help                    Show this help

Command Flags:
%s
Global Flags:
  --config PATH   Use PATH instead of ~/.navshell/config.toml
  --view NAME     View to open first (tui, repl)
  -v, --verbose   Also log to stderr (repl, serve)

REPL Commands:
  :go VIEW    :back    :reload    :views    :where    :help    :quit
  Any other line is sent to the active view when it accepts input.
  An empty line shows output that arrived since the last prompt.

Examples:
  navshell                          Start on the default view
  navshell Chat                     Start on the Chat view
  navshell go History               Switch a running shell to History
  navshell config set ui.theme light
  navshell history goroutines --limit 5

Version: %s
`

// PrintUsage writes the usage/help text.
func PrintUsage(w io.Writer) {
	var flags strings.Builder
	for _, cmd := range []Command{CmdServe, CmdHistory, CmdConfig, CmdPasswd} {
		fmt.Fprintf(&flags, "  %s\n%s", cmd, flagUsage(cmd))
	}
	fmt.Fprintf(w, usageText, flags.String(), Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "navshell version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments and returns the command and args.
// A first word that is not a command names the view to start on. Flag
// errors are left in args.Parser.Err for the caller to report.
func ParseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		args.Parser = NewArgParser(nil, nil)
		return CmdTUI, args
	}

	cmd, ok := commandWords[strings.ToLower(remaining[0])]
	if !ok {
		// Unknown words are a start view; the router falls back to the
		// default view when no such view exists.
		cmd = CmdTUI
		if args.View == "" {
			args.View = remaining[0]
		}
	}
	args.Parser = NewArgParser(FlagsFor(cmd), remaining[1:])
	return cmd, args
}

// commandWords maps command names and aliases to commands.
var commandWords = map[string]Command{
	"tui":       CmdTUI,
	"repl":      CmdREPL,
	"shell":     CmdREPL,
	"serve":     CmdServe,
	"server":    CmdServe,
	"views":     CmdViews,
	"ls":        CmdViews,
	"go":        CmdGo,
	"nav":       CmdGo,
	"where":     CmdWhere,
	"pwd":       CmdWhere,
	"history":   CmdHistory,
	"hist":      CmdHistory,
	"config":    CmdConfig,
	"cfg":       CmdConfig,
	"passwd":    CmdPasswd,
	"password":  CmdPasswd,
	"version":   CmdVersion,
	"--version": CmdVersion,
	"help":      CmdHelp,
	"-h":        CmdHelp,
	"--help":    CmdHelp,
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Global flags may appear anywhere on the line.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true
		case arg == "--config" || arg == "-c":
			if i+1 < len(argv) {
				i++
				args.ConfigPath = argv[i]
			}
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--view":
			if i+1 < len(argv) {
				i++
				args.View = argv[i]
			}
		case strings.HasPrefix(arg, "--view="):
			args.View = strings.TrimPrefix(arg, "--view=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}

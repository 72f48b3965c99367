// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - What the CLI is talking to.
//
// USABILITY: the TUI and passwd need an interactive stdin, the REPL sizes
// its pane from stdout and renders markdown without styling when stdout is
// piped, and colored output follows NO_COLOR / FORCE_COLOR.
package cli

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jeranaias/navshell/internal/ui/styles"
)

const (
	// DefaultTerminalWidth is used when stdout is not a terminal.
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest pane the REPL renders into.
	MinTerminalWidth = 40
)

// Terminal describes stdin and stdout as the CLI sees them.
type Terminal struct {
	StdinTTY  bool
	StdoutTTY bool
	Width     int
	Profile   termenv.Profile
}

// fdFile is the part of *os.File detection needs.
type fdFile interface {
	Fd() uintptr
}

// DetectTerminal inspects the process's stdin, stdout and environment.
func DetectTerminal() Terminal {
	return detectTerminal(os.Stdin, os.Stdout, os.Getenv)
}

func detectTerminal(in, out fdFile, getenv func(string) string) Terminal {
	t := Terminal{
		StdinTTY:  term.IsTerminal(int(in.Fd())),
		StdoutTTY: term.IsTerminal(int(out.Fd())),
		Width:     DefaultTerminalWidth,
		Profile:   termenv.Ascii,
	}
	if t.StdoutTTY {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			t.Width = max(w, MinTerminalWidth)
		}
	}

	colors := t.StdoutTTY
	switch {
	case getenv("NO_COLOR") != "":
		colors = false
	case getenv("FORCE_COLOR") != "":
		colors = true
	}
	if colors {
		t.Profile = termenv.ColorProfile()
		if t.Profile == termenv.Ascii {
			// Forced onto a pipe: termenv sees no terminal.
			t.Profile = termenv.ANSI256
		}
	}
	return t
}

// GlamourStyle picks the markdown style for views rendered into this
// terminal: the theme's style on a terminal, "notty" on a pipe.
func (t Terminal) GlamourStyle(themeMode string) string {
	if !t.StdoutTTY {
		return "notty"
	}
	return styles.NewTheme(themeMode).GlamourStyle()
}

// TTYRequiredError is returned when an operation needs an interactive stdin.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	if e.Operation != "" {
		return "stdin is not a terminal; cannot " + e.Operation + " interactively"
	}
	return "stdin is not a terminal; interactive input not available"
}

// RequireInteractive returns a TTYRequiredError when stdin is not a
// terminal.
func (t Terminal) RequireInteractive(operation string) error {
	if !t.StdinTTY {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}

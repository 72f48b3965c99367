// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for CLI commands.
//
// Commands always return errors; main decides how to display them.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/navshell/internal/config"
	"github.com/jeranaias/navshell/internal/registry"
	"github.com/jeranaias/navshell/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNotFoundError indicates a view or conversation was not found
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports a command invoked with missing or bad arguments.
// Reason says what was wrong; Usage is the synopsis to show.
type UsageError struct {
	Reason string
	Usage  string
}

func (e *UsageError) Error() string {
	switch {
	case e.Reason == "":
		return "usage: " + e.Usage
	case e.Usage == "":
		return e.Reason
	default:
		return e.Reason + " (usage: " + e.Usage + ")"
	}
}

// ErrUsage returns a UsageError for the given synopsis.
func ErrUsage(synopsis string) error {
	return &UsageError{Usage: synopsis}
}

// badArgs returns a UsageError explaining what was wrong.
func badArgs(format string, a ...interface{}) error {
	return &UsageError{Reason: fmt.Sprintf(format, a...)}
}

// UnknownViewError is returned for a view name the registry lacks.
type UnknownViewError struct {
	Name       string
	Suggestion string
	Known      []string
}

func (e *UnknownViewError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown view %q (did you mean %s?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown view %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

func (e *UnknownViewError) Unwrap() error {
	return registry.ErrNotFound
}

// =============================================================================
// EXIT HANDLING
// =============================================================================

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	var validation config.ValidateErrors
	if errors.As(err, &validation) {
		return ExitConfigError
	}
	if errors.Is(err, registry.ErrNotFound) || errors.Is(err, storage.ErrConversationNotFound) {
		return ExitNotFoundError
	}
	return ExitGeneralError
}

// DisplayError writes err to w with the [X] indicator.
func DisplayError(w io.Writer, err error) {
	fmt.Fprintln(w, Failure(err.Error()))
}

// HandleErrorAndExit prints err on stderr and exits with its code. A nil
// err returns.
func HandleErrorAndExit(err error) {
	if err == nil {
		return
	}
	DisplayError(os.Stderr, err)
	os.Exit(GetExitCode(err))
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging opens the navshell log file.
//
// The TUI owns stdout, so every component writes through an injected
// *log.Logger backed by a file instead of the terminal.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Discard is a Logger that ignores everything. Used by tests and by hosts
// that run with logging disabled.
var Discard = log.New(io.Discard, "", 0)

// Flags used for every file logger.
const Flags = log.LstdFlags | log.Lmicroseconds

// Open returns a logger appending to path. The file is created with 0600
// permissions. The returned closer must be closed on shutdown.
func Open(path, prefix string) (*log.Logger, io.Closer, error) {
	if path == "" {
		return Discard, io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return log.New(f, prefix, Flags), f, nil
}

// Stderr returns a logger for commands that do not take over the terminal.
func Stderr(prefix string) *log.Logger {
	return log.New(os.Stderr, prefix, 0)
}

// OrDiscard returns l, or Discard when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard
	}
	return l
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "navshell.log")

	logger, closer, err := Open(path, "navshell ")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	logger.Printf("[Router] navigated to=%s", "About")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "[Router] navigated to=About") {
		t.Errorf("log file missing entry: %q", data)
	}

	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0600 {
		t.Errorf("log file mode = %o, want 600", info.Mode().Perm())
	}
}

func TestOpen_EmptyPathDiscards(t *testing.T) {
	logger, closer, err := Open("", "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if logger != Discard {
		t.Error("empty path should return Discard")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) != Discard {
		t.Error("OrDiscard(nil) should be Discard")
	}
	l := Stderr("x ")
	if OrDiscard(l) != l {
		t.Error("OrDiscard should return the given logger")
	}
}

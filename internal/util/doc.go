// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across navshell packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, StringWidth, PadRight: terminal column math (go-runewidth)
//   - SingleLine: collapse text for status lines
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - HomePath, ExpandHome: ~/.navshell path helpers
//
// # Usage
//
//	label := util.TruncateWidth(desc.Label, 12)
//	err := util.AtomicWriteFile(path, []byte("#About\n"), 0600)
package util

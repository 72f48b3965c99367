// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package views implements the built-in navshell views and registers them in
// a view.Catalog under "views/<name>" module paths.
//
// Static views (home, about, config) render once. Chat, history and login
// accept input through view.Interactive. Chat and clock own goroutines that
// stop in Unmount.
package views

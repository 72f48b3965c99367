// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell is the full-screen TUI host for the navshell router.
//
// The shell owns the single content pane (a view.MountPoint backed by a
// bubbles viewport), the tab bar kept in sync by nav.Sync, an input bar for
// interactive views, toasts and an inline panel for navigation failures, and
// a status bar.
//
// # Layout
//
//	[ navshell | 1 Home | 2 About | 3 Chat ... ]   tabs
//	content pane / loading spinner / error panel
//	toasts
//	[ > input ]                                    interactive views only
//	status bar
//
// # Concurrency
//
// Views write to the Pane from the router worker or their own goroutines.
// The pane notifies the program with ContentMsg; router events arrive as
// RouterEventMsg. Key handling never blocks on the router: navigation uses
// Router.Go, Back and Deliver run as tea.Cmds.
package shell

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the navshell TUI.
//
// Colors are lipgloss.AdaptiveColor values so one palette serves light and
// dark terminals. NewTheme detects the background with termenv unless the
// configured ui.theme forces a mode.
//
// # Usage
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	theme.SetSize(width, height)
//	tab := theme.TabActive.Render("Home")
package styles

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable pieces of the navshell TUI.

# Components

Tabs (tabs.go) - Header tab bar. Implements nav.Selector so nav.Sync keeps it
consistent with the registry and the router.

ToastManager (toast.go) - Auto-dismissing notifications for navigation
failures and fallbacks.

ErrorPanel (errorpanel.go) - Inline panel shown where a view failed to load
or mount.

StatusBar (statusbar.go) - Active view, router phase and key hints.

# Theme Integration

All components take a *styles.Theme:

	theme := styles.NewTheme("auto")
	tabs := components.NewTabs(theme, "navshell")
	unbind := nav.NewSync(router).Bind(tabs)
	defer unbind()
*/
package components

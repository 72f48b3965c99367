// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navshell/internal/nav"
	"github.com/jeranaias/navshell/internal/ui/styles"
	"github.com/jeranaias/navshell/internal/util"
)

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line: active view and phase on the left, key
// hints on the right.
type StatusBar struct {
	theme     *styles.Theme
	width     int
	snap      nav.Snapshot
	label     string
	failed    bool
	shortcuts []Shortcut
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme, width: 80}
}

// SetWidth updates the available width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetState updates the view name/label and phase. failed marks the last
// navigation as failed.
func (s *StatusBar) SetState(snap nav.Snapshot, label string, failed bool) {
	s.snap = snap
	s.label = label
	s.failed = failed
}

// SetShortcuts replaces the key hints.
func (s *StatusBar) SetShortcuts(shortcuts []Shortcut) {
	s.shortcuts = shortcuts
}

// View renders the status bar.
func (s *StatusBar) View() string {
	label := s.label
	if label == "" {
		label = s.snap.ActiveName
	}
	if label == "" {
		label = "-"
	}

	var left string
	switch {
	case s.failed:
		left = s.theme.StatusError.Render(styles.StatusIndicators.Error+" "+label) +
			s.theme.StatusPhase.Render(" failed")
	case s.snap.Phase == nav.PhaseActive:
		left = s.theme.StatusView.Render(styles.StatusIndicators.Active+" "+label)
	default:
		left = s.theme.StatusView.Render(styles.StatusIndicators.Pending+" "+label) +
			s.theme.StatusPhase.Render(" "+strings.ToLower(s.snap.Phase.String()))
	}

	right := s.renderShortcuts(s.width - lipgloss.Width(left) - 4)
	gap := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderShortcuts renders as many hints as fit in max columns.
func (s *StatusBar) renderShortcuts(max int) string {
	var parts []string
	used := 0
	for _, sc := range s.shortcuts {
		w := util.StringWidth(sc.Key) + util.StringWidth(sc.Desc) + 3
		if used+w > max {
			break
		}
		used += w
		parts = append(parts, s.theme.ShortcutKey.Render(sc.Key)+s.theme.ShortcutDesc.Render(" "+sc.Desc))
	}
	return strings.Join(parts, s.theme.ShortcutDesc.Render("  "))
}

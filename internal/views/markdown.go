// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/navshell/internal/view"
)

const defaultWrap = 80

// renderMarkdown renders md for the terminal. Falls back to the source when
// glamour cannot build a renderer.
func renderMarkdown(style string, width int, md string) string {
	if width <= 0 {
		width = defaultWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// wrapWidth is the markdown wrap width for a mount point.
func wrapWidth(mp view.MountPoint) int {
	w, _ := mp.Size()
	if w <= 0 {
		return defaultWrap
	}
	if w > 4 {
		w -= 2
	}
	return w
}

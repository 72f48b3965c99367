// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navshell/internal/nav"
	"github.com/jeranaias/navshell/internal/ui/styles"
	"github.com/jeranaias/navshell/internal/util"
)

// maxTabLabel caps one tab label in terminal columns.
const maxTabLabel = 18

// Tabs is the header tab bar. It implements nav.Selector and is safe for
// concurrent use: the router updates it from its worker goroutine while the
// TUI renders it.
type Tabs struct {
	mu       sync.RWMutex
	theme    *styles.Theme
	brand    string
	width    int
	options  []nav.Option
	selected string
}

// NewTabs creates an empty tab bar.
func NewTabs(theme *styles.Theme, brand string) *Tabs {
	return &Tabs{theme: theme, brand: brand, width: 80}
}

// SetOptions implements nav.Selector.
func (t *Tabs) SetOptions(opts []nav.Option) {
	t.mu.Lock()
	t.options = append([]nav.Option(nil), opts...)
	t.mu.Unlock()
}

// SetSelected implements nav.Selector.
func (t *Tabs) SetSelected(name string) {
	t.mu.Lock()
	t.selected = name
	t.mu.Unlock()
}

// SetWidth updates the available width.
func (t *Tabs) SetWidth(width int) {
	t.mu.Lock()
	t.width = width
	t.mu.Unlock()
}

// Selected returns the highlighted option name, or "".
func (t *Tabs) Selected() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selected
}

// Options returns a copy of the options.
func (t *Tabs) Options() []nav.Option {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]nav.Option(nil), t.options...)
}

// Next returns the option after the selected one, wrapping around. With
// nothing selected it returns the first option.
func (t *Tabs) Next() string {
	return t.step(1)
}

// Prev returns the option before the selected one, wrapping around.
func (t *Tabs) Prev() string {
	return t.step(-1)
}

func (t *Tabs) step(delta int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := len(t.options)
	if n == 0 {
		return ""
	}
	idx := -1
	for i, o := range t.options {
		if o.Name == t.selected {
			idx = i
			break
		}
	}
	if idx < 0 {
		if delta > 0 {
			return t.options[0].Name
		}
		return t.options[n-1].Name
	}
	return t.options[(idx+delta+n)%n].Name
}

// At returns the option for a 1-based tab number.
func (t *Tabs) At(number int) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if number < 1 || number > len(t.options) {
		return "", false
	}
	return t.options[number-1].Name, true
}

// View renders the tab bar.
func (t *Tabs) View() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	parts := make([]string, 0, len(t.options)+1)
	if t.brand != "" {
		parts = append(parts, t.theme.Brand.Render(t.brand))
	}

	// UNICODE: Shrink labels by display width when the bar would overflow
	labelMax := maxTabLabel
	if n := len(t.options); n > 0 && t.width > 0 {
		avail := t.width - util.StringWidth(t.brand) - 2
		if per := avail/n - 4; per < labelMax {
			labelMax = per
		}
		if labelMax < 4 {
			labelMax = 4
		}
	}

	for i, o := range t.options {
		label := util.TruncateWidth(o.Label, labelMax)
		if i < 9 {
			label = t.theme.TabNumber.Render(strconv.Itoa(i+1)+" ") + label
		}
		if o.Name == t.selected {
			parts = append(parts, t.theme.TabActive.Render(label))
		} else {
			parts = append(parts, t.theme.TabInactive.Render(label))
		}
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if t.width > 0 {
		return t.theme.TabBar.Width(t.width).Render(bar)
	}
	return t.theme.TabBar.Render(bar)
}

// Plain renders the tab bar without styling, for line-mode hosts:
// "Home  [About]  Chat".
func (t *Tabs) Plain() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	labels := make([]string, 0, len(t.options))
	for _, o := range t.options {
		if o.Name == t.selected {
			labels = append(labels, "["+o.Label+"]")
		} else {
			labels = append(labels, o.Label)
		}
	}
	return strings.Join(labels, "  ")
}

var _ nav.Selector = (*Tabs)(nil)

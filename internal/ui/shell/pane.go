// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"sync"

	"github.com/jeranaias/navshell/internal/view"
)

// Pane is the TUI's mount point. Views write to it from the router worker
// or their own goroutines; the program is told through notify and reads the
// content back on its own goroutine.
type Pane struct {
	mu      sync.Mutex
	content string
	width   int
	height  int
	clears  int
	notify  func()
}

// NewPane creates a pane with an initial size.
func NewPane(width, height int) *Pane {
	return &Pane{width: width, height: height}
}

// SetNotify sets the function called after every content change. It runs
// outside the pane lock.
func (p *Pane) SetNotify(fn func()) {
	p.mu.Lock()
	p.notify = fn
	p.mu.Unlock()
}

// Clear implements view.MountPoint.
func (p *Pane) Clear() {
	p.mu.Lock()
	p.content = ""
	p.clears++
	fn := p.notify
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SetContent implements view.MountPoint.
func (p *Pane) SetContent(content string) {
	p.mu.Lock()
	p.content = content
	fn := p.notify
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Size implements view.MountPoint.
func (p *Pane) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// SetSize records the content area size after a resize or layout change.
func (p *Pane) SetSize(width, height int) {
	p.mu.Lock()
	p.width, p.height = width, height
	p.mu.Unlock()
}

// Content returns the current content and how many times the pane has been
// cleared.
func (p *Pane) Content() (string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content, p.clears
}

var _ view.MountPoint = (*Pane)(nil)

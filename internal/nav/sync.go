// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package nav

import (
	"github.com/jeranaias/navshell/internal/registry"
)

// Option is one entry in a navigation selector.
type Option struct {
	Name  string
	Label string
}

// Selector is a navigation control: the TUI tab bar, the REPL's view list.
// SetSelected("") means nothing is selected.
type Selector interface {
	SetOptions(opts []Option)
	SetSelected(name string)
}

// Sync keeps selectors consistent with the registry and the router state.
type Sync struct {
	reg    *registry.Registry
	router *Router
}

// NewSync returns a Sync for router.
func NewSync(router *Router) *Sync {
	return &Sync{reg: router.Registry(), router: router}
}

// Options returns one option per navigable view, in registry order.
func (s *Sync) Options() []Option {
	descs := s.reg.ListNavigable()
	opts := make([]Option, 0, len(descs))
	for _, d := range descs {
		opts = append(opts, Option{Name: d.Name, Label: d.Label})
	}
	return opts
}

// Selected returns the option name that should be highlighted for snap, or
// "" when there is no active name or the active view is not navigable. The
// active name is followed in every phase, so the selector names the same
// view as the fragment while mounting and after a failed mount.
func (s *Sync) Selected(snap Snapshot) string {
	if snap.ActiveName == "" {
		return ""
	}
	d, err := s.reg.Lookup(snap.ActiveName)
	if err != nil || !d.ShowInHeader {
		return ""
	}
	return d.Name
}

// Render populates sel from the current state.
func (s *Sync) Render(sel Selector) {
	s.render(sel, s.router.Snapshot())
}

func (s *Sync) render(sel Selector, snap Snapshot) {
	sel.SetOptions(s.Options())
	sel.SetSelected(s.Selected(snap))
}

// Bind renders sel now and after every router event, explicit or
// fragment-driven. The returned function stops the updates.
func (s *Sync) Bind(sel Selector) (unbind func()) {
	s.Render(sel)
	return s.router.Subscribe(func(ev Event) {
		s.render(sel, ev.Snapshot)
	})
}

// Choose is what a selector calls when the user picks an option.
func (s *Sync) Choose(name string) {
	s.router.Go(name)
}

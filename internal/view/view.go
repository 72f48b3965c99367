// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package view defines the contract between the router and the views it mounts.
package view

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// =============================================================================
// MOUNT POINT
// =============================================================================

// MountPoint is the single content area a view renders into. Hosts supply it:
// the TUI content pane or the REPL's stdout pane. Implementations must be safe
// for concurrent use because views may update content from their own
// goroutines (timers, streaming responses).
type MountPoint interface {
	// Clear removes all content.
	Clear()
	// SetContent replaces the content with pre-rendered text.
	SetContent(content string)
	// Size reports the usable width and height in cells. Hosts that cannot
	// tell return 0 for either dimension.
	Size() (width, height int)
}

// =============================================================================
// VIEW CONTRACT
// =============================================================================

// Handle is whatever a view's Mount returns. The router keeps it only to
// discover the optional Unmounter and Interactive capabilities.
type Handle any

// View populates a mount point. Mount may block on I/O and must return
// promptly once ctx is cancelled.
type View interface {
	Mount(ctx context.Context, mp MountPoint) (Handle, error)
}

// Unmounter is implemented by handles that hold resources (timers,
// goroutines, connections). The router calls Unmount exactly once for every
// handle it received from a successful Mount.
type Unmounter interface {
	Unmount(ctx context.Context) error
}

// Interactive is implemented by handles that accept user input. HandleInput
// must return quickly; long work runs on goroutines owned by the handle and
// reports back through the mount point.
type Interactive interface {
	HandleInput(ctx context.Context, input string) error
}

// Hinter is implemented by handles that describe their input, for status
// lines and the REPL prompt.
type Hinter interface {
	InputHint() string
}

// Func adapts a plain function to View.
type Func func(ctx context.Context, mp MountPoint) (Handle, error)

// Mount calls f(ctx, mp).
func (f Func) Mount(ctx context.Context, mp MountPoint) (Handle, error) {
	return f(ctx, mp)
}

// Static returns a view that renders fixed content and holds no resources.
func Static(content string) View {
	return Func(func(ctx context.Context, mp MountPoint) (Handle, error) {
		mp.SetContent(content)
		return struct{}{}, nil
	})
}

// =============================================================================
// LOADER / CATALOG
// =============================================================================

// ErrUnknownModule is returned by Catalog.Load for an unregistered module path.
var ErrUnknownModule = errors.New("unknown view module")

// Loader resolves a module path to a View.
type Loader interface {
	Load(ctx context.Context, modulePath string) (View, error)
}

// Factory builds a fresh View. It runs on every navigation so a view never
// carries state from a previous mount.
type Factory func() (View, error)

// Catalog is the compile-time table of module path -> Factory.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering the same path twice replaces the
// earlier factory so tests can stub a single view.
func (c *Catalog) Register(modulePath string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[modulePath] = f
}

// RegisterView registers a view value that is reused across mounts.
func (c *Catalog) RegisterView(modulePath string, v View) {
	c.Register(modulePath, func() (View, error) { return v, nil })
}

// Load implements Loader.
func (c *Catalog) Load(ctx context.Context, modulePath string) (View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	f, ok := c.factories[modulePath]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, modulePath)
	}

	v, err := f()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("factory for %s returned no view", modulePath)
	}
	return v, nil
}

// Paths returns the registered module paths, sorted.
func (c *Catalog) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.factories))
	for p := range c.factories {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Has reports whether modulePath is registered.
func (c *Catalog) Has(modulePath string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[modulePath]
	return ok
}

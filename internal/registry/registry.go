// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry holds the static table of views the router can mount.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned by Lookup for a name that is not registered.
	ErrNotFound = errors.New("view not found")

	// ErrDuplicateView is returned when two descriptors share a name.
	ErrDuplicateView = errors.New("duplicate view name")

	// ErrEmptyName is returned for a descriptor without a name.
	ErrEmptyName = errors.New("view name is empty")

	// ErrUnknownDefault is returned when the default view is not registered.
	ErrUnknownDefault = errors.New("default view is not registered")

	// ErrNoViews is returned when the registry would be empty.
	ErrNoViews = errors.New("registry has no views")
)

// =============================================================================
// DESCRIPTOR
// =============================================================================

// Descriptor is the static metadata for one view.
type Descriptor struct {
	// Name is the unique key, also used as the address fragment ("#Name").
	Name string
	// ModulePath locates the implementation in the host's view catalog.
	ModulePath string
	// Label is the human-readable name shown in navigation.
	Label string
	// ShowInHeader controls whether the view appears in navigation UI.
	ShowInHeader bool
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is an immutable name -> Descriptor table. It is safe for
// concurrent use because nothing mutates it after New returns.
type Registry struct {
	byName      map[string]Descriptor
	order       []string
	defaultName string
}

// New builds a registry from descriptors in display order. Missing labels are
// derived from the name ("chat-history" -> "Chat History"). A descriptor
// without a ModulePath defaults to "views/<lowercase name>".
func New(defaultName string, descs []Descriptor) (*Registry, error) {
	if len(descs) == 0 {
		return nil, ErrNoViews
	}

	r := &Registry{
		byName:      make(map[string]Descriptor, len(descs)),
		order:       make([]string, 0, len(descs)),
		defaultName: defaultName,
	}

	for i, d := range descs {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			return nil, fmt.Errorf("%w (entry %d)", ErrEmptyName, i)
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateView, d.Name)
		}
		if d.Label == "" {
			d.Label = DeriveLabel(d.Name)
		}
		if d.ModulePath == "" {
			d.ModulePath = "views/" + strings.ToLower(d.Name)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}

	if r.defaultName == "" {
		r.defaultName = r.order[0]
	}
	if _, ok := r.byName[r.defaultName]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDefault, r.defaultName)
	}

	return r, nil
}

// MustNew is New for static tables known to be valid. It panics on error.
func MustNew(defaultName string, descs []Descriptor) *Registry {
	r, err := New(defaultName, descs)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor registered under name.
// Unknown names return an error wrapping ErrNotFound.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return d, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// DefaultViewName returns the view used for empty and unknown requests.
func (r *Registry) DefaultViewName() string {
	return r.defaultName
}

// ListNavigable returns the descriptors shown in navigation, in order.
func (r *Registry) ListNavigable() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		if d := r.byName[name]; d.ShowInHeader {
			out = append(out, d)
		}
	}
	return out
}

// All returns every descriptor in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns every registered name in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered views.
func (r *Registry) Len() int {
	return len(r.order)
}

// DeriveLabel turns a view name into a display label.
func DeriveLabel(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '/'
	})
	caser := cases.Title(language.English)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

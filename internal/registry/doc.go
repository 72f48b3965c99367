// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry holds the static table of views the router can mount.
//
// The registry is built once at startup from configuration and is read-only
// afterwards. Lookups of unknown names return ErrNotFound so callers decide
// the fallback explicitly.
//
// # Usage
//
//	reg, err := registry.New("Home", []registry.Descriptor{
//	    {Name: "Home", ModulePath: "views/home", ShowInHeader: true},
//	    {Name: "About", ModulePath: "views/about", ShowInHeader: true},
//	})
//	desc, err := reg.Lookup("About")
//	if errors.Is(err, registry.ErrNotFound) {
//	    desc, _ = reg.Lookup(reg.DefaultViewName())
//	}
package registry

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package view defines the contract between the router and the views it mounts.
//
// A View populates a MountPoint and returns a Handle. Handles may also
// implement Unmounter (release resources) and Interactive (accept input).
// Views are resolved from module paths by a Loader; Catalog is the
// compile-time implementation used by the application.
//
// # Usage
//
//	cat := view.NewCatalog()
//	cat.Register("views/about", func() (view.View, error) {
//	    return view.Static("navshell 1.0"), nil
//	})
//	v, err := cat.Load(ctx, "views/about")
//	h, err := v.Mount(ctx, pane)
package view

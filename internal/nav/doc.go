// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package nav implements the single-active-view router.
//
// A Router owns one mount point and at most one mounted view. Every
// navigation tears the current view down (Unmount, then clear) before the
// next one loads, and the address fragment always names the view the router
// is showing or trying to show.
//
// # Phases
//
//	Idle -> Mounting -> Active -> Transitioning -> Mounting -> ...
//	Mounting -> Idle           (load/mount failure, superseded)
//	Transitioning -> Idle      (shutdown)
//
// # Key Types
//
//   - Router: request queue, worker, teardown-then-mount cycle
//   - State, Snapshot: navigation state and read-only copies of it
//   - Fragment, MemoryFragment, FileFragment: the bookmarkable address
//   - Sync, Selector: keeps navigation controls in step with the router
//
// # Concurrency
//
// Requests (Navigate, Go, Back, Deliver, Shutdown) are queued and run one at
// a time on the router's worker. The newest navigation wins: queuing a
// request cancels the mount in progress, queued requests older than the
// newest are skipped, and a mount that completes late is unmounted at once.
// Losers receive ErrSuperseded.
//
// # Usage
//
//	r, err := nav.New(nav.Options{
//	    Registry:   reg,
//	    Loader:     catalog,
//	    MountPoint: pane,
//	    Fragment:   nav.NewFileFragment("~/.navshell/location", logger),
//	})
//	res, err := r.Start(ctx)          // mounts the view named by the fragment
//	res, err = r.Navigate(ctx, "About")
//	unbind := nav.NewSync(r).Bind(tabs)
//	defer r.Shutdown(context.Background())
package nav

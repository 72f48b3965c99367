// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package nav

import (
	"errors"
	"fmt"

	"github.com/jeranaias/navshell/internal/registry"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotFound is the registry's lookup error. The router recovers from it
	// by falling back to the default view.
	ErrNotFound = registry.ErrNotFound

	// ErrSuperseded is returned to a navigation that lost to a newer request.
	ErrSuperseded = errors.New("navigation superseded by a newer request")

	// ErrClosed is returned once Shutdown has been called.
	ErrClosed = errors.New("router is closed")

	// ErrInvalidTransition is returned for a phase change the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrNoActiveView is returned by Deliver when nothing is mounted.
	ErrNoActiveView = errors.New("no active view")

	// ErrNotInteractive is returned by Deliver when the active view does not
	// accept input.
	ErrNotInteractive = errors.New("active view does not accept input")

	// ErrNoHistory is returned by Back when there is no previous view.
	ErrNoHistory = errors.New("no previous view")
)

// =============================================================================
// TYPED ERRORS
// =============================================================================

// ModuleLoadError reports that a view's implementation could not be loaded.
type ModuleLoadError struct {
	View       string
	ModulePath string
	Err        error
}

func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("load view %s (%s): %v", e.View, e.ModulePath, e.Err)
}

func (e *ModuleLoadError) Unwrap() error { return e.Err }

// MountError reports that a loaded view failed to mount.
type MountError struct {
	View string
	Err  error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount view %s: %v", e.View, e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }

// TeardownError reports that a view's Unmount failed. It never prevents the
// next view from mounting.
type TeardownError struct {
	View string
	Err  error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("unmount view %s: %v", e.View, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panicking view hook.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsNavigationFailure reports whether err is a load or mount failure, the two
// errors that leave the router without an active view.
func IsNavigationFailure(err error) bool {
	var le *ModuleLoadError
	var me *MountError
	return errors.As(err, &le) || errors.As(err, &me)
}

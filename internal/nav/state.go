// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package nav

import (
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/navshell/internal/view"
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is the router's position in the teardown/mount cycle.
type Phase int

const (
	// PhaseIdle means no view is mounted.
	PhaseIdle Phase = iota
	// PhaseTransitioning means the previous view is being torn down.
	PhaseTransitioning
	// PhaseMounting means the next view is loading.
	PhaseMounting
	// PhaseActive means a view is mounted and rendered.
	PhaseActive
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseTransitioning:
		return "Transitioning"
	case PhaseMounting:
		return "Mounting"
	case PhaseActive:
		return "Active"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// validTransition reports whether the state machine allows from -> to.
func validTransition(from, to Phase) bool {
	switch from {
	case PhaseIdle:
		return to == PhaseMounting
	case PhaseActive:
		return to == PhaseTransitioning
	case PhaseTransitioning:
		// Idle only on shutdown or when nothing can be mounted
		return to == PhaseMounting || to == PhaseIdle
	case PhaseMounting:
		return to == PhaseActive || to == PhaseIdle
	default:
		return false
	}
}

// =============================================================================
// STATE
// =============================================================================

// Snapshot is a read-only copy of the navigation state.
type Snapshot struct {
	Phase      Phase
	ActiveName string
	// Mounted is true when a handle is held, which is exactly when Phase is Active.
	Mounted bool
	// Since is when the current phase was entered.
	Since time.Time
}

// State is the router's navigation state. Only the router mutates it; other
// goroutines read it through Snapshot.
type State struct {
	mu         sync.RWMutex
	phase      Phase
	activeName string
	handle     view.Handle
	since      time.Time
	now        func() time.Time
}

func newState(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{phase: PhaseIdle, since: now(), now: now}
}

// Snapshot returns a copy of the current state (thread-safe).
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Phase:      s.phase,
		ActiveName: s.activeName,
		Mounted:    s.handle != nil,
		Since:      s.since,
	}
}

// transition moves to phase to. Leaving Active drops the handle.
func (s *State) transition(to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(to)
}

func (s *State) transitionLocked(to Phase) error {
	if !validTransition(s.phase, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, to)
	}
	s.phase = to
	s.since = s.now()
	if to != PhaseActive {
		s.handle = nil
	}
	return nil
}

// activate stores h and enters Active. Only valid from Mounting.
func (s *State) activate(h view.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(PhaseActive); err != nil {
		return err
	}
	s.handle = h
	return nil
}

// detach leaves Active for Transitioning and hands the handle to the caller,
// who becomes responsible for unmounting it.
func (s *State) detach() (view.Handle, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, name := s.handle, s.activeName
	if err := s.transitionLocked(PhaseTransitioning); err != nil {
		return nil, "", err
	}
	return h, name, nil
}

// active returns the handle while Active.
func (s *State) active() (view.Handle, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.phase != PhaseActive {
		return nil, s.activeName, false
	}
	return s.handle, s.activeName, true
}

func (s *State) setName(name string) {
	s.mu.Lock()
	s.activeName = name
	s.mu.Unlock()
}

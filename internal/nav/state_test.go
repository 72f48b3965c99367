// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package nav

import (
	"errors"
	"testing"
	"time"
)

func TestValidTransition(t *testing.T) {
	valid := map[[2]Phase]bool{
		{PhaseIdle, PhaseMounting}:          true,
		{PhaseActive, PhaseTransitioning}:   true,
		{PhaseTransitioning, PhaseMounting}: true,
		{PhaseTransitioning, PhaseIdle}:     true,
		{PhaseMounting, PhaseActive}:        true,
		{PhaseMounting, PhaseIdle}:          true,
	}

	phases := []Phase{PhaseIdle, PhaseTransitioning, PhaseMounting, PhaseActive}
	for _, from := range phases {
		for _, to := range phases {
			want := valid[[2]Phase{from, to}]
			if got := validTransition(from, to); got != want {
				t.Errorf("validTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestState_TransitionErrors(t *testing.T) {
	s := newState(nil)

	err := s.transition(PhaseActive)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Idle -> Active: got %v, want ErrInvalidTransition", err)
	}
	if s.Snapshot().Phase != PhaseIdle {
		t.Errorf("phase changed on invalid transition")
	}
}

func TestState_HandleOnlyWhileActive(t *testing.T) {
	tick := time.Unix(0, 0)
	s := newState(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})

	if err := s.transition(PhaseMounting); err != nil {
		t.Fatal(err)
	}
	if s.Snapshot().Mounted {
		t.Error("Mounting must not hold a handle")
	}

	before := s.Snapshot().Since
	if err := s.activate("handle"); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if !snap.Mounted || snap.Phase != PhaseActive {
		t.Errorf("after activate: %+v", snap)
	}
	if !snap.Since.After(before) {
		t.Error("Since not advanced")
	}

	h, _, err := s.detach()
	if err != nil {
		t.Fatal(err)
	}
	if h != "handle" {
		t.Errorf("detach returned %v", h)
	}
	if s.Snapshot().Mounted {
		t.Error("Transitioning must not hold a handle")
	}

	if _, _, err := s.detach(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second detach: got %v", err)
	}
}

func TestPhase_String(t *testing.T) {
	tests := map[Phase]string{
		PhaseIdle:          "Idle",
		PhaseTransitioning: "Transitioning",
		PhaseMounting:      "Mounting",
		PhaseActive:        "Active",
		Phase(42):          "Phase(42)",
	}
	for p, want := range tests {
		if p.String() != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(p), p.String(), want)
		}
	}
}

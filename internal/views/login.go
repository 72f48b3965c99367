// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/navshell/internal/view"
)

// Login lockout settings.
const (
	maxLoginAttempts = 5
	loginLockout     = 30 * time.Second
)

type loginStep int

const (
	stepUsername loginStep = iota
	stepPassword
	stepCode
	stepDone
)

type loginView struct {
	deps Deps
}

func (v *loginView) Mount(ctx context.Context, mp view.MountPoint) (view.Handle, error) {
	if v.deps.Config.Login.Username == "" {
		mp.SetContent("Login is not configured.\n\nRun `navshell passwd` to set a username, password and optional authenticator code.")
		return struct{}{}, nil
	}
	h := &loginHandle{deps: v.deps, mp: mp}
	h.render("")
	return h, nil
}

// loginHandle walks username, password and TOTP code prompts.
type loginHandle struct {
	deps Deps
	mp   view.MountPoint

	mu          sync.Mutex
	step        loginStep
	username    string
	failures    int
	lockedUntil time.Time
}

// InputHint implements view.Hinter.
func (h *loginHandle) InputHint() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.step {
	case stepUsername:
		return "Username"
	case stepPassword:
		return "Password"
	case stepCode:
		return "6-digit authenticator code"
	default:
		return "Signed in"
	}
}

// HandleInput implements view.Interactive.
func (h *loginHandle) HandleInput(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	login := h.deps.Config.Login

	h.mu.Lock()
	now := h.deps.Now()
	if now.Before(h.lockedUntil) {
		wait := h.lockedUntil.Sub(now).Round(time.Second)
		h.mu.Unlock()
		return fmt.Errorf("too many failed attempts, try again in %s", wait)
	}

	var msg string
	prev := h.step
	switch h.step {
	case stepUsername:
		h.username = input
		h.step = stepPassword
	case stepPassword:
		// SECURITY: the password is checked even for an unknown username so
		// both failures look the same.
		err := bcrypt.CompareHashAndPassword([]byte(login.PasswordHash), []byte(input))
		if err != nil || h.username != login.Username {
			msg = h.failLocked(now)
			break
		}
		if login.TOTPSecret == "" {
			h.step = stepDone
		} else {
			h.step = stepCode
		}
	case stepCode:
		if !totp.Validate(input, login.TOTPSecret) {
			msg = h.failLocked(now)
			break
		}
		h.step = stepDone
	case stepDone:
		msg = "Already signed in."
	}
	signedIn := prev != stepDone && h.step == stepDone
	if signedIn {
		h.failures = 0
	}
	h.mu.Unlock()

	if signedIn {
		h.deps.Logger.Printf("[Login] %s signed in", login.Username)
	}
	h.render(msg)
	return nil
}

// failLocked records a failed attempt and restarts the prompts. h.mu is held.
func (h *loginHandle) failLocked(now time.Time) string {
	h.failures++
	h.step = stepUsername
	h.username = ""
	h.deps.Logger.Printf("[Login] failed attempt %d", h.failures)
	if h.failures >= maxLoginAttempts {
		h.failures = 0
		h.lockedUntil = now.Add(loginLockout)
		return fmt.Sprintf("Sign-in failed. Locked for %s.", loginLockout)
	}
	return "Sign-in failed."
}

func (h *loginHandle) render(msg string) {
	h.mu.Lock()
	step, user := h.step, h.username
	h.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("Sign in\n\n")
	switch step {
	case stepUsername:
		sb.WriteString("Enter your username.")
	case stepPassword:
		sb.WriteString(fmt.Sprintf("Password for %s.", user))
	case stepCode:
		sb.WriteString("Enter the code from your authenticator app.")
	case stepDone:
		sb.WriteString(fmt.Sprintf("[OK] Signed in as %s.", user))
	}
	if msg != "" {
		sb.WriteString("\n\n" + msg)
	}
	h.mp.SetContent(sb.String())
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navshell/internal/ui/styles"
	"github.com/jeranaias/navshell/internal/view"
)

type clockView struct {
	deps Deps
}

func (v *clockView) Mount(ctx context.Context, mp view.MountPoint) (view.Handle, error) {
	h := &clockHandle{deps: v.deps, mp: mp, done: make(chan struct{})}
	h.render()
	h.wg.Add(1)
	go h.run()
	return h, nil
}

// clockHandle owns a ticker goroutine that redraws the time.
type clockHandle struct {
	deps Deps
	mp   view.MountPoint
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func (h *clockHandle) run() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.deps.ClockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.render()
		}
	}
}

var (
	clockFace = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.Purple).
			Padding(1, 4)
	clockDate = lipgloss.NewStyle().Foreground(styles.TextSecondary)
)

func (h *clockHandle) render() {
	now := h.deps.Now()
	body := lipgloss.JoinVertical(lipgloss.Center,
		clockFace.Render(now.Format("15:04:05")),
		clockDate.Render(now.Format("Monday, January 2 2006")),
	)
	w, _ := h.mp.Size()
	if w > 0 {
		body = lipgloss.PlaceHorizontal(w, lipgloss.Center, body)
	}
	h.mp.SetContent(body)
}

// Unmount stops the ticker and waits for the goroutine to exit.
func (h *clockHandle) Unmount(ctx context.Context) error {
	h.once.Do(func() { close(h.done) })
	h.wg.Wait()
	return nil
}

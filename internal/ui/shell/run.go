// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/navshell/internal/nav"
)

// Run hosts the router in a full-screen TUI until the user quits or ctx is
// cancelled. The caller shuts the router down afterwards.
func Run(ctx context.Context, opts Options) error {
	m := NewModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	// Both callbacks run on the router worker or a view goroutine; Send
	// returns once the program has exited, so they never wedge the router.
	opts.Pane.SetNotify(func() { p.Send(ContentMsg{}) })
	defer opts.Pane.SetNotify(nil)

	unbind := nav.NewSync(opts.Router).Bind(m.Tabs())
	defer unbind()

	unsubscribe := opts.Router.Subscribe(func(ev nav.Event) {
		p.Send(RouterEventMsg{Event: ev})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

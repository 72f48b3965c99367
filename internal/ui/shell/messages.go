// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"github.com/jeranaias/navshell/internal/nav"
)

// ContentMsg reports that the pane content changed.
type ContentMsg struct{}

// RouterEventMsg carries a router event into the program.
type RouterEventMsg struct {
	Event nav.Event
}

// startedMsg reports the initial navigation.
type startedMsg struct {
	res nav.Result
	err error
}

// deliverResultMsg reports the outcome of delivering input to a view.
type deliverResultMsg struct {
	err error
}

// backResultMsg reports the outcome of a Back request.
type backResultMsg struct {
	err error
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/navshell/internal/view"
)

type homeView struct {
	deps Deps
}

func (v *homeView) Mount(ctx context.Context, mp view.MountPoint) (view.Handle, error) {
	mp.SetContent(renderMarkdown(v.deps.GlamourStyle, wrapWidth(mp), v.markdown()))
	return struct{}{}, nil
}

func (v *homeView) markdown() string {
	var sb strings.Builder
	sb.WriteString("# navshell\n\n")
	sb.WriteString("A single-pane shell. Every view mounts into this area and the previous one is torn down first.\n\n")

	if reg := v.deps.Registry; reg != nil {
		sb.WriteString("## Views\n\n")
		sb.WriteString("| # | View | Address |\n|---|---|---|\n")
		for i, d := range reg.ListNavigable() {
			sb.WriteString(fmt.Sprintf("| %d | %s | `#%s` |\n", i+1, d.Label, d.Name))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Getting around\n\n")
	sb.WriteString("- **tab** / **shift+tab** cycle views, **1-9** jump\n")
	sb.WriteString("- **ctrl+b** goes back, **ctrl+r** reloads the current view\n")
	sb.WriteString("- `navshell go NAME` navigates a running shell from another terminal\n")
	return sb.String()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/navshell/internal/view"
)

type aboutView struct {
	deps Deps
}

func (v *aboutView) Mount(ctx context.Context, mp view.MountPoint) (view.Handle, error) {
	cfg := v.deps.Config
	version := v.deps.Version
	if version == "" {
		version = "dev"
	}

	var sb strings.Builder
	sb.WriteString("# About navshell\n\n")
	sb.WriteString(fmt.Sprintf("Version **%s**\n\n", version))
	rows := [][2]string{
		{"Location file", cfg.LocationPath()},
		{"Watch location", fmt.Sprint(cfg.Router.WatchLocation)},
		{"History database", cfg.DatabasePath()},
		{"Log file", cfg.LogPath()},
		{"Ollama", cfg.Local.OllamaURL},
		{"Model", cfg.Local.OllamaModel},
		{"Mount timeout", cfg.MountTimeout().String()},
	}
	for _, r := range rows {
		val := r[1]
		if val == "" {
			val = "-"
		}
		sb.WriteString(fmt.Sprintf("- %s: `%s`\n", r[0], val))
	}
	if reg := v.deps.Registry; reg != nil {
		sb.WriteString(fmt.Sprintf("\n%d views registered, default **%s**.\n", reg.Len(), reg.DefaultViewName()))
	}

	mp.SetContent(renderMarkdown(v.deps.GlamourStyle, wrapWidth(mp), sb.String()))
	return struct{}{}, nil
}

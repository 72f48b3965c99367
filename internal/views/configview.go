// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"bytes"
	"context"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/navshell/internal/config"
	"github.com/jeranaias/navshell/internal/view"
)

type configView struct {
	deps Deps
}

// Mount shows the effective configuration as highlighted TOML.
// SECURITY: login secrets are redacted before rendering.
func (v *configView) Mount(ctx context.Context, mp view.MountPoint) (view.Handle, error) {
	data, err := config.EncodeTOML(v.deps.Config.Redacted())
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	path, _ := config.ConfigPathTOML()
	header := "# Effective configuration"
	if path != "" {
		header += " (" + path + ")"
	}
	mp.SetContent(header + "\n\n" + highlightTOML(string(data), v.deps.GlamourStyle))
	return struct{}{}, nil
}

// highlightTOML colors src for a 256-color terminal, returning src unchanged
// when highlighting fails.
func highlightTOML(src, theme string) string {
	lexer := lexers.Get("toml")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	name := "monokai"
	if theme == "light" {
		name = "github"
	}
	style := chromaStyles.Get(name)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return src
	}
	return buf.String()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navshell/internal/nav"
	"github.com/jeranaias/navshell/internal/ui/styles"
	"github.com/jeranaias/navshell/internal/view"
)

// ErrorInfo is a user-facing description of a navigation failure.
type ErrorInfo struct {
	Title  string
	Detail string
	Hint   string
}

// DescribeNavError turns a router error into something a user can act on.
func DescribeNavError(viewName string, err error) ErrorInfo {
	if viewName == "" {
		viewName = "view"
	}
	info := ErrorInfo{Detail: err.Error()}

	var le *nav.ModuleLoadError
	var me *nav.MountError
	var pe *nav.PanicError
	switch {
	case errors.As(err, &le) && errors.Is(err, view.ErrUnknownModule):
		info.Title = "Cannot load " + viewName
		info.Detail = "No implementation is registered for module " + le.ModulePath + "."
		info.Hint = "Check the module setting for this view in config.toml."
	case errors.As(err, &le):
		info.Title = "Cannot load " + viewName
		info.Detail = unwrapDetail(le.Err)
		info.Hint = "Press ctrl+r to retry or pick another tab."
	case errors.Is(err, context.DeadlineExceeded):
		info.Title = viewName + " timed out"
		info.Detail = "The view did not finish starting in time."
		info.Hint = "Raise router.mount_timeout_secs or press ctrl+r to retry."
	case errors.As(err, &pe):
		info.Title = viewName + " crashed while starting"
		info.Detail = pe.Error()
		info.Hint = "See the log file for the stack trace."
	case errors.As(err, &me):
		info.Title = viewName + " failed to start"
		info.Detail = unwrapDetail(me.Err)
		info.Hint = "Press ctrl+r to retry or pick another tab."
	default:
		info.Title = "Navigation failed"
	}
	return info
}

func unwrapDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// RenderErrorPanel renders the inline panel shown in place of a view that
// failed to load or mount.
func RenderErrorPanel(theme *styles.Theme, info ErrorInfo, width int) string {
	inner := width - 6
	if inner < 20 {
		inner = 20
	}
	lines := []string{
		theme.ErrorTitle.Render(styles.StatusIndicators.Error + " " + info.Title),
		"",
		theme.ErrorDetail.Width(inner).Render(info.Detail),
	}
	if info.Hint != "" {
		lines = append(lines, "", theme.ErrorHint.Width(inner).Render(info.Hint))
	}
	return theme.ErrorPanel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// PlainErrorPanel renders info as text for line-mode hosts.
func PlainErrorPanel(info ErrorInfo) string {
	var sb strings.Builder
	sb.WriteString(styles.StatusIndicators.Error + " " + info.Title + "\n")
	sb.WriteString("  " + info.Detail + "\n")
	if info.Hint != "" {
		sb.WriteString("  " + info.Hint + "\n")
	}
	return sb.String()
}

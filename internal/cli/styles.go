// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared output styles for CLI commands.
//
// Colors are disabled for non-TTY output and when NO_COLOR is set.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navshell/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(DetectTerminal().Profile)
}

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)

	// LabelStyle is used for left-aligned field labels
	LabelStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Width(18)

	// SuccessStyle is used for success messages
	SuccessStyle = lipgloss.NewStyle().Foreground(styles.Emerald).Bold(true)

	// ErrorStyle is used for error messages
	ErrorStyle = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)

	// WarningStyle is used for warnings
	WarningStyle = lipgloss.NewStyle().Foreground(styles.Amber)

	// DimStyle is used for secondary text
	DimStyle = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// Success formats a success line with the [OK] indicator.
func Success(msg string) string {
	return SuccessStyle.Render(styles.StatusIndicators.Success) + " " + msg
}

// Failure formats an error line with the [X] indicator.
func Failure(msg string) string {
	return ErrorStyle.Render(styles.StatusIndicators.Error) + " " + msg
}

// Warning formats a warning line with the [!] indicator.
func Warning(msg string) string {
	return WarningStyle.Render(styles.StatusIndicators.Warning) + " " + msg
}

// Field formats a "label  value" row.
func Field(label, value string) string {
	return LabelStyle.Render(label) + value
}

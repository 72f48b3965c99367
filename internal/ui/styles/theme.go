// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds all the styled components for the shell.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER / TABS
	// ==========================================================================

	Brand       lipgloss.Style
	TabBar      lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TabNumber   lipgloss.Style

	// ==========================================================================
	// CONTENT
	// ==========================================================================

	Content     lipgloss.Style
	Placeholder lipgloss.Style
	Spinner     lipgloss.Style

	// ==========================================================================
	// ERROR PANEL
	// ==========================================================================

	ErrorPanel  lipgloss.Style
	ErrorTitle  lipgloss.Style
	ErrorDetail lipgloss.Style
	ErrorHint   lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusView   lipgloss.Style
	StatusPhase  lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// TOASTS
	// ==========================================================================

	Toast     lipgloss.Style
	ToastHint lipgloss.Style

	// Generic text helpers
	Title lipgloss.Style
	Muted lipgloss.Style
}

// NewTheme creates a theme for mode ("auto", "dark" or "light"). Auto asks
// the terminal for its background.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Brand = lipgloss.NewStyle().Bold(true).Foreground(Cyan).Padding(0, 1)
	t.TabBar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)
	t.TabActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		Background(PurpleDeep).
		Padding(0, 1)
	t.TabInactive = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)
	t.TabNumber = lipgloss.NewStyle().Foreground(TextMuted)

	t.Content = lipgloss.NewStyle().Padding(0, 1)
	t.Placeholder = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)

	t.ErrorPanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 2)
	t.ErrorTitle = lipgloss.NewStyle().Bold(true).Foreground(Rose)
	t.ErrorDetail = lipgloss.NewStyle().Foreground(TextPrimary)
	t.ErrorHint = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(FocusRing).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Bold(true).Foreground(Cyan)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusView = lipgloss.NewStyle().Bold(true).Foreground(Purple).Background(SurfaceDim)
	t.StatusPhase = lipgloss.NewStyle().Foreground(Emerald).Background(SurfaceDim)
	t.StatusError = lipgloss.NewStyle().Bold(true).Foreground(Rose).Background(SurfaceDim)
	t.ShortcutKey = lipgloss.NewStyle().Bold(true).Foreground(Cyan).Background(SurfaceDim)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted).Background(SurfaceDim)

	t.Toast = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 2)
	t.ToastHint = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.Title = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}

// GlamourStyle returns the glamour standard style matching the background.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)

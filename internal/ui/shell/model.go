// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navshell/internal/logging"
	"github.com/jeranaias/navshell/internal/nav"
	"github.com/jeranaias/navshell/internal/ui/components"
	"github.com/jeranaias/navshell/internal/ui/styles"
)

const (
	tabsHeight   = 2
	statusHeight = 1
	inputHeight  = 3
)

// Options configures the shell.
type Options struct {
	Router *nav.Router
	Pane   *Pane
	Theme  *styles.Theme
	Brand  string
	Logger *log.Logger
}

// Model is the Bubble Tea model hosting the router's mount point.
type Model struct {
	ctx    context.Context
	router *nav.Router
	theme  *styles.Theme
	pane   *Pane
	tabs   *components.Tabs
	status *components.StatusBar
	toasts *components.ToastManager
	logger *log.Logger

	keys     KeyMap
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model

	snap        nav.Snapshot
	failure     error
	interactive bool
	showHelp    bool
	clears      int

	width  int
	height int
	ready  bool
}

// NewModel creates the shell model. The router must use opts.Pane as its
// mount point.
func NewModel(ctx context.Context, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}

	input := textinput.New()
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.CharLimit = 4096

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Spinner))

	status := components.NewStatusBar(theme)
	keys := DefaultKeyMap()
	status.SetShortcuts([]components.Shortcut{
		{Key: "tab", Desc: "next"},
		{Key: "C-b", Desc: "back"},
		{Key: "?", Desc: "help"},
		{Key: "C-c", Desc: "quit"},
	})

	return Model{
		ctx:      ctx,
		router:   opts.Router,
		theme:    theme,
		pane:     opts.Pane,
		tabs:     components.NewTabs(theme, opts.Brand),
		status:   status,
		toasts:   components.NewToastManager(),
		logger:   logging.OrDiscard(opts.Logger),
		keys:     keys,
		viewport: viewport.New(80, 20),
		input:    input,
		spinner:  sp,
		help:     help.New(),
		snap:     opts.Router.Snapshot(),
	}
}

// Tabs returns the tab bar so the host can bind it with nav.Sync.
func (m Model) Tabs() *components.Tabs {
	return m.tabs
}

// Init implements tea.Model. It starts the router, which performs the
// initial navigation from the location fragment.
func (m Model) Init() tea.Cmd {
	router, ctx := m.router, m.ctx
	return tea.Batch(
		m.spinner.Tick,
		components.ToastTickCmd(),
		func() tea.Msg {
			res, err := router.Start(ctx)
			return startedMsg{res: res, err: err}
		},
	)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.tabs.SetWidth(msg.Width)
		m.status.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.input.Width = msg.Width - 8
		m.ready = true

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case ContentMsg:
		m.syncContent()

	case RouterEventMsg:
		m.applyEvent(msg.Event)
		m.syncContent()

	case startedMsg:
		if msg.err != nil && !errors.Is(msg.err, nav.ErrClosed) {
			m.logger.Printf("[Shell] initial navigation failed err=%v", msg.err)
		}

	case deliverResultMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.toasts.AddError(msg.err.Error())
		}

	case backResultMsg:
		if errors.Is(msg.err, nav.ErrNoHistory) {
			m.toasts.AddStatus("No previous view")
		}

	case components.ToastTickMsg:
		m.toasts.Tick()
		cmds = append(cmds, components.ToastTickCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	default:
		if m.interactive && m.input.Focused() {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.layout()
	return m, batch(cmds)
}

// batch drops nil commands and avoids wrapping a single command.
func batch(cmds []tea.Cmd) tea.Cmd {
	valid := cmds[:0]
	for _, c := range cmds {
		if c != nil {
			valid = append(valid, c)
		}
	}
	switch len(valid) {
	case 0:
		return nil
	case 1:
		return valid[0]
	default:
		return tea.Batch(valid...)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// Global bindings first so navigation works while typing.
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.navigate(m.tabs.Next())
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.navigate(m.tabs.Prev())
		return m, nil
	case key.Matches(msg, m.keys.Back):
		return m, m.backCmd()
	case key.Matches(msg, m.keys.Retry):
		m.navigate(m.snap.ActiveName)
		return m, nil
	case key.Matches(msg, m.keys.Dismiss):
		m.toasts.DismissNewest()
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDn):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.interactive && m.input.Focused() {
		switch {
		case key.Matches(msg, m.keys.Submit):
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.deliverCmd(text)
		case key.Matches(msg, m.keys.Blur):
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.QuitQ):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, m.keys.Jump):
		if n, err := strconv.Atoi(msg.String()); err == nil {
			if name, ok := m.tabs.At(n); ok {
				m.navigate(name)
			}
		}
	case key.Matches(msg, m.keys.Focus):
		if m.interactive {
			return m, m.input.Focus()
		}
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.ScrollDn):
		m.viewport.LineDown(1)
	}
	return m, nil
}

// navigate queues a navigation without blocking the event loop.
func (m *Model) navigate(name string) {
	if name == "" {
		return
	}
	m.router.Go(name)
}

func (m Model) backCmd() tea.Cmd {
	router, ctx := m.router, m.ctx
	return func() tea.Msg {
		_, err := router.Back(ctx)
		return backResultMsg{err: err}
	}
}

func (m Model) deliverCmd(text string) tea.Cmd {
	router, ctx := m.router, m.ctx
	return func() tea.Msg {
		return deliverResultMsg{err: router.Deliver(ctx, text)}
	}
}

// applyEvent folds a router event into the model.
func (m *Model) applyEvent(ev nav.Event) {
	m.snap = ev.Snapshot

	switch ev.Kind {
	case nav.EventNavigated:
		m.failure = nil
		if ev.Result.Fallback {
			m.toasts.AddWarning(fmt.Sprintf("No view named %q, showing %s", ev.Result.Requested, ev.Result.Name))
		}
		if ev.Result.TeardownErr != nil {
			m.toasts.AddWarning("Previous view did not close cleanly: " + ev.Result.TeardownErr.Err.Error())
		}
	case nav.EventFailed:
		if nav.IsNavigationFailure(ev.Err) {
			m.failure = ev.Err
			info := components.DescribeNavError(ev.Result.Name, ev.Err)
			m.toasts.AddError(info.Title + ": " + info.Detail)
		} else if !errors.Is(ev.Err, context.Canceled) {
			m.toasts.AddError(ev.Err.Error())
		}
	}

	hint, interactive := m.router.InputHint()
	if interactive && !m.interactive {
		m.input.Focus()
	}
	if !interactive {
		m.input.Blur()
		m.input.Reset()
	}
	m.interactive = interactive
	if hint == "" {
		hint = "Type and press Enter"
	}
	m.input.Placeholder = hint

	label := ev.Snapshot.ActiveName
	if d, err := m.router.Registry().Lookup(label); err == nil {
		label = d.Label
	}
	m.status.SetState(ev.Snapshot, label, m.failure != nil)
}

// syncContent copies the pane content into the viewport. A clear since the
// last sync means a new view, so scrolling restarts at the top.
func (m *Model) syncContent() {
	content, clears := m.pane.Content()
	m.viewport.SetContent(content)
	if clears != m.clears {
		m.clears = clears
		m.viewport.GotoTop()
	}
}

// layout sizes the viewport and pane to the space the chrome leaves.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	h := m.height - tabsHeight - statusHeight
	if m.interactive {
		h -= inputHeight
	}
	if m.showHelp {
		h -= lipgloss.Height(m.help.View(m.keys))
	}
	if toasts := m.toastView(); toasts != "" {
		h -= lipgloss.Height(toasts)
	}
	if h < 1 {
		h = 1
	}
	w := m.width - 2
	if w < 1 {
		w = 1
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.pane.SetSize(w, h)
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting navshell..."
	}

	parts := []string{m.tabs.View(), m.bodyView()}
	if toasts := m.toastView(); toasts != "" {
		parts = append(parts, toasts)
	}
	if m.interactive {
		parts = append(parts, m.theme.InputContainer.Width(m.width-2).Render(m.input.View()))
	}
	parts = append(parts, m.status.View())
	if m.showHelp {
		parts = append(parts, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) bodyView() string {
	box := m.theme.Content.Width(m.width).Height(m.viewport.Height).MaxHeight(m.viewport.Height)

	switch {
	case m.failure != nil && m.snap.Phase == nav.PhaseIdle:
		info := components.DescribeNavError(m.snap.ActiveName, m.failure)
		return box.Render(components.RenderErrorPanel(m.theme, info, m.width-2))
	case m.snap.Phase == nav.PhaseMounting || m.snap.Phase == nav.PhaseTransitioning:
		return box.Render(m.spinner.View() + " Loading " + m.snap.ActiveName + "...")
	}

	if content, _ := m.pane.Content(); content == "" {
		return box.Render(m.theme.Placeholder.Render("(nothing to show)"))
	}
	return box.Render(m.viewport.View())
}

func (m Model) toastView() string {
	toasts := m.toasts.Toasts()
	if len(toasts) == 0 {
		return ""
	}
	return components.RenderToastStack(m.theme, toasts, m.width, time.Now())
}

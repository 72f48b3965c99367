// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Line-mode host for the router.
//
// The REPL is the fallback for terminals without full-screen support. The
// mount point is a text buffer; after every command the REPL waits for the
// content to settle and prints what changed.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/navshell/internal/config"
	"github.com/jeranaias/navshell/internal/nav"
	"github.com/jeranaias/navshell/internal/ui/components"
	"github.com/jeranaias/navshell/internal/view"
)

// Settle windows: how long content must stay unchanged before the REPL
// prints it and prompts again.
const (
	navigateQuiet = 250 * time.Millisecond
	deliverQuiet  = 2 * time.Second
)

// =============================================================================
// LINE PANE
// =============================================================================

// linePane is the REPL's mount point: a view.Buffer that counts changes
// and signals them on a channel. Views may write from any goroutine.
type linePane struct {
	*view.Buffer
	version atomic.Int64
	changed chan struct{}
}

func newLinePane(width int) *linePane {
	// Line mode has no fixed height.
	p := &linePane{Buffer: view.NewBuffer(width, 0), changed: make(chan struct{}, 1)}
	p.OnChange(func(string) {
		p.version.Add(1)
		select {
		case p.changed <- struct{}{}:
		default:
		}
	})
	return p
}

// snapshot reads the version before the content, so a write racing the read
// leaves the version stale and the next flush picks it up.
func (p *linePane) snapshot() (string, int64) {
	version := p.version.Load()
	return p.Content(), version
}

// =============================================================================
// REPL
// =============================================================================

// REPL reads commands and input lines and drives a router.
type REPL struct {
	router *nav.Router
	pane   *linePane
	out    io.Writer

	printed        []string
	printedVersion int64

	navigateQuiet time.Duration
	deliverQuiet  time.Duration
}

func newREPL(router *nav.Router, pane *linePane, out io.Writer) *REPL {
	return &REPL{
		router:        router,
		pane:          pane,
		out:           out,
		navigateQuiet: navigateQuiet,
		deliverQuiet:  deliverQuiet,
	}
}

// HandleREPL runs the line-mode shell until :quit, EOF or ctx is done.
func HandleREPL(ctx context.Context, args Args, w io.Writer) error {
	app, err := NewApp(args, true)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.CheckStartView(); err != nil {
		return err
	}

	tty := DetectTerminal()
	pane := newLinePane(tty.Width)
	router, err := app.NewRouter(pane, tty.GlamourStyle(app.Config.UI.Theme))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := router.Shutdown(sctx); err != nil {
			app.Logger.Printf("[REPL] shutdown: %v", err)
		}
	}()

	r := newREPL(router, pane, w)
	fmt.Fprintln(w, TitleStyle.Render("navshell "+Version)+DimStyle.Render("  :help for commands"))
	res, err := router.Start(ctx)
	r.report(res.Name, err)
	r.follow(ctx, r.navigateQuiet)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(r.complete)

	historyFile := replHistoryPath()
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		// SECURITY: history may contain chat input; owner-only permissions.
		if f, err := os.OpenFile(historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for ctx.Err() == nil {
		input, err := line.Prompt(r.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(w)
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if quit := r.Execute(ctx, input); quit {
			return nil
		}
	}
	return nil
}

func replHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "repl_history")
}

// Execute runs one input line and prints the outcome. It returns true when
// the user asked to quit.
func (r *REPL) Execute(ctx context.Context, input string) (quit bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		r.flush()
		return false
	}
	if !strings.HasPrefix(input, ":") {
		r.deliver(ctx, input)
		return false
	}

	fields := strings.Fields(input)
	switch fields[0] {
	case ":q", ":quit", ":exit":
		return true
	case ":go", ":g":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, Failure("usage: :go VIEW"))
			return false
		}
		name := strings.Join(fields[1:], " ")
		res, err := r.router.Navigate(ctx, nav.ParseFragment(name))
		r.report(res.Name, err)
		if res.Fallback {
			msg := fmt.Sprintf("No view named %q, showing %s", res.Requested, res.Name)
			if s := Suggest(res.Requested, r.router.Registry().Names()); s != "" {
				msg += " (did you mean " + s + "?)"
			}
			fmt.Fprintln(r.out, Warning(msg))
		}
		r.follow(ctx, r.navigateQuiet)
	case ":back", ":b":
		res, err := r.router.Back(ctx)
		if errors.Is(err, nav.ErrNoHistory) {
			fmt.Fprintln(r.out, Warning("No previous view"))
			return false
		}
		r.report(res.Name, err)
		r.follow(ctx, r.navigateQuiet)
	case ":reload", ":r":
		snap := r.router.Snapshot()
		res, err := r.router.Navigate(ctx, snap.ActiveName)
		r.report(res.Name, err)
		r.follow(ctx, r.navigateQuiet)
	case ":views", ":ls":
		r.printViews()
	case ":where":
		snap := r.router.Snapshot()
		fmt.Fprintf(r.out, "%s (%s)\n", nav.FormatFragment(snap.ActiveName), snap.Phase)
	case ":help", ":h", ":?":
		fmt.Fprintln(r.out, replHelp)
	default:
		fmt.Fprintln(r.out, Failure(fmt.Sprintf("unknown command %s (:help lists commands)", fields[0])))
	}
	return false
}

const replHelp = `  :go VIEW   navigate (Tab completes view names)
  :back      previous view
  :reload    remount the current view
  :views     list views
  :where     show the current location
  :quit      exit
  Other lines go to the active view. An empty line shows new output.`

func (r *REPL) deliver(ctx context.Context, input string) {
	if _, interactive := r.router.InputHint(); !interactive {
		fmt.Fprintln(r.out, Warning(fmt.Sprintf("%s takes no input; try :go VIEW", r.router.Snapshot().ActiveName)))
		return
	}
	if err := r.router.Deliver(ctx, input); err != nil {
		fmt.Fprintln(r.out, Failure(err.Error()))
	}
	r.follow(ctx, r.deliverQuiet)
}

// report prints navigation failures as an error panel.
func (r *REPL) report(name string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, nav.ErrSuperseded), errors.Is(err, context.Canceled):
	case nav.IsNavigationFailure(err):
		fmt.Fprintln(r.out, components.PlainErrorPanel(components.DescribeNavError(name, err)))
	default:
		fmt.Fprintln(r.out, Failure(err.Error()))
	}
}

// follow waits until the pane has been quiet for the given window, then
// prints what changed.
func (r *REPL) follow(ctx context.Context, quiet time.Duration) {
	timer := time.NewTimer(quiet)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			r.flush()
			return
		case <-r.pane.changed:
			timer.Reset(quiet)
		case <-timer.C:
			r.flush()
			return
		}
	}
}

// flush prints the pane content the user has not seen. Content that extends
// what was printed shows only the new lines; anything else is reprinted
// under a rule.
func (r *REPL) flush() {
	content, version := r.pane.snapshot()
	if version == r.printedVersion {
		return
	}
	r.printedVersion = version

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	common := 0
	for common < len(lines) && common < len(r.printed) && lines[common] == r.printed[common] {
		common++
	}
	if common == 0 {
		fmt.Fprintln(r.out, DimStyle.Render(strings.Repeat("-", 40)))
	}
	if common < len(lines) {
		fmt.Fprintln(r.out, strings.Join(lines[common:], "\n"))
	}
	r.printed = lines
}

func (r *REPL) printViews() {
	active := r.router.Snapshot().ActiveName
	for i, d := range r.router.Registry().ListNavigable() {
		marker := "  "
		if d.Name == active {
			marker = "* "
		}
		fmt.Fprintf(r.out, "%s%d %s\n", marker, i+1, d.Label)
	}
}

func (r *REPL) prompt() string {
	name := r.router.Snapshot().ActiveName
	if name == "" {
		name = "-"
	}
	if hint, ok := r.router.InputHint(); ok && hint != "" {
		return fmt.Sprintf("%s (%s)> ", name, hint)
	}
	return name + "> "
}

// complete offers REPL commands and, after :go, view names.
func (r *REPL) complete(line string) []string {
	var out []string
	if strings.HasPrefix(line, ":go ") {
		prefix := strings.TrimPrefix(line, ":go ")
		for _, name := range r.router.Registry().Names() {
			if strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
				out = append(out, ":go "+name)
			}
		}
		return out
	}
	for _, c := range []string{":go ", ":back", ":reload", ":views", ":where", ":help", ":quit"} {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// navshell - A navigable terminal shell of views.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/navshell/internal/cli"
	"github.com/jeranaias/navshell/internal/ui/shell"
	"github.com/jeranaias/navshell/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// routerShutdownTimeout bounds the final unmount when the TUI exits.
const routerShutdownTimeout = 5 * time.Second

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cmd, args)
	stop()
	cli.HandleErrorAndExit(err)
}

// run routes a parsed command to its handler.
func run(ctx context.Context, cmd cli.Command, args cli.Args) error {
	if err := args.Parser.Err(); err != nil {
		return err
	}
	switch cmd {
	case cli.CmdTUI:
		return runTUI(ctx, args)
	case cli.CmdREPL:
		return cli.HandleREPL(ctx, args, os.Stdout)
	case cli.CmdServe:
		return cli.HandleServe(ctx, args, os.Stdout)
	case cli.CmdViews:
		return cli.HandleViews(args, os.Stdout)
	case cli.CmdGo:
		return cli.HandleGo(args, os.Stdout)
	case cli.CmdWhere:
		return cli.HandleWhere(args, os.Stdout)
	case cli.CmdHistory:
		return cli.HandleHistory(ctx, args, os.Stdout)
	case cli.CmdConfig:
		return cli.HandleConfig(args, os.Stdout)
	case cli.CmdPasswd:
		return cli.HandlePasswd(args, os.Stdout)
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
	default:
		cli.PrintUsage(os.Stderr)
		return cli.ErrUsage("navshell [command]")
	}
	return nil
}

// runTUI hosts the router in the full-screen shell. The router starts from
// the stored location (or --view) once the program is running.
func runTUI(ctx context.Context, args cli.Args) error {
	if err := cli.DetectTerminal().RequireInteractive("run the shell"); err != nil {
		return err
	}

	app, err := cli.NewApp(args, false)
	if err != nil {
		return err
	}
	defer app.Close()
	if err := app.CheckStartView(); err != nil {
		return err
	}

	theme := styles.NewTheme(app.Config.UI.Theme)
	pane := shell.NewPane(80, 24)
	router, err := app.NewRouter(pane, theme.GlamourStyle())
	if err != nil {
		return err
	}

	runErr := shell.Run(ctx, shell.Options{
		Router: router,
		Pane:   pane,
		Theme:  theme,
		Brand:  "navshell",
		Logger: app.Logger,
	})

	sctx, cancel := context.WithTimeout(context.Background(), routerShutdownTimeout)
	defer cancel()
	if err := router.Shutdown(sctx); err != nil {
		app.Logger.Printf("[TUI] router shutdown: %v", err)
	}
	return runErr
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - The chat and navigation HTTP API.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/navshell/internal/server"
)

// shutdownTimeout bounds graceful server shutdown.
const shutdownTimeout = 5 * time.Second

// HandleServe runs the HTTP API until ctx is cancelled.
func HandleServe(ctx context.Context, args Args, w io.Writer) error {
	app, err := NewApp(args, true)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	opts := server.Options{
		Port:           args.Parser.Int("port", cfg.Server.Port),
		RateLimit:      cfg.Server.RateLimitPerSec,
		RateBurst:      cfg.Server.RateBurst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Version:        Version,
		Registry:       app.Registry,
		Location:       app.Fragment(),
		Chat:           app.Chat(),
		Logger:         app.Logger,
	}
	if st, err := app.Store(); err != nil {
		fmt.Fprintln(w, Warning("history disabled: "+err.Error()))
	} else {
		opts.Store = st
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.Logger.Printf("[Server] shutdown: %v", err)
		}
	}()

	fmt.Fprintln(w, Success(fmt.Sprintf("Serving on http://127.0.0.1:%d (Ctrl+C to stop)", srv.Port())))
	return srv.ListenAndServe()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the navshell HTTP API.
//
// The API lets other programs drive a running shell (by writing its location
// fragment) and talk to the local model with persisted history.
//
// # Endpoints
//
//   - GET  /health             - Health check (Ollama and database status)
//   - GET  /api/views          - Navigable views from the registry
//   - GET  /api/location       - Current location fragment
//   - PUT  /api/location       - Navigate a running shell
//   - POST /api/chat           - Chat with the local model, persisting both turns
//   - GET  /api/history        - Conversations (?q= search, ?limit=)
//   - GET  /api/history/{id}   - One conversation (?format=json|markdown|html)
//
// # Middleware
//
//   - Panic recovery and request logging
//   - Security headers and CORS for allowed origins
//   - Per-IP token bucket rate limiting (golang.org/x/time/rate)
//
// # Usage
//
//	srv, err := server.New(server.Options{
//		Registry: reg,
//		Location: nav.NewFileFragment(cfg.LocationPath(), logger),
//		Chat:     ollama.NewClient(),
//		Store:    store,
//	})
//	go srv.ListenAndServe()
//	defer srv.Shutdown(ctx)
package server

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// The chat view streams replies through it and the proxy server forwards
// /api/chat requests with it.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - Message: Chat message with role and content
//   - StreamReader: NDJSON reader for streaming chat responses
//   - StreamAccumulator: Collects chunks and timing statistics
//   - ClientError: Typed error; match with IsNotRunning, IsTimeout, IsModelNotFound
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: cfg.Local.OllamaURL})
//	err := client.ChatStream(ctx, "", []ollama.Message{ollama.NewUserMessage("hi")},
//	    func(chunk ollama.StreamChunk) { fmt.Print(chunk.Content) })
package ollama

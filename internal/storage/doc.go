// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat history persistence for navshell.
//
// Conversations and their messages live in a SQLite database (pure-Go
// modernc.org/sqlite driver, WAL mode, one connection).
//
// # Key Types
//
//   - Store: database handle with conversation and message operations
//   - Conversation: session metadata with message count and preview
//   - Message: one ordered turn
//
// # Usage
//
//	store, err := storage.Open("~/.navshell/history.db")
//	conv, err := store.CreateConversation(ctx, "", "llama3")
//	_, err = store.AppendMessage(ctx, conv.ID, storage.Message{Role: "user", Content: "hi"})
//	msgs, err := store.Messages(ctx, conv.ID)
package storage

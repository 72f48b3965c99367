// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jeranaias/navshell/internal/storage"
	"github.com/jeranaias/navshell/internal/view"
)

// ErrHistoryUnavailable is returned by Mount when no store is wired.
var ErrHistoryUnavailable = errors.New("history is not configured: no database")

const historyLimit = 50

type historyView struct {
	deps Deps
}

func (v *historyView) Mount(ctx context.Context, mp view.MountPoint) (view.Handle, error) {
	if v.deps.Store == nil {
		return nil, ErrHistoryUnavailable
	}
	h := &historyHandle{deps: v.deps, mp: mp}
	if err := h.list(ctx, ""); err != nil {
		return nil, err
	}
	return h, nil
}

// historyHandle browses stored conversations. Input is a search query, a
// row number to open, or one of /list and /delete N.
type historyHandle struct {
	deps Deps
	mp   view.MountPoint

	mu    sync.Mutex
	rows  []storage.Conversation
	query string
}

// InputHint implements view.Hinter.
func (h *historyHandle) InputHint() string {
	return "Search, a number to open, /list or /delete N"
}

// HandleInput implements view.Interactive.
func (h *historyHandle) HandleInput(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	fields := strings.Fields(input)
	switch {
	case input == "" || input == "/list":
		return h.list(ctx, "")
	case fields[0] == "/delete":
		if len(fields) != 2 {
			return fmt.Errorf("usage: /delete N")
		}
		conv, err := h.row(fields[1])
		if err != nil {
			return err
		}
		if err := h.deps.Store.DeleteConversation(ctx, conv.ID); err != nil {
			return err
		}
		h.mu.Lock()
		q := h.query
		h.mu.Unlock()
		return h.list(ctx, q)
	case strings.HasPrefix(input, "/"):
		return fmt.Errorf("unknown command %s", fields[0])
	}
	if _, err := strconv.Atoi(input); err == nil {
		conv, err := h.row(input)
		if err != nil {
			return err
		}
		return h.open(ctx, conv.ID)
	}
	return h.list(ctx, input)
}

func (h *historyHandle) list(ctx context.Context, query string) error {
	rows, err := h.deps.Store.Search(ctx, query, historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	h.mu.Lock()
	h.rows = rows
	h.query = query
	h.mu.Unlock()

	var sb strings.Builder
	if query == "" {
		sb.WriteString("Conversation history\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("Conversations matching %q\n\n", query))
	}
	if len(rows) == 0 && query != "" {
		sb.WriteString("No matches.\n")
	} else {
		table := strings.Split(strings.TrimRight(storage.FormatConversationList(rows), "\n"), "\n")
		for i, line := range table {
			// Two header lines precede the rows.
			if len(rows) == 0 || i < 2 {
				sb.WriteString("     " + line + "\n")
				continue
			}
			sb.WriteString(fmt.Sprintf("%3d  %s\n", i-1, line))
		}
	}
	h.mp.SetContent(strings.TrimRight(sb.String(), "\n"))
	return nil
}

func (h *historyHandle) row(arg string) (storage.Conversation, error) {
	n, err := strconv.Atoi(arg)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil || n < 1 || n > len(h.rows) {
		return storage.Conversation{}, fmt.Errorf("no conversation #%s", arg)
	}
	return h.rows[n-1], nil
}

func (h *historyHandle) open(ctx context.Context, id string) error {
	conv, err := h.deps.Store.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	msgs, err := h.deps.Store.Messages(ctx, id)
	if err != nil {
		return err
	}
	md := storage.ExportMarkdown(conv, msgs)
	h.mp.SetContent(renderMarkdown(h.deps.GlamourStyle, wrapWidth(h.mp), md))
	return nil
}

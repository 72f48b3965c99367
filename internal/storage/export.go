// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/navshell/internal/util"
)

// =============================================================================
// EXPORT / FORMATTING
// =============================================================================

// ExportMarkdown renders a conversation as Markdown with role headings.
func ExportMarkdown(c *Conversation, msgs []Message) string {
	var sb strings.Builder
	title := c.Title
	if title == "" {
		title = "Untitled conversation"
	}
	sb.WriteString("# " + title + "\n\n")
	sb.WriteString("_" + c.CreatedAt.Format(time.RFC3339))
	if c.Model != "" {
		sb.WriteString(" · " + c.Model)
	}
	sb.WriteString("_\n\n---\n\n")

	for _, msg := range msgs {
		role := "**User**"
		switch msg.Role {
		case "assistant":
			role = "**Assistant**"
		case "system":
			role = "**System**"
		}
		sb.WriteString(role + " (" + msg.CreatedAt.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// FormatConversationList formats conversations as a fixed-width table.
func FormatConversationList(convs []Conversation) string {
	if len(convs) == 0 {
		return "No conversations yet."
	}

	var sb strings.Builder
	sb.WriteString(util.PadRight("ID", 10) + " " + util.PadRight("Updated", 17) + " " + util.PadRight("Msgs", 5) + " Title\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	for _, c := range convs {
		title := c.Title
		if title == "" {
			title = c.Preview
		}
		sb.WriteString(util.PadRight(util.TruncateRunes(c.ID, 8), 10) + " " +
			util.PadRight(c.UpdatedAt.Local().Format("2006-01-02 15:04"), 17) + " " +
			util.PadRight(fmt.Sprint(c.MessageCount), 5) + " " +
			util.TruncateWidth(title, 40) + "\n")
	}
	return sb.String()
}

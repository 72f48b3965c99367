// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jeranaias/navshell/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// Conversation is one chat session.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview,omitempty"`
}

// Message is one turn in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"` // "user", "assistant", "system"
	Content        string    `json:"content"`
	TokenCount     int       `json:"token_count,omitempty"`
	DurationMs     int64     `json:"duration_ms,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ErrConversationNotFound is returned when a conversation ID doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// STORE
// =============================================================================

// Store persists conversations in SQLite. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	path = util.ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateConversation starts a new conversation.
func (s *Store) CreateConversation(ctx context.Context, title, model string) (*Conversation, error) {
	now := s.now().UTC()
	c := &Conversation{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, model, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Model, now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

// GetConversation returns a conversation with its message count and preview.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	rows, err := s.queryConversations(ctx, `WHERE c.id = ?`, []interface{}{id}, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrConversationNotFound
	}
	return &rows[0], nil
}

// ListConversations returns conversations, most recently updated first.
// limit <= 0 means no limit.
func (s *Store) ListConversations(ctx context.Context, limit int) ([]Conversation, error) {
	return s.queryConversations(ctx, "", nil, limit)
}

// Search returns conversations whose title or any message contains query
// (case-insensitive). An empty query lists everything.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Conversation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListConversations(ctx, limit)
	}
	like := "%" + escapeLike(strings.ToLower(query)) + "%"
	return s.queryConversations(ctx,
		`WHERE lower(c.title) LIKE ? ESCAPE '\' OR EXISTS (
			SELECT 1 FROM messages m2 WHERE m2.conversation_id = c.id AND lower(m2.content) LIKE ? ESCAPE '\')`,
		[]interface{}{like, like}, limit)
}

func (s *Store) queryConversations(ctx context.Context, where string, args []interface{}, limit int) ([]Conversation, error) {
	q := `SELECT c.id, c.title, c.model, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
		COALESCE((SELECT m.content FROM messages m WHERE m.conversation_id = c.id AND m.role = 'user' ORDER BY m.seq LIMIT 1), '')
		FROM conversations c ` + where + ` ORDER BY c.updated_at DESC, c.id`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		var created, updated int64
		if err := rows.Scan(&c.ID, &c.Title, &c.Model, &created, &updated, &c.MessageCount, &c.Preview); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.CreatedAt = time.Unix(0, created).UTC()
		c.UpdatedAt = time.Unix(0, updated).UTC()
		c.Preview = util.TruncateRunes(util.SingleLine(c.Preview), 80)
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// AppendMessage adds a message to the end of a conversation. The first user
// message also becomes the title of an untitled conversation.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, msg Message) (*Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var title string
	err = tx.QueryRowContext(ctx, `SELECT title FROM conversations WHERE id = ?`, conversationID).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`, conversationID).Scan(&seq); err != nil {
		return nil, fmt.Errorf("next seq: %w", err)
	}

	now := s.now().UTC()
	msg.ID = uuid.NewString()
	msg.ConversationID = conversationID
	msg.CreatedAt = now

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, seq, role, content, token_count, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, conversationID, seq, msg.Role, msg.Content, msg.TokenCount, msg.DurationMs, now.UnixNano()); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if title == "" && msg.Role == "user" {
		title = util.TruncateRunes(util.SingleLine(msg.Content), 60)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ?, title = ? WHERE id = ?`,
		now.UnixNano(), title, conversationID); err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &msg, nil
}

// Messages returns a conversation's messages in order.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, token_count, duration_ms, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m := Message{ConversationID: conversationID}
		var created int64
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.TokenCount, &m.DurationMs, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

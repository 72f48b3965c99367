// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"log"
	"time"

	"github.com/jeranaias/navshell/internal/config"
	"github.com/jeranaias/navshell/internal/logging"
	"github.com/jeranaias/navshell/internal/ollama"
	"github.com/jeranaias/navshell/internal/registry"
	"github.com/jeranaias/navshell/internal/storage"
	"github.com/jeranaias/navshell/internal/view"
)

// Module paths of the built-in views.
const (
	ModuleHome    = "views/home"
	ModuleAbout   = "views/about"
	ModuleChat    = "views/chat"
	ModuleHistory = "views/history"
	ModuleClock   = "views/clock"
	ModuleConfig  = "views/config"
	ModuleLogin   = "views/login"
)

// ChatStreamer is the part of the Ollama client the chat view needs.
type ChatStreamer interface {
	ChatStream(ctx context.Context, model string, messages []ollama.Message, callback ollama.StreamCallback) error
	DefaultModel() string
	BaseURL() string
}

// HistoryStore is the part of the history store the views need.
type HistoryStore interface {
	CreateConversation(ctx context.Context, title, model string) (*storage.Conversation, error)
	GetConversation(ctx context.Context, id string) (*storage.Conversation, error)
	Search(ctx context.Context, query string, limit int) ([]storage.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, msg storage.Message) (*storage.Message, error)
	Messages(ctx context.Context, conversationID string) ([]storage.Message, error)
	DeleteConversation(ctx context.Context, id string) error
}

// Deps are the collaborators the built-in views share. Chat and Store may
// be nil; the views that need them then fail to mount with a clear error.
type Deps struct {
	Config   *config.Config
	Registry *registry.Registry
	Chat     ChatStreamer
	Store    HistoryStore
	Version  string

	// GlamourStyle is a glamour standard style ("dark", "light", "notty").
	GlamourStyle string

	Logger        *log.Logger
	Now           func() time.Time
	ClockInterval time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.GlamourStyle == "" {
		d.GlamourStyle = "dark"
	}
	d.Logger = logging.OrDiscard(d.Logger)
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.ClockInterval <= 0 {
		d.ClockInterval = time.Second
	}
	return d
}

// NewCatalog returns a catalog with every built-in view registered under its
// module path. Each navigation gets a fresh view value.
func NewCatalog(deps Deps) *view.Catalog {
	deps = deps.withDefaults()
	cat := view.NewCatalog()
	cat.Register(ModuleHome, func() (view.View, error) { return &homeView{deps: deps}, nil })
	cat.Register(ModuleAbout, func() (view.View, error) { return &aboutView{deps: deps}, nil })
	cat.Register(ModuleChat, func() (view.View, error) { return &chatView{deps: deps}, nil })
	cat.Register(ModuleHistory, func() (view.View, error) { return &historyView{deps: deps}, nil })
	cat.Register(ModuleClock, func() (view.View, error) { return &clockView{deps: deps}, nil })
	cat.Register(ModuleConfig, func() (view.View, error) { return &configView{deps: deps}, nil })
	cat.Register(ModuleLogin, func() (view.View, error) { return &loginView{deps: deps}, nil })
	return cat
}

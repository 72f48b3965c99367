// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jeranaias/navshell/internal/logging"
	"github.com/jeranaias/navshell/internal/nav"
	"github.com/jeranaias/navshell/internal/ollama"
	"github.com/jeranaias/navshell/internal/registry"
	"github.com/jeranaias/navshell/internal/storage"
)

// DefaultPort is the default HTTP server port.
const DefaultPort = 8787

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ============================================================================
// DEPENDENCIES
// ============================================================================

// ChatClient is the subset of the Ollama client the server uses.
type ChatClient interface {
	CheckRunning(ctx context.Context) error
	Chat(ctx context.Context, model string, messages []ollama.Message) (*ollama.ChatResponse, error)
	DefaultModel() string
}

// HistoryStore is the subset of the chat history store the server uses.
type HistoryStore interface {
	Ping(ctx context.Context) error
	CreateConversation(ctx context.Context, title, model string) (*storage.Conversation, error)
	GetConversation(ctx context.Context, id string) (*storage.Conversation, error)
	Search(ctx context.Context, query string, limit int) ([]storage.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, msg storage.Message) (*storage.Message, error)
	Messages(ctx context.Context, conversationID string) ([]storage.Message, error)
}

// Options configures a Server.
type Options struct {
	Port           int
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
	Version        string

	Registry *registry.Registry
	Location nav.Fragment
	Chat     ChatClient
	Store    HistoryStore
	Logger   *log.Logger
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the navshell HTTP API.
type Server struct {
	opts    Options
	logger  *log.Logger
	mux     *http.ServeMux
	limiter *RateLimiter
	md      goldmark.Markdown
	policy  *bluemonday.Policy
	started time.Time

	mu     sync.Mutex
	server *http.Server
}

// New creates a Server. Registry and Location are required; Chat and Store
// may be nil, in which case their endpoints answer 503.
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("server: registry is required")
	}
	if opts.Location == nil {
		return nil, errors.New("server: location fragment is required")
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}

	s := &Server{
		opts:    opts,
		logger:  logging.OrDiscard(opts.Logger),
		mux:     http.NewServeMux(),
		limiter: NewRateLimiter(opts.RateLimit, opts.RateBurst),
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:  bluemonday.UGCPolicy(),
		started: time.Now(),
	}
	s.setupRoutes()
	return s, nil
}

// Port returns the server port.
func (s *Server) Port() int {
	return s.opts.Port
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/views", s.handleViews)
	s.mux.HandleFunc("GET /api/location", s.handleGetLocation)
	s.mux.HandleFunc("PUT /api/location", s.handlePutLocation)

	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("GET /api/history", s.handleHistoryList)
	s.mux.HandleFunc("GET /api/history/{id}", s.handleHistoryGet)
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		CORSMiddleware(DefaultCORSConfig(s.opts.AllowedOrigins)),
		RateLimitMiddleware(s.limiter),
	)(s.mux)
}

// ============================================================================
// HEALTH / VIEWS / LOCATION
// ============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Uptime   string `json:"uptime"`
	Ollama   string `json:"ollama"`
	Database string `json:"database"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Version:  s.opts.Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Ollama:   "disabled",
		Database: "disabled",
	}
	if s.opts.Chat != nil {
		resp.Ollama = "ok"
		if err := s.opts.Chat.CheckRunning(ctx); err != nil {
			resp.Ollama = "unavailable"
			resp.Status = "degraded"
		}
	}
	if s.opts.Store != nil {
		resp.Database = "ok"
		if err := s.opts.Store.Ping(ctx); err != nil {
			resp.Database = "unavailable"
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ViewInfo describes one navigable view.
type ViewInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Module  string `json:"module"`
	Default bool   `json:"default,omitempty"`
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	reg := s.opts.Registry
	views := make([]ViewInfo, 0, reg.Len())
	for _, d := range reg.ListNavigable() {
		views = append(views, ViewInfo{
			Name:    d.Name,
			Label:   d.Label,
			Module:  d.ModulePath,
			Default: d.Name == reg.DefaultViewName(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"views": views})
}

// LocationResponse is the body of GET/PUT /api/location.
type LocationResponse struct {
	View     string `json:"view"`
	Fragment string `json:"fragment"`
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	name := s.opts.Location.Get()
	writeJSON(w, http.StatusOK, LocationResponse{View: name, Fragment: nav.FormatFragment(name)})
}

// handlePutLocation writes the location fragment; a running shell watching
// the same file navigates to it.
func (s *Server) handlePutLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View string `json:"view"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := nav.ParseFragment(req.View)
	if name == "" {
		writeError(w, http.StatusBadRequest, "view is required")
		return
	}
	if !s.opts.Registry.Has(name) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown view %q", name))
		return
	}
	if err := s.opts.Location.Set(name); err != nil {
		s.logger.Printf("[Server] location write failed view=%s err=%v", name, err)
		writeError(w, http.StatusInternalServerError, "failed to write location")
		return
	}
	writeJSON(w, http.StatusOK, LocationResponse{View: name, Fragment: nav.FormatFragment(name)})
}

// ============================================================================
// CHAT
// ============================================================================

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Model          string `json:"model,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse is the reply to POST /api/chat.
type ChatResponse struct {
	ConversationID string  `json:"conversation_id"`
	Model          string  `json:"model"`
	Reply          string  `json:"reply"`
	Tokens         int     `json:"tokens,omitempty"`
	TokensPerSec   float64 `json:"tokens_per_sec,omitempty"`
	DurationMs     int64   `json:"duration_ms"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.opts.Chat == nil || s.opts.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "chat is not configured")
		return
	}

	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	model := req.Model
	if model == "" {
		model = s.opts.Chat.DefaultModel()
	}

	ctx := r.Context()
	var history []storage.Message
	if req.ConversationID == "" {
		conv, err := s.opts.Store.CreateConversation(ctx, "", model)
		if err != nil {
			s.storeError(w, err)
			return
		}
		req.ConversationID = conv.ID
	} else {
		msgs, err := s.opts.Store.Messages(ctx, req.ConversationID)
		if err != nil {
			s.storeError(w, err)
			return
		}
		history = msgs
	}

	messages := make([]ollama.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, ollama.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, ollama.NewUserMessage(req.Message))

	if _, err := s.opts.Store.AppendMessage(ctx, req.ConversationID, storage.Message{Role: ollama.RoleUser, Content: req.Message}); err != nil {
		s.storeError(w, err)
		return
	}

	start := time.Now()
	resp, err := s.opts.Chat.Chat(ctx, model, messages)
	if err != nil {
		s.logger.Printf("[Server] chat failed conv=%s model=%s err=%v", req.ConversationID, model, err)
		writeError(w, chatErrorStatus(err), err.Error())
		return
	}
	dur := time.Since(start)

	if _, err := s.opts.Store.AppendMessage(ctx, req.ConversationID, storage.Message{
		Role:       ollama.RoleAssistant,
		Content:    resp.Message.Content,
		TokenCount: resp.EvalCount,
		DurationMs: dur.Milliseconds(),
	}); err != nil {
		s.storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: req.ConversationID,
		Model:          model,
		Reply:          resp.Message.Content,
		Tokens:         resp.EvalCount,
		TokensPerSec:   resp.TokensPerSecond(),
		DurationMs:     dur.Milliseconds(),
	})
}

// chatErrorStatus maps Ollama client errors to HTTP status codes.
func chatErrorStatus(err error) int {
	switch {
	case ollama.IsModelNotFound(err):
		return http.StatusNotFound
	case ollama.IsTimeout(err):
		return http.StatusGatewayTimeout
	case ollama.IsNotRunning(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// ============================================================================
// HISTORY
// ============================================================================

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not configured")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	convs, err := s.opts.Store.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if convs == nil {
		convs = []storage.Conversation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": convs})
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not configured")
		return
	}
	id := r.PathValue("id")
	conv, err := s.opts.Store.GetConversation(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	msgs, err := s.opts.Store.Messages(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		if msgs == nil {
			msgs = []storage.Message{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"conversation": conv, "messages": msgs})
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, storage.ExportMarkdown(conv, msgs))
	case "html":
		html, err := s.renderHTML(storage.ExportMarkdown(conv, msgs))
		if err != nil {
			s.logger.Printf("[Server] render failed conv=%s err=%v", id, err)
			writeError(w, http.StatusInternalServerError, "failed to render conversation")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(html)
	default:
		writeError(w, http.StatusBadRequest, "format must be json, markdown or html")
	}
}

// renderHTML converts markdown to HTML.
// SECURITY: Message content is model/user supplied, so the HTML is sanitized.
func (s *Server) renderHTML(md string) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(md), &buf); err != nil {
		return nil, err
	}
	return s.policy.SanitizeBytes(buf.Bytes()), nil
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Printf("[Server] store error err=%v", err)
	writeError(w, http.StatusInternalServerError, "storage error")
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves on 127.0.0.1:port until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.opts.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. Returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Printf("[Server] listening addr=%s version=%s", ln.Addr(), s.opts.Version)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Printf("[Server] shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"code":    status,
		},
	})
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/navshell/internal/nav"
	"github.com/jeranaias/navshell/internal/ollama"
	"github.com/jeranaias/navshell/internal/registry"
	"github.com/jeranaias/navshell/internal/storage"
)

// =============================================================================
// FIXTURES
// =============================================================================

type fakeChat struct {
	mu       sync.Mutex
	running  error
	err      error
	reply    string
	received [][]ollama.Message
}

func (f *fakeChat) CheckRunning(ctx context.Context) error { return f.running }
func (f *fakeChat) DefaultModel() string                   { return "test-model" }

func (f *fakeChat) Chat(ctx context.Context, model string, messages []ollama.Message) (*ollama.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, messages)
	if f.err != nil {
		return nil, f.err
	}
	return &ollama.ChatResponse{
		Model:        model,
		Message:      ollama.NewAssistantMessage(f.reply),
		Done:         true,
		EvalCount:    4,
		EvalDuration: int64(time.Second),
	}, nil
}

type fixture struct {
	srv      *Server
	handler  http.Handler
	chat     *fakeChat
	store    *storage.Store
	location *nav.MemoryFragment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := registry.MustNew("Home", []registry.Descriptor{
		{Name: "Home", ShowInHeader: true},
		{Name: "About", ShowInHeader: true},
		{Name: "Login"},
	})
	store, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	chat := &fakeChat{reply: "pong"}
	location := nav.NewMemoryFragment("About")
	srv, err := New(Options{
		RateLimit:      1000,
		RateBurst:      1000,
		AllowedOrigins: []string{"http://localhost:3000"},
		Version:        "test",
		Registry:       reg,
		Location:       location,
		Chat:           chat,
		Store:          store,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &fixture{srv: srv, handler: srv.Handler(), chat: chat, store: store, location: location}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNew_RequiresRegistryAndLocation(t *testing.T) {
	if _, err := New(Options{Location: nav.NewMemoryFragment("")}); err == nil {
		t.Error("New() without registry should fail")
	}
	reg := registry.MustNew("Home", []registry.Descriptor{{Name: "Home"}})
	if _, err := New(Options{Registry: reg}); err == nil {
		t.Error("New() without location should fail")
	}
	srv, err := New(Options{Registry: reg, Location: nav.NewMemoryFragment("")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Shutdown(context.Background())
	if srv.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", srv.Port(), DefaultPort)
	}
}

// =============================================================================
// HEALTH / VIEWS / LOCATION
// =============================================================================

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var h HealthResponse
	decode(t, rec, &h)
	if h.Status != "ok" || h.Ollama != "ok" || h.Database != "ok" || h.Version != "test" {
		t.Errorf("health = %+v", h)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	f.chat.running = ollama.ErrNotRunning
	decode(t, f.do(t, "GET", "/health", nil), &h)
	if h.Status != "degraded" || h.Ollama != "unavailable" {
		t.Errorf("health with Ollama down = %+v", h)
	}
}

func TestViews_OnlyNavigable(t *testing.T) {
	f := newFixture(t)

	var body struct {
		Views []ViewInfo `json:"views"`
	}
	decode(t, f.do(t, "GET", "/api/views", nil), &body)
	if len(body.Views) != 2 {
		t.Fatalf("views = %+v, want Home and About", body.Views)
	}
	if body.Views[0].Name != "Home" || !body.Views[0].Default || body.Views[0].Module != "views/home" {
		t.Errorf("views[0] = %+v", body.Views[0])
	}
	if body.Views[1].Name != "About" || body.Views[1].Default {
		t.Errorf("views[1] = %+v", body.Views[1])
	}
}

func TestLocation_GetAndPut(t *testing.T) {
	f := newFixture(t)

	var loc LocationResponse
	decode(t, f.do(t, "GET", "/api/location", nil), &loc)
	if loc.View != "About" || loc.Fragment != "#About" {
		t.Errorf("GET location = %+v", loc)
	}

	// Hidden views are still addressable.
	rec := f.do(t, "PUT", "/api/location", map[string]string{"view": "#Login"})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := f.location.Get(); got != "Login" {
		t.Errorf("fragment = %q, want Login", got)
	}

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"unknown view", map[string]string{"view": "Missing"}, http.StatusNotFound},
		{"empty view", map[string]string{"view": "  "}, http.StatusBadRequest},
		{"unknown field", map[string]string{"name": "Home"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, "PUT", "/api/location", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if got := f.location.Get(); got != "Login" {
				t.Errorf("fragment changed to %q on rejected request", got)
			}
		})
	}
}

// =============================================================================
// CHAT / HISTORY
// =============================================================================

func TestChat_PersistsBothTurns(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "POST", "/api/chat", ChatRequest{Message: "ping"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp ChatResponse
	decode(t, rec, &resp)
	if resp.Reply != "pong" || resp.Model != "test-model" || resp.ConversationID == "" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.TokensPerSec != 4 {
		t.Errorf("TokensPerSec = %v, want 4", resp.TokensPerSec)
	}

	// Second turn carries the history to the model.
	rec = f.do(t, "POST", "/api/chat", ChatRequest{ConversationID: resp.ConversationID, Message: "again"})
	if rec.Code != http.StatusOK {
		t.Fatalf("second turn status = %d", rec.Code)
	}
	if got := len(f.chat.received[1]); got != 3 {
		t.Errorf("second call sent %d messages, want 3", got)
	}

	msgs, err := f.store.Messages(context.Background(), resp.ConversationID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 4 {
		t.Fatalf("stored %d messages, want 4", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" || msgs[1].TokenCount != 4 {
		t.Errorf("stored messages = %+v", msgs)
	}
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		req  ChatRequest
		want int
	}{
		{"empty message", nil, ChatRequest{Message: " "}, http.StatusBadRequest},
		{"unknown conversation", nil, ChatRequest{ConversationID: "nope", Message: "x"}, http.StatusNotFound},
		{"model missing", ollama.ErrModelNotFound, ChatRequest{Message: "x"}, http.StatusNotFound},
		{"ollama down", ollama.ErrNotRunning, ChatRequest{Message: "x"}, http.StatusServiceUnavailable},
		{"timeout", ollama.ErrTimeout, ChatRequest{Message: "x"}, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.chat.err = tt.err
			rec := f.do(t, "POST", "/api/chat", tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body=%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHistory_ListAndFormats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.store.CreateConversation(ctx, "", "m")
	if err != nil {
		t.Fatal(err)
	}
	f.store.AppendMessage(ctx, conv.ID, storage.Message{Role: "user", Content: "show **bold**"})
	f.store.AppendMessage(ctx, conv.ID, storage.Message{Role: "assistant", Content: "<script>alert(1)</script>done"})

	var list struct {
		Conversations []storage.Conversation `json:"conversations"`
	}
	decode(t, f.do(t, "GET", "/api/history?q=bold", nil), &list)
	if len(list.Conversations) != 1 || list.Conversations[0].ID != conv.ID {
		t.Fatalf("list = %+v", list.Conversations)
	}
	decode(t, f.do(t, "GET", "/api/history?q=zzz", nil), &list)
	if len(list.Conversations) != 0 {
		t.Errorf("search miss returned %d", len(list.Conversations))
	}
	if rec := f.do(t, "GET", "/api/history?limit=-1", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}

	var one struct {
		Conversation storage.Conversation `json:"conversation"`
		Messages     []storage.Message    `json:"messages"`
	}
	decode(t, f.do(t, "GET", "/api/history/"+conv.ID, nil), &one)
	if len(one.Messages) != 2 {
		t.Errorf("messages = %d, want 2", len(one.Messages))
	}

	rec := f.do(t, "GET", "/api/history/"+conv.ID+"?format=markdown", nil)
	if !strings.Contains(rec.Body.String(), "show **bold**") {
		t.Errorf("markdown body = %q", rec.Body.String())
	}

	rec = f.do(t, "GET", "/api/history/"+conv.ID+"?format=html", nil)
	html := rec.Body.String()
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("html not rendered: %q", html)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("html not sanitized: %q", html)
	}

	if rec := f.do(t, "GET", "/api/history/"+conv.ID+"?format=pdf", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad format status = %d", rec.Code)
	}
	if rec := f.do(t, "GET", "/api/history/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing conversation status = %d", rec.Code)
	}
}

func TestChat_NotConfigured(t *testing.T) {
	reg := registry.MustNew("Home", []registry.Descriptor{{Name: "Home"}})
	srv, err := New(Options{Registry: reg, Location: nav.NewMemoryFragment("")})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/api/history", "/api/history/x"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, rec.Code)
		}
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestCORS(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("OPTIONS", "/api/views", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest("GET", "/api/views", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got header %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("burst should be allowed")
	}
	if rl.Allow("a") {
		t.Error("third request within a second should be limited")
	}
	if !rl.Allow("b") {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("a") {
		t.Error("bucket should refill")
	}

	now = now.Add(time.Hour)
	rl.cleanup()
	if rl.Len() != 0 {
		t.Errorf("Len() after cleanup = %d, want 0", rl.Len())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Stop()
	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 2)
	for i := range codes {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "192.0.2.9:5555"
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped: %v", r)
		}
	}()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "192.0.2.1:80", "", "192.0.2.1"},
		{"spoofed from remote", "192.0.2.1:80", "10.0.0.1", "192.0.2.1"},
		{"trusted proxy", "127.0.0.1:80", "198.51.100.7, 127.0.0.1", "198.51.100.7"},
		{"trusted proxy bad header", "127.0.0.1:80", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

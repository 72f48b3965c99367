// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/navshell/internal/config"
	"github.com/jeranaias/navshell/internal/ollama"
	"github.com/jeranaias/navshell/internal/storage"
	"github.com/jeranaias/navshell/internal/view"
)

// =============================================================================
// FIXTURES
// =============================================================================

type fakeStreamer struct {
	mu     sync.Mutex
	chunks []ollama.StreamChunk
	err    error
	block  bool
	calls  [][]ollama.Message
}

func (f *fakeStreamer) ChatStream(ctx context.Context, model string, messages []ollama.Message, callback ollama.StreamCallback) error {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	chunks, err, block := f.chunks, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	for _, c := range chunks {
		callback(c)
	}
	return err
}

func (f *fakeStreamer) DefaultModel() string { return "test-model" }
func (f *fakeStreamer) BaseURL() string      { return "http://127.0.0.1:11434" }

func testDeps(t *testing.T) Deps {
	t.Helper()
	cfg := config.Default()
	cfg.Local.OllamaModel = "test-model"
	reg, err := cfg.Registry()
	require.NoError(t, err)
	return Deps{
		Config:       cfg,
		Registry:     reg,
		Version:      "1.2.3",
		GlamourStyle: "notty",
		Now:          func() time.Time { return time.Date(2025, 3, 14, 12, 34, 56, 0, time.UTC) },
	}
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mount(t *testing.T, deps Deps, module string) (view.Handle, *view.Buffer) {
	t.Helper()
	v, err := NewCatalog(deps).Load(context.Background(), module)
	require.NoError(t, err)
	buf := view.NewBuffer(80, 24)
	h, err := v.Mount(context.Background(), buf)
	require.NoError(t, err)
	return h, buf
}

// =============================================================================
// CATALOG
// =============================================================================

func TestNewCatalog_CoversDefaultViews(t *testing.T) {
	cat := NewCatalog(Deps{})
	for _, vc := range config.DefaultViews() {
		assert.True(t, cat.Has(vc.Module), "missing module %s", vc.Module)
	}
}

func TestNewCatalog_FreshViewPerLoad(t *testing.T) {
	cat := NewCatalog(Deps{})
	a, err := cat.Load(context.Background(), ModuleChat)
	require.NoError(t, err)
	b, err := cat.Load(context.Background(), ModuleChat)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

// =============================================================================
// STATIC VIEWS
// =============================================================================

func TestHome_ListsNavigableViews(t *testing.T) {
	_, buf := mount(t, testDeps(t), ModuleHome)
	content := buf.Content()
	assert.Contains(t, content, "navshell")
	assert.Contains(t, content, "History")
	assert.NotContains(t, content, "Login")
}

func TestAbout_ShowsVersionAndPaths(t *testing.T) {
	deps := testDeps(t)
	_, buf := mount(t, deps, ModuleAbout)
	content := buf.Content()
	assert.Contains(t, content, "1.2.3")
	assert.Contains(t, content, "test-model")
}

func TestConfigView_RedactsSecrets(t *testing.T) {
	deps := testDeps(t)
	deps.Config.Login = config.LoginConfig{Username: "alice", PasswordHash: "$2a$10$secrethash", TOTPSecret: "JBSWY3DPEHPK3PXP"}
	_, buf := mount(t, deps, ModuleConfig)
	content := buf.Content()
	assert.Contains(t, content, "default_view")
	assert.Contains(t, content, "[REDACTED]")
	assert.NotContains(t, content, "secrethash")
	assert.NotContains(t, content, "JBSWY3DPEHPK3PXP")
}

func TestHighlightTOML_Colors(t *testing.T) {
	out := highlightTOML("name = \"Home\"\n", "dark")
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "Home")
}

// =============================================================================
// CHAT
// =============================================================================

func TestChat_RequiresClient(t *testing.T) {
	v, err := NewCatalog(testDeps(t)).Load(context.Background(), ModuleChat)
	require.NoError(t, err)
	_, err = v.Mount(context.Background(), view.NewBuffer(80, 24))
	assert.ErrorIs(t, err, ErrChatUnavailable)
}

func TestChat_StreamsAndPersists(t *testing.T) {
	deps := testDeps(t)
	store := openStore(t)
	chat := &fakeStreamer{chunks: []ollama.StreamChunk{
		{Content: "Hel"},
		{Content: "lo there"},
		{Done: true, CompletionTokens: 2},
	}}
	deps.Chat = chat
	deps.Store = store

	h, buf := mount(t, deps, ModuleChat)
	sess := h.(*chatSession)
	assert.Contains(t, sess.InputHint(), "test-model")

	require.NoError(t, sess.HandleInput(context.Background(), "hi"))
	require.Eventually(t, func() bool {
		return strings.Contains(buf.Content(), "2 tokens")
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, buf.Content(), "Hello there")

	convs, err := store.Search(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	msgs, err := store.Messages(context.Background(), convs[0].ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, ollama.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, ollama.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Hello there", msgs[1].Content)
	assert.Equal(t, "hi", convs[0].Title)

	// The second turn sends the whole conversation.
	require.NoError(t, sess.HandleInput(context.Background(), "again"))
	require.Eventually(t, func() bool {
		chat.mu.Lock()
		defer chat.mu.Unlock()
		return len(chat.calls) == 2
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, sess.Unmount(context.Background()))
	chat.mu.Lock()
	assert.Len(t, chat.calls[1], 3)
	chat.mu.Unlock()
}

func TestChat_BusyWhileStreamingAndUnmountStops(t *testing.T) {
	deps := testDeps(t)
	deps.Chat = &fakeStreamer{block: true}
	h, _ := mount(t, deps, ModuleChat)
	sess := h.(*chatSession)

	require.NoError(t, sess.HandleInput(context.Background(), "first"))
	assert.ErrorIs(t, sess.HandleInput(context.Background(), "second"), ErrBusy)
	assert.ErrorIs(t, sess.HandleInput(context.Background(), "/new"), ErrBusy)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, sess.Unmount(ctx))
}

func TestChat_NotRunningMessage(t *testing.T) {
	deps := testDeps(t)
	deps.Chat = &fakeStreamer{err: ollama.ErrNotRunning}
	h, buf := mount(t, deps, ModuleChat)
	sess := h.(*chatSession)

	require.NoError(t, sess.HandleInput(context.Background(), "hello"))
	require.Eventually(t, func() bool {
		return strings.Contains(buf.Content(), "ollama serve")
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, sess.Unmount(context.Background()))
}

func TestChat_Commands(t *testing.T) {
	deps := testDeps(t)
	deps.Chat = &fakeStreamer{}
	h, buf := mount(t, deps, ModuleChat)
	sess := h.(*chatSession)

	require.NoError(t, sess.HandleInput(context.Background(), "/model llama3"))
	assert.Contains(t, sess.InputHint(), "llama3")
	assert.Contains(t, buf.Content(), "llama3")

	assert.Error(t, sess.HandleInput(context.Background(), "/model"))
	assert.Error(t, sess.HandleInput(context.Background(), "/bogus"))

	require.NoError(t, sess.HandleInput(context.Background(), "/new"))
	assert.Contains(t, buf.Content(), "new conversation")
	assert.NoError(t, sess.HandleInput(context.Background(), "   "))
	require.NoError(t, sess.Unmount(context.Background()))
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_RequiresStore(t *testing.T) {
	v, err := NewCatalog(testDeps(t)).Load(context.Background(), ModuleHistory)
	require.NoError(t, err)
	_, err = v.Mount(context.Background(), view.NewBuffer(80, 24))
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
}

func TestHistory_ListSearchOpenDelete(t *testing.T) {
	ctx := context.Background()
	deps := testDeps(t)
	store := openStore(t)
	deps.Store = store

	conv, err := store.CreateConversation(ctx, "", "test-model")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, conv.ID, storage.Message{Role: ollama.RoleUser, Content: "how do goroutines work"})
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, conv.ID, storage.Message{Role: ollama.RoleAssistant, Content: "They are cheap threads."})
	require.NoError(t, err)

	h, buf := mount(t, deps, ModuleHistory)
	hist := h.(*historyHandle)
	assert.Contains(t, buf.Content(), "how do goroutines work")
	assert.Contains(t, buf.Content(), "  1  ")

	require.NoError(t, hist.HandleInput(ctx, "zzz"))
	assert.Contains(t, buf.Content(), "No matches")

	require.NoError(t, hist.HandleInput(ctx, "goroutines"))
	assert.Contains(t, buf.Content(), "matching")

	require.NoError(t, hist.HandleInput(ctx, "1"))
	assert.Contains(t, buf.Content(), "cheap threads")

	assert.Error(t, hist.HandleInput(ctx, "/delete 9"))
	assert.Error(t, hist.HandleInput(ctx, "/frobnicate"))

	require.NoError(t, hist.HandleInput(ctx, "/delete 1"))
	require.NoError(t, hist.HandleInput(ctx, "/list"))
	assert.Contains(t, buf.Content(), "No conversations yet.")
}

// =============================================================================
// CLOCK
// =============================================================================

func TestClock_TicksUntilUnmount(t *testing.T) {
	deps := testDeps(t)
	deps.ClockInterval = 5 * time.Millisecond

	v, err := NewCatalog(deps).Load(context.Background(), ModuleClock)
	require.NoError(t, err)
	buf := view.NewBuffer(60, 10)
	var writes atomic.Int32
	buf.OnChange(func(string) { writes.Add(1) })

	h, err := v.Mount(context.Background(), buf)
	require.NoError(t, err)
	assert.Contains(t, buf.Content(), "12:34:56")
	assert.Contains(t, buf.Content(), "March 14 2025")

	require.Eventually(t, func() bool { return writes.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.(view.Unmounter).Unmount(context.Background()))

	after := writes.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, writes.Load(), "clock rendered after Unmount")

	// A second Unmount is harmless.
	assert.NoError(t, h.(view.Unmounter).Unmount(context.Background()))
}

// =============================================================================
// LOGIN
// =============================================================================

func TestLogin_NotConfigured(t *testing.T) {
	h, buf := mount(t, testDeps(t), ModuleLogin)
	_, interactive := h.(view.Interactive)
	assert.False(t, interactive)
	assert.Contains(t, buf.Content(), "not configured")
}

func loginDeps(t *testing.T, withTOTP bool) (Deps, string) {
	t.Helper()
	deps := testDeps(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	deps.Config.Login = config.LoginConfig{Username: "alice", PasswordHash: string(hash)}
	var secret string
	if withTOTP {
		key, err := totp.Generate(totp.GenerateOpts{Issuer: "navshell", AccountName: "alice"})
		require.NoError(t, err)
		secret = key.Secret()
		deps.Config.Login.TOTPSecret = secret
	}
	return deps, secret
}

func TestLogin_PasswordAndCode(t *testing.T) {
	ctx := context.Background()
	deps, secret := loginDeps(t, true)
	h, buf := mount(t, deps, ModuleLogin)
	login := h.(*loginHandle)

	assert.Equal(t, "Username", login.InputHint())
	require.NoError(t, login.HandleInput(ctx, "alice"))
	assert.Equal(t, "Password", login.InputHint())
	require.NoError(t, login.HandleInput(ctx, "hunter2"))
	assert.Contains(t, login.InputHint(), "code")

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, login.HandleInput(ctx, code))
	assert.Contains(t, buf.Content(), "Signed in as alice")
}

func TestLogin_WrongPasswordRestarts(t *testing.T) {
	ctx := context.Background()
	deps, _ := loginDeps(t, false)
	h, buf := mount(t, deps, ModuleLogin)
	login := h.(*loginHandle)

	require.NoError(t, login.HandleInput(ctx, "alice"))
	require.NoError(t, login.HandleInput(ctx, "wrong"))
	assert.Contains(t, buf.Content(), "Sign-in failed")
	assert.Equal(t, "Username", login.InputHint())

	// Unknown user fails the same way.
	require.NoError(t, login.HandleInput(ctx, "mallory"))
	require.NoError(t, login.HandleInput(ctx, "hunter2"))
	assert.Contains(t, buf.Content(), "Sign-in failed")

	require.NoError(t, login.HandleInput(ctx, "alice"))
	require.NoError(t, login.HandleInput(ctx, "hunter2"))
	assert.Contains(t, buf.Content(), "Signed in as alice")
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	deps, _ := loginDeps(t, false)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	deps.Now = func() time.Time { return now }
	h, buf := mount(t, deps, ModuleLogin)
	login := h.(*loginHandle)

	for i := 0; i < maxLoginAttempts; i++ {
		require.NoError(t, login.HandleInput(ctx, "alice"))
		require.NoError(t, login.HandleInput(ctx, "nope"))
	}
	assert.Contains(t, buf.Content(), "Locked")
	assert.Error(t, login.HandleInput(ctx, "alice"))

	now = now.Add(loginLockout + time.Second)
	assert.NoError(t, login.HandleInput(ctx, "alice"))
}

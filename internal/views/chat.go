// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/navshell/internal/ollama"
	"github.com/jeranaias/navshell/internal/storage"
	"github.com/jeranaias/navshell/internal/view"
)

// ErrBusy is returned by the chat view while a reply is still streaming.
var ErrBusy = errors.New("still answering the previous message")

// ErrChatUnavailable is returned by Mount when no Ollama client is wired.
var ErrChatUnavailable = errors.New("chat is not configured: no Ollama client")

type chatView struct {
	deps Deps
}

func (v *chatView) Mount(ctx context.Context, mp view.MountPoint) (view.Handle, error) {
	if v.deps.Chat == nil {
		return nil, ErrChatUnavailable
	}
	model := v.deps.Config.Local.OllamaModel
	if model == "" {
		model = v.deps.Chat.DefaultModel()
	}
	sctx, cancel := context.WithCancel(context.Background())
	s := &chatSession{
		deps:   v.deps,
		mp:     mp,
		model:  model,
		ctx:    sctx,
		cancel: cancel,
	}
	s.render()
	return s, nil
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// chatSession is the mounted chat view. Replies stream on a goroutine owned
// by the session; Unmount cancels it and waits.
type chatSession struct {
	deps Deps
	mp   view.MountPoint

	mu        sync.Mutex
	model     string
	convID    string
	messages  []ollama.Message
	partial   strings.Builder
	streaming bool
	status    string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// InputHint implements view.Hinter.
func (s *chatSession) InputHint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("Message %s (/new, /model NAME)", s.model)
}

// HandleInput implements view.Interactive.
func (s *chatSession) HandleInput(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if strings.HasPrefix(input, "/") {
		return s.command(input)
	}

	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return ErrBusy
	}
	s.messages = append(s.messages, ollama.NewUserMessage(input))
	history := append([]ollama.Message(nil), s.messages...)
	model := s.model
	s.streaming = true
	s.status = ""
	s.mu.Unlock()

	s.persist(ctx, ollama.RoleUser, input, 0, 0)
	s.render()

	s.wg.Add(1)
	go s.stream(model, history)
	return nil
}

func (s *chatSession) command(input string) error {
	fields := strings.Fields(input)
	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return ErrBusy
	}
	switch fields[0] {
	case "/new":
		s.messages = nil
		s.convID = ""
		s.status = "Started a new conversation."
	case "/model":
		if len(fields) != 2 {
			s.mu.Unlock()
			return fmt.Errorf("usage: /model NAME")
		}
		s.model = fields[1]
		s.status = fmt.Sprintf("Using model %s.", s.model)
	default:
		s.mu.Unlock()
		return fmt.Errorf("unknown command %s (try /new or /model NAME)", fields[0])
	}
	s.mu.Unlock()
	s.render()
	return nil
}

func (s *chatSession) stream(model string, history []ollama.Message) {
	defer s.wg.Done()

	start := s.deps.Now()
	var tokens int
	err := s.deps.Chat.ChatStream(s.ctx, model, history, func(chunk ollama.StreamChunk) {
		s.mu.Lock()
		s.partial.WriteString(chunk.Content)
		if chunk.Done {
			tokens = chunk.CompletionTokens
		}
		s.mu.Unlock()
		if chunk.Content != "" {
			s.render()
		}
	})

	// RELIABILITY: nothing touches the mount point once the session is torn down.
	if s.ctx.Err() != nil {
		return
	}

	elapsed := s.deps.Now().Sub(start)
	s.mu.Lock()
	reply := s.partial.String()
	s.partial.Reset()
	s.streaming = false
	if err != nil {
		s.status = s.describeError(err, model)
	} else {
		s.messages = append(s.messages, ollama.NewAssistantMessage(reply))
		s.status = formatStats(tokens, elapsed)
	}
	s.mu.Unlock()

	if err != nil {
		s.deps.Logger.Printf("[Chat] stream failed: %v", err)
	} else {
		s.persist(s.ctx, ollama.RoleAssistant, reply, tokens, elapsed)
	}
	s.render()
}

// persist records one turn, creating the conversation on first use. Storage
// failures are logged and never interrupt the chat.
func (s *chatSession) persist(ctx context.Context, role, content string, tokens int, elapsed time.Duration) {
	if s.deps.Store == nil {
		return
	}
	s.mu.Lock()
	convID, model := s.convID, s.model
	s.mu.Unlock()

	if convID == "" {
		conv, err := s.deps.Store.CreateConversation(ctx, "", model)
		if err != nil {
			s.deps.Logger.Printf("[Chat] create conversation: %v", err)
			return
		}
		convID = conv.ID
		s.mu.Lock()
		s.convID = convID
		s.mu.Unlock()
	}
	_, err := s.deps.Store.AppendMessage(ctx, convID, storage.Message{
		Role:       role,
		Content:    content,
		TokenCount: tokens,
		DurationMs: elapsed.Milliseconds(),
	})
	if err != nil {
		s.deps.Logger.Printf("[Chat] append %s message: %v", role, err)
	}
}

func (s *chatSession) describeError(err error, model string) string {
	switch {
	case ollama.IsNotRunning(err):
		return fmt.Sprintf("Ollama is not running at %s. Start it with `ollama serve`.", s.deps.Chat.BaseURL())
	case ollama.IsModelNotFound(err):
		return fmt.Sprintf("Model %s is not installed. Run `ollama pull %s`.", model, model)
	case ollama.IsTimeout(err):
		return "The model took too long to answer. Try again."
	default:
		return "Chat failed: " + err.Error()
	}
}

func formatStats(tokens int, elapsed time.Duration) string {
	if tokens <= 0 {
		return fmt.Sprintf("Answered in %s.", elapsed.Round(100*time.Millisecond))
	}
	secs := elapsed.Seconds()
	if secs <= 0 {
		return fmt.Sprintf("%d tokens.", tokens)
	}
	return fmt.Sprintf("%d tokens in %s (%.1f tok/s).", tokens, elapsed.Round(100*time.Millisecond), float64(tokens)/secs)
}

// Unmount implements view.Unmounter.
func (s *chatSession) Unmount(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("chat stream did not stop: %w", ctx.Err())
	}
}

// transcript builds the markdown for the current conversation.
func (s *chatSession) transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	if len(s.messages) == 0 && !s.streaming {
		sb.WriteString("# Chat\n\n")
		sb.WriteString(fmt.Sprintf("Talking to **%s**. Type a message and press Enter.\n", s.model))
	}
	for _, m := range s.messages {
		who := "You"
		if m.Role == ollama.RoleAssistant {
			who = s.model
		}
		sb.WriteString(fmt.Sprintf("**%s**\n\n%s\n\n", who, m.Content))
	}
	if s.streaming {
		sb.WriteString(fmt.Sprintf("**%s**\n\n%s_\n\n", s.model, s.partial.String()))
	}
	if s.status != "" {
		sb.WriteString("---\n\n*" + s.status + "*\n")
	}
	return sb.String()
}

func (s *chatSession) render() {
	s.mp.SetContent(renderMarkdown(s.deps.GlamourStyle, wrapWidth(s.mp), s.transcript()))
}

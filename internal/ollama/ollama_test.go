// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/", DefaultModel: "test-model"})
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(nil)
	assert.Equal(t, "http://127.0.0.1:11434", c.BaseURL())
	assert.NotEmpty(t, c.DefaultModel())

	c = NewClientWithConfig(&ClientConfig{BaseURL: "http://x:1/"})
	assert.Equal(t, "http://x:1", c.BaseURL(), "trailing slash trimmed")
}

func TestCheckRunning(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Ollama is running")
	})
	require.NoError(t, c.CheckRunning(context.Background()))
}

func TestCheckRunning_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: url})
	err := c.CheckRunning(context.Background())
	require.Error(t, err)
	assert.True(t, IsNotRunning(err))
	assert.False(t, IsTimeout(err))
}

func TestChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model, "default model applied")
		assert.False(t, req.Stream)

		json.NewEncoder(w).Encode(ChatResponse{
			Model:        req.Model,
			Message:      NewAssistantMessage("echo: " + req.Messages[0].Content),
			Done:         true,
			EvalCount:    10,
			EvalDuration: int64(2 * time.Second),
		})
	})

	resp, err := c.Chat(context.Background(), "", []Message{NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", resp.Message.Content)
	assert.InDelta(t, 5.0, resp.TokensPerSecond(), 0.001)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"model not found", http.StatusNotFound, `{"error":"model 'x' not found"}`, func(t *testing.T, err error) {
			assert.True(t, IsModelNotFound(err))
		}},
		{"api error message", http.StatusInternalServerError, `{"error":"out of memory"}`, func(t *testing.T, err error) {
			assert.Contains(t, err.Error(), "out of memory")
			var ce *ClientError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, ErrTypeInvalidResponse, ce.Type)
		}},
		{"bare status", http.StatusBadGateway, ``, func(t *testing.T, err error) {
			assert.Contains(t, err.Error(), "502")
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})
			_, err := c.Chat(context.Background(), "x", []Message{NewUserMessage("hi")})
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestChatStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		fmt.Fprintln(w, `{"model":"m","message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `not json`)
		fmt.Fprintln(w, `{"model":"m","message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"model":"m","message":{"role":"assistant","content":""},"done":true,"eval_count":2,"eval_duration":1000000000}`)
	})

	acc := NewStreamAccumulator()
	var chunks int
	err := c.ChatStream(context.Background(), "m", []Message{NewUserMessage("hi")}, func(ch StreamChunk) {
		chunks++
		acc.Add(ch)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, chunks)
	assert.Equal(t, "Hello", acc.GetContent())
	assert.True(t, acc.Done)
	assert.Equal(t, 2, acc.Stats.CompletionTokens)
	assert.InDelta(t, 2.0, acc.Stats.TokensPerSecond, 0.001)
	assert.Contains(t, acc.Stats.Format(), "2 tokens")
}

func TestChatStream_ErrorLine(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"error":"model crashed"}`)
	})
	err := c.ChatStream(context.Background(), "m", nil, func(StreamChunk) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")
}

func TestChatStream_Cancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"a"},"done":false}`)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	err := c.ChatStream(ctx, "m", nil, func(ch StreamChunk) {
		if ch.Content == "a" {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChatStreamChan(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"x"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"content":"y"},"done":true}`)
	})

	var sb strings.Builder
	for ch := range c.ChatStreamChan(context.Background(), "m", nil) {
		require.NoError(t, ch.Error)
		sb.WriteString(ch.Content)
	}
	assert.Equal(t, "xy", sb.String())
}

func TestListModels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		fmt.Fprint(w, `{"models":[{"name":"llama3:8b","size":4700000000}]}`)
	})
	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "llama3:8b", models[0].Name)
	assert.Equal(t, "4.4 GB", models[0].FormatSize())
}

func TestClientError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &ClientError{Type: ErrTypeTimeout, Message: "slow"})
	assert.True(t, IsTimeout(err))
	assert.False(t, IsNotRunning(err))
	assert.Equal(t, "timeout", ErrTypeTimeout.String())
}

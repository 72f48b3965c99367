// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package nav

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFragment(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"#About", "About"},
		{"About", "About"},
		{"  #Home \n", "Home"},
		{"#Chat\nextra", "Chat"},
		{"#", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseFragment(tc.in), "ParseFragment(%q)", tc.in)
	}
	assert.Equal(t, "#About", FormatFragment("About"))
}

func TestMemoryFragment(t *testing.T) {
	f := NewMemoryFragment("#About")
	assert.Equal(t, "About", f.Get())

	var mu sync.Mutex
	var seen []string
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.Watch(ctx, func(name string) {
		mu.Lock()
		seen = append(seen, name)
		mu.Unlock()
	}))

	require.NoError(t, f.Set("Home"))
	f.External("#Chat")

	assert.Equal(t, "Chat", f.Get())
	assert.Equal(t, []string{"Home"}, f.Writes())
	mu.Lock()
	assert.Equal(t, []string{"Chat"}, seen, "own writes are not reported")
	mu.Unlock()
}

func TestFileFragment_SetGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "location")
	f := NewFileFragment(path, nil)

	assert.Equal(t, "", f.Get(), "missing file reads empty")

	require.NoError(t, f.Set("About"))
	assert.Equal(t, "About", f.Get())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#About\n", string(data))
}

func TestFileFragment_WatchExternalOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "location")
	f := NewFileFragment(path, nil)
	require.NoError(t, f.Set("Home"))

	changes := make(chan string, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.Watch(ctx, func(name string) { changes <- name }))

	require.NoError(t, f.Set("About"))
	select {
	case name := <-changes:
		t.Fatalf("own write reported as external change: %s", name)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, WriteLocation(path, "Chat"))
	select {
	case name := <-changes:
		assert.Equal(t, "Chat", name)
	case <-time.After(3 * time.Second):
		t.Fatal("external change not reported")
	}
}

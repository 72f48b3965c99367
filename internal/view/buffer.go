// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package view

import "sync"

// Buffer is an in-memory MountPoint. The line-mode REPL builds on it and
// tests inspect it.
type Buffer struct {
	mu       sync.Mutex
	content  string
	width    int
	height   int
	clears   int
	onChange func(content string)
}

// NewBuffer returns a Buffer reporting the given size.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{width: width, height: height}
}

// OnChange registers fn to run after every Clear or SetContent. fn runs
// without the buffer lock held.
func (b *Buffer) OnChange(fn func(content string)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Clear implements MountPoint.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.content = ""
	b.clears++
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn("")
	}
}

// SetContent implements MountPoint.
func (b *Buffer) SetContent(content string) {
	b.mu.Lock()
	b.content = content
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn(content)
	}
}

// Size implements MountPoint.
func (b *Buffer) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Resize changes the reported size.
func (b *Buffer) Resize(width, height int) {
	b.mu.Lock()
	b.width, b.height = width, height
	b.mu.Unlock()
}

// Content returns the current content.
func (b *Buffer) Content() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

// Clears returns how many times Clear was called.
func (b *Buffer) Clears() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clears
}

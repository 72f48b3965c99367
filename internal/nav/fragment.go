// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package nav

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jeranaias/navshell/internal/logging"
	"github.com/jeranaias/navshell/internal/util"
)

// =============================================================================
// FRAGMENT INTERFACES
// =============================================================================

// Fragment is the bookmarkable address that names the active view. Get and
// Set deal in bare view names; the "#Name" encoding is the implementation's
// business.
type Fragment interface {
	Get() string
	Set(name string) error
}

// FragmentWatcher is implemented by fragments that can change from outside
// the router, the way a browser's address bar can. Watch returns once the
// watch is established and calls fn from its own goroutine until ctx is done.
// Changes made through Set are not reported.
type FragmentWatcher interface {
	Watch(ctx context.Context, fn func(name string)) error
}

// FormatFragment encodes a view name as a fragment ("About" -> "#About").
func FormatFragment(name string) string {
	return "#" + name
}

// ParseFragment decodes a fragment. Only the first line is considered and a
// leading '#' is optional.
func ParseFragment(raw string) string {
	if i := strings.IndexAny(raw, "\r\n"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(raw)
	return strings.TrimSpace(strings.TrimPrefix(raw, "#"))
}

// =============================================================================
// MEMORY FRAGMENT
// =============================================================================

// MemoryFragment keeps the fragment in memory. External simulates a user
// editing the address.
type MemoryFragment struct {
	mu       sync.Mutex
	name     string
	writes   []string
	watchers map[int]func(string)
	nextID   int
}

// NewMemoryFragment returns a fragment holding initial.
func NewMemoryFragment(initial string) *MemoryFragment {
	return &MemoryFragment{name: ParseFragment(initial), watchers: make(map[int]func(string))}
}

// Get implements Fragment.
func (f *MemoryFragment) Get() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

// Set implements Fragment.
func (f *MemoryFragment) Set(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = name
	f.writes = append(f.writes, name)
	return nil
}

// Writes returns every name written through Set, oldest first.
func (f *MemoryFragment) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

// Watch implements FragmentWatcher.
func (f *MemoryFragment) Watch(ctx context.Context, fn func(name string)) error {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.watchers[id] = fn
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.watchers, id)
		f.mu.Unlock()
	}()
	return nil
}

// External changes the fragment as an outside actor would and notifies
// watchers synchronously.
func (f *MemoryFragment) External(raw string) {
	name := ParseFragment(raw)

	f.mu.Lock()
	f.name = name
	fns := make([]func(string), 0, len(f.watchers))
	for _, fn := range f.watchers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(name)
	}
}

// =============================================================================
// FILE FRAGMENT
// =============================================================================

// FileFragment stores the fragment in a location file ("#About\n"). Another
// process (navshell go, the HTTP API, an editor) can rewrite the file to
// navigate a running shell.
type FileFragment struct {
	path     string
	logger   *log.Logger
	debounce time.Duration

	mu          sync.Mutex
	lastWritten string
	wrote       bool
}

// NewFileFragment returns a fragment backed by path. The file need not exist.
func NewFileFragment(path string, logger *log.Logger) *FileFragment {
	return &FileFragment{
		path:     filepath.Clean(util.ExpandHome(path)),
		logger:   logging.OrDiscard(logger),
		debounce: 50 * time.Millisecond,
	}
}

// Path returns the location file path.
func (f *FileFragment) Path() string {
	return f.path
}

// Get implements Fragment. A missing or unreadable file reads as "".
func (f *FileFragment) Get() string {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Printf("[Fragment] read failed path=%s err=%v", f.path, err)
		}
		return ""
	}
	return ParseFragment(string(data))
}

// Set implements Fragment.
// RELIABILITY: Atomic write so watchers never read a torn fragment
func (f *FileFragment) Set(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := util.AtomicWriteFile(f.path, []byte(FormatFragment(name)+"\n"), 0600); err != nil {
		return fmt.Errorf("write location: %w", err)
	}
	f.lastWritten = name
	f.wrote = true
	return nil
}

// WriteLocation sets the fragment in path from outside a running shell.
func WriteLocation(path, name string) error {
	path = util.ExpandHome(path)
	if err := util.AtomicWriteFile(path, []byte(FormatFragment(name)+"\n"), 0600); err != nil {
		return fmt.Errorf("write location: %w", err)
	}
	return nil
}

// isOwn reports whether name is what this process last wrote.
func (f *FileFragment) isOwn(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wrote && f.lastWritten == name
}

// Watch implements FragmentWatcher using fsnotify. The parent directory is
// watched rather than the file because atomic writes replace the inode.
func (f *FileFragment) Watch(ctx context.Context, fn func(name string)) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create location dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go f.processEvents(ctx, watcher, fn)
	return nil
}

func (f *FileFragment) processEvents(ctx context.Context, watcher *fsnotify.Watcher, fn func(string)) {
	defer watcher.Close()
	defer func() {
		if r := recover(); r != nil {
			f.logger.Printf("[Fragment] watcher panic recovered: %v", r)
		}
	}()

	// Editors and atomic writes emit bursts; coalesce them.
	var timer *time.Timer
	var fire <-chan time.Time
	last := f.Get()

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(f.debounce)
			} else {
				timer.Reset(f.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			name := f.Get()
			if name == last {
				continue
			}
			last = name
			if f.isOwn(name) {
				continue
			}
			f.logger.Printf("[Fragment] external change path=%s fragment=%s", f.path, FormatFragment(name))
			fn(name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Printf("[Fragment] watcher error: %v", err)
		}
	}
}

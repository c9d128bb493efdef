// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CREDENTIAL FILE WATCHER
// =============================================================================

const (
	// debounceInterval coalesces bursts of filesystem events. An atomic
	// save produces create+rename+chmod in quick succession; the
	// callback should fire once.
	debounceInterval = 100 * time.Millisecond

	// pollInterval drives the fallback loop when fsnotify is not
	// available on the platform.
	pollInterval = 2 * time.Second
)

// Watcher observes the credential file and invokes a callback when it
// changes. A second running client uses this to notice a logout (or a
// fresh login) performed by another process.
//
// The callback runs on the watcher goroutine; it should hand off to
// the owning event loop rather than do work inline.
type Watcher struct {
	store    *Store
	onChange func()

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending time.Time
}

// NewWatcher creates a watcher for the store's credential file. Call
// Start to begin watching and Stop to release resources.
func NewWatcher(store *Store, onChange func()) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		store:    store,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins watching. The watch is placed on the parent directory
// because the credential file itself may not exist yet (and atomic
// writes replace the inode on every save).
//
// RELIABILITY: if fsnotify cannot be initialized the watcher degrades
// to polling the stored token instead of failing.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		err = fsw.Add(filepath.Dir(w.store.Path()))
	}
	if err != nil {
		if fsw != nil {
			fsw.Close()
		}
		w.wg.Add(1)
		go w.pollLoop()
		return nil
	}

	w.fsw = fsw
	w.wg.Add(2)
	go w.watchLoop()
	go w.debounceLoop()
	return nil
}

// Stop cancels the watch and waits for its goroutines to exit.
func (w *Watcher) Stop() {
	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
	}
	w.wg.Wait()
}

// watchLoop consumes filesystem events and marks changes to the
// credential file as pending. debounceLoop fires the callback.
func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	name := filepath.Base(w.store.Path())
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are not actionable here; the poll in the
			// owning process still sees the final state on next load.
		}
	}
}

// debounceLoop fires the callback once a pending change has been
// quiet for debounceInterval.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(debounceInterval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			fire := !w.pending.IsZero() && time.Since(w.pending) >= debounceInterval
			if fire {
				w.pending = time.Time{}
			}
			w.mu.Unlock()
			if fire {
				w.onChange()
			}
		}
	}
}

// pollLoop is the fsnotify fallback: load the token on an interval
// and report when it differs from the last observation.
func (w *Watcher) pollLoop() {
	defer w.wg.Done()

	last, _ := w.store.Load()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			current, err := w.store.Load()
			if err != nil {
				continue
			}
			if current != last {
				last = current
				w.onChange()
			}
		}
	}
}

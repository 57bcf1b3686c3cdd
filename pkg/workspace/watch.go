// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces a burst of filesystem events (a save that
// touches several files, a git checkout) into one reindex pass, the
// same debounce window the teacher's runWatchAndReindex uses.
const watchDebounce = 2 * time.Second

// Watcher feeds on-disk changes under a Workspace's source roots back
// into it as watched-file events (spec.md §4.G), for the case where a
// test run, a formatter, or version control rewrites files behind the
// editor's back. Grounded on the teacher's cmd/cie/watch.go
// (runWatchAndReindex): same recursive fsnotify.Add over every
// subdirectory skipping vcs/build noise, same debounce-timer shape —
// adapted from "debounce then trigger one whole-repo reindex" to
// "debounce then reindex exactly the files that actually changed".
type Watcher struct {
	ws      *Workspace
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates an fsnotify watcher over every directory under
// ws's source roots, skipping the same noise directories Scan does.
func NewWatcher(ws *Workspace) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{ws: ws, watcher: fw, done: make(chan struct{})}
	for _, root := range ws.sourceRoots {
		w.addDirs(root)
	}
	return w, nil
}

func (w *Watcher) addDirs(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if isScanSkipDir(filepath.Base(path)) {
			return filepath.SkipDir
		}
		_ = w.watcher.Add(path)
		return nil
	})
}

// Run blocks, debouncing fsnotify events and reindexing changed .elm
// files as watched-file events, until Close is called. Typically
// invoked in its own goroutine.
func (w *Watcher) Run(onError func(error)) {
	pending := map[string]bool{}
	var debounceTimer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if strings.HasSuffix(event.Name, ".elm") {
				pending[event.Name] = true
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(watchDebounce)
			timerCh = debounceTimer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		case <-timerCh:
			timerCh = nil
			for path := range pending {
				if err := w.ws.DidChangeWatchedFile(path); err != nil && onError != nil {
					onError(err)
				}
			}
			pending = map[string]bool{}
		}
	}
}

// Close stops the watcher and releases its file descriptors.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rebuild gives a host build system the rebuild hints spec.md §6
// asks for: a helper that enumerates every template file under the
// configured search roots, and a watcher that reports when one of them
// changes so the pipeline (parse -> heritage.Build -> codegen.Generate) can
// be re-run without a full rebuild trigger.
package rebuild

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/askamago/askama/config"
)

// ListTemplates walks cfg's search roots and returns every regular file
// found, sorted by root then path. A missing root is skipped rather than
// treated as an error, since a project may declare a root it hasn't
// created yet.
func ListTemplates(cfg *config.Config) ([]string, error) {
	var out []string
	for _, root := range cfg.Dirs {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d == nil {
					return nil // root itself doesn't exist yet
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			out = append(out, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("rebuild: listing %s: %w", root, err)
		}
	}
	return out, nil
}

// Watcher watches a config's template search roots and reports the path
// of every file or directory that changes (as fsnotify names it, with
// backslashes turned into slashes), grounded on
// cmd/scriggo/serve.go's templateFS, which wraps an fsnotify.Watcher around
// a template filesystem and forwards Write events on a channel. Unlike
// templateFS's lazy per-Open watch registration, Watcher eagerly watches
// every configured root directory up front, since a build-time rebuild
// hint has no read path to piggyback the registration on.
type Watcher struct {
	watcher *fsnotify.Watcher
	changed chan string
	errs    chan error
	done    chan struct{}

	mu      sync.Mutex
	watched map[string]bool
}

// NewWatcher starts watching every directory in cfg.Dirs (recursively) for
// writes, creates, and renames.
func NewWatcher(cfg *config.Config) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}
	w := &Watcher{
		watcher: fw,
		changed: make(chan string),
		errs:    make(chan error),
		done:    make(chan struct{}),
		watched: map[string]bool{},
	}
	for _, root := range cfg.Dirs {
		if err := w.addTree(root); err != nil {
			slog.Warn("rebuild: could not watch template root", "dir", root, "err", err)
		}
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		w.mu.Lock()
		already := w.watched[path]
		w.watched[path] = true
		w.mu.Unlock()
		if already {
			return nil
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) loop() {
	const mask = fsnotify.Write | fsnotify.Create | fsnotify.Rename
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&mask == 0 {
				continue
			}
			path := strings.ReplaceAll(ev.Name, "\\", "/")
			// a newly created directory needs its own watch registration
			// before its children's events will ever arrive.
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(path); err == nil && fi.IsDir() {
					_ = w.addTree(path)
				}
			}
			select {
			case w.changed <- path:
			case <-w.done:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			case <-w.done:
				return
			}
		case <-w.done:
			return
		}
	}
}

// Changed reports the path of a file or directory that was written,
// created, or renamed.
func (w *Watcher) Changed() <-chan string { return w.changed }

// Errors reports errors encountered while watching.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher and releases its underlying OS resources.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

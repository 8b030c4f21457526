// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rebuild_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/askamago/askama/config"
	"github.com/askamago/askama/rebuild"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListTemplates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), "hi")
	writeFile(t, filepath.Join(root, "partials", "nav.html"), "nav")

	cfg := &config.Config{Dirs: []string{root}}
	got, err := rebuild.ListTemplates(cfg)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	sort.Strings(got)
	want := []string{
		filepath.Join(root, "index.html"),
		filepath.Join(root, "partials", "nav.html"),
	}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("ListTemplates = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListTemplatesMissingRoot(t *testing.T) {
	cfg := &config.Config{Dirs: []string{filepath.Join(t.TempDir(), "does-not-exist")}}
	got, err := rebuild.ListTemplates(cfg)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListTemplates on missing root = %v, want empty", got)
	}
}

func TestWatcherReportsWrite(t *testing.T) {
	root := t.TempDir()
	tpl := filepath.Join(root, "index.html")
	writeFile(t, tpl, "hi")

	cfg := &config.Config{Dirs: []string{root}}
	w, err := rebuild.NewWatcher(cfg)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	writeFile(t, tpl, "hi again")

	select {
	case path := <-w.Changed():
		if filepath.Clean(path) != filepath.Clean(tpl) {
			t.Errorf("Changed() = %q, want %q", path, tpl)
		}
	case err := <-w.Errors():
		t.Fatalf("watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

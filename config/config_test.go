// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/askamago/askama/ast"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "go.mod", "module example.com/views\n\ngo 1.23\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{filepath.Join(dir, "templates")}
	if len(cfg.Dirs) != 1 || cfg.Dirs[0] != want[0] {
		t.Errorf("Dirs = %v, want %v", cfg.Dirs, want)
	}
	if cfg.DefaultWhitespace != WhitespacePreserve {
		t.Errorf("DefaultWhitespace = %v, want WhitespacePreserve", cfg.DefaultWhitespace)
	}
	if cfg.DefaultSyntaxName != "default" {
		t.Errorf("DefaultSyntaxName = %q, want default", cfg.DefaultSyntaxName)
	}
	if _, ok := cfg.Syntaxes["default"]; !ok {
		t.Error("Syntaxes should contain the built-in default table")
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "go.mod", "module example.com/views\n\ngo 1.23\n")
	writeConfigFile(t, dir, "askama.yaml", `
general:
  dirs: [tpl]
  whitespace: suppress
  default_syntax: terse
syntax:
  - name: terse
    block_start: "<%"
    block_end: "%>"
    comment_start: "<#"
    comment_end: "#>"
    expr_start: "<$"
    expr_end: "$>"
escaper:
  - path: json
    extensions: [json]
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Dirs) != 1 || cfg.Dirs[0] != "tpl" {
		t.Errorf("Dirs = %v, want [tpl]", cfg.Dirs)
	}
	if cfg.DefaultWhitespace != WhitespaceSuppress {
		t.Errorf("DefaultWhitespace = %v, want WhitespaceSuppress", cfg.DefaultWhitespace)
	}
	if cfg.DefaultSyntaxName != "terse" {
		t.Errorf("DefaultSyntaxName = %q, want terse", cfg.DefaultSyntaxName)
	}
	terse, ok := cfg.Syntaxes["terse"]
	if !ok || terse.BlockStart != "<%" {
		t.Errorf("Syntaxes[terse] = %#v", terse)
	}
	if len(cfg.Escapers) == 0 || cfg.Escapers[0].Path != "json" {
		t.Errorf("Escapers = %#v, want json first", cfg.Escapers)
	}
}

func TestLoadDuplicateSyntaxName(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "go.mod", "module example.com/views\n\ngo 1.23\n")
	writeConfigFile(t, dir, "askama.yaml", `
syntax:
  - name: default
    block_start: "<%"
    block_end: "%>"
    comment_start: "<#"
    comment_end: "#>"
    expr_start: "<$"
    expr_end: "$>"
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected a duplicate syntax name error")
	}
}

func TestLoadUnknownDefaultSyntax(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "go.mod", "module example.com/views\n\ngo 1.23\n")
	writeConfigFile(t, dir, "askama.yaml", "general:\n  default_syntax: nope\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an unknown default_syntax error")
	}
}

func TestLoadInvalidEscaperIdentifier(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "go.mod", "module example.com/views\n\ngo 1.23\n")
	writeConfigFile(t, dir, "askama.yaml", "escaper:\n  - path: \"1bad\"\n    extensions: [x]\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an invalid escaper identifier error")
	}
}

func TestSyntaxFor(t *testing.T) {
	cfg := defaultConfig(".")
	if _, err := cfg.SyntaxFor(""); err != nil {
		t.Errorf("SyntaxFor(\"\") = %v, want nil error", err)
	}
	if _, err := cfg.SyntaxFor("bogus"); err == nil {
		t.Error("SyntaxFor(bogus) should error")
	}
}

func TestEscaperFor(t *testing.T) {
	cfg := defaultConfig(".")
	if got := cfg.EscaperFor("html").Path; got != "html" {
		t.Errorf("EscaperFor(html).Path = %q, want html", got)
	}
	if got := cfg.EscaperFor("txt").Path; got != "none" {
		t.Errorf("EscaperFor(txt).Path = %q, want none", got)
	}
	if got := cfg.EscaperFor("css").Path; got != "none" {
		t.Errorf("EscaperFor(css).Path = %q, want the none fallback", got)
	}
}

func TestExtensionOf(t *testing.T) {
	tests := []struct {
		path, ext, escape, want string
	}{
		{"", "txt", "", "txt"},
		{"", "", "html", "html"},
		{"", "", "none", ""},
		{"page.html", "", "", "html"},
		{"page", "", "", ""},
	}
	for _, tt := range tests {
		if got := ExtensionOf(tt.path, tt.ext, tt.escape); got != tt.want {
			t.Errorf("ExtensionOf(%q, %q, %q) = %q, want %q", tt.path, tt.ext, tt.escape, got, tt.want)
		}
	}
}

func TestWSMarker(t *testing.T) {
	if m := WSMarker(WhitespacePreserve); m != nil {
		t.Errorf("WSMarker(preserve) = %v, want nil", m)
	}
	if m := WSMarker(WhitespaceSuppress); m == nil || *m != ast.MarkerSuppress {
		t.Errorf("WSMarker(suppress) = %v, want MarkerSuppress", m)
	}
	if m := WSMarker(WhitespaceMinimize); m == nil || *m != ast.MarkerMinimize {
		t.Errorf("WSMarker(minimize) = %v, want MarkerMinimize", m)
	}
}

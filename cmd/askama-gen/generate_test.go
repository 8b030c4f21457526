// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunGeneratePathAnnotation(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "go.mod"), "module views\n\ngo 1.23\n")
	writeTestFile(t, filepath.Join(dir, "templates", "hello.html"), "Hello, {{ Name }}!")
	writeTestFile(t, filepath.Join(dir, "views.go"), `package views

// askama:template path="hello.html"
type Hello struct {
	Name string
}
`)

	var diag bytes.Buffer
	err := runGenerate(generateOptions{Dir: dir, Diagnostics: &diag})
	if err != nil {
		t.Fatalf("runGenerate: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(dir, "hello_askama.go"))
	if err != nil {
		t.Fatalf("reading generated file: %v", err)
	}
	if !strings.Contains(string(out), "func (t *Hello) RenderInto(w runtime.Sink) error {") {
		t.Errorf("generated file missing RenderInto method:\n%s", out)
	}
}

func TestRunGenerateSourceAnnotation(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "go.mod"), "module views\n\ngo 1.23\n")
	writeTestFile(t, filepath.Join(dir, "views.go"), `package views

// askama:template source="Hi, {{ Name }}!" ext=txt print=code
type Greeting struct {
	Name string
}
`)

	var diag bytes.Buffer
	err := runGenerate(generateOptions{Dir: dir, Diagnostics: &diag})
	if err != nil {
		t.Fatalf("runGenerate: %v", err)
	}
	if !strings.Contains(diag.String(), "generated code") {
		t.Errorf("expected code diagnostic output, got:\n%s", diag.String())
	}

	out, err := os.ReadFile(filepath.Join(dir, "greeting_askama.go"))
	if err != nil {
		t.Fatalf("reading generated file: %v", err)
	}
	if !strings.Contains(string(out), "Greeting_EXTENSION") {
		t.Errorf("generated file missing extension const:\n%s", out)
	}
}

func TestRunGenerateNoAnnotationsWarns(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "go.mod"), "module views\n\ngo 1.23\n")
	writeTestFile(t, filepath.Join(dir, "views.go"), "package views\n\ntype Plain struct{}\n")

	if err := runGenerate(generateOptions{Dir: dir}); err != nil {
		t.Fatalf("runGenerate: %v", err)
	}
}

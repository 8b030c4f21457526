// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"go/parser"
	"go/token"
	"testing"
)

func TestFindAnnotationsPath(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.go", `package views

// askama:template path="hello.html" print=code
type Hello struct {
	Name string
}
`, parser.ParseComments)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	anns, err := findAnnotations(f)
	if err != nil {
		t.Fatalf("findAnnotations: %v", err)
	}
	if len(anns) != 1 {
		t.Fatalf("got %d annotations, want 1", len(anns))
	}
	ann := anns[0]
	if ann.TypeName != "Hello" || ann.Path != "hello.html" || ann.Print != "code" {
		t.Errorf("got %+v", ann)
	}
}

func TestFindAnnotationsSourceRequiresExt(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.go", `package views

// askama:template source="Hi, {{ Name }}!"
type Hello struct {
	Name string
}
`, parser.ParseComments)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if _, err := findAnnotations(f); err == nil {
		t.Fatal("expected an error for source= without ext=")
	}
}

func TestFindAnnotationsIgnoresUnannotatedTypes(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.go", `package views

// Plain doc comment, no directive.
type Plain struct{}
`, parser.ParseComments)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	anns, err := findAnnotations(f)
	if err != nil {
		t.Fatalf("findAnnotations: %v", err)
	}
	if len(anns) != 0 {
		t.Errorf("got %d annotations, want 0", len(anns))
	}
}

func TestParseAnnotationFields(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"path only", `path="a.html"`, false},
		{"path and source conflict", `path="a.html" source="x"`, true},
		{"neither", `print=ast`, true},
		{"unknown field", `path="a.html" bogus=1`, true},
		{"malformed field", `path`, true},
		{"unterminated quote", `path="a.html`, true},
		{"all fields", `path="a.html" print=all escape=html syntax=custom whitespace=suppress block=content`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAnnotation(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseAnnotation(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"go/ast"
	"strings"
)

// templateAnnotation is the parsed form of a `//askama:template ...` doc
// comment (spec.md §6, "Annotation surface"), attached to a context type
// declaration the way `//go:generate` attaches to a directive line.
type templateAnnotation struct {
	TypeName   string
	Path       string
	Source     string
	Ext        string
	Print      string // none, ast, code, all
	Escape     string
	Syntax     string
	Whitespace string
	Block      string
}

const annotationPrefix = "askama:template"

// findAnnotations walks file's top-level type declarations and returns one
// templateAnnotation per type whose doc comment carries an askama:template
// directive.
func findAnnotations(file *ast.File) ([]templateAnnotation, error) {
	var out []templateAnnotation
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok.String() != "type" {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			doc := ts.Doc
			if doc == nil {
				doc = gd.Doc
			}
			if doc == nil {
				continue
			}
			line, ok := directiveLine(doc)
			if !ok {
				continue
			}
			ann, err := parseAnnotation(line)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", ts.Name.Name, err)
			}
			ann.TypeName = ts.Name.Name
			out = append(out, ann)
		}
	}
	return out, nil
}

func directiveLine(doc *ast.CommentGroup) (string, bool) {
	for _, c := range doc.List {
		text := strings.TrimPrefix(c.Text, "//")
		text = strings.TrimSpace(text)
		if strings.HasPrefix(text, annotationPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, annotationPrefix)), true
		}
	}
	return "", false
}

// parseAnnotation splits a directive's remainder into key=value fields,
// e.g. `path="index.html" print=ast`. Values may be quoted to allow spaces.
func parseAnnotation(s string) (templateAnnotation, error) {
	var ann templateAnnotation
	fields, err := splitFields(s)
	if err != nil {
		return ann, err
	}
	for _, f := range fields {
		key, val, ok := strings.Cut(f, "=")
		if !ok {
			return ann, fmt.Errorf("askama:template: malformed field %q, want key=value", f)
		}
		val = strings.Trim(val, `"`)
		switch key {
		case "path":
			ann.Path = val
		case "source":
			ann.Source = val
		case "ext":
			ann.Ext = val
		case "print":
			ann.Print = val
		case "escape":
			ann.Escape = val
		case "syntax":
			ann.Syntax = val
		case "whitespace":
			ann.Whitespace = val
		case "block":
			ann.Block = val
		default:
			return ann, fmt.Errorf("askama:template: unknown field %q", key)
		}
	}
	if ann.Path == "" && ann.Source == "" {
		return ann, fmt.Errorf("askama:template: exactly one of path= or source= is required")
	}
	if ann.Path != "" && ann.Source != "" {
		return ann, fmt.Errorf("askama:template: path= and source= are mutually exclusive")
	}
	if ann.Source != "" && ann.Ext == "" {
		return ann, fmt.Errorf("askama:template: ext= is required when source= is set")
	}
	return ann, nil
}

// splitFields tokenizes on whitespace outside double quotes, so a quoted
// value ("source={% if x %}...") can itself contain spaces.
func splitFields(s string) ([]string, error) {
	var out []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ' ' && !inQuote:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("askama:template: unterminated quote in %q", s)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out, nil
}

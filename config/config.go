// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the project-level configuration file and produces
// the four tables the rest of the pipeline needs: the syntax table, the
// escaper table, the template search roots, and the default whitespace
// policy (spec.md §4.1).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode"

	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	"github.com/askamago/askama/ast"
)

// WhitespacePolicy is one of {preserve, suppress, minimize}.
type WhitespacePolicy int

const (
	WhitespacePreserve WhitespacePolicy = iota
	WhitespaceSuppress
	WhitespaceMinimize
)

func parseWhitespacePolicy(s string) (WhitespacePolicy, error) {
	switch s {
	case "", "preserve":
		return WhitespacePreserve, nil
	case "suppress":
		return WhitespaceSuppress, nil
	case "minimize":
		return WhitespaceMinimize, nil
	default:
		return 0, fmt.Errorf("config: unknown whitespace policy %q", s)
	}
}

// SyntaxTable is a named set of six two-character tag delimiters. Every
// start delimiter must share the same first character, which lets the
// lexer decide a tag's kind by looking at one extra byte.
type SyntaxTable struct {
	Name         string
	BlockStart   string
	BlockEnd     string
	CommentStart string
	CommentEnd   string
	ExprStart    string
	ExprEnd      string
}

func (t SyntaxTable) validate() error {
	pairs := map[string]string{
		"block_start":   t.BlockStart,
		"block_end":     t.BlockEnd,
		"comment_start": t.CommentStart,
		"comment_end":   t.CommentEnd,
		"expr_start":    t.ExprStart,
		"expr_end":      t.ExprEnd,
	}
	for name, d := range pairs {
		if len([]rune(d)) != 2 {
			return &ConfigError{Msg: fmt.Sprintf("syntax %q: delimiter %s must be exactly two characters, got %q", t.Name, name, d)}
		}
	}
	first := []rune(t.BlockStart)[0]
	if []rune(t.CommentStart)[0] != first || []rune(t.ExprStart)[0] != first {
		return &ConfigError{Msg: fmt.Sprintf("syntax %q: all start delimiters must share their first character", t.Name)}
	}
	return nil
}

// DefaultSyntax is the built-in Jinja-like delimiter set.
var DefaultSyntax = SyntaxTable{
	Name:         "default",
	BlockStart:   "{%",
	BlockEnd:     "%}",
	CommentStart: "{#",
	CommentEnd:   "#}",
	ExprStart:    "{{",
	ExprEnd:      "}}",
}

// Escaper is a named entry in the escaper table: an identifier naming a
// function in the runtime package, plus the file extensions it applies to.
type Escaper struct {
	Path       string // identifier, e.g. "html" or "none"
	Extensions []string
}

// builtin escapers always exist as the fallback tail of the table.
var builtinEscapers = []Escaper{
	{Path: "html", Extensions: []string{"html", "htm", "xml", "j2", "jinja", "jinja2"}},
	{Path: "none", Extensions: []string{"md", "yml", "none", "txt", "empty"}},
}

// Config is the effective, validated configuration for one pipeline
// invocation.
type Config struct {
	Dirs              []string
	DefaultWhitespace WhitespacePolicy
	DefaultSyntaxName string
	Syntaxes          map[string]SyntaxTable
	Escapers          []Escaper
}

// ConfigError carries the source location of a malformed configuration
// file entry.
type ConfigError struct {
	File string
	Msg  string
}

func (e *ConfigError) Error() string {
	if e.File == "" {
		return "askama config: " + e.Msg
	}
	return fmt.Sprintf("askama config: %s: %s", e.File, e.Msg)
}

type fileFormat struct {
	General struct {
		Dirs           []string `yaml:"dirs"`
		Whitespace     string   `yaml:"whitespace"`
		DefaultSyntax  string   `yaml:"default_syntax"`
	} `yaml:"general"`
	Syntax []struct {
		Name         string `yaml:"name"`
		BlockStart   string `yaml:"block_start"`
		BlockEnd     string `yaml:"block_end"`
		CommentStart string `yaml:"comment_start"`
		CommentEnd   string `yaml:"comment_end"`
		ExprStart    string `yaml:"expr_start"`
		ExprEnd      string `yaml:"expr_end"`
	} `yaml:"syntax"`
	Escaper []struct {
		Path       string   `yaml:"path"`
		Extensions []string `yaml:"extensions"`
	} `yaml:"escaper"`
}

// Load reads askama.yaml from dir (or its module root, if dir doesn't
// contain one) and returns the effective configuration. A missing file
// yields the built-in defaults, per spec.md §4.1.
func Load(dir string) (*Config, error) {
	root := moduleRoot(dir)
	path := filepath.Join(dir, "askama.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && root != dir {
		path = filepath.Join(root, "askama.yaml")
		data, err = os.ReadFile(path)
	}
	if os.IsNotExist(err) {
		slog.Debug("askama config: no askama.yaml found, using defaults", "dir", dir)
		return defaultConfig(root), nil
	}
	if err != nil {
		return nil, &ConfigError{File: path, Msg: err.Error()}
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, &ConfigError{File: path, Msg: err.Error()}
	}

	cfg := defaultConfig(root)
	if len(ff.General.Dirs) > 0 {
		cfg.Dirs = ff.General.Dirs
	}
	if ff.General.Whitespace != "" {
		ws, err := parseWhitespacePolicy(ff.General.Whitespace)
		if err != nil {
			return nil, &ConfigError{File: path, Msg: err.Error()}
		}
		cfg.DefaultWhitespace = ws
	}
	if ff.General.DefaultSyntax != "" {
		cfg.DefaultSyntaxName = ff.General.DefaultSyntax
	}

	seen := map[string]bool{"default": true}
	for _, s := range ff.Syntax {
		if s.Name == "" {
			return nil, &ConfigError{File: path, Msg: "syntax table missing a name"}
		}
		if seen[s.Name] {
			return nil, &ConfigError{File: path, Msg: fmt.Sprintf("duplicate syntax name %q", s.Name)}
		}
		seen[s.Name] = true
		t := SyntaxTable{
			Name: s.Name, BlockStart: s.BlockStart, BlockEnd: s.BlockEnd,
			CommentStart: s.CommentStart, CommentEnd: s.CommentEnd,
			ExprStart: s.ExprStart, ExprEnd: s.ExprEnd,
		}
		if err := t.validate(); err != nil {
			return nil, err
		}
		cfg.Syntaxes[s.Name] = t
	}

	if len(ff.Escaper) > 0 {
		var escapers []Escaper
		for _, e := range ff.Escaper {
			if !isIdentifier(e.Path) {
				return nil, &ConfigError{File: path, Msg: fmt.Sprintf("escaper path %q is not a legal identifier", e.Path)}
			}
			escapers = append(escapers, Escaper{Path: e.Path, Extensions: e.Extensions})
		}
		cfg.Escapers = append(escapers, builtinEscapers...)
	}

	if _, ok := cfg.Syntaxes[cfg.DefaultSyntaxName]; !ok {
		return nil, &ConfigError{File: path, Msg: fmt.Sprintf("default_syntax %q is not defined", cfg.DefaultSyntaxName)}
	}

	return cfg, nil
}

func defaultConfig(root string) *Config {
	return &Config{
		Dirs:              []string{filepath.Join(root, "templates")},
		DefaultWhitespace: WhitespacePreserve,
		DefaultSyntaxName: "default",
		Syntaxes:          map[string]SyntaxTable{"default": DefaultSyntax},
		Escapers:          append([]Escaper(nil), builtinEscapers...),
	}
}

// moduleRoot walks up from dir looking for a go.mod, parsing it with
// modfile, and returns that directory (or dir itself when none is found).
// The default `templates` root is anchored there; `dirs` listed in
// askama.yaml are used exactly as written.
func moduleRoot(dir string) string {
	cur := dir
	for {
		gomod := filepath.Join(cur, "go.mod")
		if data, err := os.ReadFile(gomod); err == nil {
			if _, err := modfile.Parse(gomod, data, nil); err == nil {
				return cur
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return dir
		}
		cur = parent
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return false
		}
		if i > 0 && !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// EscaperFor selects the first escaper table entry whose extension list
// contains ext, falling through to the built-in tail.
func (c *Config) EscaperFor(ext string) Escaper {
	for _, e := range c.Escapers {
		for _, x := range e.Extensions {
			if x == ext {
				return e
			}
		}
	}
	return Escaper{Path: "none"}
}

// SyntaxFor returns the named syntax table, or the default when name is
// empty.
func (c *Config) SyntaxFor(name string) (SyntaxTable, error) {
	if name == "" {
		name = c.DefaultSyntaxName
	}
	t, ok := c.Syntaxes[name]
	if !ok {
		return SyntaxTable{}, &ConfigError{Msg: fmt.Sprintf("unknown syntax %q", name)}
	}
	return t, nil
}

// ExtensionOf infers a template's extension the way spec.md §3 describes:
// from an explicit `ext=`, else from `escape=`, else from the file path.
func ExtensionOf(path, ext, escape string) string {
	if ext != "" {
		return ext
	}
	if escape != "" && escape != "none" {
		return escape
	}
	if path != "" {
		e := filepath.Ext(path)
		if len(e) > 0 {
			return e[1:]
		}
	}
	return ""
}

// WSMarker converts the effective policy into an ast marker default (nil
// for preserve), which codegen applies through Options.DefaultWS when a tag
// carries no explicit inline marker.
func WSMarker(p WhitespacePolicy) *ast.Marker {
	switch p {
	case WhitespaceSuppress:
		m := ast.MarkerSuppress
		return &m
	case WhitespaceMinimize:
		m := ast.MarkerMinimize
		return &m
	default:
		return nil
	}
}

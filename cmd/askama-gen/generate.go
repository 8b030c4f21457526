// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	pkgs "golang.org/x/tools/go/packages"

	"github.com/askamago/askama/codegen"
	"github.com/askamago/askama/config"
	"github.com/askamago/askama/heritage"
)

// generateOptions carries the flags a single askama-gen invocation runs
// with, gathered from the CLI (spec.md §6, "External interfaces").
type generateOptions struct {
	Dir          string
	Diagnostics  io.Writer
	PrintDefault string // overrides an annotation's own print= when non-empty
}

// runGenerate loads the Go package at opts.Dir, discovers every
// askama:template-annotated type, and runs the pipeline once per type,
// the Go-idiomatic equivalent of Rust's derive(Template) proc-macro:
// since Go has no macros, the translation runs as a source-generation
// pass a host wires up with `go generate` (grounded on
// cmd/scriggo/generate.go's packages.Load-then-walk-declarations shape).
func runGenerate(opts generateOptions) error {
	cfg, err := config.Load(opts.Dir)
	if err != nil {
		return err
	}

	conf := &pkgs.Config{
		Mode: pkgs.NeedName | pkgs.NeedFiles | pkgs.NeedSyntax | pkgs.NeedTypes,
		Dir:  opts.Dir,
	}
	loaded, err := pkgs.Load(conf, ".")
	if err != nil {
		return fmt.Errorf("askama-gen: loading package at %s: %w", opts.Dir, err)
	}
	if pkgs.PrintErrors(loaded) > 0 {
		return fmt.Errorf("askama-gen: package at %s has errors", opts.Dir)
	}
	if len(loaded) != 1 {
		return fmt.Errorf("askama-gen: expected exactly one package at %s, got %d", opts.Dir, len(loaded))
	}
	pkg := loaded[0]

	var generated int
	for _, file := range pkg.Syntax {
		anns, err := findAnnotations(file)
		if err != nil {
			return fmt.Errorf("askama-gen: %w", err)
		}
		for _, ann := range anns {
			if err := generateOne(opts, cfg, pkg.Name, pkg.PkgPath, ann); err != nil {
				return fmt.Errorf("askama-gen: %s: %w", ann.TypeName, err)
			}
			generated++
		}
	}
	if generated == 0 {
		slog.Warn("askama-gen: no askama:template annotations found", "dir", opts.Dir)
	}
	return nil
}

func generateOne(opts generateOptions, cfg *config.Config, pkgName, pkgPath string, ann templateAnnotation) error {
	ext := config.ExtensionOf(ann.Path, ann.Ext, ann.Escape)
	syntax, err := cfg.SyntaxFor(ann.Syntax)
	if err != nil {
		return err
	}

	var loader heritage.Loader = heritage.DirsLoader(cfg.Dirs)
	entryPath := ann.Path
	if ann.Source != "" {
		entryPath = inlineEntryPathPrefix + ann.TypeName
		loader = inlineLoader{entry: entryPath, source: ann.Source, fallback: heritage.DirsLoader(cfg.Dirs)}
	}

	resolved, err := heritage.Build(loader, entryPath, syntax)
	if err != nil {
		return err
	}

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName:    pkgName,
		TypeName:       ann.TypeName,
		Extension:      ext,
		EscaperName:    cfg.EscaperFor(ext).Path,
		DefaultWS:      config.WSMarker(cfg.DefaultWhitespace),
		Block:          ann.Block,
		FiltersPackage: filtersPackagePath(opts.Dir, pkgPath),
	})
	if err != nil {
		return err
	}

	print := ann.Print
	if opts.PrintDefault != "" {
		print = opts.PrintDefault
	}
	if opts.Diagnostics != nil && print != "" && print != "none" {
		root := resolved.Chain[len(resolved.Chain)-1]
		printDiagnostics(opts.Diagnostics, print, root.Nodes, src)
	}

	outPath := filepath.Join(opts.Dir, strings.ToLower(ann.TypeName)+"_askama.go")
	if err := os.WriteFile(outPath, src, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	slog.Info("askama-gen: generated", "type", ann.TypeName, "file", outPath)
	return nil
}

// filtersPackagePath detects a "filters" package sitting alongside the
// context's own package (spec.md §4.4's "a module named `filters` in the
// context's module"), returning its import path if the directory exists
// or "" if the context carries no user-defined filters.
func filtersPackagePath(dir, pkgPath string) string {
	if pkgPath == "" {
		return ""
	}
	if info, err := os.Stat(filepath.Join(dir, "filters")); err != nil || !info.IsDir() {
		return ""
	}
	return path.Join(pkgPath, "filters")
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/askamago/askama/ast"
	"github.com/askamago/askama/heritage"
)

// Options configures a single Generate call: one host type, one entry
// template, one render contract (spec.md §6).
type Options struct {
	PackageName string
	TypeName    string
	Receiver    string // defaults to "t"
	Extension   string // used for the MIME type and %s_EXTENSION constant
	MimeType    string
	// EscaperName is the config-resolved escaper identifier
	// (config.Config.EscaperFor(ext).Path) naming the runtime.Escaper to
	// wire in; the caller resolves this from askama.yaml's escaper table,
	// not codegen, so a project's custom escapers and the full built-in
	// extension list are honored consistently with config.EscaperFor.
	EscaperName string
	// DefaultWS is the project's configured default whitespace marker
	// (config.WSMarker(cfg.DefaultWhitespace)), applied to a tag that
	// carries no inline marker of its own.
	DefaultWS *ast.Marker
	// FiltersPackage is the import path of a "filters" package in the
	// context's own module (spec.md §4.4's user-defined filters). When set,
	// a filter name that isn't one of runtime.Builtins is dispatched to
	// filters.<CapitalizedName> instead of runtime.ApplyFilter.
	FiltersPackage string
	// Block, when set, renders only that block's override chain instead of
	// the whole template (spec.md §6 annotation surface, `block=<name>`),
	// the partial-render escape hatch a host uses to answer an HTMX-style
	// fragment request without re-rendering the surrounding page.
	Block string
}

var extensionMimeTypes = map[string]string{
	"html": "text/html; charset=utf-8",
	"htm":  "text/html; charset=utf-8",
	"xml":  "text/xml; charset=utf-8",
	"txt":  "text/plain; charset=utf-8",
	"md":   "text/markdown; charset=utf-8",
	"json": "application/json",
	"js":   "text/javascript; charset=utf-8",
	"css":  "text/css; charset=utf-8",
}

// Generate produces the Go source of <type>_askama.go: the RenderInto body
// composed from resolved's base template plus its block overrides, and the
// Render/String/T_SIZE_HINT/T_EXTENSION/T_MIME_TYPE wrapper the render
// contract requires.
func Generate(resolved *heritage.Resolved, opts Options) ([]byte, error) {
	if len(resolved.Chain) == 0 {
		return nil, fmt.Errorf("askama: empty heritage chain")
	}
	receiver := opts.Receiver
	if receiver == "" {
		receiver = "t"
	}
	mime := opts.MimeType
	if mime == "" {
		mime = extensionMimeTypes[opts.Extension]
	}
	entry := resolved.Chain[0]
	root := resolved.Chain[len(resolved.Chain)-1]

	escaperName := opts.EscaperName
	if escaperName == "" {
		escaperName = "none"
	}
	escaperExpr := fmt.Sprintf("runtime.EscaperByName(%q)", escaperName)
	e := newEmitter(resolved, entry.Path, escaperExpr, receiver, opts.DefaultWS, opts.FiltersPackage)
	if opts.Block != "" {
		if err := e.emitBlockRef(opts.Block); err != nil {
			return nil, err
		}
	} else if err := e.emitBody(root.Nodes, nil, nil); err != nil {
		return nil, err
	}

	var out strings.Builder
	out.WriteString("// Code generated by askama-gen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&out, "package %s\n\n", opts.PackageName)
	out.WriteString("import (\n\"fmt\"\n\"strings\"\n\n\"github.com/askamago/askama/runtime\"\n")
	if opts.FiltersPackage != "" {
		fmt.Fprintf(&out, "filters %q\n", opts.FiltersPackage)
	}
	out.WriteString(")\n\n")
	fmt.Fprintf(&out, "const %s_SIZE_HINT = %d\n", opts.TypeName, e.sizeHint)
	fmt.Fprintf(&out, "const %s_EXTENSION = %q\n", opts.TypeName, opts.Extension)
	fmt.Fprintf(&out, "const %s_MIME_TYPE = %q\n\n", opts.TypeName, mime)

	fmt.Fprintf(&out, "func (%s *%s) RenderInto(w runtime.Sink) error {\n", receiver, opts.TypeName)
	out.WriteString(e.b.String())
	out.WriteString("return nil\n}\n\n")

	fmt.Fprintf(&out, "func (%s *%s) Render() (string, error) {\n", receiver, opts.TypeName)
	out.WriteString("var sb strings.Builder\n")
	fmt.Fprintf(&out, "sb.Grow(%s_SIZE_HINT)\n", opts.TypeName)
	fmt.Fprintf(&out, "if err := %s.RenderInto(&sb); err != nil {\nreturn \"\", err\n}\n", receiver)
	out.WriteString("return sb.String(), nil\n}\n\n")

	fmt.Fprintf(&out, "func (%s *%s) String() string {\n", receiver, opts.TypeName)
	fmt.Fprintf(&out, "s, err := %s.Render()\n", receiver)
	out.WriteString("if err != nil {\nreturn fmt.Sprintf(\"askama: render error: %v\", err)\n}\n")
	out.WriteString("return s\n}\n")

	formatted, err := imports.Process(strings.TrimSuffix(entry.Path, "/")+"_askama.go", []byte(out.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("askama: formatting generated source for %s: %w", entry.Path, err)
	}
	return formatted, nil
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/askamago/askama/ast"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	nodeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	codeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// printDiagnostics writes the parts of the pipeline's output print asked
// for: the resolved tree's structure, the generated Go source, or both
// (spec.md §6, "Diagnostic output").
func printDiagnostics(w io.Writer, print string, nodes []ast.Node, code []byte) {
	if print == "" || print == "none" {
		return
	}
	if print == "ast" || print == "all" {
		fmt.Fprintln(w, headingStyle.Render("== AST =="))
		fmt.Fprintln(w, nodeStyle.Render(dumpNodes(nodes, 0)))
	}
	if print == "code" || print == "all" {
		fmt.Fprintln(w, headingStyle.Render("== generated code =="))
		fmt.Fprintln(w, codeStyle.Render(string(code)))
	}
}

// dumpNodes renders a template's node tree as an indented structural dump,
// the kind of print=ast output a developer diffs across template edits.
func dumpNodes(nodes []ast.Node, depth int) string {
	var b strings.Builder
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch v := n.(type) {
		case *ast.Lit:
			fmt.Fprintf(&b, "%sLit %q\n", indent, v.Content)
		case *ast.Expr:
			fmt.Fprintf(&b, "%sExpr\n", indent)
		case *ast.Comment:
			fmt.Fprintf(&b, "%sComment\n", indent)
		case *ast.Cond:
			fmt.Fprintf(&b, "%sCond (%d branches)\n", indent, len(v.Branches))
			for _, br := range v.Branches {
				b.WriteString(dumpNodes(br.Body, depth+1))
			}
		case *ast.Loop:
			fmt.Fprintf(&b, "%sLoop\n", indent)
			b.WriteString(dumpNodes(v.Body, depth+1))
			if v.Else != nil {
				fmt.Fprintf(&b, "%selse\n", indent)
				b.WriteString(dumpNodes(v.Else, depth+1))
			}
		case *ast.Match:
			fmt.Fprintf(&b, "%sMatch (%d arms)\n", indent, len(v.Arms))
			for _, arm := range v.Arms {
				b.WriteString(dumpNodes(arm.Body, depth+1))
			}
		case *ast.BlockDef:
			fmt.Fprintf(&b, "%sBlockDef %q\n", indent, v.Name)
			b.WriteString(dumpNodes(v.Body, depth+1))
		case *ast.MacroDef:
			fmt.Fprintf(&b, "%sMacroDef %q\n", indent, v.Name)
			b.WriteString(dumpNodes(v.Body, depth+1))
		case *ast.Call:
			fmt.Fprintf(&b, "%sCall %s::%s\n", indent, v.Scope, v.Name)
		case *ast.Let:
			fmt.Fprintf(&b, "%sLet\n", indent)
		case *ast.Include:
			fmt.Fprintf(&b, "%sInclude %q\n", indent, v.Path)
		case *ast.Import:
			fmt.Fprintf(&b, "%sImport %q as %q\n", indent, v.Path, v.ScopeName)
		case *ast.Extends:
			fmt.Fprintf(&b, "%sExtends %q\n", indent, v.Path)
		case *ast.FilterBlock:
			fmt.Fprintf(&b, "%sFilterBlock\n", indent)
			b.WriteString(dumpNodes(v.Body, depth+1))
		case *ast.Raw:
			fmt.Fprintf(&b, "%sRaw %q\n", indent, v.Content)
		default:
			fmt.Fprintf(&b, "%s%T\n", indent, n)
		}
	}
	return b.String()
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heritage

import (
	"strings"

	"github.com/askamago/askama/ast"
	"github.com/askamago/askama/config"
	"github.com/askamago/askama/parse"
)

// maxChainDepth bounds the extends chain length independently of cycle
// detection (spec.md §3 doesn't name a number; this is a defensive limit
// against a misconfigured, very long but non-cyclic chain).
const maxChainDepth = 64

// BlockOverride is one definition of a block name, tagged with the
// template that owns it so the generator can report accurate positions
// and resolve super() to the next-older override.
type BlockOverride struct {
	Owner string
	Def   *ast.BlockDef
}

// MacroEntry is one macro definition, tagged with the defining template's
// path (its own scope) for local calls, and separately indexed by import
// scope for imported calls.
type MacroEntry struct {
	Owner string
	Def   *ast.MacroDef
}

// Resolved is the output of Build: the Heritage chain plus the block map,
// macro tables and include registry the generator walks (spec.md §4.3).
type Resolved struct {
	// Chain holds the extends chain from entry (child-most, index 0) to
	// base (index len-1). A template with no extends has a chain of one.
	Chain []*ast.Tree

	// Blocks maps a block name to its override list, child-most first,
	// collected across every template in Chain.
	Blocks map[string][]*BlockOverride

	// Macros maps a macro name to its top-level definition in any template
	// in Chain, child-most definition winning (unqualified `call name(...)`).
	Macros map[string]*MacroEntry

	// Imports maps an import scope name (the `as scope` clause) to the
	// macros defined in the imported template, for `call scope::name(...)`.
	Imports map[string]map[string]*MacroEntry

	// Includes maps an include's path, exactly as written in the include
	// tag of any template in Chain or of an included template, to its
	// parsed tree, inlined at generation time.
	Includes map[string]*ast.Tree
}

// arena caches parsed trees by canonical path so a template referenced
// from more than one place (e.g. included twice) is only parsed once.
type arena struct {
	loader Loader
	syntax config.SyntaxTable
	trees  map[string]*ast.Tree
}

func (a *arena) load(p string) (*ast.Tree, error) {
	if t, ok := a.trees[p]; ok {
		return t, nil
	}
	src, err := a.loader.Read(p)
	if err != nil {
		return nil, err
	}
	// A single trailing newline is stripped, mirroring askama_derive's
	// config.rs loader: an editor's final-newline-on-save doesn't become
	// part of the rendered output.
	src = strings.TrimSuffix(src, "\n")
	tree, err := parse.New(p, src, a.syntax).ParseTemplate()
	if err != nil {
		return nil, err
	}
	tree.Path = p
	a.trees[p] = tree
	return tree, nil
}

// Build resolves entryPath into a Heritage chain and block map, per
// spec.md §4.3.
func Build(loader Loader, entryPath string, syntax config.SyntaxTable) (*Resolved, error) {
	a := &arena{loader: loader, syntax: syntax, trees: map[string]*ast.Tree{}}

	chain, err := buildChain(a, entryPath, nil)
	if err != nil {
		return nil, err
	}

	blocks := map[string][]*BlockOverride{}
	for _, tree := range chain {
		topBlocks, err := topLevelBlocks(tree)
		if err != nil {
			return nil, err
		}
		for name, def := range topBlocks {
			blocks[name] = append(blocks[name], &BlockOverride{Owner: tree.Path, Def: def})
		}
	}

	macros := map[string]*MacroEntry{}
	for _, tree := range chain {
		for name, def := range topLevelMacros(tree) {
			if _, exists := macros[name]; !exists {
				macros[name] = &MacroEntry{Owner: tree.Path, Def: def}
			}
		}
	}

	imports := map[string]map[string]*MacroEntry{}
	includes := map[string]*ast.Tree{}
	for _, tree := range chain {
		if err := resolveImportsAndIncludes(a, tree, imports, includes); err != nil {
			return nil, err
		}
	}
	return &Resolved{
		Chain:    chain,
		Blocks:   blocks,
		Macros:   macros,
		Imports:  imports,
		Includes: includes,
	}, nil
}

// buildChain walks Extends edges from entryPath to the base template,
// detecting cycles via the visited-paths stack.
func buildChain(a *arena, p string, visited []string) ([]*ast.Tree, error) {
	for _, v := range visited {
		if v == p {
			return nil, &CycleError{Cycle: append(append([]string{}, visited...), p)}
		}
	}
	if len(visited) >= maxChainDepth {
		return nil, &TooDeepError{Path: p, Limit: maxChainDepth}
	}
	tree, err := a.load(p)
	if err != nil {
		return nil, err
	}
	ext := findExtends(tree)
	if ext == nil {
		return []*ast.Tree{tree}, nil
	}
	basePath := resolveRelative(p, ext.Path)
	rest, err := buildChain(a, basePath, append(visited, p))
	if err != nil {
		return nil, err
	}
	return append([]*ast.Tree{tree}, rest...), nil
}

func findExtends(tree *ast.Tree) *ast.Extends {
	for _, n := range tree.Nodes {
		if e, ok := n.(*ast.Extends); ok {
			return e
		}
		if l, ok := n.(*ast.Lit); ok && !l.Empty() {
			return nil
		}
	}
	return nil
}

// topLevelBlocks collects BlockDef nodes appearing directly in the
// template's top-level node list, and rejects any BlockDef nested inside
// a control construct (spec.md §3's "outside the top level" invariant).
func topLevelBlocks(tree *ast.Tree) (map[string]*ast.BlockDef, error) {
	top := map[string]*ast.BlockDef{}
	for _, n := range tree.Nodes {
		if b, ok := n.(*ast.BlockDef); ok {
			if _, dup := top[b.Name]; dup {
				return nil, &BlockConflictError{Path: tree.Path, Block: b.Name, Msg: "defined more than once in this template"}
			}
			top[b.Name] = b
		}
	}
	for _, n := range tree.Nodes {
		if err := rejectNestedBlocks(tree.Path, n); err != nil {
			return nil, err
		}
	}
	return top, nil
}

func rejectNestedBlocks(path string, n ast.Node) error {
	switch v := n.(type) {
	case *ast.BlockDef:
		return nil // top-level occurrence, checked by the caller
	case *ast.Cond:
		for _, br := range v.Branches {
			for _, c := range br.Body {
				if err := rejectIfBlock(path, c); err != nil {
					return err
				}
			}
		}
	case *ast.Loop:
		for _, c := range v.Body {
			if err := rejectIfBlock(path, c); err != nil {
				return err
			}
		}
		for _, c := range v.Else {
			if err := rejectIfBlock(path, c); err != nil {
				return err
			}
		}
	case *ast.Match:
		for _, arm := range v.Arms {
			for _, c := range arm.Body {
				if err := rejectIfBlock(path, c); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func rejectIfBlock(path string, n ast.Node) error {
	if b, ok := n.(*ast.BlockDef); ok {
		return &BlockConflictError{Path: path, Block: b.Name, Msg: "block definitions must appear at the top level of a template"}
	}
	return rejectNestedBlocks(path, n)
}

func topLevelMacros(tree *ast.Tree) map[string]*ast.MacroDef {
	out := map[string]*ast.MacroDef{}
	for _, n := range tree.Nodes {
		if m, ok := n.(*ast.MacroDef); ok {
			out[m.Name] = m
		}
	}
	return out
}

// resolveImportsAndIncludes walks tree's nodes, recursing into every
// control-structure body (spec.md §4.3's "includes may appear inside
// control structures"), loading every Import and Include target and
// registering their macros/trees.
func resolveImportsAndIncludes(a *arena, tree *ast.Tree, imports map[string]map[string]*MacroEntry, includes map[string]*ast.Tree) error {
	return walkImportsAndIncludes(a, tree, tree.Nodes, imports, includes)
}

func walkImportsAndIncludes(a *arena, tree *ast.Tree, nodes []ast.Node, imports map[string]map[string]*MacroEntry, includes map[string]*ast.Tree) error {
	for _, n := range nodes {
		switch v := n.(type) {
		case *ast.Import:
			p := resolveRelative(tree.Path, v.Path)
			imported, err := a.load(p)
			if err != nil {
				return err
			}
			scope := map[string]*MacroEntry{}
			for name, def := range topLevelMacros(imported) {
				scope[name] = &MacroEntry{Owner: imported.Path, Def: def}
			}
			imports[v.ScopeName] = scope
		case *ast.Include:
			p := resolveRelative(tree.Path, v.Path)
			included, err := a.load(p)
			if err != nil {
				return err
			}
			includes[v.Path] = included
			if err := resolveImportsAndIncludes(a, included, imports, includes); err != nil {
				return err
			}
		case *ast.Cond:
			for _, branch := range v.Branches {
				if err := walkImportsAndIncludes(a, tree, branch.Body, imports, includes); err != nil {
					return err
				}
			}
		case *ast.Loop:
			if err := walkImportsAndIncludes(a, tree, v.Body, imports, includes); err != nil {
				return err
			}
			if err := walkImportsAndIncludes(a, tree, v.Else, imports, includes); err != nil {
				return err
			}
		case *ast.Match:
			for _, arm := range v.Arms {
				if err := walkImportsAndIncludes(a, tree, arm.Body, imports, includes); err != nil {
					return err
				}
			}
		case *ast.BlockDef:
			if err := walkImportsAndIncludes(a, tree, v.Body, imports, includes); err != nil {
				return err
			}
		case *ast.MacroDef:
			if err := walkImportsAndIncludes(a, tree, v.Body, imports, includes); err != nil {
				return err
			}
		case *ast.FilterBlock:
			if err := walkImportsAndIncludes(a, tree, v.Body, imports, includes); err != nil {
				return err
			}
		}
	}
	return nil
}

// SuperChain returns the override chain for block, ordered child-most
// first, as consulted by generated super() calls (spec.md §4.4, "Blocks &
// super").
func (r *Resolved) SuperChain(block string) []*BlockOverride {
	return r.Blocks[block]
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parse implements the template parser (spec.md §4.2): it turns a
// template source string, under a chosen syntax table, into a Template
// AST, failing fast on the first error.
package parse

import (
	"unicode"
	"unicode/utf8"

	"github.com/askamago/askama/ast"
	"github.com/askamago/askama/config"
)

// Parser holds the scanning state for one template source.
type Parser struct {
	path   string
	src    string
	pos    int
	syntax config.SyntaxTable
	first  byte // shared first byte of all start delimiters
}

// New creates a parser for src (the template's full text), to be parsed
// under the given syntax table. path is used only for error messages; pass
// "" for inline sources.
func New(path, src string, syntax config.SyntaxTable) *Parser {
	return &Parser{path: path, src: src, syntax: syntax, first: syntax.BlockStart[0]}
}

// ParseTemplate consumes the whole source and returns a Template AST,
// enforcing the inheritance constraint (spec.md §4.2): if the first
// non-whitespace node is Extends, every other top-level node must be a
// BlockDef, MacroDef, Import, or Comment.
func (p *Parser) ParseTemplate() (*ast.Tree, error) {
	nodes, ender, err := p.parseBody(nil)
	if err != nil {
		return nil, err
	}
	if ender != "" {
		return nil, errMismatch(p.path, p.pos, "", ender)
	}
	if err := checkInheritance(p.path, nodes); err != nil {
		return nil, err
	}
	return &ast.Tree{Path: p.path, Nodes: nodes}, nil
}

func checkInheritance(path string, nodes []ast.Node) error {
	firstReal := -1
	for i, n := range nodes {
		if _, ok := n.(*ast.Lit); ok {
			if l := n.(*ast.Lit); l.Empty() {
				continue
			}
		}
		firstReal = i
		break
	}
	if firstReal == -1 {
		return nil
	}
	if _, ok := nodes[firstReal].(*ast.Extends); !ok {
		return nil
	}
	for _, n := range nodes[firstReal+1:] {
		switch n.(type) {
		case *ast.BlockDef, *ast.MacroDef, *ast.Import, *ast.Comment, *ast.Lit:
			if l, ok := n.(*ast.Lit); ok && !l.Empty() {
				return errNonBlockAtRoot(path, n.Pos().Start)
			}
			continue
		default:
			return errNonBlockAtRoot(path, n.Pos().Start)
		}
	}
	return nil
}

// stopSet is a set of block-tag keywords that end the current body without
// being consumed as ordinary nodes; parseBody returns control to the
// caller when it meets one.
type stopSet map[string]bool

// tagInfo is what parseBody extracts from one block tag, enough for the
// caller to dispatch.
type tagInfo struct {
	keyword string
	rest    string // tag body text after the keyword
	ws      ast.WS
	start   int // byte offset of the tag's start delimiter
	restOff int // byte offset where `rest` begins
}

// parseBody scans nodes until EOF or a block tag whose keyword is in stop.
// On a stop tag it consumes the whole tag from the source and returns the
// extracted tagInfo as `ender`'s keyword via the returned string, alongside
// the parsed tag body for the caller to finish dispatching.
func (p *Parser) parseBody(stop stopSet) ([]ast.Node, string, error) {
	var nodes []ast.Node
	var pendingTag *tagInfo
	for {
		if p.pos >= len(p.src) {
			if stop != nil {
				return nodes, "", errUnexpectedEOF(p.path, p.pos, "a closing tag")
			}
			return nodes, "", nil
		}
		lit, tag, err := p.scanUntilTag()
		if err != nil {
			return nil, "", err
		}
		if lit != nil {
			nodes = append(nodes, lit)
		}
		if tag == nil {
			continue
		}
		switch tag.kind {
		case tagComment:
			nodes = append(nodes, ast.NewComment(posAt(tag.start), tag.ws))
		case tagExpr:
			ep, err := newExprParser(p.path, tag.inner, tag.innerOff)
			if err != nil {
				return nil, "", err
			}
			e, err := ep.ParseExpression()
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, ast.NewExpr(posAt(tag.start), tag.ws, e))
		case tagBlock:
			info := tagInfo{ws: tag.ws, start: tag.start}
			kw, rest, restOff := splitKeyword(tag.inner, tag.innerOff)
			info.keyword, info.rest, info.restOff = kw, rest, restOff
			if stop != nil && stop[info.keyword] {
				pendingTag = &info
			} else {
				n, err := p.dispatchTag(info)
				if err != nil {
					return nil, "", err
				}
				if n != nil {
					nodes = append(nodes, n)
				}
			}
		}
		if pendingTag != nil {
			return nodes, pendingTag.keyword, nil
		}
	}
}

// parseBodyTag is like parseBody but additionally returns the stop tag's
// full tagInfo (rest clause text + ws), for constructs (if/for/match) that
// need to inspect it, e.g. to distinguish else from elseif.
func (p *Parser) parseBodyTag(stop stopSet) ([]ast.Node, *tagInfo, error) {
	var nodes []ast.Node
	for {
		if p.pos >= len(p.src) {
			return nil, nil, errUnexpectedEOF(p.path, p.pos, "a closing tag")
		}
		lit, tag, err := p.scanUntilTag()
		if err != nil {
			return nil, nil, err
		}
		if lit != nil {
			nodes = append(nodes, lit)
		}
		if tag == nil {
			continue
		}
		switch tag.kind {
		case tagComment:
			nodes = append(nodes, ast.NewComment(posAt(tag.start), tag.ws))
		case tagExpr:
			ep, err := newExprParser(p.path, tag.inner, tag.innerOff)
			if err != nil {
				return nil, nil, err
			}
			e, err := ep.ParseExpression()
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, ast.NewExpr(posAt(tag.start), tag.ws, e))
		case tagBlock:
			info := tagInfo{ws: tag.ws, start: tag.start}
			kw, rest, restOff := splitKeyword(tag.inner, tag.innerOff)
			info.keyword, info.rest, info.restOff = kw, rest, restOff
			if stop[info.keyword] {
				return nodes, &info, nil
			}
			n, err := p.dispatchTag(info)
			if err != nil {
				return nil, nil, err
			}
			if n != nil {
				nodes = append(nodes, n)
			}
		}
	}
}

// splitKeyword separates the first identifier word of a block tag body
// from the remainder, which still needs further parsing.
func splitKeyword(s string, off int) (kw, rest string, restOff int) {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if i == 0 && !isIdentStart(r) {
			break
		}
		if i > 0 && !isIdentCont(r) {
			break
		}
		i += size
	}
	kw = s[:i]
	j := i
	for j < len(s) && unicode.IsSpace(rune(s[j])) {
		j++
	}
	return kw, s[j:], off + j
}

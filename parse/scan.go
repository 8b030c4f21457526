// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"strings"
	"unicode"

	"github.com/askamago/askama/ast"
)

type tagKind int

const (
	tagComment tagKind = iota
	tagExpr
	tagBlock
)

type rawTag struct {
	kind     tagKind
	start    int // offset of the tag's start delimiter
	inner    string
	innerOff int
	ws       ast.WS
}

// scanUntilTag scans forward from p.pos, returning the literal text before
// the next tag (split into leading/core/trailing whitespace, or nil if
// empty) and the tag itself (nil at EOF).
func (p *Parser) scanUntilTag() (*ast.Lit, *rawTag, error) {
	start := p.pos
	idx := p.findNextTagStart(p.pos)
	var text string
	if idx == -1 {
		text = p.src[p.pos:]
		p.pos = len(p.src)
	} else {
		text = p.src[p.pos:idx]
		p.pos = idx
	}
	var lit *ast.Lit
	if text != "" {
		before, core, after := splitWhitespace(text)
		lit = ast.NewLit(&ast.Position{Start: start, End: start + len(text)}, before, core, after)
	}
	if p.pos >= len(p.src) {
		return lit, nil, nil
	}
	tag, err := p.scanTag()
	if err != nil {
		return lit, nil, err
	}
	return lit, tag, nil
}

// findNextTagStart returns the byte offset of the next occurrence of any of
// the syntax table's three start delimiters, or -1.
func (p *Parser) findNextTagStart(from int) int {
	s := p.src
	for i := from; i < len(s); i++ {
		if s[i] != p.first {
			continue
		}
		if strings.HasPrefix(s[i:], p.syntax.BlockStart) ||
			strings.HasPrefix(s[i:], p.syntax.CommentStart) ||
			strings.HasPrefix(s[i:], p.syntax.ExprStart) {
			return i
		}
	}
	return -1
}

// scanTag reads one full tag starting at p.pos (which must point at a start
// delimiter), respecting string literals when looking for the matching end
// delimiter, and extracts inline whitespace markers.
func (p *Parser) scanTag() (*rawTag, error) {
	start := p.pos
	s := p.src
	var kind tagKind
	var startDelim, endDelim string
	switch {
	case strings.HasPrefix(s[p.pos:], p.syntax.CommentStart):
		kind, startDelim, endDelim = tagComment, p.syntax.CommentStart, p.syntax.CommentEnd
	case strings.HasPrefix(s[p.pos:], p.syntax.ExprStart):
		kind, startDelim, endDelim = tagExpr, p.syntax.ExprStart, p.syntax.ExprEnd
	case strings.HasPrefix(s[p.pos:], p.syntax.BlockStart):
		kind, startDelim, endDelim = tagBlock, p.syntax.BlockStart, p.syntax.BlockEnd
	default:
		return nil, errSyntax(p.path, p.pos, "expected a tag")
	}
	i := p.pos + len(startDelim)
	end := findTagEnd(s, i, endDelim)
	if end == -1 {
		return nil, errUnexpectedEOF(p.path, p.pos, "a closing "+endDelim)
	}
	inner := s[i:end]
	ws := ast.WS{}
	if m, n := leadingMarker(inner); m != nil {
		ws.Before = m
		inner = inner[n:]
		i += n
	}
	if m, n := trailingMarker(inner); m != nil {
		ws.After = m
		inner = inner[:len(inner)-n]
	}
	p.pos = end + len(endDelim)
	return &rawTag{kind: kind, start: start, inner: strings.TrimSpace(inner), innerOff: i, ws: ws}, nil
}

// findTagEnd scans for endDelim starting at i, skipping over quoted string
// literals so that delimiter-like characters inside them are not mistaken
// for the tag's close, per spec.md §4.2.
func findTagEnd(s string, i int, endDelim string) int {
	for i < len(s) {
		if s[i] == '"' || s[i] == '\'' {
			q := s[i]
			i++
			for i < len(s) && s[i] != q {
				if s[i] == '\\' && i+1 < len(s) {
					i++
				}
				i++
			}
			i++
			continue
		}
		if strings.HasPrefix(s[i:], endDelim) {
			return i
		}
		i++
	}
	return -1
}

func leadingMarker(s string) (*ast.Marker, int) {
	if len(s) == 0 {
		return nil, 0
	}
	m, ok := markerFor(s[0])
	if !ok {
		return nil, 0
	}
	return m, 1
}

func trailingMarker(s string) (*ast.Marker, int) {
	if len(s) == 0 {
		return nil, 0
	}
	m, ok := markerFor(s[len(s)-1])
	if !ok {
		return nil, 0
	}
	return m, 1
}

func markerFor(b byte) (*ast.Marker, bool) {
	var m ast.Marker
	switch b {
	case '-':
		m = ast.MarkerSuppress
	case '+':
		m = ast.MarkerPreserve
	case '~':
		m = ast.MarkerMinimize
	default:
		return nil, false
	}
	return &m, true
}

// splitWhitespace splits text into its leading whitespace run, its core,
// and its trailing whitespace run. If text is entirely whitespace, it all
// goes into the leading run, matching the teacher's "never merge adjacent
// literals" approach of keeping the split mechanical and cheap.
func splitWhitespace(text string) (before, core, after string) {
	trimmedLeft := strings.TrimLeftFunc(text, unicode.IsSpace)
	before = text[:len(text)-len(trimmedLeft)]
	if trimmedLeft == "" {
		return before, "", ""
	}
	core = strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	after = trimmedLeft[len(core):]
	return before, core, after
}

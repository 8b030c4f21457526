// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"strings"

	"github.com/askamago/askama/ast"
)

// parseTarget parses a LetTarget from the token stream: a bare identifier,
// "_", or a parenthesized tuple of targets.
func (p *exprParser) parseTarget() (ast.LetTarget, error) {
	t := p.peek()
	if t.Kind == TokPunct && t.Text == "(" {
		p.next()
		var elems []ast.LetTarget
		for {
			if p.peek().Kind == TokPunct && p.peek().Text == ")" {
				p.next()
				break
			}
			el, err := p.parseTarget()
			if err != nil {
				return ast.LetTarget{}, err
			}
			elems = append(elems, el)
			if p.peek().Kind == TokPunct && p.peek().Text == "," {
				p.next()
				continue
			}
			if err := p.expectPunct(")"); err != nil {
				return ast.LetTarget{}, err
			}
			break
		}
		return ast.LetTarget{Tuple: elems}, nil
	}
	if t.Kind != TokIdent {
		return ast.LetTarget{}, p.errf("expected a binding target")
	}
	p.next()
	if t.Text == "_" {
		return ast.LetTarget{Wild: true, Name: "_"}, nil
	}
	return ast.LetTarget{Name: t.Text}, nil
}

// parseLetBinding parses "target" or "target = expr" from a raw clause
// string, used by both {% let %} and "if let".
func parseLetBinding(path, src string, off int) (ast.LetTarget, ast.Expression, error) {
	ep, err := newExprParser(path, src, off)
	if err != nil {
		return ast.LetTarget{}, nil, err
	}
	target, err := ep.parseTarget()
	if err != nil {
		return ast.LetTarget{}, nil, err
	}
	if ep.atEOF() {
		return target, nil, nil
	}
	if err := ep.expectPunct("="); err != nil {
		return ast.LetTarget{}, nil, err
	}
	value, err := ep.ParseExpression()
	if err != nil {
		return ast.LetTarget{}, nil, err
	}
	return target, value, nil
}

// parseMatchPattern parses a `when` clause's pattern: "_" (wildcard, nil
// return), "Variant", "Variant(name)", or "Variant { field, field: alias,
// .. }".
func parseMatchPattern(path, src string, off int) (*ast.MatchPattern, error) {
	src = strings.TrimSpace(src)
	if src == "_" {
		return nil, nil
	}
	toks, err := tokenize(src, off)
	if err != nil {
		return nil, err
	}
	i := 0
	if toks[i].Kind != TokIdent {
		return nil, errSyntax(path, toks[i].Start, "expected a pattern in when clause")
	}
	pat := &ast.MatchPattern{Variant: toks[i].Text, Fields: map[string]string{}}
	i++
	if i >= len(toks) || toks[i].Kind == TokEOF {
		return pat, nil
	}
	switch {
	case toks[i].Text == "(":
		i++
		if toks[i].Kind != TokIdent {
			return nil, errSyntax(path, toks[i].Start, "expected a binding name")
		}
		pat.Bind = toks[i].Text
		i++
		if toks[i].Text != ")" {
			return nil, errSyntax(path, toks[i].Start, "expected ')'")
		}
	case toks[i].Text == "{":
		i++
		for toks[i].Text != "}" {
			if toks[i].Text == ".." {
				pat.Rest = true
				i++
				continue
			}
			if toks[i].Kind != TokIdent {
				return nil, errSyntax(path, toks[i].Start, "expected a field name")
			}
			field := toks[i].Text
			i++
			alias := field
			if toks[i].Text == ":" {
				i++
				if toks[i].Kind != TokIdent {
					return nil, errSyntax(path, toks[i].Start, "expected an alias")
				}
				alias = toks[i].Text
				i++
			}
			pat.Fields[field] = alias
			pat.FieldOrd = append(pat.FieldOrd, field)
			if toks[i].Text == "," {
				i++
			}
		}
	default:
		return nil, errSyntax(path, toks[i].Start, "unexpected content after variant name")
	}
	return pat, nil
}

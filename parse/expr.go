// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"github.com/askamago/askama/ast"
)

// exprParser consumes a token stream produced by tokenize and builds an
// Expression AST, following the grammar in spec.md §4.2: atoms, then a
// postfix chain (field/method/index/filter), then unary, then binary
// operators grouped by precedence, with range expressions at the very top.
type exprParser struct {
	path string
	toks []Token
	pos  int
}

func newExprParser(path, src string, offset int) (*exprParser, error) {
	toks, err := tokenize(src, offset)
	if err != nil {
		return nil, err
	}
	return &exprParser{path: path, toks: toks}, nil
}

func (p *exprParser) peek() Token { return p.toks[p.pos] }

func (p *exprParser) next() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *exprParser) atEOF() bool { return p.peek().Kind == TokEOF }

func (p *exprParser) errf(msg string) *ParseError {
	return errSyntax(p.path, p.peek().Start, msg)
}

func (p *exprParser) expectPunct(s string) error {
	t := p.peek()
	if t.Kind != TokPunct || t.Text != s {
		return errSyntax(p.path, t.Start, "expected "+s)
	}
	p.next()
	return nil
}

// ParseExpression parses a full expression and requires the token stream
// to be exhausted.
func (p *exprParser) ParseExpression() (ast.Expression, error) {
	e, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, p.errf("unexpected trailing input in expression")
	}
	return e, nil
}

// ParseExpressionPrefix parses a single expression but allows trailing
// tokens to remain (used when a block tag's expression is followed by more
// clause keywords, e.g. "for pattern in iterable filter expr").
func (p *exprParser) ParseExpressionPrefix() (ast.Expression, error) {
	return p.parseRange()
}

func (p *exprParser) parseRange() (ast.Expression, error) {
	pos := posAt(p.peek().Start)
	var left ast.Expression
	var err error
	if !p.isRangeOp() {
		left, err = p.parseOr()
		if err != nil {
			return nil, err
		}
	}
	if p.isRangeOp() {
		inclusive := p.peek().Text == "..="
		p.next()
		var right ast.Expression
		if !p.atEOF() && !p.isClauseBoundary() {
			right, err = p.parseOr()
			if err != nil {
				return nil, err
			}
		}
		return ast.NewRange(pos, left, right, inclusive), nil
	}
	return left, nil
}

func (p *exprParser) isRangeOp() bool {
	t := p.peek()
	return t.Kind == TokPunct && (t.Text == ".." || t.Text == "..=")
}

// isClauseBoundary reports whether the parser has hit a keyword that ends
// a range's right-hand side when used inside a control-tag clause (e.g.
// the "filter" keyword of a for-loop).
func (p *exprParser) isClauseBoundary() bool {
	t := p.peek()
	return t.Kind == TokIdent && t.Text == "filter"
}

var binPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"|": 4,
	"^": 5,
	"&": 6,
	"<<": 7, ">>": 7,
	"+": 8, "-": 8,
	"*": 9, "/": 9, "%": 9,
}

func (p *exprParser) parseOr() (ast.Expression, error) { return p.parseBinary(1) }

func (p *exprParser) parseBinary(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.Kind != TokPunct {
			break
		}
		// `|` with no space on either side and followed by an identifier
		// is always a filter application, already consumed inside
		// parsePostfix; by the time we get here a bare `|` is bitwise-or.
		prec, ok := binPrec[t.Text]
		if !ok || prec < minPrec {
			break
		}
		op := t.Text
		pos := posAt(t.Start)
		p.next()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, op, left, right)
	}
	return left, nil
}

func (p *exprParser) parseUnary() (ast.Expression, error) {
	t := p.peek()
	if t.Kind == TokPunct && (t.Text == "-" || t.Text == "!") {
		pos := posAt(t.Start)
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(pos, t.Text, inner), nil
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (ast.Expression, error) {
	e, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.Kind != TokPunct {
			break
		}
		switch t.Text {
		case ".":
			pos := posAt(t.Start)
			p.next()
			name := p.peek()
			if name.Kind != TokIdent {
				return nil, p.errf("expected field or method name after '.'")
			}
			p.next()
			if p.peek().Kind == TokPunct && p.peek().Text == "(" {
				args, err := p.parseArgList()
				if err != nil {
					return nil, err
				}
				e = ast.NewMethodCall(pos, e, name.Text, args)
			} else {
				e = ast.NewField(pos, e, name.Text)
			}
		case "[":
			pos := posAt(t.Start)
			p.next()
			idx, err := p.parseRange()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			e = ast.NewIndex(pos, e, idx)
		case "(":
			pos := posAt(t.Start)
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			e = ast.NewFuncCall(pos, e, args)
		case "|":
			// Filter iff immediately adjacent to the preceding token and
			// immediately followed by an identifier, per spec.md §9.
			next := p.toks[p.pos+1]
			if t.SpaceBefore || next.SpaceBefore || next.Kind != TokIdent {
				return e, nil
			}
			pos := posAt(t.Start)
			p.next()
			name := p.next()
			var args []ast.Expression
			if p.peek().Kind == TokPunct && p.peek().Text == "(" {
				args, err = p.parseArgList()
				if err != nil {
					return nil, err
				}
			}
			e = ast.NewFilterApp(pos, e, ast.FilterCall{Pos: pos, Name: name.Text, Args: args})
		default:
			return e, nil
		}
	}
	return e, nil
}

func (p *exprParser) parseArgList() ([]ast.Expression, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for {
		if p.peek().Kind == TokPunct && p.peek().Text == ")" {
			p.next()
			return args, nil
		}
		// Arguments are positional only: a `name: expr` argument is a
		// syntax error here (Call tags parse their named args with the
		// tag-level parser; function/method calls in plain expression
		// position don't carry names).
		e, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.peek().Kind == TokPunct && p.peek().Text == "," {
			p.next()
			continue
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *exprParser) parseAtom() (ast.Expression, error) {
	t := p.peek()
	pos := posAt(t.Start)
	switch t.Kind {
	case TokString:
		p.next()
		return ast.NewStringLit(pos, t.Text), nil
	case TokInt:
		p.next()
		v, err := parseIntLiteral(t.Text)
		if err != nil {
			return nil, errSyntax(p.path, t.Start, "invalid integer literal "+t.Text)
		}
		return ast.NewIntLit(pos, t.Text, v), nil
	case TokIdent:
		switch t.Text {
		case "true":
			p.next()
			return ast.NewBoolLit(pos, true), nil
		case "false":
			p.next()
			return ast.NewBoolLit(pos, false), nil
		case "crate", "self", "super", "Self":
			return p.parsePath()
		}
		p.next()
		return ast.NewVariable(pos, t.Text), nil
	case TokPunct:
		switch t.Text {
		case "(":
			p.next()
			inner, err := p.parseRange()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return ast.NewGroup(pos, inner), nil
		case "[":
			p.next()
			var elems []ast.Expression
			for {
				if p.peek().Kind == TokPunct && p.peek().Text == "]" {
					p.next()
					return ast.NewArrayLit(pos, elems), nil
				}
				e, err := p.parseRange()
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				if p.peek().Kind == TokPunct && p.peek().Text == "," {
					p.next()
					continue
				}
				if err := p.expectPunct("]"); err != nil {
					return nil, err
				}
				return ast.NewArrayLit(pos, elems), nil
			}
		}
	}
	return nil, p.errf("expected an expression")
}

func (p *exprParser) parsePath() (ast.Expression, error) {
	t := p.next()
	pos := posAt(t.Start)
	var kind ast.PathKind
	switch t.Text {
	case "crate":
		kind = ast.PathCrate
	case "self":
		kind = ast.PathSelf
	case "super":
		kind = ast.PathSuper
	case "Self":
		kind = ast.PathSelfType
	}
	if err := p.expectPunct("::"); err != nil {
		return nil, err
	}
	name := p.peek()
	if name.Kind != TokIdent {
		return nil, p.errf("expected identifier after '::'")
	}
	p.next()
	seg := name.Text
	for p.peek().Kind == TokPunct && p.peek().Text == "::" {
		p.next()
		n := p.peek()
		if n.Kind != TokIdent {
			return nil, p.errf("expected identifier after '::'")
		}
		p.next()
		seg += "::" + n.Text
	}
	return ast.NewPath(pos, kind, seg), nil
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"strings"

	"github.com/askamago/askama/ast"
)

// dispatchTag routes one opening block tag to its construct parser, per the
// tag recognition table in spec.md §4.2. It is only ever called for tags
// that parseBody/parseBodyTag did not already consume as a stop keyword, so
// a bare else/elseif/endif/endfor/... reaching here is always a mismatch:
// it means the matching opening tag was never seen.
func (p *Parser) dispatchTag(info tagInfo) (ast.Node, error) {
	switch info.keyword {
	case "if":
		return p.parseIf(info)
	case "for":
		return p.parseFor(info)
	case "match":
		return p.parseMatch(info)
	case "block":
		return p.parseBlockDef(info)
	case "macro":
		return p.parseMacroDef(info)
	case "filter":
		return p.parseFilterBlock(info)
	case "raw":
		return p.parseRaw(info)
	case "call":
		return p.parseCall(info)
	case "let":
		return p.parseLet(info)
	case "include":
		return p.parseInclude(info)
	case "extends":
		return p.parseExtends(info)
	case "import":
		return p.parseImport(info)
	case "else", "elseif", "endif", "endfor", "endmatch", "when", "endblock",
		"endmacro", "endfilter", "endraw":
		return nil, errMismatch(p.path, info.start, "", info.keyword)
	case "":
		return nil, errSyntax(p.path, info.start, "empty tag")
	default:
		return nil, errUnknownTag(p.path, info.start, info.keyword)
	}
}

// parseIf parses an if/else if/else chain (spec.md §4.2, Cond node), including
// the "if let PATTERN = expr" guard form.
func (p *Parser) parseIf(first tagInfo) (ast.Node, error) {
	startPos := posAt(first.start)
	var branches []ast.CondBranch
	clause := first
	for {
		guard, target, letExpr, err := parseIfClause(p.path, clause)
		if err != nil {
			return nil, err
		}
		isPlainElse := clause.keyword == "else" && guard == nil && target == nil
		stop := stopSet{"endif": true}
		if !isPlainElse {
			stop["else"] = true
		}
		body, tag, err := p.parseBodyTag(stop)
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.CondBranch{
			WS:      clause.ws,
			Guard:   guard,
			Let:     target,
			LetExpr: letExpr,
			Body:    body,
		})
		if tag.keyword == "endif" {
			return ast.NewCond(startPos, branches, tag.ws), nil
		}
		clause = *tag
	}
}

// parseIfClause extracts the guard expression (or let-pattern) from an if or
// else tag's rest clause. A plain "else" with empty rest yields three nils.
func parseIfClause(path string, clause tagInfo) (ast.Expression, *ast.LetTarget, ast.Expression, error) {
	rest := clause.rest
	off := clause.restOff
	if clause.keyword == "else" {
		trimmed := strings.TrimSpace(rest)
		if trimmed == "" {
			return nil, nil, nil, nil
		}
		if trimmed != "if" && !strings.HasPrefix(trimmed, "if ") && !strings.HasPrefix(trimmed, "if\t") {
			return nil, nil, nil, errSyntax(path, off, "expected 'if' or end of else clause")
		}
		skip := len("if")
		rest = rest[strings.Index(rest, "if")+skip:]
		off += strings.Index(clause.rest, "if") + skip
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "let ") {
		target, value, err := parseLetBinding(path, rest[4:], off+4)
		if err != nil {
			return nil, nil, nil, err
		}
		return nil, &target, value, nil
	}
	ep, err := newExprParser(path, rest, off)
	if err != nil {
		return nil, nil, nil, err
	}
	e, err := ep.ParseExpression()
	if err != nil {
		return nil, nil, nil, err
	}
	return e, nil, nil, nil
}

// parseFor parses a for/else loop (spec.md §4.2, Loop node): "for PATTERN in
// ITERABLE [filter EXPR]".
func (p *Parser) parseFor(first tagInfo) (ast.Node, error) {
	pos := posAt(first.start)
	pattern, iterable, filter, err := parseForClause(p.path, first.rest, first.restOff)
	if err != nil {
		return nil, err
	}
	body, tag, err := p.parseBodyTag(stopSet{"else": true, "endfor": true})
	if err != nil {
		return nil, err
	}
	var elseBody []ast.Node
	var elseWS ast.WS
	endWS := tag.ws
	if tag.keyword == "else" {
		if strings.TrimSpace(tag.rest) != "" {
			return nil, errSyntax(p.path, tag.restOff, "unexpected content after else")
		}
		elseWS = tag.ws
		elseBody, tag, err = p.parseBodyTag(stopSet{"endfor": true})
		if err != nil {
			return nil, err
		}
		endWS = tag.ws
	}
	return ast.NewLoop(pos, first.ws, pattern, iterable, filter, body, elseWS, elseBody, endWS), nil
}

func parseForClause(path, rest string, off int) (*ast.LetTarget, ast.Expression, ast.Expression, error) {
	ep, err := newExprParser(path, rest, off)
	if err != nil {
		return nil, nil, nil, err
	}
	target, err := ep.parseTarget()
	if err != nil {
		return nil, nil, nil, err
	}
	in := ep.peek()
	if in.Kind != TokIdent || in.Text != "in" {
		return nil, nil, nil, ep.errf("expected 'in'")
	}
	ep.next()
	iterable, err := ep.ParseExpressionPrefix()
	if err != nil {
		return nil, nil, nil, err
	}
	var filter ast.Expression
	if ep.peek().Kind == TokIdent && ep.peek().Text == "filter" {
		ep.next()
		filter, err = ep.ParseExpression()
		if err != nil {
			return nil, nil, nil, err
		}
	} else if !ep.atEOF() {
		return nil, nil, nil, ep.errf("unexpected trailing input in for clause")
	}
	return &target, iterable, filter, nil
}

// parseMatch parses a match/when chain (spec.md §4.2, Match node). Any
// literal text between "match" and the first "when" is insignificant
// (templates are expected to put only whitespace there) and is discarded.
func (p *Parser) parseMatch(first tagInfo) (ast.Node, error) {
	pos := posAt(first.start)
	ep, err := newExprParser(p.path, first.rest, first.restOff)
	if err != nil {
		return nil, err
	}
	scrutinee, err := ep.ParseExpression()
	if err != nil {
		return nil, err
	}
	_, next, err := p.parseBodyTag(stopSet{"when": true, "endmatch": true})
	if err != nil {
		return nil, err
	}
	var arms []ast.MatchArm
	for next.keyword == "when" {
		cur := next
		pat, err := parseMatchPattern(p.path, cur.rest, cur.restOff)
		if err != nil {
			return nil, err
		}
		var body []ast.Node
		body, next, err = p.parseBodyTag(stopSet{"when": true, "endmatch": true})
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{WS: cur.ws, Pattern: pat, Body: body})
	}
	if len(arms) == 0 {
		return nil, errSyntax(p.path, next.start, "match has no when arms")
	}
	return ast.NewMatch(pos, first.ws, scrutinee, arms, next.ws), nil
}

// parseBlockDef parses a named block (spec.md §4.2, BlockDef node).
func (p *Parser) parseBlockDef(first tagInfo) (ast.Node, error) {
	name := strings.TrimSpace(first.rest)
	if !isPlainIdentifier(name) {
		return nil, errSyntax(p.path, first.restOff, "expected a block name")
	}
	body, tag, err := p.parseBodyTag(stopSet{"endblock": true})
	if err != nil {
		return nil, err
	}
	if end := strings.TrimSpace(tag.rest); end != "" && end != name {
		return nil, errSyntax(p.path, tag.start, fmt.Sprintf("endblock name %q does not match block name %q", end, name))
	}
	return ast.NewBlockDef(posAt(first.start), first.ws, name, body, tag.ws), nil
}

// parseMacroDef parses a macro definition (spec.md §4.2, MacroDef node):
// "macro name(param[, param = default]*)".
func (p *Parser) parseMacroDef(first tagInfo) (ast.Node, error) {
	name, params, err := parseMacroSignature(p.path, first.rest, first.restOff)
	if err != nil {
		return nil, err
	}
	body, tag, err := p.parseBodyTag(stopSet{"endmacro": true})
	if err != nil {
		return nil, err
	}
	if end := strings.TrimSpace(tag.rest); end != "" && end != name {
		return nil, errSyntax(p.path, tag.start, fmt.Sprintf("endmacro name %q does not match macro name %q", end, name))
	}
	return ast.NewMacroDef(posAt(first.start), first.ws, name, params, body, tag.ws), nil
}

func parseMacroSignature(path, rest string, off int) (string, []ast.MacroParam, error) {
	toks, err := tokenize(rest, off)
	if err != nil {
		return "", nil, err
	}
	if toks[0].Kind != TokIdent {
		return "", nil, errSyntax(path, toks[0].Start, "expected a macro name")
	}
	name := toks[0].Text
	i := 1
	if toks[i].Text != "(" {
		return "", nil, errSyntax(path, toks[i].Start, "expected '('")
	}
	i++
	var params []ast.MacroParam
	for toks[i].Text != ")" {
		if toks[i].Kind != TokIdent {
			return "", nil, errSyntax(path, toks[i].Start, "expected a parameter name")
		}
		param := ast.MacroParam{Name: toks[i].Text}
		i++
		if toks[i].Text == "=" {
			i++
			ep := &exprParser{path: path, toks: toks, pos: i}
			def, err := ep.parseRange()
			if err != nil {
				return "", nil, err
			}
			param.Default = def
			i = ep.pos
		}
		params = append(params, param)
		if toks[i].Text == "," {
			i++
		}
	}
	return name, params, nil
}

// parseFilterBlock parses a filter block (spec.md §4.2, FilterBlock node),
// which can carry a chain: "filter upper|truncate(10)".
func (p *Parser) parseFilterBlock(first tagInfo) (ast.Node, error) {
	chain, err := parseFilterChain(p.path, first.rest, first.restOff)
	if err != nil {
		return nil, err
	}
	body, tag, err := p.parseBodyTag(stopSet{"endfilter": true})
	if err != nil {
		return nil, err
	}
	return ast.NewFilterBlock(posAt(first.start), first.ws, chain, body, tag.ws), nil
}

func parseFilterChain(path, rest string, off int) ([]ast.FilterCall, error) {
	toks, err := tokenize(rest, off)
	if err != nil {
		return nil, err
	}
	var chain []ast.FilterCall
	i := 0
	for {
		if toks[i].Kind != TokIdent {
			return nil, errSyntax(path, toks[i].Start, "expected a filter name")
		}
		fc := ast.FilterCall{Pos: posAt(toks[i].Start), Name: toks[i].Text}
		i++
		if toks[i].Text == "(" {
			ep := &exprParser{path: path, toks: toks, pos: i}
			args, err := ep.parseArgList()
			if err != nil {
				return nil, err
			}
			fc.Args = args
			i = ep.pos
		}
		chain = append(chain, fc)
		if toks[i].Text == "|" {
			i++
			continue
		}
		if toks[i].Kind == TokEOF {
			return chain, nil
		}
		return nil, errSyntax(path, toks[i].Start, "expected '|' or end of filter chain")
	}
}

// parseRaw parses a raw block (spec.md §4.2, Raw node): content is kept
// verbatim, not re-lexed, up to the matching "endraw" tag.
func (p *Parser) parseRaw(first tagInfo) (ast.Node, error) {
	from := p.pos
	for {
		idx := strings.Index(p.src[from:], p.syntax.BlockStart)
		if idx == -1 {
			return nil, errUnexpectedEOF(p.path, p.pos, "endraw")
		}
		abs := from + idx
		after := abs + len(p.syntax.BlockStart)
		end := findTagEnd(p.src, after, p.syntax.BlockEnd)
		if end == -1 {
			return nil, errUnexpectedEOF(p.path, abs, "endraw")
		}
		inner := p.src[after:end]
		ws := ast.WS{}
		if m, n := leadingMarker(inner); m != nil {
			ws.Before = m
			inner = inner[n:]
		}
		if m, n := trailingMarker(inner); m != nil {
			ws.After = m
			inner = inner[:len(inner)-n]
		}
		if strings.TrimSpace(inner) == "endraw" {
			content := p.src[p.pos:abs]
			p.pos = end + len(p.syntax.BlockEnd)
			return ast.NewRaw(posAt(first.start), first.ws, content, ws), nil
		}
		from = after
	}
}

// parseCall parses a macro invocation tag (spec.md §4.2, Call node):
// "call [scope::]name(arg, arg, name: arg, ...)", rejecting positional args
// after a named one.
func (p *Parser) parseCall(first tagInfo) (ast.Node, error) {
	toks, err := tokenize(first.rest, first.restOff)
	if err != nil {
		return nil, err
	}
	i := 0
	if toks[i].Kind != TokIdent {
		return nil, errSyntax(p.path, toks[i].Start, "expected a macro name")
	}
	scope := ""
	name := toks[i].Text
	i++
	if toks[i].Text == "::" {
		i++
		if toks[i].Kind != TokIdent {
			return nil, errSyntax(p.path, toks[i].Start, "expected a macro name after '::'")
		}
		scope = name
		name = toks[i].Text
		i++
	}
	if toks[i].Text != "(" {
		return nil, errSyntax(p.path, toks[i].Start, "expected '('")
	}
	i++
	var args []ast.CallArg
	seenNamed := false
	for toks[i].Text != ")" {
		argName := ""
		if toks[i].Kind == TokIdent && toks[i+1].Text == ":" {
			argName = toks[i].Text
			i += 2
			seenNamed = true
		} else if seenNamed {
			return nil, errSyntax(p.path, toks[i].Start, "positional argument after named argument")
		}
		ep := &exprParser{path: p.path, toks: toks, pos: i}
		val, err := ep.parseRange()
		if err != nil {
			return nil, err
		}
		args = append(args, ast.CallArg{Name: argName, Value: val})
		i = ep.pos
		if toks[i].Text == "," {
			i++
		}
	}
	return ast.NewCall(posAt(first.start), first.ws, scope, name, args), nil
}

// parseLet parses a let binding (spec.md §4.2, Let node): "let TARGET [=
// EXPR]".
func (p *Parser) parseLet(first tagInfo) (ast.Node, error) {
	target, value, err := parseLetBinding(p.path, first.rest, first.restOff)
	if err != nil {
		return nil, err
	}
	return ast.NewLet(posAt(first.start), first.ws, target, value), nil
}

// parseInclude parses an include tag (spec.md §4.2, Include node): "include
// \"path\"".
func (p *Parser) parseInclude(first tagInfo) (ast.Node, error) {
	path, err := parseQuotedPathClause(p.path, first.rest, first.restOff)
	if err != nil {
		return nil, err
	}
	return ast.NewInclude(posAt(first.start), first.ws, path), nil
}

// parseExtends parses an extends tag (spec.md §4.2, Extends node): "extends
// \"path\"". The first-node-only placement rule is enforced by
// checkInheritance after the whole tree is parsed.
func (p *Parser) parseExtends(first tagInfo) (ast.Node, error) {
	path, err := parseQuotedPathClause(p.path, first.rest, first.restOff)
	if err != nil {
		return nil, err
	}
	return ast.NewExtends(posAt(first.start), path), nil
}

// parseImport parses an import tag (spec.md §4.2, Import node): "import
// \"path\" as scope".
func (p *Parser) parseImport(first tagInfo) (ast.Node, error) {
	toks, err := tokenize(first.rest, first.restOff)
	if err != nil {
		return nil, err
	}
	if toks[0].Kind != TokString {
		return nil, errSyntax(p.path, toks[0].Start, "expected a quoted path")
	}
	path := toks[0].Text
	if toks[1].Kind != TokIdent || toks[1].Text != "as" {
		return nil, errSyntax(p.path, toks[1].Start, "expected 'as'")
	}
	if toks[2].Kind != TokIdent {
		return nil, errSyntax(p.path, toks[2].Start, "expected a scope name")
	}
	return ast.NewImport(posAt(first.start), first.ws, path, toks[2].Text), nil
}

func isPlainIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if i > 0 && !isIdentCont(r) {
			return false
		}
	}
	return true
}

func parseQuotedPathClause(path, rest string, off int) (string, error) {
	toks, err := tokenize(rest, off)
	if err != nil {
		return "", err
	}
	if toks[0].Kind != TokString {
		return "", errSyntax(path, toks[0].Start, "expected a quoted path")
	}
	if toks[1].Kind != TokEOF {
		return "", errSyntax(path, toks[1].Start, "unexpected content after path")
	}
	return toks[0].Text, nil
}

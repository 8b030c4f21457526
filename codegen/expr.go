// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/askamago/askama/ast"
	"github.com/askamago/askama/runtime"
)

// exprGen turns an Expression into a Go expression string, accumulating
// any statements (temp-variable declarations plus their error checks) that
// must run first. Only FilterApp is fallible; every other node produces a
// pure Go expression, letting the generator emit and trust the host Go
// compiler for field/method/index resolution, per spec.md §4.4's
// "Variable resolution" note.
type exprGen struct {
	e     *Emitter
	stmts []string
}

func (g *exprGen) gen(e ast.Expression) (string, error) {
	switch v := e.(type) {
	case *ast.StringLit:
		return strconv.Quote(v.Value), nil
	case *ast.IntLit:
		return v.Text, nil
	case *ast.BoolLit:
		if v.Value {
			return "true", nil
		}
		return "false", nil
	case *ast.Variable:
		return g.e.resolveVar(v.Name), nil
	case *ast.Path:
		return goIdentPath(v.Segment), nil
	case *ast.Field:
		base, err := g.gen(v.Base)
		if err != nil {
			return "", err
		}
		if method, ok := loopMetaAccessor(v.Base, v.Name); ok {
			return fmt.Sprintf("%s.%s()", base, method), nil
		}
		return base + "." + goIdent(v.Name), nil
	case *ast.MethodCall:
		base, err := g.gen(v.Base)
		if err != nil {
			return "", err
		}
		args, err := g.genList(v.Args)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.%s(%s)", base, goIdent(v.Name), strings.Join(args, ", ")), nil
	case *ast.FuncCall:
		if name, ok := calleeName(v.Callee); ok && name == "super" && len(v.Args) == 0 {
			return g.e.genSuperCall()
		}
		callee, err := g.gen(v.Callee)
		if err != nil {
			return "", err
		}
		args, err := g.genList(v.Args)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", ")), nil
	case *ast.Index:
		base, err := g.gen(v.Base)
		if err != nil {
			return "", err
		}
		idx, err := g.gen(v.Index)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", base, idx), nil
	case *ast.UnaryOp:
		inner, err := g.gen(v.Expr)
		if err != nil {
			return "", err
		}
		return v.Op + inner, nil
	case *ast.BinaryOp:
		l, err := g.gen(v.Left)
		if err != nil {
			return "", err
		}
		r, err := g.gen(v.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", l, v.Op, r), nil
	case *ast.Group:
		inner, err := g.gen(v.Inner)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case *ast.ArrayLit:
		elems, err := g.genList(v.Elems)
		if err != nil {
			return "", err
		}
		return "[]any{" + strings.Join(elems, ", ") + "}", nil
	case *ast.FilterApp:
		value, err := g.gen(v.Value)
		if err != nil {
			return "", err
		}
		args, err := g.genList(v.Filter.Args)
		if err != nil {
			return "", err
		}
		tmp := g.e.newTemp("f")
		// Built-ins win on a name collision (spec.md §4.4), so a name
		// present in runtime.Builtins is always dispatched there even when
		// the context also carries a same-named user filter.
		if _, builtin := runtime.Builtins[v.Filter.Name]; !builtin && g.e.filtersPkg != "" {
			callArgs := append([]string{value}, args...)
			g.stmts = append(g.stmts, fmt.Sprintf("%s, err := filters.%s(%s)", tmp, goIdent(v.Filter.Name), strings.Join(callArgs, ", ")))
		} else {
			callArgs := append([]string{fmt.Sprintf("%q", v.Filter.Name), value}, args...)
			g.stmts = append(g.stmts, fmt.Sprintf("%s, err := runtime.ApplyFilter(%s)", tmp, strings.Join(callArgs, ", ")))
		}
		g.stmts = append(g.stmts, "if err != nil {\nreturn err\n}")
		return tmp, nil
	case *ast.Range:
		return "", fmt.Errorf("range expression is only valid as a for-loop iterable")
	}
	return "", fmt.Errorf("unsupported expression node %T", e)
}

func (g *exprGen) genList(exprs []ast.Expression) ([]string, error) {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		s, err := g.gen(e)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// loopMetaFields maps the field-style names askama templates use on the
// `loop` variable (`loop.index`, `loop.last`, ...) to the runtime.LoopMeta
// method that actually backs them; the runtime represents them as methods
// rather than fields since PrevItem/NextItem need to distinguish "no item"
// from "item is the zero value".
var loopMetaFields = map[string]string{
	"index":    "Index",
	"index0":   "Index0",
	"first":    "First",
	"last":     "Last",
	"previtem": "PrevItem",
	"nextitem": "NextItem",
}

// loopMetaAccessor reports whether base.name is one of the `loop` pseudo-
// variable's field-style accessors, returning the runtime.LoopMeta method
// name to call in its place.
func loopMetaAccessor(base ast.Expression, name string) (string, bool) {
	v, ok := base.(*ast.Variable)
	if !ok || v.Name != "loop" {
		return "", false
	}
	method, ok := loopMetaFields[name]
	return method, ok
}

func calleeName(e ast.Expression) (string, bool) {
	v, ok := e.(*ast.Variable)
	if !ok {
		return "", false
	}
	return v.Name, true
}

// goIdent maps a template identifier to the Go identifier used in
// generated code. Template identifiers are already restricted to
// Go-legal characters by the lexer, so this only capitalizes the first
// letter when accessing what is conventionally an exported struct field.
func goIdent(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// goIdentPath renders a crate::/self::/super::/Self:: path segment as a Go
// selector chain, replacing "::" with ".".
func goIdentPath(segment string) string {
	parts := strings.Split(segment, "::")
	for i, p := range parts {
		parts[i] = goIdent(p)
	}
	return strings.Join(parts, ".")
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"

	"github.com/askamago/askama/ast"
)

// emitCond lowers an if/else-if/else chain to nested Go if statements,
// translating an "if let PATTERN = EXPR" guard to Go's comma-ok idiom
// (spec.md §4.4's variable-resolution note rules out simulating Option/
// Result matching, so the host expression is trusted to already return a
// (value, bool) pair).
func (e *Emitter) emitCond(c *ast.Cond) error {
	return e.emitCondFrom(c, 0)
}

func (e *Emitter) emitCondFrom(c *ast.Cond, i int) error {
	if i >= len(c.Branches) {
		return nil
	}
	br := c.Branches[i]
	var trailOut *ast.Marker
	if i+1 < len(c.Branches) {
		trailOut = c.Branches[i+1].WS.Before
	} else {
		trailOut = c.EndWS.Before
	}

	switch {
	case br.Guard == nil && br.Let == nil:
		e.writef("{\n")
		e.pushScope()
		err := e.emitBody(br.Body, br.WS.After, trailOut)
		e.popScope()
		e.writef("}\n")
		return err

	case br.Let != nil:
		if br.Let.Tuple != nil {
			return &GenerateError{Template: e.path, Kind: "IfLetPattern", Msg: "if-let patterns must be a single identifier or _"}
		}
		g := &exprGen{e: e}
		code, err := g.gen(br.LetExpr)
		if err != nil {
			return err
		}
		for _, s := range g.stmts {
			e.b.WriteString(s)
			e.b.WriteString("\n")
		}
		valName := "_"
		if !br.Let.Wild && br.Let.Name != "" {
			valName = e.newTemp("iflet_" + br.Let.Name)
		}
		e.writef("if %s, ok := %s; ok {\n", valName, code)
		e.pushScope()
		if valName != "_" {
			e.declare(br.Let.Name, valName)
		}
		err = e.emitBody(br.Body, br.WS.After, trailOut)
		e.popScope()
		if err != nil {
			return err
		}
		e.writef("}")

	default:
		g := &exprGen{e: e}
		code, err := g.gen(br.Guard)
		if err != nil {
			return err
		}
		for _, s := range g.stmts {
			e.b.WriteString(s)
			e.b.WriteString("\n")
		}
		e.writef("if runtime.Truthy(%s) {\n", code)
		e.pushScope()
		err = e.emitBody(br.Body, br.WS.After, trailOut)
		e.popScope()
		if err != nil {
			return err
		}
		e.writef("}")
	}

	if i+1 < len(c.Branches) {
		e.writef(" else ")
		return e.emitCondFrom(c, i+1)
	}
	e.writef("\n")
	return nil
}

// emitMatch lowers a match to a Go type switch: each `when Variant` arm
// names a Go type the scrutinee is expected to satisfy, following the
// idiomatic Go rendition of a Rust-style enum match (one concrete type per
// variant behind a common interface).
func (e *Emitter) emitMatch(m *ast.Match) error {
	g := &exprGen{e: e}
	code, err := g.gen(m.Scrutinee)
	if err != nil {
		return err
	}
	for _, s := range g.stmts {
		e.b.WriteString(s)
		e.b.WriteString("\n")
	}
	scrutVar := e.newTemp("scrut")
	e.writef("%s := %s\n", scrutVar, code)
	e.writef("switch v := any(%s).(type) {\n", scrutVar)
	for i, arm := range m.Arms {
		var trailOut *ast.Marker
		if i+1 < len(m.Arms) {
			trailOut = m.Arms[i+1].WS.Before
		} else {
			trailOut = m.EndWS.Before
		}
		if arm.Pattern == nil {
			e.writef("default:\n")
		} else {
			e.writef("case %s:\n", goIdent(arm.Pattern.Variant))
		}
		e.writef("{\n")
		e.pushScope()
		if arm.Pattern != nil {
			if arm.Pattern.Bind != "" {
				e.declare(arm.Pattern.Bind, "v")
			}
			for _, field := range arm.Pattern.FieldOrd {
				alias := arm.Pattern.Fields[field]
				if alias == "" {
					alias = field
				}
				goName := e.newTemp("f_" + alias)
				e.writef("%s := v.%s\n", goName, goIdent(field))
				e.declare(alias, goName)
			}
		}
		err := e.emitBody(arm.Body, arm.WS.After, trailOut)
		e.popScope()
		e.writef("}\n")
		if err != nil {
			return err
		}
	}
	e.writef("}\n")
	return nil
}

// emitLoop lowers a for-loop to a Go range over the materialized item
// slice, so the `loop` metadata variable can report length and next-item
// lookahead without re-consuming the source iterable. Loop patterns are
// restricted to a single identifier (or "_"); tuple destructuring of a
// loop item belongs in a nested {% let %}, since unlike a `let` binding's
// host expression, an opaque iterated item carries no arity of its own to
// destructure against.
func (e *Emitter) emitLoop(l *ast.Loop) error {
	if l.Pattern != nil && l.Pattern.Tuple != nil {
		return &GenerateError{Template: e.path, Kind: "LoopPattern", Msg: "for-loop item patterns must be a single identifier; destructure with a nested {% let %} instead"}
	}
	itemName := ""
	if l.Pattern != nil && !l.Pattern.Wild {
		itemName = l.Pattern.Name
	}

	g := &exprGen{e: e}
	var itemsCode string
	if rng, ok := l.Iterable.(*ast.Range); ok {
		startCode, endCode := "0", "0"
		var err error
		if rng.Start != nil {
			startCode, err = g.gen(rng.Start)
			if err != nil {
				return err
			}
		}
		if rng.End != nil {
			endCode, err = g.gen(rng.End)
			if err != nil {
				return err
			}
		}
		inclusive := "false"
		if rng.Inclusive {
			inclusive = "true"
		}
		itemsCode = fmt.Sprintf("runtime.RangeItems(int64(%s), int64(%s), %s)", startCode, endCode, inclusive)
	} else {
		iterCode, err := g.gen(l.Iterable)
		if err != nil {
			return err
		}
		itemsCode = fmt.Sprintf("runtime.ToItems(%s)", iterCode)
	}
	for _, s := range g.stmts {
		e.b.WriteString(s)
		e.b.WriteString("\n")
	}

	itemsVar := e.newTemp("items")
	e.writef("%s := %s\n", itemsVar, itemsCode)

	// The filter clause is applied as an iterator-level predicate before
	// loop metadata is ever computed, so loop.index/loop.last/loop.first
	// are exact over what actually renders rather than over the raw,
	// unfiltered iterable.
	rangeVar := itemsVar
	if l.Filter != nil {
		filteredVar := e.newTemp("filtered")
		e.writef("%s := make([]any, 0, len(%s))\n", filteredVar, itemsVar)
		fitemVar := e.newTemp("fitem")
		e.writef("for _, %s := range %s {\n", fitemVar, itemsVar)
		e.pushScope()
		if itemName != "" {
			e.declare(itemName, fitemVar)
		}
		fg := &exprGen{e: e}
		cond, err := fg.gen(l.Filter)
		if err != nil {
			e.popScope()
			return err
		}
		for _, s := range fg.stmts {
			e.b.WriteString(s)
			e.b.WriteString("\n")
		}
		e.writef("if runtime.Truthy(%s) {\n%s = append(%s, %s)\n}\n", cond, filteredVar, filteredVar, fitemVar)
		e.popScope()
		e.writef("}\n")
		rangeVar = filteredVar
	}

	matchedVar := e.newTemp("matched")
	e.writef("%s := false\n", matchedVar)
	idxVar := e.newTemp("i")
	rawVar := e.newTemp("item")
	e.writef("for %s, %s := range %s {\n", idxVar, rawVar, rangeVar)
	e.pushScope()
	if itemName != "" {
		e.declare(itemName, rawVar)
	}
	e.writef("%s = true\n", matchedVar)
	prevVar := e.newTemp("prev")
	nextVar := e.newTemp("next")
	hasNextVar := e.newTemp("hasNext")
	e.writef("var %s, %s any\n", prevVar, nextVar)
	e.writef("if %s > 0 {\n%s = %s[%s-1]\n}\n", idxVar, prevVar, rangeVar, idxVar)
	e.writef("%s := %s+1 < len(%s)\n", hasNextVar, idxVar, rangeVar)
	e.writef("if %s {\n%s = %s[%s+1]\n}\n", hasNextVar, nextVar, rangeVar, idxVar)
	loopVar := e.newTemp("loop")
	e.writef("%s := runtime.NewLoopMeta(%s, len(%s), %s, %s, %s)\n", loopVar, idxVar, rangeVar, prevVar, nextVar, hasNextVar)
	e.declare("loop", loopVar)
	err := e.emitBody(l.Body, l.WS.After, l.EndWS.Before)
	e.popScope()
	if err != nil {
		return err
	}
	e.writef("}\n")
	if l.Else != nil {
		e.writef("if !%s {\n", matchedVar)
		e.pushScope()
		err = e.emitBody(l.Else, l.ElseWS.After, l.EndWS.Before)
		e.popScope()
		e.writef("}\n")
	}
	return err
}

// emitCall inlines a macro's body at the call site, binding each formal
// parameter to a fresh temp holding the argument expression's value
// (spec.md §4.4, "Macros"): macros are expanded, not compiled to Go
// functions, so a parameter is just another scope entry.
func (e *Emitter) emitCall(c *ast.Call) error {
	entry, err := e.lookupMacro(c.Scope, c.Name)
	if err != nil {
		return err
	}
	def := entry.Def

	positional := 0
	named := map[string]ast.Expression{}
	for _, a := range c.Args {
		if a.Name == "" {
			positional++
			continue
		}
		if _, exists := named[a.Name]; exists {
			return errNamedArgConflict(e.path, def.Name, a.Name)
		}
		named[a.Name] = a.Value
	}
	for i, p := range def.Params {
		if i >= positional {
			break
		}
		if _, exists := named[p.Name]; exists {
			return errNamedArgConflict(e.path, def.Name, p.Name)
		}
	}

	e.pushScope()
	for i, param := range def.Params {
		var valueExpr ast.Expression
		switch {
		case i < positional:
			valueExpr = c.Args[i].Value
		case named[param.Name] != nil:
			valueExpr = named[param.Name]
		case param.Default != nil:
			valueExpr = param.Default
		default:
			e.popScope()
			return errMacroArity(e.path, def.Name, len(def.Params), len(c.Args))
		}
		g := &exprGen{e: e}
		code, err := g.gen(valueExpr)
		if err != nil {
			e.popScope()
			return err
		}
		for _, s := range g.stmts {
			e.b.WriteString(s)
			e.b.WriteString("\n")
		}
		goName := e.newTemp("arg_" + param.Name)
		e.writef("%s := %s\n", goName, code)
		e.declare(param.Name, goName)
	}
	err = e.emitBody(def.Body, def.WS.After, def.EndWS.Before)
	e.popScope()
	return err
}

func (e *Emitter) lookupMacro(scope, name string) (*macroEntryRef, error) {
	if scope == "" {
		if m, ok := e.resolved.Macros[name]; ok {
			return &macroEntryRef{Def: m.Def}, nil
		}
		return nil, errMacroNotFound(e.path, scope, name)
	}
	table, ok := e.resolved.Imports[scope]
	if !ok {
		return nil, errMacroNotFound(e.path, scope, name)
	}
	m, ok := table[name]
	if !ok {
		return nil, errMacroNotFound(e.path, scope, name)
	}
	return &macroEntryRef{Def: m.Def}, nil
}

type macroEntryRef struct {
	Def *ast.MacroDef
}

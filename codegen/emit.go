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
	"github.com/askamago/askama/heritage"
)

// Emitter walks a composed template body and writes the corresponding Go
// statements for a single RenderInto method, tracking local scope frames
// (spec.md §4.4's "local scope, innermost first") and the size hint the
// render contract exposes (§6).
type Emitter struct {
	b           strings.Builder
	resolved    *heritage.Resolved
	path        string // template currently being walked, for error messages
	escaperExpr string // Go expression selecting the active escaper
	receiver    string      // receiver variable name, e.g. "t"
	defaultWS   *ast.Marker // applied when a tag carries no inline marker
	// filtersPkg is the import path of the context's own "filters" package
	// (spec.md §4.4's user-defined filters), imported as `filters` in
	// generated code. Empty means the context has none.
	filtersPkg string
	scopes     []map[string]string
	tmp        int
	sizeHint   int
	// blockStack tracks, for each block name currently mid-emission, the
	// index into its override chain (child-most = 0), so super() can find
	// the next-older definition.
	blockStack []blockFrame
}

type blockFrame struct {
	name  string
	index int
}

func newEmitter(resolved *heritage.Resolved, path, escaperExpr, receiver string, defaultWS *ast.Marker, filtersPkg string) *Emitter {
	e := &Emitter{resolved: resolved, path: path, escaperExpr: escaperExpr, receiver: receiver, defaultWS: defaultWS, filtersPkg: filtersPkg}
	e.pushScope()
	return e
}

// effectiveMarker falls back to the configured default whitespace policy
// when a tag carries no inline marker of its own (spec.md §4.1's "default
// whitespace").
func (e *Emitter) effectiveMarker(m *ast.Marker) *ast.Marker {
	if m == nil {
		return e.defaultWS
	}
	return m
}

func (e *Emitter) pushScope()      { e.scopes = append(e.scopes, map[string]string{}) }
func (e *Emitter) popScope()       { e.scopes = e.scopes[:len(e.scopes)-1] }
func (e *Emitter) declare(name, goName string) {
	e.scopes[len(e.scopes)-1][name] = goName
}

// lookupVar looks up name across scope frames, innermost first, without
// falling back to the context receiver — used to test whether a name
// already has a local Go variable bound to it, e.g. a placeholder from an
// earlier value-less {% let %}.
func (e *Emitter) lookupVar(name string) (string, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if g, ok := e.scopes[i][name]; ok {
			return g, true
		}
	}
	return "", false
}

// resolveVar looks up name in scope, innermost first, falling back to the
// context receiver per spec.md §4.4's variable-resolution order.
func (e *Emitter) resolveVar(name string) string {
	if g, ok := e.lookupVar(name); ok {
		return g
	}
	return e.receiver + "." + goIdent(name)
}

func (e *Emitter) newTemp(prefix string) string {
	e.tmp++
	return fmt.Sprintf("%s%d", prefix, e.tmp)
}

func (e *Emitter) writef(format string, args ...any) {
	fmt.Fprintf(&e.b, format, args...)
}

// emitBody walks a sibling list, clipping each Lit's whitespace against
// its neighbors' tag markers (spec.md §4.4, "Whitespace resolution").
// leadIn/trailOut are markers injected by the enclosing tag for the first
// and last elements, when this list is itself a construct's body.
func (e *Emitter) emitBody(nodes []ast.Node, leadIn, trailOut *ast.Marker) error {
	for i, n := range nodes {
		if lit, ok := n.(*ast.Lit); ok {
			before := lit.Before
			after := lit.After
			if i > 0 {
				before = applyMarker(e.effectiveMarker(closeMarker(nodes[i-1])), before)
			} else {
				before = applyMarker(e.effectiveMarker(leadIn), before)
			}
			if i < len(nodes)-1 {
				after = applyMarker(e.effectiveMarker(openMarker(nodes[i+1])), after)
			} else {
				after = applyMarker(e.effectiveMarker(trailOut), after)
			}
			e.emitLit(before, lit.Content, after)
			continue
		}
		if err := e.emitNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitLit(before, content, after string) {
	full := before + content + after
	if full == "" {
		return
	}
	e.sizeHint += len(full)
	e.writef("if err := runtime.WriteString(w, %s); err != nil {\nreturn err\n}\n", strconv.Quote(full))
}

// exprPerFragmentAllowance is the fixed per-expression size-hint
// contribution spec.md §4.4 calls for ("size hint: sum of literal byte
// lengths plus a fixed per-expression allowance").
const exprPerFragmentAllowance = 16

func (e *Emitter) emitNode(n ast.Node) error {
	switch v := n.(type) {
	case *ast.Lit:
		e.emitLit(v.Before, v.Content, v.After)
	case *ast.Comment:
		// contributes nothing to output.
	case *ast.Expr:
		return e.emitExpr(v)
	case *ast.Cond:
		return e.emitCond(v)
	case *ast.Loop:
		return e.emitLoop(v)
	case *ast.Match:
		return e.emitMatch(v)
	case *ast.BlockDef:
		return e.emitBlockRef(v.Name)
	case *ast.MacroDef:
		// recorded in the macro table at resolve time; emits nothing here.
	case *ast.Call:
		return e.emitCall(v)
	case *ast.Let:
		return e.emitLet(v)
	case *ast.Include:
		return e.emitInclude(v)
	case *ast.Import:
		// its macro table was already folded into heritage.Resolved.
	case *ast.Extends:
		// consumed by the resolver; never reached during body emission.
	case *ast.FilterBlock:
		return e.emitFilterBlock(v)
	case *ast.Raw:
		e.emitLit("", v.Content, "")
	default:
		return fmt.Errorf("askama: codegen: unhandled node %T", n)
	}
	return nil
}

func (e *Emitter) emitExpr(x *ast.Expr) error {
	g := &exprGen{e: e}
	code, err := g.gen(x.Expr)
	if err != nil {
		if _, ok := err.(*GenerateError); ok {
			return err
		}
		return fmt.Errorf("%s: %w", e.path, err)
	}
	for _, s := range g.stmts {
		e.b.WriteString(s)
		e.b.WriteString("\n")
	}
	e.sizeHint += exprPerFragmentAllowance
	e.writef("if err := runtime.Markup(%s, %s).WriteTo(w); err != nil {\nreturn err\n}\n", e.escaperExpr, code)
	return nil
}

func (e *Emitter) emitLet(l *ast.Let) error {
	names := flattenTargetNames(l.Target)
	if l.Value == nil {
		for _, n := range names {
			if n == "_" {
				continue
			}
			goName := e.newTemp("let_" + n)
			e.writef("var %s any\n", goName)
			e.declare(n, goName)
		}
		return nil
	}
	g := &exprGen{e: e}
	code, err := g.gen(l.Value)
	if err != nil {
		return err
	}
	for _, s := range g.stmts {
		e.b.WriteString(s)
		e.b.WriteString("\n")
	}

	// A name already bound by an earlier value-less {% let %} is a
	// placeholder a sibling if/else branch dominates (spec.md §4.4):
	// assign into its existing Go variable instead of shadowing it with
	// a fresh one declared in this branch's own scope, so the value is
	// still visible once the branch ends.
	existing := make([]string, len(names))
	anyExisting := false
	for i, n := range names {
		if n == "_" {
			continue
		}
		if goName, ok := e.lookupVar(n); ok {
			existing[i] = goName
			anyExisting = true
		}
	}

	if len(names) == 1 {
		if names[0] == "_" {
			e.writef("_ = %s\n", code)
			return nil
		}
		if existing[0] != "" {
			e.writef("%s = %s\n", existing[0], code)
			return nil
		}
		goName := e.newTemp("let_" + names[0])
		e.writef("%s := %s\n", goName, code)
		e.declare(names[0], goName)
		return nil
	}

	if !anyExisting {
		goNames := make([]string, len(names))
		anyBound := false
		for i, n := range names {
			if n == "_" {
				goNames[i] = "_"
				continue
			}
			goNames[i] = e.newTemp("let_" + n)
			anyBound = true
		}
		op := ":="
		if !anyBound {
			op = "="
		}
		e.writef("%s %s %s\n", strings.Join(goNames, ", "), op, code)
		for i, n := range names {
			if n != "_" {
				e.declare(n, goNames[i])
			}
		}
		return nil
	}

	// Mixed or fully pre-bound tuple target: evaluate into fresh temps
	// first, then copy each into any pre-existing variable, since `:=`
	// on a name already declared in an outer block would shadow it
	// rather than assign it.
	tempNames := make([]string, len(names))
	for i, n := range names {
		if n == "_" {
			tempNames[i] = "_"
			continue
		}
		tempNames[i] = e.newTemp("let_" + n)
	}
	e.writef("%s := %s\n", strings.Join(tempNames, ", "), code)
	for i, n := range names {
		if n == "_" {
			continue
		}
		if existing[i] != "" {
			e.writef("%s = %s\n", existing[i], tempNames[i])
		} else {
			e.declare(n, tempNames[i])
		}
	}
	return nil
}

func flattenTargetNames(t ast.LetTarget) []string {
	if t.Tuple != nil {
		var out []string
		for _, sub := range t.Tuple {
			out = append(out, flattenTargetNames(sub)...)
		}
		return out
	}
	if t.Wild || t.Name == "_" {
		return []string{"_"}
	}
	return []string{t.Name}
}

func (e *Emitter) emitInclude(inc *ast.Include) error {
	tree, ok := e.resolved.Includes[inc.Path]
	if !ok {
		return fmt.Errorf("%s: include %q was not resolved", e.path, inc.Path)
	}
	saved := e.path
	e.path = tree.Path
	e.pushScope()
	err := e.emitBody(tree.Nodes, inc.WS.After, nil)
	e.popScope()
	e.path = saved
	return err
}

func (e *Emitter) emitFilterBlock(fb *ast.FilterBlock) error {
	bufVar := e.newTemp("buf")
	e.writef("var %s strings.Builder\n", bufVar)
	e.pushScope()
	saved := e.b
	e.b = strings.Builder{}
	err := e.emitBody(fb.Body, fb.WS.After, fb.EndWS.Before)
	inner := e.b.String()
	e.b = saved
	e.popScope()
	if err != nil {
		return err
	}
	// The nested body writes to `w`; redirect those writes into bufVar by
	// wrapping the inner block with its own sink shadowing `w`.
	e.writef("if err := func(w runtime.Sink) error {\n%s\nreturn nil\n}(&%s); err != nil {\nreturn err\n}\n", inner, bufVar)
	value := fmt.Sprintf("%s.String()", bufVar)
	for _, fc := range fb.Chain {
		g := &exprGen{e: e}
		args, err := g.genList(fc.Args)
		if err != nil {
			return err
		}
		for _, s := range g.stmts {
			e.b.WriteString(s)
			e.b.WriteString("\n")
		}
		callArgs := append([]string{fmt.Sprintf("%q", fc.Name), value}, args...)
		tmp := e.newTemp("filtered")
		e.writef("%s, err := runtime.ApplyFilter(%s)\nif err != nil {\nreturn err\n}\n", tmp, strings.Join(callArgs, ", "))
		value = tmp
	}
	e.writef("if err := runtime.Markup(%s, %s).WriteTo(w); err != nil {\nreturn err\n}\n", e.escaperExpr, value)
	return nil
}

// genSuperCall emits the next-older override's body for the block
// currently being emitted (spec.md §4.4, "Blocks & super").
func (e *Emitter) genSuperCall() (string, error) {
	if len(e.blockStack) == 0 {
		return "", errNoSuper(e.path)
	}
	top := e.blockStack[len(e.blockStack)-1]
	chain := e.resolved.SuperChain(top.name)
	if top.index+1 >= len(chain) {
		return "", errNoSuper(e.path)
	}
	next := chain[top.index+1]
	e.blockStack[len(e.blockStack)-1].index++
	saved := e.b
	e.b = strings.Builder{}
	e.pushScope()
	err := e.emitBody(next.Def.Body, next.Def.WS.After, next.Def.EndWS.Before)
	e.popScope()
	body := e.b.String()
	e.b = saved
	e.blockStack[len(e.blockStack)-1].index--
	if err != nil {
		return "", err
	}
	// super() itself writes the base override directly to `w`; it has no
	// return value of its own, but FuncCall codegen needs an expression, so
	// it hands back an empty Safe placeholder that contributes no further
	// output when passed on to runtime.Markup.
	tmp := e.newTemp("super")
	e.writef("var %s runtime.Safe\n", tmp)
	e.writef("if err := func() error {\n%s\nreturn nil\n}(); err != nil {\nreturn err\n}\n", body)
	return tmp, nil
}

// emitBlockRef emits the child-most override of block, or the base's own
// default body when there is no override (spec.md §4.4, "Blocks & super").
func (e *Emitter) emitBlockRef(name string) error {
	chain := e.resolved.SuperChain(name)
	if len(chain) == 0 {
		return errUnresolvedBlock(e.path, name)
	}
	e.blockStack = append(e.blockStack, blockFrame{name: name, index: 0})
	def := chain[0].Def
	e.pushScope()
	err := e.emitBody(def.Body, def.WS.After, def.EndWS.Before)
	e.popScope()
	e.blockStack = e.blockStack[:len(e.blockStack)-1]
	return err
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast declares the types used to represent a parsed template.
//
// The tree is built once per template compilation and discarded after code
// generation: nothing here is meant to be mutated once produced by the
// parser, and nothing here survives beyond a single pipeline invocation.
package ast

import "fmt"

// Position locates a node in the original template source by byte offset,
// plus line/column for diagnostics.
type Position struct {
	Line, Column int
	Start, End   int
}

func (p *Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is implemented by every Template AST node.
type Node interface {
	Pos() *Position
}

// WS captures the whitespace-marker pair surrounding a tag: the marker
// immediately after the tag's start delimiter and the one immediately
// before its end delimiter. A nil pointer means "no marker present"; the
// policy in effect then falls back to the configured default.
type WS struct {
	Before *Marker
	After  *Marker
}

// Marker is one of the three inline whitespace-control markers.
type Marker int

const (
	MarkerSuppress Marker = iota // -
	MarkerPreserve                // +
	MarkerMinimize                // ~
)

func (m Marker) String() string {
	switch m {
	case MarkerSuppress:
		return "-"
	case MarkerPreserve:
		return "+"
	case MarkerMinimize:
		return "~"
	default:
		return "?"
	}
}

// node is embedded by every concrete Node to provide Pos().
type node struct {
	pos *Position
}

func (n *node) Pos() *Position { return n.pos }

// Lit is a literal triple: leading-whitespace run, non-whitespace core,
// trailing-whitespace run. The split lets whitespace suppression clip ends
// without destroying the literal, per spec.
type Lit struct {
	node
	Before  string // leading whitespace run
	Content string // non-whitespace core
	After   string // trailing whitespace run
}

func NewLit(pos *Position, before, content, after string) *Lit {
	return &Lit{node{pos}, before, content, after}
}

// Empty reports whether the literal's core is empty (nothing to write once
// whitespace is stripped from both ends).
func (l *Lit) Empty() bool { return l.Content == "" }

// Expr renders an expression through the active escaper.
type Expr struct {
	node
	WS   WS
	Expr Expression
}

func NewExpr(pos *Position, ws WS, expr Expression) *Expr {
	return &Expr{node{pos}, ws, expr}
}

// Comment is a {# ... #} tag; it contributes nothing to output.
type Comment struct {
	node
	WS WS
}

func NewComment(pos *Position, ws WS) *Comment { return &Comment{node{pos}, ws} }

// CondBranch is one arm of a Cond: an optional guard (nil means "else"),
// an optional let-binding (for "if let"), and a body.
type CondBranch struct {
	WS      WS
	Guard   Expression // nil for else / else-if-let
	Let     *LetTarget // non-nil for "if let pattern = expr"
	LetExpr Expression // paired with Let
	Body    []Node
}

// Cond is a chain of if / else-if / else branches.
type Cond struct {
	node
	Branches []CondBranch
	EndWS    WS // the endif tag's markers
}

func NewCond(pos *Position, branches []CondBranch, endWS WS) *Cond {
	return &Cond{node{pos}, branches, endWS}
}

// Loop is a for-loop over an iterable, with an optional filter clause and
// optional else body (rendered when the iterable produced zero items).
type Loop struct {
	node
	WS       WS
	Pattern  *LetTarget
	Iterable Expression
	Filter   Expression // nil if absent
	Body     []Node
	ElseWS   WS     // the "else" tag's markers, meaningful only if Else != nil
	Else     []Node // nil if absent
	EndWS    WS
}

func NewLoop(pos *Position, ws WS, pattern *LetTarget, iterable Expression, filter Expression, body []Node, elseWS WS, elseBody []Node, endWS WS) *Loop {
	return &Loop{node{pos}, ws, pattern, iterable, filter, body, elseWS, elseBody, endWS}
}

// MatchArm is one "when pattern" arm of a Match node.
type MatchArm struct {
	WS      WS
	Pattern *MatchPattern // nil represents the implicit wildcard
	Body    []Node
}

// MatchPattern describes one `when` pattern: a bare variant name, a
// single-binding tuple variant `Variant(name)`, or a struct variant with
// field bindings/aliases and an optional "..: rest ignored" marker.
type MatchPattern struct {
	Variant  string
	Bind     string            // Variant(name) form; empty if unused
	Fields   map[string]string // field -> alias, for Variant{field} / Variant{field: alias}
	FieldOrd []string          // field declaration order, for stable codegen
	Rest     bool              // true if pattern ends in ".."
}

// Match emits a pattern match on the scrutinee.
type Match struct {
	node
	WS        WS
	Scrutinee Expression
	Arms      []MatchArm
	EndWS     WS // the endmatch tag's markers
}

func NewMatch(pos *Position, ws WS, scrutinee Expression, arms []MatchArm, endWS WS) *Match {
	return &Match{node{pos}, ws, scrutinee, arms, endWS}
}

// BlockDef is an overridable named block.
type BlockDef struct {
	node
	WS    WS
	Name  string
	Body  []Node
	EndWS WS
}

func NewBlockDef(pos *Position, ws WS, name string, body []Node, endWS WS) *BlockDef {
	return &BlockDef{node{pos}, ws, name, body, endWS}
}

// Include inlines another template's composed body at generator time.
type Include struct {
	node
	WS   WS
	Path string
}

func NewInclude(pos *Position, ws WS, path string) *Include {
	return &Include{node{pos}, ws, path}
}

// Extends is legal only as the first non-whitespace node of a template.
type Extends struct {
	node
	Path string
}

func NewExtends(pos *Position, path string) *Extends { return &Extends{node{pos}, path} }

// Import brings another template's macro table into scope under a name.
type Import struct {
	node
	WS        WS
	Path      string
	ScopeName string
}

func NewImport(pos *Position, ws WS, path, scopeName string) *Import {
	return &Import{node{pos}, ws, path, scopeName}
}

// MacroParam is one formal parameter of a macro, with an optional default.
type MacroParam struct {
	Name    string
	Default Expression // nil if required
}

// MacroDef is recorded in the macro table; it emits nothing at its
// definition site.
type MacroDef struct {
	node
	WS     WS
	Name   string
	Params []MacroParam
	Body   []Node
	EndWS  WS
}

func NewMacroDef(pos *Position, ws WS, name string, params []MacroParam, body []Node, endWS WS) *MacroDef {
	return &MacroDef{node{pos}, ws, name, params, body, endWS}
}

// CallArg is one argument to a macro Call: positional args have Name == "".
type CallArg struct {
	Name  string
	Value Expression
}

// Call resolves to a macro table entry and inlines its body.
type Call struct {
	node
	WS    WS
	Scope string // import scope prefix, empty for the local table
	Name  string
	Args  []CallArg
}

func NewCall(pos *Position, ws WS, scope, name string, args []CallArg) *Call {
	return &Call{node{pos}, ws, scope, name, args}
}

// LetTarget is the left-hand side of a Let or a for-loop/if-let binding: a
// bare identifier, a wildcard "_", or a tuple destructuring pattern.
type LetTarget struct {
	Name    string      // set for a bare identifier or wildcard
	Tuple   []LetTarget // set for (a, b, ...) destructuring
	Wild    bool        // true for "_"
}

// Let introduces a binding (or a placeholder, if Value is nil) in the
// current scope frame.
type Let struct {
	node
	WS     WS
	Target LetTarget
	Value  Expression // nil declares without binding
}

func NewLet(pos *Position, ws WS, target LetTarget, value Expression) *Let {
	return &Let{node{pos}, ws, target, value}
}

// FilterBlock applies a filter chain to the rendered text of its body.
type FilterBlock struct {
	node
	WS     WS
	Chain  []FilterCall
	Body   []Node
	EndWS  WS
}

func NewFilterBlock(pos *Position, ws WS, chain []FilterCall, body []Node, endWS WS) *FilterBlock {
	return &FilterBlock{node{pos}, ws, chain, body, endWS}
}

// Raw is a literal passthrough block: its content is never re-parsed.
type Raw struct {
	node
	WS      WS
	Content string
	EndWS   WS
}

func NewRaw(pos *Position, ws WS, content string, endWS WS) *Raw {
	return &Raw{node{pos}, ws, content, endWS}
}

// Tree is the parsed form of a single template source: an ordered sequence
// of top-level nodes, plus the path it was parsed from (empty for inline
// sources) and the extension used to select an escaper.
type Tree struct {
	Path      string
	Extension string
	Nodes     []Node
}

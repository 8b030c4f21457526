// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codegen implements the code generator (spec.md §4.4): it walks
// the composed AST plus the heritage chain and block map, and emits Go
// source implementing the render contract (spec.md §6).
package codegen

import "fmt"

// GenerateError is the family of errors the generator itself can raise, as
// opposed to errors surfaced later by the host Go compiler (spec.md §4.4's
// "Variable resolution" note: unresolved identifiers are the host
// compiler's problem, not the generator's).
type GenerateError struct {
	Template string
	Kind     string
	Msg      string
}

func (e *GenerateError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("askama generate error: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("askama generate error: %s: %s: %s", e.Template, e.Kind, e.Msg)
}

func errUnresolvedBlock(template, name string) *GenerateError {
	return &GenerateError{Template: template, Kind: "UnresolvedBlock", Msg: fmt.Sprintf("block %q not found in the heritage chain", name)}
}

func errMacroNotFound(template, scope, name string) *GenerateError {
	target := name
	if scope != "" {
		target = scope + "::" + name
	}
	return &GenerateError{Template: template, Kind: "MacroNotFound", Msg: fmt.Sprintf("macro %q not found", target)}
}

func errMacroArity(template, name string, want, got int) *GenerateError {
	return &GenerateError{Template: template, Kind: "MacroArity", Msg: fmt.Sprintf("macro %q takes %d argument(s), called with %d", name, want, got)}
}

func errNamedArgConflict(template, macro, arg string) *GenerateError {
	return &GenerateError{Template: template, Kind: "NamedArgConflict", Msg: fmt.Sprintf("macro %q: named argument %q already filled positionally", macro, arg)}
}

func errNoSuper(template string) *GenerateError {
	return &GenerateError{Template: template, Kind: "NoSuper", Msg: "super() called outside a block override, or the block has no base definition"}
}

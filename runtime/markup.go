// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

// MarkupDisplay binds a value to the escaper that governs the template
// position it's written into (spec.md §4.4 "Escaping": every Expr is
// wrapped in one of these before it reaches the sink). Generated code
// constructs one per expression and calls WriteTo rather than duplicating
// the safe/escape decision inline.
type MarkupDisplay struct {
	Value   any
	Escaper Escaper
}

// Markup wraps value with escaper, the constructor generated RenderInto
// bodies call for each Expr node.
func Markup(escaper Escaper, value any) MarkupDisplay {
	return MarkupDisplay{Value: value, Escaper: escaper}
}

// WriteTo writes the wrapped value to w, skipping the escaper when the
// value is already a Safe string.
func (m MarkupDisplay) WriteTo(w Sink) error {
	if s, ok := m.Value.(Safe); ok {
		return WriteString(w, string(s))
	}
	return m.Escaper(w, ToDisplayString(m.Value))
}

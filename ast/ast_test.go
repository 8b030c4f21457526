// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import "testing"

func TestMarkerString(t *testing.T) {
	tests := []struct {
		m    Marker
		want string
	}{
		{MarkerSuppress, "-"},
		{MarkerPreserve, "+"},
		{MarkerMinimize, "~"},
		{Marker(99), "?"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("Marker(%d).String() = %q, want %q", tt.m, got, tt.want)
		}
	}
}

func TestPositionString(t *testing.T) {
	p := &Position{Line: 3, Column: 7}
	if got, want := p.String(), "3:7"; got != want {
		t.Errorf("Position.String() = %q, want %q", got, want)
	}
}

func TestLitEmpty(t *testing.T) {
	if !NewLit(&Position{}, " ", "", " ").Empty() {
		t.Error("Lit with empty content should report Empty()")
	}
	if NewLit(&Position{}, "", "x", "").Empty() {
		t.Error("Lit with non-empty content should not report Empty()")
	}
}

func TestNodePos(t *testing.T) {
	pos := &Position{Start: 5, End: 9}
	lit := NewLit(pos, "", "x", "")
	if lit.Pos() != pos {
		t.Errorf("Pos() = %v, want %v", lit.Pos(), pos)
	}
}

func TestLetTargetShapes(t *testing.T) {
	bare := LetTarget{Name: "x"}
	if bare.Wild || len(bare.Tuple) != 0 {
		t.Errorf("bare target = %#v, want plain Name", bare)
	}
	wild := LetTarget{Name: "_", Wild: true}
	if !wild.Wild {
		t.Error("wildcard target should have Wild set")
	}
	tuple := LetTarget{Tuple: []LetTarget{{Name: "a"}, {Name: "b"}}}
	if len(tuple.Tuple) != 2 {
		t.Errorf("tuple target = %#v, want 2 elements", tuple)
	}
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"testing"

	"github.com/askamago/askama/ast"
)

func marker(m ast.Marker) *ast.Marker { return &m }

func TestApplyMarkerSuppress(t *testing.T) {
	if got := applyMarker(marker(ast.MarkerSuppress), "  \n  "); got != "" {
		t.Errorf("applyMarker(suppress) = %q, want empty", got)
	}
}

func TestApplyMarkerPreserve(t *testing.T) {
	if got := applyMarker(marker(ast.MarkerPreserve), "  \n  "); got != "  \n  " {
		t.Errorf("applyMarker(preserve) = %q, want unchanged", got)
	}
}

func TestApplyMarkerMinimizeWithoutNewlineCollapsesToEmpty(t *testing.T) {
	if got := applyMarker(marker(ast.MarkerMinimize), "   "); got != "" {
		t.Errorf("applyMarker(minimize, no newline) = %q, want empty", got)
	}
}

func TestApplyMarkerMinimizeWithNewlineCollapsesToSingleNewline(t *testing.T) {
	if got := applyMarker(marker(ast.MarkerMinimize), "  \n\n  "); got != "\n" {
		t.Errorf("applyMarker(minimize, with newline) = %q, want %q", got, "\n")
	}
}

func TestApplyMarkerNilPassesThrough(t *testing.T) {
	if got := applyMarker(nil, "  x  "); got != "  x  " {
		t.Errorf("applyMarker(nil) = %q, want unchanged", got)
	}
}

func TestEffectiveMarkerFallsBackToDefault(t *testing.T) {
	def := ast.MarkerSuppress
	e := &Emitter{defaultWS: &def}
	if got := e.effectiveMarker(nil); got == nil || *got != ast.MarkerSuppress {
		t.Errorf("effectiveMarker(nil) = %v, want the configured default", got)
	}
	inline := ast.MarkerPreserve
	if got := e.effectiveMarker(&inline); got == nil || *got != ast.MarkerPreserve {
		t.Errorf("effectiveMarker(inline) = %v, want the inline marker to win", got)
	}
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"strings"

	"github.com/askamago/askama/ast"
)

// applyMarker clips or collapses a Lit's whitespace run according to the
// marker requested by the adjacent tag (spec.md §4.4, "Whitespace
// resolution"); nil means no marker was present and the run is left as-is.
func applyMarker(m *ast.Marker, ws string) string {
	if m == nil {
		return ws
	}
	switch *m {
	case ast.MarkerSuppress:
		return ""
	case ast.MarkerMinimize:
		if !strings.Contains(ws, "\n") {
			return ""
		}
		return "\n"
	case ast.MarkerPreserve:
		return ws
	}
	return ws
}

// openMarker returns the marker on a node's first tag delimiter, the one
// that clips the trailing whitespace of a sibling Lit preceding it.
func openMarker(n ast.Node) *ast.Marker {
	switch v := n.(type) {
	case *ast.Expr:
		return v.WS.Before
	case *ast.Comment:
		return v.WS.Before
	case *ast.Include:
		return v.WS.Before
	case *ast.Import:
		return v.WS.Before
	case *ast.Call:
		return v.WS.Before
	case *ast.Let:
		return v.WS.Before
	case *ast.Cond:
		if len(v.Branches) == 0 {
			return nil
		}
		return v.Branches[0].WS.Before
	case *ast.Loop:
		return v.WS.Before
	case *ast.Match:
		return v.WS.Before
	case *ast.BlockDef:
		return v.WS.Before
	case *ast.MacroDef:
		return v.WS.Before
	case *ast.FilterBlock:
		return v.WS.Before
	case *ast.Raw:
		return v.WS.Before
	}
	return nil
}

// closeMarker returns the marker on a node's last tag delimiter, the one
// that clips the leading whitespace of a sibling Lit following it.
func closeMarker(n ast.Node) *ast.Marker {
	switch v := n.(type) {
	case *ast.Expr:
		return v.WS.After
	case *ast.Comment:
		return v.WS.After
	case *ast.Include:
		return v.WS.After
	case *ast.Import:
		return v.WS.After
	case *ast.Call:
		return v.WS.After
	case *ast.Let:
		return v.WS.After
	case *ast.Cond:
		return v.EndWS.After
	case *ast.Loop:
		return v.EndWS.After
	case *ast.Match:
		return v.EndWS.After
	case *ast.BlockDef:
		return v.EndWS.After
	case *ast.MacroDef:
		return v.EndWS.After
	case *ast.FilterBlock:
		return v.EndWS.After
	case *ast.Raw:
		return v.EndWS.After
	}
	return nil
}

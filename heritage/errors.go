// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heritage

import "fmt"

// NotFoundError reports that an extends/include/import target does not
// exist, violating the Heritage chain invariant of spec.md §3 ("every
// Extends points to an existing template file").
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("askama: template %q not found", e.Path)
}

// CycleError reports an extends/include/import cycle, rejected per
// spec.md §3's Heritage chain invariant.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	s := "askama: dependency cycle:"
	for _, p := range e.Cycle {
		s += "\n\t" + p
	}
	return s
}

// TooDeepError reports an extends chain exceeding the maximum supported
// depth, a defensive bound distinct from cycle detection (a long but
// finite non-cyclic chain would otherwise pass CycleError's check yet
// still indicate a misconfigured template set).
type TooDeepError struct {
	Path  string
	Limit int
}

func (e *TooDeepError) Error() string {
	return fmt.Sprintf("askama: %q exceeds the maximum extends depth of %d", e.Path, e.Limit)
}

// BlockConflictError reports a block name defined more than once at the
// same level of a single template, or a BlockDef found outside the
// template's top level (spec.md §3, "block definitions outside the top
// level of a template are rejected").
type BlockConflictError struct {
	Path  string
	Block string
	Msg   string
}

func (e *BlockConflictError) Error() string {
	return fmt.Sprintf("askama: %s: block %q: %s", e.Path, e.Block, e.Msg)
}

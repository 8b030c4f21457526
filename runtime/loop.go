// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

// LoopMeta is bound as `loop` inside a for-body, exposing iteration
// metadata beyond the plain item (spec.md §4.2/§8, "loop metadata"). The
// Cycle/PrevItem/NextItem members are an enrichment beyond the floor
// spec.md names explicitly (index, index0, first, last), carried over from
// askama_shared/src/generator.rs's loop-metadata struct per
// SPEC_FULL.md's supplemented features.
type LoopMeta struct {
	index    int
	len      int
	previtem any
	nextitem any
	hasNext  bool
}

// NewLoopMeta builds the metadata for iteration i (0-based) of a sequence
// of length n, given the previous and next items when available.
func NewLoopMeta(i, n int, prev, next any, hasNext bool) LoopMeta {
	return LoopMeta{index: i, len: n, previtem: prev, nextitem: next, hasNext: hasNext}
}

// Index returns the 1-based position.
func (l LoopMeta) Index() int { return l.index + 1 }

// Index0 returns the 0-based position.
func (l LoopMeta) Index0() int { return l.index }

// First reports whether this is the first iteration.
func (l LoopMeta) First() bool { return l.index == 0 }

// Last reports whether this is the final iteration.
func (l LoopMeta) Last() bool { return l.index == l.len-1 }

// PrevItem is the previous item, or nil on the first iteration.
func (l LoopMeta) PrevItem() any { return l.previtem }

// NextItem is the next item, or nil on the last iteration.
func (l LoopMeta) NextItem() any {
	if !l.hasNext {
		return nil
	}
	return l.nextitem
}

// Cycle returns values[index % len(values)], letting templates alternate
// row classes and the like without extra state.
func (l LoopMeta) Cycle(values ...any) any {
	if len(values) == 0 {
		return nil
	}
	return values[l.index%len(values)]
}

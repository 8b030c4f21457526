// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import "reflect"

// ToItems normalizes any slice, array, or string into a []any so generated
// for-loop code can index it uniformly for `loop` metadata lookahead
// (spec.md §4.2, "for loops"). Maps are excluded: their iteration order is
// unspecified, so range/prev/next metadata over a map would be meaningless.
func ToItems(v any) []any {
	if v == nil {
		return nil
	}
	if items, ok := v.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	case reflect.String:
		runes := []rune(rv.String())
		out := make([]any, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out
	}
	return nil
}

// RangeItems materializes start..end (or start..=end) as a []any of int64
// values, letting a for-loop over a range share the same lookahead-capable
// iteration path as a for-loop over a collection.
func RangeItems(start, end int64, inclusive bool) []any {
	if inclusive {
		end++
	}
	if end <= start {
		return nil
	}
	out := make([]any, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out
}

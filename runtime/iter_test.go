// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"reflect"
	"testing"
)

func TestToItemsSlice(t *testing.T) {
	got := ToItems([]int{1, 2, 3})
	want := []any{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestToItemsArray(t *testing.T) {
	got := ToItems([3]string{"a", "b", "c"})
	want := []any{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestToItemsString(t *testing.T) {
	got := ToItems("hi")
	want := []any{"h", "i"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestToItemsMapIsExcluded(t *testing.T) {
	if got := ToItems(map[string]int{"a": 1}); got != nil {
		t.Errorf("ToItems(map) = %#v, want nil", got)
	}
}

func TestToItemsNil(t *testing.T) {
	if got := ToItems(nil); got != nil {
		t.Errorf("ToItems(nil) = %#v, want nil", got)
	}
}

func TestRangeItemsExclusive(t *testing.T) {
	got := RangeItems(1, 4, false)
	want := []any{int64(1), int64(2), int64(3)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestRangeItemsInclusive(t *testing.T) {
	got := RangeItems(1, 3, true)
	want := []any{int64(1), int64(2), int64(3)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestRangeItemsEmpty(t *testing.T) {
	if got := RangeItems(5, 5, false); got != nil {
		t.Errorf("RangeItems(5,5,false) = %#v, want nil", got)
	}
}

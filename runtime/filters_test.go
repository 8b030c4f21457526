// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"strings"
	"testing"
)

func TestFilterUpperLowerTrim(t *testing.T) {
	if v, _ := filterUpper("abc"); v != "ABC" {
		t.Errorf("upper: got %v", v)
	}
	if v, _ := filterLower("ABC"); v != "abc" {
		t.Errorf("lower: got %v", v)
	}
	if v, _ := filterTrim("  x  "); v != "x" {
		t.Errorf("trim: got %v", v)
	}
}

func TestFilterEscape(t *testing.T) {
	v, err := filterEscape("<b>")
	if err != nil {
		t.Fatal(err)
	}
	if v != Safe("&lt;b&gt;") {
		t.Errorf("escape: got %v", v)
	}
	v, err = filterEscape("<b>", "txt")
	if err != nil {
		t.Fatal(err)
	}
	if v != "<b>" {
		t.Errorf("escape txt: got %v", v)
	}
}

func TestFilterJoin(t *testing.T) {
	v, err := filterJoin([]string{"a", "b", "c"}, ", ")
	if err != nil {
		t.Fatal(err)
	}
	if v != "a, b, c" {
		t.Errorf("join: got %v", v)
	}
}

func TestFilterHumansize(t *testing.T) {
	v, err := filterHumansize(1536)
	if err != nil {
		t.Fatal(err)
	}
	if v != "1.50 KB" {
		t.Errorf("humansize: got %v", v)
	}
}

func TestFilterMarkdown(t *testing.T) {
	v, err := filterMarkdown("# hi")
	if err != nil {
		t.Fatal(err)
	}
	s, ok := v.(Safe)
	if !ok {
		t.Fatalf("markdown: want Safe, got %T", v)
	}
	if !strings.Contains(string(s), "<h1") {
		t.Errorf("markdown: got %q", s)
	}
}

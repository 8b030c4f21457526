// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"strings"
	"testing"
)

func TestMarkupEscapesUnsafeValue(t *testing.T) {
	var b strings.Builder
	m := Markup(HTMLEscape, "<b>hi</b>")
	if err := m.WriteTo(&b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "&lt;b&gt;hi&lt;&#x2f;b&gt;" {
		t.Errorf("got %q", b.String())
	}
}

func TestMarkupSkipsEscapingSafeValue(t *testing.T) {
	var b strings.Builder
	m := Markup(HTMLEscape, Safe("<b>hi</b>"))
	if err := m.WriteTo(&b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "<b>hi</b>" {
		t.Errorf("got %q, want the raw markup left untouched", b.String())
	}
}

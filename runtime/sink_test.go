// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"strings"
	"testing"
)

type writeOnlySink struct{ buf strings.Builder }

func (s *writeOnlySink) Write(p []byte) (int, error) { return s.buf.Write(p) }

func TestWriteStringPrefersStringWriter(t *testing.T) {
	var b strings.Builder
	if err := WriteString(&b, "hi"); err != nil {
		t.Fatal(err)
	}
	if b.String() != "hi" {
		t.Errorf("got %q, want hi", b.String())
	}
}

func TestWriteStringFallsBackToWrite(t *testing.T) {
	s := &writeOnlySink{}
	if err := WriteString(s, "hi"); err != nil {
		t.Fatal(err)
	}
	if s.buf.String() != "hi" {
		t.Errorf("got %q, want hi", s.buf.String())
	}
}

func TestRenderErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	e := &RenderError{Template: "hello.html", Cause: cause}
	if !strings.Contains(e.Error(), "hello.html") || !strings.Contains(e.Error(), "boom") {
		t.Errorf("Error() = %q", e.Error())
	}
	if !strings.Contains((&RenderError{Cause: cause}).Error(), "boom") {
		t.Error("Error() without a template should still mention the cause")
	}
	if errors.Unwrap(e) != cause {
		t.Error("Unwrap() should return the wrapped cause")
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"", false},
		{"x", true},
		{0, false},
		{1, true},
		{int64(0), false},
		{uint(3), true},
		{float64(0), false},
		{[]int{}, false},
		{[]int{1}, true},
		{map[string]int{}, false},
		{map[string]int{"a": 1}, true},
		{(*int)(nil), false},
	}
	for _, tt := range tests {
		if got := Truthy(tt.v); got != tt.want {
			t.Errorf("Truthy(%#v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

type stringerValue struct{}

func (stringerValue) String() string { return "stringer" }

type displayValue struct{}

func (displayValue) Display() string { return "display" }

func TestToDisplayString(t *testing.T) {
	if got := ToDisplayString(displayValue{}); got != "display" {
		t.Errorf("got %q, want display", got)
	}
	if got := ToDisplayString(stringerValue{}); got != "stringer" {
		t.Errorf("got %q, want stringer", got)
	}
	if got := ToDisplayString("plain"); got != "plain" {
		t.Errorf("got %q, want plain", got)
	}
	if got := ToDisplayString(errors.New("oops")); got != "oops" {
		t.Errorf("got %q, want oops", got)
	}
	if got := ToDisplayString(42); got != "42" {
		t.Errorf("got %q, want 42", got)
	}
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtime is the library surface generated code links against: the
// output sink, escapers, the builtin filter namespace, and the loop
// metadata adapter described in spec.md §4.5. Nothing in this package
// participates in the compile-time pipeline; it is ordinary runtime code.
package runtime

import (
	"fmt"
	"io"
)

// Sink is the destination generated RenderInto methods write to. Any
// io.Writer satisfies it; a strings.Builder or bytes.Buffer also exposes
// WriteString, which the generated code prefers to avoid an allocation per
// literal fragment.
type Sink interface {
	io.Writer
}

// stringWriter is satisfied by the common Sink implementations that can
// append a string without a []byte copy.
type stringWriter interface {
	WriteString(s string) (int, error)
}

// WriteString writes s to w, using w's own WriteString when available.
func WriteString(w Sink, s string) error {
	if sw, ok := w.(stringWriter); ok {
		_, err := sw.WriteString(s)
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// RenderError pairs a render-time failure with the template it came from.
// Generated RenderInto code returns filter and Sink errors unwrapped; it
// does not build a RenderError or recover panics.
type RenderError struct {
	Template string
	Cause    error
}

func (e *RenderError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("askama render error: %s", e.Cause)
	}
	return fmt.Sprintf("askama render error in %s: %s", e.Template, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// Truthy coerces a value to a boolean the way template conditionals do: the
// zero value of any of the listed kinds is false, a non-empty string or
// non-empty slice/map is true, and everything else is true. This backs the
// boolean-coercion Open Question decision recorded in DESIGN.md.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int8:
		return x != 0
	case int16:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint8:
		return x != 0
	case uint16:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0
	case float64:
		return x != 0
	}
	return truthyReflect(v)
}

// Display mirrors fmt.Stringer but is the name generated code looks for
// first, matching the render contract's fallback order (§6): Display,
// then fmt.Stringer, then %v.
type Display interface {
	Display() string
}

// ToDisplayString renders v the way a template expression position does:
// Display() if implemented, String() if implemented, else fmt.Sprint.
func ToDisplayString(v any) string {
	switch x := v.(type) {
	case Display:
		return x.Display()
	case fmt.Stringer:
		return x.String()
	case string:
		return x
	case error:
		return x.Error()
	}
	return fmt.Sprint(v)
}

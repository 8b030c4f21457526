// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
)

// FilterFunc is the shape every builtin and user-defined filter has:
// it receives the piped value plus the filter's call arguments and returns
// the transformed value or an error.
type FilterFunc func(value any, args ...any) (any, error)

// FilterNotFoundError is the error ApplyFilter returns at render time when
// the filter name is not in Builtins.
type FilterNotFoundError struct {
	Name string
}

func (e *FilterNotFoundError) Error() string {
	return fmt.Sprintf("askama: filter %q not found", e.Name)
}

// Builtins is the default filter namespace, extended by askama_shared's
// filters module (humansize, join) beyond spec.md's explicit examples.
var Builtins = map[string]FilterFunc{
	"safe":      filterSafe,
	"escape":    filterEscape,
	"e":         filterEscape,
	"upper":     filterUpper,
	"lower":     filterLower,
	"trim":      filterTrim,
	"join":      filterJoin,
	"humansize": filterHumansize,
	"markdown":  filterMarkdown,
	"capitalize": filterCapitalize,
}

// Safe is a marker type: a value wrapped in Safe bypasses the template's
// escaper, the runtime counterpart of the `safe` filter and the `|safe`
// pipeline stage codegen emits for it.
type Safe string

func filterSafe(value any, args ...any) (any, error) {
	return Safe(ToDisplayString(value)), nil
}

// filterEscape forces HTML escaping of value regardless of the template's
// configured escaper, with an explicit "txt" argument selecting the no-op
// escaper instead (the `|escape("txt")` form from askama_shared/src/filters,
// per SPEC_FULL.md's supplemented features).
func filterEscape(value any, args ...any) (any, error) {
	s := ToDisplayString(value)
	if len(args) == 1 {
		if kind, ok := args[0].(string); ok && kind == "txt" {
			return s, nil
		}
	}
	var b strings.Builder
	if err := HTMLEscape(&b, s); err != nil {
		return nil, err
	}
	return Safe(b.String()), nil
}

func filterUpper(value any, args ...any) (any, error) {
	return strings.ToUpper(ToDisplayString(value)), nil
}

func filterLower(value any, args ...any) (any, error) {
	return strings.ToLower(ToDisplayString(value)), nil
}

func filterTrim(value any, args ...any) (any, error) {
	return strings.TrimSpace(ToDisplayString(value)), nil
}

func filterCapitalize(value any, args ...any) (any, error) {
	s := ToDisplayString(value)
	if s == "" {
		return s, nil
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:])), nil
}

// filterJoin concatenates an iterable of values with a separator, the Go
// rendition of askama_shared's `join` filter.
func filterJoin(value any, args ...any) (any, error) {
	sep := ""
	if len(args) > 0 {
		sep = ToDisplayString(args[0])
	}
	items, err := toStringSlice(value)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	return strings.Join(items, sep), nil
}

func toStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			out[i] = ToDisplayString(e)
		}
		return out, nil
	}
	return nil, fmt.Errorf("value is not iterable")
}

var humansizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// filterHumansize renders a byte count as a human-readable size, the Go
// rendition of askama_shared's `humansize` filter.
func filterHumansize(value any, args ...any) (any, error) {
	n, err := toFloat(value)
	if err != nil {
		return nil, fmt.Errorf("humansize: %w", err)
	}
	i := 0
	for n >= 1024 && i < len(humansizeUnits)-1 {
		n /= 1024
		i++
	}
	return strconv.FormatFloat(n, 'f', 2, 64) + " " + humansizeUnits[i], nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	}
	return 0, fmt.Errorf("not a number: %v", value)
}

// filterMarkdown converts value from Markdown to HTML via goldmark,
// returning a Safe value since the conversion already produced the desired
// HTML markup.
func filterMarkdown(value any, args ...any) (any, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(ToDisplayString(value)), &buf); err != nil {
		return nil, fmt.Errorf("markdown: %w", err)
	}
	return Safe(buf.String()), nil
}

// ApplyFilter resolves name against the builtin filter table and invokes
// it, the runtime counterpart of generated filter-chain code (spec.md
// §4.4, "Filter chains"). User-defined filters living in the context's
// own `filters` package are called directly by generated code as plain Go
// function calls instead of going through this table; ApplyFilter only
// backs the builtin namespace, with builtins winning on a name collision
// per spec.md's tie-break rule.
func ApplyFilter(name string, value any, args ...any) (any, error) {
	f, ok := Builtins[name]
	if !ok {
		return nil, &FilterNotFoundError{Name: name}
	}
	return f(value, args...)
}

// SortedFilterNames returns the builtin filter names in sorted order.
func SortedFilterNames() []string {
	names := make([]string, 0, len(Builtins))
	for n := range Builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

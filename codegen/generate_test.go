// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/askamago/askama/codegen"
	"github.com/askamago/askama/config"
	"github.com/askamago/askama/heritage"
)

func build(t *testing.T, files map[string]string, entry string) *heritage.Resolved {
	t.Helper()
	loader := heritage.MapLoader(files)
	resolved, err := heritage.Build(loader, entry, config.DefaultSyntax)
	if err != nil {
		t.Fatalf("Build(%q): %v", entry, err)
	}
	return resolved
}

func TestGenerateHelloWorld(t *testing.T) {
	resolved := build(t, map[string]string{
		"hello.html": "Hello, {{ Name }}!",
	}, "hello.html")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Hello",
		Extension:   "html",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	for _, want := range []string{
		"package views",
		"func (t *Hello) RenderInto(w runtime.Sink) error {",
		"func (t *Hello) Render() (string, error) {",
		"func (t *Hello) String() string {",
		"Hello_SIZE_HINT",
		`Hello_EXTENSION = "html"`,
		"runtime.Markup(",
		"t.Name",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated source missing %q\n%s", want, out)
		}
	}
}

func TestGenerateLetPlaceholderAssignedFromIfBranches(t *testing.T) {
	resolved := build(t, map[string]string{
		"badge.html": "{% let label %}{% if Score > 90 %}{% let label = \"A\" %}{% else %}{% let label = \"C\" %}{% endif %}{{ label }}",
	}, "badge.html")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Badge",
		Extension:   "html",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)

	if !strings.Contains(out, "var let_label1 any") {
		t.Errorf("generated source missing placeholder declaration\n%s", out)
	}
	// The branch assignments must target the placeholder's own variable,
	// not declare a new shadow with `:=`.
	if !strings.Contains(out, `let_label1 = "A"`) {
		t.Errorf("generated source missing branch assignment into placeholder\n%s", out)
	}
	if !strings.Contains(out, `let_label1 = "C"`) {
		t.Errorf("generated source missing else-branch assignment into placeholder\n%s", out)
	}
	if strings.Contains(out, `let_label2 := "A"`) || strings.Contains(out, `let_label3 := "C"`) {
		t.Errorf("branch assignment must not shadow the placeholder with a fresh variable\n%s", out)
	}
	if !strings.Contains(out, "runtime.Markup(") || !strings.Contains(out, "let_label1)") {
		t.Errorf("generated source must render the placeholder variable after the if\n%s", out)
	}
}

func TestGenerateCondBranches(t *testing.T) {
	resolved := build(t, map[string]string{
		"cond.html": "{% if Score > 90 %}A{% else if Score > 80 %}B{% else %}C{% endif %}",
	}, "cond.html")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Report",
		Extension:   "html",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	for _, want := range []string{
		"runtime.Truthy((t.Score > 90))",
		"runtime.Truthy((t.Score > 80))",
		"} else {",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated source missing %q\n%s", want, out)
		}
	}
}

func TestGenerateLoopMetadata(t *testing.T) {
	resolved := build(t, map[string]string{
		"list.html": "{% for item in Items %}{{ loop.index }}: {{ item }}{% endfor %}",
	}, "list.html")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "List",
		Extension:   "txt",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	for _, want := range []string{
		"runtime.ToItems(t.Items)",
		"runtime.NewLoopMeta(",
		".Index()",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated source missing %q\n%s", want, out)
		}
	}
}

func TestGenerateLoopFilterUsesFilteredSliceForMetadata(t *testing.T) {
	resolved := build(t, map[string]string{
		"list.html": "{% for item in Items filter item.Active %}{{ loop.index }}: {{ item }}{% endfor %}",
	}, "list.html")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "List",
		Extension:   "txt",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	if !strings.Contains(out, "make([]any, 0, len(") {
		t.Errorf("expected the filter to materialize a filtered slice before ranging, got:\n%s", out)
	}
	if strings.Contains(out, "continue\n}") {
		t.Errorf("expected the filter to no longer skip raw items with continue, got:\n%s", out)
	}
}

func TestGenerateEscapesHTML(t *testing.T) {
	resolved := build(t, map[string]string{
		"x.html": "{{ Body }}",
	}, "x.html")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Page",
		Extension:   "html",
		EscaperName: "html",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(string(src), `runtime.EscaperByName("html")`) {
		t.Errorf("expected html escaper wiring, got:\n%s", src)
	}
}

func TestGenerateEscaperNameFromConfig(t *testing.T) {
	resolved := build(t, map[string]string{
		"x.j2": "{{ Body }}",
	}, "x.j2")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/views\n\ngo 1.23\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	esc := cfg.EscaperFor("j2")
	if esc.Path != "html" {
		t.Fatalf("EscaperFor(j2).Path = %q, want html", esc.Path)
	}

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Page",
		Extension:   "j2",
		EscaperName: esc.Path,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(string(src), `runtime.EscaperByName("html")`) {
		t.Errorf("expected the .j2 extension to resolve to the html escaper via config, got:\n%s", src)
	}
}

func TestGenerateInheritanceAndSuper(t *testing.T) {
	resolved := build(t, map[string]string{
		"base.html": "{% block content %}base{% endblock %}",
		"child.html": "{% extends \"base.html\" %}\n" +
			"{% block content %}child-{{ super() }}{% endblock %}",
	}, "child.html")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Child",
		Extension:   "html",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	for _, want := range []string{
		"child-",
		"base",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated source missing %q\n%s", want, out)
		}
	}
}

func TestGenerateBlockOnly(t *testing.T) {
	resolved := build(t, map[string]string{
		"base.html": "{% block header %}base-header{% endblock %}" +
			"body{% block footer %}base-footer{% endblock %}",
		"child.html": "{% extends \"base.html\" %}" +
			"{% block header %}child-header{% endblock %}",
	}, "child.html")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Fragment",
		Extension:   "html",
		Block:       "header",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	if !strings.Contains(out, "child-header") {
		t.Errorf("expected the child's block override, got:\n%s", out)
	}
	if strings.Contains(out, "body") || strings.Contains(out, "base-footer") {
		t.Errorf("expected only the named block's body, got:\n%s", out)
	}
}

func TestGenerateBlockOnlyUnknownBlockErrors(t *testing.T) {
	resolved := build(t, map[string]string{
		"page.html": "{% block content %}x{% endblock %}",
	}, "page.html")

	_, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Fragment",
		Extension:   "html",
		Block:       "missing",
	})
	if err == nil {
		t.Fatal("expected an error for an unresolved block name")
	}
}

func TestGenerateMacroArityError(t *testing.T) {
	resolved := build(t, map[string]string{
		"macro.html": "{% macro greet(name) %}Hi, {{ name }}!{% endmacro %}" +
			"{% call greet() %}",
	}, "macro.html")

	_, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Greeting",
		Extension:   "txt",
	})
	if err == nil {
		t.Fatal("expected a macro arity error")
	}
	if ge, ok := err.(*codegen.GenerateError); !ok || ge.Kind != "MacroArity" {
		t.Errorf("err = %#v, want GenerateError{Kind: MacroArity}", err)
	}
}

func TestGenerateMacroNotFoundError(t *testing.T) {
	resolved := build(t, map[string]string{
		"macro.html": "{% call missing() %}",
	}, "macro.html")

	_, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Greeting",
		Extension:   "txt",
	})
	if err == nil {
		t.Fatal("expected a macro not found error")
	}
	if ge, ok := err.(*codegen.GenerateError); !ok || ge.Kind != "MacroNotFound" {
		t.Errorf("err = %#v, want GenerateError{Kind: MacroNotFound}", err)
	}
}

func TestGenerateNamedArgConflictError(t *testing.T) {
	resolved := build(t, map[string]string{
		"macro.html": "{% macro greet(name) %}Hi, {{ name }}!{% endmacro %}" +
			`{% call greet("Ada", name: "Bea") %}`,
	}, "macro.html")

	_, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Greeting",
		Extension:   "txt",
	})
	if err == nil {
		t.Fatal("expected a named argument conflict error")
	}
	if ge, ok := err.(*codegen.GenerateError); !ok || ge.Kind != "NamedArgConflict" {
		t.Errorf("err = %#v, want GenerateError{Kind: NamedArgConflict}", err)
	}
}

func TestGenerateSuperOutsideBlockError(t *testing.T) {
	resolved := build(t, map[string]string{
		"page.html": "{{ super() }}",
	}, "page.html")

	_, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Page",
		Extension:   "html",
	})
	if err == nil {
		t.Fatal("expected a no-super error")
	}
	if ge, ok := err.(*codegen.GenerateError); !ok || ge.Kind != "NoSuper" {
		t.Errorf("err = %#v, want GenerateError{Kind: NoSuper}", err)
	}
}

func TestGenerateUserFilterDispatchesToFiltersPackage(t *testing.T) {
	resolved := build(t, map[string]string{
		"x.txt": "{{ Body|shout }}",
	}, "x.txt")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName:    "views",
		TypeName:       "Page",
		Extension:      "txt",
		FiltersPackage: "example.com/views/filters",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	if !strings.Contains(out, `filters "example.com/views/filters"`) {
		t.Errorf("expected the filters package to be imported, got:\n%s", out)
	}
	if !strings.Contains(out, "filters.Shout(") {
		t.Errorf("expected the non-builtin filter to dispatch to filters.Shout, got:\n%s", out)
	}
}

func TestGenerateBuiltinFilterWinsOverFiltersPackage(t *testing.T) {
	resolved := build(t, map[string]string{
		"x.txt": "{{ Body|upper }}",
	}, "x.txt")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName:    "views",
		TypeName:       "Page",
		Extension:      "txt",
		FiltersPackage: "example.com/views/filters",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	if !strings.Contains(out, `runtime.ApplyFilter("upper"`) {
		t.Errorf("expected the builtin filter to win over a same-named filters-package entry, got:\n%s", out)
	}
	if strings.Contains(out, "filters.Upper(") {
		t.Errorf("did not expect the filters package to be consulted for a builtin name, got:\n%s", out)
	}
}

func TestGenerateMacroCall(t *testing.T) {
	resolved := build(t, map[string]string{
		"macro.html": "{% macro greet(name) %}Hi, {{ name }}!{% endmacro %}" +
			"{% call greet(Visitor) %}",
	}, "macro.html")

	src, err := codegen.Generate(resolved, codegen.Options{
		PackageName: "views",
		TypeName:    "Greeting",
		Extension:   "txt",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	if !strings.Contains(out, "t.Visitor") {
		t.Errorf("expected macro call argument wired to context field, got:\n%s", out)
	}
	if !strings.Contains(out, "Hi, ") {
		t.Errorf("expected inlined macro body literal, got:\n%s", out)
	}
}

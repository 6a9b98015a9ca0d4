package pylit

import (
	"reflect"
	"testing"
)

func TestParseScalars(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"single quoted string", `'hello'`, "hello"},
		{"double quoted string", `"hello"`, "hello"},
		{"triple quoted string", `"""multi
line"""`, "multi\nline"},
		{"implicit concatenation", `"a" 'b'  "c"`, "abc"},
		{"raw string", `r"a\nb"`, `a\nb`},
		{"unicode prefix", `u"café"`, "café"},
		{"escapes", `"a\tb\nc\'d"`, "a\tb\nc'd"},
		{"unknown escape kept", `"\d"`, `\d`},
		{"integer", `42`, int64(42)},
		{"negative integer", `-7`, int64(-7)},
		{"underscored integer", `1_000`, int64(1000)},
		{"float", `3.5`, 3.5},
		{"exponent float", `1e3`, 1000.0},
		{"true", `True`, true},
		{"false", `False`, false},
		{"none", `None`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.src, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseContainers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"empty list", `[]`, []any{}},
		{"list", `[1, 2, 3]`, []any{int64(1), int64(2), int64(3)}},
		{"trailing comma", `['a', 'b',]`, []any{"a", "b"}},
		{"tuple", `('x', 'y')`, []any{"x", "y"}},
		{"empty dict", `{}`, map[string]any{}},
		{
			"nested dict",
			`{'a': {'b': [True, None]}}`,
			map[string]any{"a": map[string]any{"b": []any{true, nil}}},
		},
		{
			"dict with comments",
			`{
				# the name
				'name': 'Sale Stock', # inline
				'depends': ['sale', 'stock'],
			}`,
			map[string]any{"name": "Sale Stock", "depends": []any{"sale", "stock"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseManifest(t *testing.T) {
	src := `{
    "name": "Stock Picking Report",
    "version": "16.0.1.0.0",
    "author": "Camptocamp, Odoo Community Association (OCA)",
    "license": "AGPL-3",
    "category": "Warehouse Management",
    "depends": ["stock", "web"],
    "data": [
        "report/stock_picking_report.xml",
    ],
    "installable": True,
    "auto_install": False,
    "external_dependencies": {"python": ["lxml"]},
}`
	got, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", got)
	}
	if m["name"] != "Stock Picking Report" {
		t.Errorf("name = %v", m["name"])
	}
	if m["installable"] != true {
		t.Errorf("installable = %v", m["installable"])
	}
	deps, ok := m["depends"].([]any)
	if !ok || len(deps) != 2 {
		t.Errorf("depends = %#v", m["depends"])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty input", ``},
		{"unterminated string", `'abc`},
		{"unterminated dict", `{'a': 1`},
		{"non-literal identifier", `foo`},
		{"function call", `dict(a=1)`},
		{"trailing garbage", `1 2`},
		{"non-string dict key", `{1: 'a'}`},
		{"missing colon", `{'a' 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.src); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.src)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("{\n  'a': foo,\n}")
	if err == nil {
		t.Fatal("expected error")
	}
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Line != 2 {
		t.Errorf("Line = %d, want 2", perr.Line)
	}
}

func TestRepr(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "None"},
		{true, "True"},
		{false, "False"},
		{"abc", "'abc'"},
		{"it's", `"it's"`},
		{int64(5), "5"},
		{2.5, "2.5"},
		{[]any{int64(1), "a"}, "[1, 'a']"},
	}

	for _, tt := range tests {
		if got := Repr(tt.in); got != tt.want {
			t.Errorf("Repr(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

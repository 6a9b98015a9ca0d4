package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/camptocamp/odoo-addons-analyzer/internal/analyze"
	"github.com/camptocamp/odoo-addons-analyzer/internal/loc"
	"github.com/camptocamp/odoo-addons-analyzer/internal/manifest"
	"github.com/camptocamp/odoo-addons-analyzer/internal/pysrc"
)

func testRepository() *analyze.Repository {
	saleName := "sale.order.extra"
	return &analyze.Repository{
		Name: "addons",
		Path: "/repo",
		Modules: map[string]*analyze.Module{
			"sale_extra": {
				Name: "sale_extra",
				Path: "/repo/sale_extra",
				Manifest: manifest.Manifest{
					"name":    "Sale Extra",
					"version": "16.0.1.0.0",
					"summary": "Extra sale features",
				},
				Code: map[string]int{
					"Python":     120,
					"XML":        40,
					"CSS":        0,
					"JavaScript": 8,
				},
				Languages: []loc.LanguageSummary{
					{Language: "Python", Files: 4, Code: 120, Comment: 10, Blank: 20},
					{Language: "XML", Files: 2, Code: 40, Blank: 4},
					{Language: "JavaScript", Files: 1, Code: 8},
				},
				Models: map[string]pysrc.Model{
					"/repo/sale_extra/models/sale.py:SaleOrder": {
						Type:    "Model",
						Name:    saleName,
						Fields:  map[string]pysrc.Field{"note": {Name: "note", Type: "Char"}},
						Methods: map[string]pysrc.Method{"confirm": {Name: "confirm", Signature: []string{"self"}}},
					},
				},
				Files: 7,
				Bytes: 4096,
			},
			"base_vat_extra": {
				Name:     "base_vat_extra",
				Path:     "/repo/base_vat_extra",
				Manifest: manifest.Manifest{"name": "Base VAT Extra", "installable": false},
				Code: map[string]int{
					"Python":     30,
					"XML":        0,
					"CSS":        0,
					"JavaScript": 0,
				},
				Models: map[string]pysrc.Model{},
				Files:  2,
				Bytes:  512,
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"table", FormatTable, false},
		{"", FormatTable, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testRepository(), FormatJSON); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var out map[string]map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	mod, ok := out["sale_extra"]
	if !ok {
		t.Fatalf("report missing module sale_extra, got keys %v", buf.String())
	}
	for _, key := range []string{"code", "manifest", "models", "files", "bytes", "languages"} {
		if _, ok := mod[key]; !ok {
			t.Errorf("module report missing key %q", key)
		}
	}
	code := mod["code"].(map[string]any)
	if code["Python"].(float64) != 120 {
		t.Errorf("Python code = %v, want 120", code["Python"])
	}

	langs, ok := mod["languages"].([]any)
	if !ok || len(langs) != 3 {
		t.Fatalf("languages detail = %#v", mod["languages"])
	}
	first := langs[0].(map[string]any)
	if first["language"] != "Python" || first["code"].(float64) != 120 {
		t.Errorf("first language entry = %v", first)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testRepository(), FormatYAML); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "sale_extra:") {
		t.Errorf("yaml output missing module key:\n%s", out)
	}
	if !strings.Contains(out, "files: 7") {
		t.Errorf("yaml output missing file count:\n%s", out)
	}
}

func TestTable(t *testing.T) {
	out := Table(testRepository(), 200)

	for _, want := range []string{"Module", "Python", "XML", "Models", "sale_extra", "base_vat_extra", "Total (2 modules)"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	// Totals: Python 120+30, one model overall.
	if !strings.Contains(out, "150") {
		t.Errorf("table missing Python total 150:\n%s", out)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// Header, separator, two module rows, separator, totals.
	if len(lines) != 6 {
		t.Errorf("table has %d lines, want 6:\n%s", len(lines), out)
	}
}

func TestTableEmpty(t *testing.T) {
	repo := &analyze.Repository{Name: "empty", Path: "/empty", Modules: map[string]*analyze.Module{}}
	out := Table(repo, 80)
	if !strings.Contains(out, "no addon modules found") {
		t.Errorf("unexpected empty table output: %q", out)
	}
}

func TestTableTruncatesModuleColumn(t *testing.T) {
	repo := testRepository()
	long := strings.Repeat("very_long_module_name_", 8)
	repo.Modules[long] = &analyze.Module{
		Name:     long,
		Path:     "/repo/" + long,
		Manifest: manifest.Manifest{},
		Code:     map[string]int{"Python": 1, "XML": 0, "CSS": 0, "JavaScript": 0},
	}

	out := Table(repo, 100)
	for _, line := range strings.Split(out, "\n") {
		if len([]rune(line)) > 0 && strings.Contains(line, "very_long") && !strings.Contains(line, "…") {
			t.Errorf("long module name not truncated: %q", line)
		}
	}
}

func TestListModules(t *testing.T) {
	out := NewListRenderer().Modules(testRepository())

	if !strings.Contains(out, "addons (2 modules)") {
		t.Errorf("listing missing title:\n%s", out)
	}
	if !strings.Contains(out, "sale_extra") || !strings.Contains(out, "16.0.1.0.0") {
		t.Errorf("listing missing module line:\n%s", out)
	}
	if !strings.Contains(out, "Extra sale features") {
		t.Errorf("listing missing summary:\n%s", out)
	}
	if !strings.Contains(out, "(/repo/sale_extra)") {
		t.Errorf("listing missing module path:\n%s", out)
	}

	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.Contains(line, "base_vat_extra"):
			if !strings.Contains(line, "[not installable]") {
				t.Errorf("uninstallable module not flagged: %q", line)
			}
		case strings.Contains(line, "sale_extra"):
			if strings.Contains(line, "[not installable]") {
				t.Errorf("installable module flagged: %q", line)
			}
		}
	}
}

func TestListModels(t *testing.T) {
	out := NewListRenderer().Models(testRepository())

	if !strings.Contains(out, "/repo/sale_extra/models/sale.py:SaleOrder") {
		t.Errorf("model key missing:\n%s", out)
	}
	if !strings.Contains(out, "sale.order.extra: 1 fields, 1 methods") {
		t.Errorf("model detail missing:\n%s", out)
	}
	if strings.Contains(out, "base_vat_extra") {
		t.Errorf("module without models should be skipped:\n%s", out)
	}
}

func TestListStats(t *testing.T) {
	out := NewListRenderer().Stats("Daemon Stats", map[string]string{
		"Uptime":   "2m30s",
		"Requests": "17",
		"Socket":   "/run/daemon.sock",
	})

	if !strings.Contains(out, "Daemon Stats") {
		t.Errorf("stats missing title:\n%s", out)
	}
	if !strings.Contains(out, "Uptime  ") {
		t.Errorf("keys not padded to the longest key:\n%s", out)
	}
	if !strings.Contains(out, ": 17") {
		t.Errorf("stats missing value:\n%s", out)
	}

	// Keys render sorted.
	if strings.Index(out, "Requests") > strings.Index(out, "Socket") {
		t.Errorf("keys not sorted:\n%s", out)
	}
}

func TestListModelsEmpty(t *testing.T) {
	repo := &analyze.Repository{Name: "empty", Modules: map[string]*analyze.Module{}}
	out := NewListRenderer().Models(repo)
	if !strings.Contains(out, "no models found") {
		t.Errorf("unexpected output for empty repository: %q", out)
	}
}

func TestWriteModulesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteModules(&buf, testRepository(), FormatJSON); err != nil {
		t.Fatalf("WriteModules failed: %v", err)
	}

	var out map[string]map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out["sale_extra"]["version"] != "16.0.1.0.0" {
		t.Errorf("manifest version = %v, want 16.0.1.0.0", out["sale_extra"]["version"])
	}
}

func TestWriteModelsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteModels(&buf, testRepository(), FormatJSON); err != nil {
		t.Fatalf("WriteModels failed: %v", err)
	}

	var out map[string]map[string]pysrc.Model
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := out["base_vat_extra"]; ok {
		t.Error("module without models should be omitted")
	}
	model := out["sale_extra"]["/repo/sale_extra/models/sale.py:SaleOrder"]
	if model.Name != "sale.order.extra" {
		t.Errorf("model name = %q, want sale.order.extra", model.Name)
	}
}

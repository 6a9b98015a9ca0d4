package manifest

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

const sampleManifest = `{
    "name": "Sale Stock",
    "version": "16.0.1.2.0",
    "author": "Camptocamp",
    "license": "AGPL-3",
    "depends": ["sale", "stock"],
    "data": ["views/sale_views.xml"],
    "installable": True,
    "auto_install": False,
    "external_dependencies": {"python": ["lxml", "requests"]},
}`

func newModuleFs(t *testing.T, manifestName, content string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/repo/sale_stock", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := afero.WriteFile(fsys, "/repo/sale_stock/"+manifestName, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return fsys
}

func TestLoad(t *testing.T) {
	fsys := newModuleFs(t, "__manifest__.py", sampleManifest)

	m, err := Load(fsys, "/repo/sale_stock")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Name() != "Sale Stock" {
		t.Errorf("Name() = %q", m.Name())
	}
	if m.Version() != "16.0.1.2.0" {
		t.Errorf("Version() = %q", m.Version())
	}
	if !m.Installable() {
		t.Error("Installable() = false, want true")
	}
	if m.AutoInstall() {
		t.Error("AutoInstall() = true, want false")
	}
	if got, want := m.Depends(), []string{"sale", "stock"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Depends() = %v, want %v", got, want)
	}
	ext := m.ExternalDependencies()
	if got, want := ext["python"], []string{"lxml", "requests"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ExternalDependencies()[python] = %v, want %v", got, want)
	}
}

func TestLoadOpenerpManifest(t *testing.T) {
	fsys := newModuleFs(t, "__openerp__.py", `{"name": "Legacy", "version": "8.0.1.0.0"}`)

	m, err := Load(fsys, "/repo/sale_stock")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Name() != "Legacy" {
		t.Errorf("Name() = %q, want Legacy", m.Name())
	}
}

func TestLoadMalformedManifest(t *testing.T) {
	// A manifest that is not a valid literal yields an empty manifest,
	// not an error, so one broken addon cannot abort a repository scan.
	fsys := newModuleFs(t, "__manifest__.py", `{"name": open("x")}`)

	m, err := Load(fsys, "/repo/sale_stock")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty manifest, got %v", m)
	}
	if !m.Installable() {
		t.Error("empty manifest should default to installable")
	}
}

func TestLoadNoManifest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/repo/not_a_module", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := Load(fsys, "/repo/not_a_module")
	if !errors.Is(err, ErrNoManifest) {
		t.Errorf("Load error = %v, want ErrNoManifest", err)
	}
}

func TestIsModuleDir(t *testing.T) {
	fsys := newModuleFs(t, "__manifest__.py", sampleManifest)

	if !IsModuleDir(fsys, "/repo/sale_stock") {
		t.Error("IsModuleDir = false for module dir")
	}
	if IsModuleDir(fsys, "/repo") {
		t.Error("IsModuleDir = true for repo root")
	}
}

// Package manifest locates and parses Odoo addon manifests.
//
// An addon module is a directory carrying a __manifest__.py (or, for old
// versions, __openerp__.py) whose body is a single Python dict literal.
package manifest

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/camptocamp/odoo-addons-analyzer/internal/pylit"
)

// FileNames are the recognized manifest file names, in probe order.
var FileNames = []string{"__openerp__.py", "__manifest__.py"}

// ErrNoManifest is returned when a directory contains no manifest file.
var ErrNoManifest = errors.New("no manifest file found")

// Manifest is the parsed content of an addon manifest.
type Manifest map[string]any

// IsModuleDir reports whether dir contains an Odoo addon manifest.
func IsModuleDir(fsys afero.Fs, dir string) bool {
	for _, name := range FileNames {
		if ok, _ := afero.Exists(fsys, filepath.Join(dir, name)); ok {
			return true
		}
	}
	return false
}

// Load reads and parses the manifest of the addon module at dir.
//
// A manifest that exists but does not parse yields an empty Manifest and no
// error: a malformed manifest should not abort a whole repository analysis.
// Only a missing manifest is an error (ErrNoManifest).
func Load(fsys afero.Fs, dir string) (Manifest, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		exists, err := afero.Exists(fsys, path)
		if err != nil || !exists {
			continue
		}
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", path, err)
		}
		value, err := pylit.Parse(string(data))
		if err != nil {
			return Manifest{}, nil
		}
		m, ok := value.(map[string]any)
		if !ok {
			return Manifest{}, nil
		}
		return Manifest(m), nil
	}
	return nil, fmt.Errorf("%s: %w", dir, ErrNoManifest)
}

// Name returns the human-readable addon name.
func (m Manifest) Name() string { return m.str("name") }

// Version returns the addon version string.
func (m Manifest) Version() string { return m.str("version") }

// Summary returns the addon summary.
func (m Manifest) Summary() string { return m.str("summary") }

// Author returns the addon author string.
func (m Manifest) Author() string { return m.str("author") }

// Website returns the addon website.
func (m Manifest) Website() string { return m.str("website") }

// License returns the addon license identifier.
func (m Manifest) License() string { return m.str("license") }

// Category returns the addon category.
func (m Manifest) Category() string { return m.str("category") }

// Depends returns the declared addon dependencies.
func (m Manifest) Depends() []string { return m.strList("depends") }

// Data returns the declared data files.
func (m Manifest) Data() []string { return m.strList("data") }

// Demo returns the declared demo files.
func (m Manifest) Demo() []string { return m.strList("demo") }

// Installable reports whether the addon is installable. Odoo defaults a
// missing key to true.
func (m Manifest) Installable() bool {
	v, ok := m["installable"]
	if !ok {
		return true
	}
	b, ok := v.(bool)
	return !ok || b
}

// AutoInstall reports whether the addon auto-installs.
func (m Manifest) AutoInstall() bool {
	b, _ := m["auto_install"].(bool)
	return b
}

// ExternalDependencies returns the external dependency map, e.g.
// {"python": ["lxml"], "bin": ["wkhtmltopdf"]}.
func (m Manifest) ExternalDependencies() map[string][]string {
	raw, ok := m["external_dependencies"].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(raw))
	for kind, v := range raw {
		items, ok := v.([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			if s, ok := item.(string); ok {
				out[kind] = append(out[kind], s)
			}
		}
	}
	return out
}

func (m Manifest) str(key string) string {
	s, _ := m[key].(string)
	return s
}

func (m Manifest) strList(key string) []string {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

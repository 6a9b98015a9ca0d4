// Package analyze aggregates per-file line counts, manifests and model
// declarations into per-module and per-repository reports.
package analyze

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/camptocamp/odoo-addons-analyzer/internal/loc"
	"github.com/camptocamp/odoo-addons-analyzer/internal/manifest"
	"github.com/camptocamp/odoo-addons-analyzer/internal/pysrc"
	"github.com/camptocamp/odoo-addons-analyzer/internal/scan"
)

// DefaultLanguages are the language buckets reported when none are
// configured.
var DefaultLanguages = []string{"Python", "XML", "CSS", "JavaScript"}

// Config controls an analysis run.
type Config struct {
	// Languages are the buckets code counts are folded into; see
	// loc.Summary.CodeByPrefix for the matching rule.
	Languages []string
	// Scan controls module discovery and file walking.
	Scan scan.Options
}

func (c Config) languages() []string {
	if len(c.Languages) == 0 {
		return DefaultLanguages
	}
	return c.Languages
}

// Analyzer runs module and repository analyses over a filesystem.
type Analyzer struct {
	fsys  afero.Fs
	cfg   Config
	cache *FileCache
}

// New creates an Analyzer. cache may be nil to analyze every file fresh.
func New(fsys afero.Fs, cfg Config, cache *FileCache) *Analyzer {
	return &Analyzer{fsys: fsys, cfg: cfg, cache: cache}
}

// Module is the analysis of one addon module.
type Module struct {
	Name      string                 `json:"name"`
	Path      string                 `json:"path"`
	Manifest  manifest.Manifest      `json:"manifest"`
	Code      map[string]int         `json:"code"`
	Languages []loc.LanguageSummary  `json:"languages,omitempty"`
	Models    map[string]pysrc.Model `json:"models"`
	Files     int                    `json:"files"`
	Bytes     int64                  `json:"bytes"`
}

// Repository is the analysis of a whole addons repository.
type Repository struct {
	Name    string             `json:"name"`
	Path    string             `json:"path"`
	Modules map[string]*Module `json:"modules"`
}

// ModuleNames returns the module names sorted.
func (r *Repository) ModuleNames() []string {
	names := make([]string, 0, len(r.Modules))
	for name := range r.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module analyzes the addon module at dir.
func (a *Analyzer) Module(dir string) (*Module, error) {
	man, err := manifest.Load(a.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", dir, err)
	}

	mod := &Module{
		Name:     filepath.Base(dir),
		Path:     dir,
		Manifest: man,
		Models:   map[string]pysrc.Model{},
	}

	summary := loc.NewSummary()
	err = scan.WalkModule(a.fsys, dir, a.cfg.Scan, func(f scan.FileVisit) error {
		res, ok := a.cachedFile(f)
		if !ok {
			res = a.analyzeFile(f)
			a.storeFile(f, res)
		}
		summary.Add(res.Analysis)
		for key, model := range res.Models {
			mod.Models[key] = model
		}
		mod.Files++
		mod.Bytes += f.Size
		return nil
	})
	if err != nil {
		return nil, err
	}

	mod.Code = summary.CodeByPrefix(a.cfg.languages())
	mod.Languages = summary.Languages()
	return mod, nil
}

// Repository discovers and analyzes all addon modules under root.
func (a *Analyzer) Repository(root string) (*Repository, error) {
	dirs, err := scan.DiscoverModules(a.fsys, root, a.cfg.Scan)
	if err != nil {
		return nil, err
	}

	repo := &Repository{
		Name:    filepath.Base(root),
		Path:    root,
		Modules: make(map[string]*Module, len(dirs)),
	}
	for _, dir := range dirs {
		mod, modErr := a.Module(dir)
		if modErr != nil {
			return nil, modErr
		}
		repo.Modules[mod.Name] = mod
	}
	return repo, nil
}

// analyzeFile runs the per-file analyses: line counts always, model
// extraction for Python sources. File errors degrade to zero counts so one
// unreadable file cannot abort the module.
func (a *Analyzer) analyzeFile(f scan.FileVisit) FileResult {
	var res FileResult
	fa, err := loc.AnalyzeFile(a.fsys, f.AbsPath)
	if err != nil {
		return res
	}
	res.Analysis = fa

	if f.Ext == ".py" {
		if pf, pErr := pysrc.ParseFile(a.fsys, f.AbsPath); pErr == nil && len(pf.Models) > 0 {
			res.Models = pf.Models
		}
	}
	return res
}

func (a *Analyzer) cachedFile(f scan.FileVisit) (FileResult, bool) {
	if a.cache == nil {
		return FileResult{}, false
	}
	return a.cache.Get(fileKey(f))
}

func (a *Analyzer) storeFile(f scan.FileVisit, res FileResult) {
	if a.cache != nil {
		a.cache.Add(fileKey(f), res)
	}
}

func fileKey(f scan.FileVisit) string {
	return fmt.Sprintf("%s|%d|%d", f.AbsPath, f.Size, f.ModTime.UnixNano())
}

// Report renders the module in its serializable form:
// {"code": {...}, "manifest": {...}, "models": {...}, "files": n, "bytes": n},
// with a "languages" detail carrying the unbucketed per-language counts.
func (m *Module) Report() map[string]any {
	out := map[string]any{
		"code":     m.Code,
		"manifest": map[string]any(m.Manifest),
		"models":   m.Models,
		"files":    m.Files,
		"bytes":    m.Bytes,
	}
	if len(m.Languages) > 0 {
		out["languages"] = m.Languages
	}
	return out
}

// Report renders the repository keyed by module name.
func (r *Repository) Report() map[string]any {
	out := make(map[string]any, len(r.Modules))
	for name, mod := range r.Modules {
		out[name] = mod.Report()
	}
	return out
}

// TotalCode sums code counts per language bucket across all modules.
func (r *Repository) TotalCode() map[string]int {
	totals := map[string]int{}
	for _, mod := range r.Modules {
		for lang, n := range mod.Code {
			totals[lang] += n
		}
	}
	return totals
}

// LanguageOrder returns the configured bucket names of a module's code map
// in stable order.
func LanguageOrder(code map[string]int) []string {
	out := make([]string, 0, len(code))
	for lang := range code {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool {
		// Keep the conventional Odoo order for the default buckets.
		pi, pj := defaultRank(out[i]), defaultRank(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i] < out[j]
	})
	return out
}

func defaultRank(lang string) int {
	for i, d := range DefaultLanguages {
		if strings.EqualFold(d, lang) {
			return i
		}
	}
	return len(DefaultLanguages)
}

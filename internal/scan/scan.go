// Package scan discovers Odoo addon modules in a repository and walks their
// files.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/camptocamp/odoo-addons-analyzer/internal/manifest"
)

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{
	".git", ".hg", ".svn", "node_modules", ".venv", "venv", "__pycache__",
	".tox", ".mypy_cache", "setup",
}

// Options controls module discovery.
type Options struct {
	// Recursive searches the whole tree instead of only the direct
	// children of the root.
	Recursive bool
	// ExcludeDirs overrides DefaultExcludeDirs when non-nil.
	ExcludeDirs []string
}

func (o Options) excluded() map[string]bool {
	names := o.ExcludeDirs
	if names == nil {
		names = DefaultExcludeDirs
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

// DiscoverModules returns the addon module directories under root, sorted.
// A directory is an addon module when it carries a manifest file.
func DiscoverModules(fsys afero.Fs, root string, opts Options) ([]string, error) {
	excluded := opts.excluded()

	var dirs []string
	if opts.Recursive {
		err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return nil // unreadable entries are not fatal
			}
			if !info.IsDir() {
				return nil
			}
			if path != root && excluded[filepath.Base(path)] {
				return filepath.SkipDir
			}
			if path != root && manifest.IsModuleDir(fsys, path) {
				dirs = append(dirs, path)
				return filepath.SkipDir // modules never nest
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	} else {
		entries, err := afero.ReadDir(fsys, root)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", root, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() || excluded[entry.Name()] {
				continue
			}
			dir := filepath.Join(root, entry.Name())
			if manifest.IsModuleDir(fsys, dir) {
				dirs = append(dirs, dir)
			}
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}

// FileVisit carries per-file metadata to walk callbacks.
type FileVisit struct {
	// Path is the module-relative path using forward slashes.
	Path string
	// AbsPath is the path as addressed on the filesystem.
	AbsPath string
	// Ext is the lowercased extension, empty for files without one.
	Ext string
	// Size in bytes.
	Size int64
	// ModTime is the file modification time.
	ModTime time.Time
}

// VisitFunc is invoked for every file of a module, in sorted path order.
type VisitFunc func(f FileVisit) error

// WalkModule visits every file under the module directory, skipping excluded
// directories. Unreadable entries are skipped silently.
func WalkModule(fsys afero.Fs, dir string, opts Options, fn VisitFunc) error {
	excluded := opts.excluded()

	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != dir && excluded[filepath.Base(path)] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		return fn(FileVisit{
			Path:    filepath.ToSlash(rel),
			AbsPath: path,
			Ext:     strings.ToLower(filepath.Ext(path)),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	})
	if err != nil {
		return fmt.Errorf("walk module %s: %w", dir, err)
	}
	return nil
}

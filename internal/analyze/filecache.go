package analyze

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/camptocamp/odoo-addons-analyzer/internal/loc"
	"github.com/camptocamp/odoo-addons-analyzer/internal/pysrc"
)

// DefaultFileCacheSize bounds the per-file cache when no size is configured.
const DefaultFileCacheSize = 4096

// FileResult is everything extracted from one file, cached between runs so
// the daemon and watch mode only re-read files that changed.
type FileResult struct {
	Analysis loc.FileAnalysis
	Models   map[string]pysrc.Model
}

// FileCache is a bounded, thread-safe cache of per-file results keyed by
// path, size and modification time.
type FileCache struct {
	lru *lru.Cache[string, FileResult]
}

// NewFileCache creates a cache holding up to size entries.
func NewFileCache(size int) (*FileCache, error) {
	if size <= 0 {
		size = DefaultFileCacheSize
	}
	c, err := lru.New[string, FileResult](size)
	if err != nil {
		return nil, err
	}
	return &FileCache{lru: c}, nil
}

// Get returns the cached result for key.
func (c *FileCache) Get(key string) (FileResult, bool) {
	return c.lru.Get(key)
}

// Add stores a result under key.
func (c *FileCache) Add(key string, res FileResult) {
	c.lru.Add(key, res)
}

// Len returns the number of cached entries.
func (c *FileCache) Len() int {
	return c.lru.Len()
}

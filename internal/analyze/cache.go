package analyze

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// ReportCache stores whole repository reports on disk so repeated requests
// for an unchanged repository skip re-analysis entirely.
type ReportCache struct {
	fsys afero.Fs
	dir  string
	ttl  time.Duration
}

// NewReportCache creates a disk cache rooted at dir with the given TTL.
func NewReportCache(fsys afero.Fs, dir string, ttl time.Duration) *ReportCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &ReportCache{fsys: fsys, dir: dir, ttl: ttl}
}

// Get retrieves the cached repository report for root, if present and fresh.
func (c *ReportCache) Get(root string) (*Repository, bool) {
	path := c.path(root)

	info, err := c.fsys.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := afero.ReadFile(c.fsys, path)
	if err != nil {
		return nil, false
	}
	var repo Repository
	if err := json.Unmarshal(data, &repo); err != nil {
		return nil, false
	}
	return &repo, true
}

// Set stores the repository report for root.
func (c *ReportCache) Set(root string, repo *Repository) error {
	data, err := json.Marshal(repo)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := c.fsys.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := afero.WriteFile(c.fsys, c.path(root), data, 0o600); err != nil {
		return fmt.Errorf("write report cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached report for root.
func (c *ReportCache) Invalidate(root string) {
	_ = c.fsys.Remove(c.path(root))
}

func (c *ReportCache) path(root string) string {
	hash := sha256.Sum256([]byte(root))
	return filepath.Join(c.dir, fmt.Sprintf("addons_analyzer_%x.json", hash[:8]))
}

// Package watch re-runs repository analysis when addon source files change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/camptocamp/odoo-addons-analyzer/internal/scan"
)

// DefaultDebounce is how long the watcher waits after the last event before
// reporting a change. Editors fire several events per save.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives the batch of changed paths after the debounce window.
type Handler func(paths []string)

// Logger provides logging functionality.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Options controls watch behavior.
type Options struct {
	// Debounce is the quiet period before a change batch is reported.
	Debounce time.Duration
	// ExcludeDirs are directory names whose subtrees are not watched.
	// Defaults to scan.DefaultExcludeDirs.
	ExcludeDirs []string
}

func (o Options) debounce() time.Duration {
	if o.Debounce <= 0 {
		return DefaultDebounce
	}
	return o.Debounce
}

func (o Options) excludeDirs() []string {
	if o.ExcludeDirs == nil {
		return scan.DefaultExcludeDirs
	}
	return o.ExcludeDirs
}

// Watcher watches an addons repository tree and reports debounced change
// batches. It watches the real filesystem; the afero handle is used only to
// enumerate directories so the exclude rules stay shared with the scanner.
type Watcher struct {
	fsys     afero.Fs
	root     string
	opts     Options
	handler  Handler
	logger   Logger
	notifier *fsnotify.Watcher
}

// New creates a watcher over the repository at root and registers watches on
// every directory in its tree.
func New(fsys afero.Fs, root string, opts Options, logger Logger, handler Handler) (*Watcher, error) {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsys:     fsys,
		root:     root,
		opts:     opts,
		handler:  handler,
		logger:   logger,
		notifier: notifier,
	}

	if err := w.addTree(root); err != nil {
		notifier.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers watches on dir and every non-excluded directory below it.
func (w *Watcher) addTree(dir string) error {
	excluded := w.opts.excludeDirs()
	return afero.Walk(w.fsys, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			// Unreadable entries below the root are skipped, same as the
			// scanner.
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && slices.Contains(excluded, info.Name()) {
			return filepath.SkipDir
		}
		if addErr := w.notifier.Add(path); addErr != nil {
			return fmt.Errorf("watch %s: %w", path, addErr)
		}
		return nil
	})
}

// Run blocks processing events until ctx is canceled. The handler is invoked
// from the watch goroutine, so a slow handler delays the next batch rather
// than running concurrently with it.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.notifier.Close()

	var timerC <-chan time.Time
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.notifier.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			// A new module or subdirectory must be watched from now on.
			if event.Has(fsnotify.Create) {
				if info, statErr := w.fsys.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := w.addTree(event.Name); addErr != nil {
						w.logger.Printf("watch new directory: %v", addErr)
					}
				}
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.opts.debounce())
			timerC = timer.C

		case err, ok := <-w.notifier.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("watch error: %v", err)

		case <-timerC:
			timerC = nil
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			slices.Sort(paths)
			pending = make(map[string]struct{})
			w.handler(paths)
		}
	}
}

// relevant filters out chmod-only events and anything inside excluded
// directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&^fsnotify.Chmod == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return true
	}
	excluded := w.opts.excludeDirs()
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if slices.Contains(excluded, part) {
			return false
		}
	}
	return true
}

// Package watch reruns checks when Python sources change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/panbanda/cogmark/internal/scanner"
	"github.com/panbanda/cogmark/pkg/parser"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

const pollInterval = 50 * time.Millisecond

// skipDirs are never watched.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
}

// Watcher batches changes to Python files under a set of roots.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	scanner   *scanner.Scanner
	roots     []string
	debounce  time.Duration
	onChange  func(paths []string)

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher for roots. Files matching excludes are ignored. A
// debounce of zero or less selects DefaultDebounce.
func New(roots []string, excludes []string, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		scanner:   scanner.NewScanner(scanner.WithExcludes(excludes)),
		roots:     roots,
		debounce:  debounce,
		pending:   make(map[string]time.Time),
	}, nil
}

// OnChange sets the function called with each settled batch of changed
// files, sorted. Batches are delivered one at a time.
func (w *Watcher) OnChange(fn func(paths []string)) {
	w.onChange = fn
}

// Run watches until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		case <-ticker.C:
			if ready := w.settled(time.Now()); len(ready) > 0 && w.onChange != nil {
				w.onChange(ready)
			}
		}
	}
}

// addTree watches root and every directory below it. A root that is a file
// is watched through its parent directory.
func (w *Watcher) addTree(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fsWatcher.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func ignoredDir(name string) bool {
	return skipDirs[name] || strings.HasPrefix(name, ".")
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !ignoredDir(info.Name()) {
				if err := w.addTree(event.Name); err != nil {
					slog.Debug("watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}

	if !w.Relevant(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// Relevant reports whether a change to path should trigger a rerun.
func (w *Watcher) Relevant(path string) bool {
	return parser.IsPython(path) && !w.scanner.ExcludedFile(path)
}

// settled removes and returns the pending files quiet since before
// now minus the debounce.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}

// SPDX-License-Identifier: MPL-2.0

// Package watch rebuilds a project when its source tree changes.
//
// A Watcher registers every directory of the project with fsnotify, drops
// events for paths matched by its gitignore-style ignore list, and calls
// OnChange once per quiet period with the set of paths that changed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/invowk/wheelwright/pkg/pathspec"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 500 * time.Millisecond

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watch: Run called more than once")

	// ErrExhausted reports that the OS ran out of watches or handles.
	ErrExhausted = errors.New("watch: out of file watch resources")
)

// defaultIgnores never trigger a rebuild. Byte-code, editor swap files and
// VCS metadata change on their own while a project is being edited.
var defaultIgnores = []string{
	".git/",
	".hg/",
	"__pycache__/",
	"*.py[cdo]",
	"*.swp",
	"*.swo",
	"*~",
	".DS_Store",
	"node_modules/",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the project directory. Empty means the working directory.
		Root string

		// Ignore holds extra gitignore-style lines, relative to Root. Build
		// output directories belong here so that writing an artifact does
		// not schedule another build.
		Ignore []string

		// Debounce is the quiet period before OnChange fires.
		Debounce time.Duration

		// OnChange receives the sorted, root-relative, slash-separated paths
		// that changed. A returned error is logged and watching continues.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives watcher diagnostics. Nil logs to Stderr.
		Logger *log.Logger

		Stderr io.Writer
	}

	// Watcher monitors a project tree. Run may be called once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignore   *pathspec.Spec
		logger   *log.Logger
		debounce time.Duration
		root     string
		started  atomic.Bool
	}
)

// New resolves the root, compiles the ignore list and registers every
// directory that is not ignored.
func New(cfg Config) (*Watcher, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", root)
	}

	logger := cfg.Logger
	if logger == nil {
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		logger = log.NewWithOptions(stderr, log.Options{Prefix: "watch"})
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignore:   pathspec.Compile(slices.Concat(defaultIgnores, cfg.Ignore)),
		logger:   logger,
		debounce: debounce,
		root:     root,
	}
	if err := w.addTree(root); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Root returns the absolute directory being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Run processes events until ctx is done. It returns nil on cancellation
// and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = map[string]struct{}{}
		timer   *time.Timer
		running atomic.Bool
	)

	// fire runs on the timer goroutine. A fire that finds a build in
	// progress re-arms the timer so the pending paths are not lost.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("build in progress, deferring")
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("rebuild failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, ok := w.relative(evt.Name)
			if !ok {
				continue
			}
			isDir := false
			if evt.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					isDir = true
				}
			}
			if w.ignored(rel, isDir) {
				continue
			}
			if isDir {
				if err := w.addTree(evt.Name); err != nil {
					w.logger.Warn("watch new directory", "path", rel, "err", err)
				}
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if exhausted(err) {
				return fmt.Errorf("%w: %w", ErrExhausted, err)
			}
			w.logger.Warn("fsnotify", "err", err)
		}
	}
}

// addTree registers dir and every directory below it that is not ignored.
// Unreadable directories are skipped with a warning.
func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping unreadable path", "path", path, "err", walkErr)
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(path); ok && w.ignored(rel, true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			if exhausted(err) {
				return fmt.Errorf("%w: add %s: %w", ErrExhausted, path, err)
			}
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", dir, err)
	}
	return nil
}

// relative maps an absolute event path to a slash-separated path under the
// root. The root itself reports false.
func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) ignored(rel string, isDir bool) bool {
	if isDir {
		return w.ignore.Match(rel + "/")
	}
	return w.ignore.Match(rel)
}

// Package watch re-runs a function when any of a set of files changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rdecheck/rdecheck/pkg/log"
)

// DefaultDebounce is how long the watcher waits for more events before
// running.
const DefaultDebounce = 100 * time.Millisecond

var ErrNoFiles = errors.New("no files to watch")

// Watcher watches files through their parent directories, so files that are
// replaced (e.g. by editors writing a temp file and renaming it) keep being
// tracked.
type Watcher struct {
	watcher *fsnotify.Watcher

	// Watched files, as absolute paths.
	files map[string]struct{}
	// Watched directories, as absolute paths.
	dirs map[string]struct{}

	debounce time.Duration
}

// Option configures a [Watcher].
type Option func(*Watcher)

// WithDebounce sets the quiet period after an event before the function runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New creates a [Watcher] for the given file paths.
func New(paths []string, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range paths {
		if err := w.add(p); err != nil {
			w.Close()

			return nil, err
		}
	}

	return w, nil
}

func (w *Watcher) add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("get absolute path of %q: %w", path, err)
	}

	dir := filepath.Dir(absPath)
	if _, ok := w.dirs[dir]; !ok {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("add path to watcher: %w", err)
		}

		w.dirs[dir] = struct{}{}
	}

	w.files[absPath] = struct{}{}

	return nil
}

// Files returns the number of watched files.
func (w *Watcher) Files() int {
	return len(w.files)
}

func (w *Watcher) isFileWatched(path string) bool {
	_, ok := w.files[filepath.Clean(path)]

	return ok
}

// Run calls fn after each burst of changes to a watched file, until ctx is
// done or the watcher is closed. Errors returned by fn are logged and do not
// stop the loop.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changed string) error) error {
	logger := log.WithContext(ctx)
	logger.DebugContext(ctx, "added file watchers",
		slog.Int("files", len(w.files)),
		slog.Int("dirs", len(w.dirs)),
	)

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	defer timer.Stop()

	var changed string

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if !w.isFileWatched(evt.Name) {
				continue
			}

			// Ignore events that are not related to file content changes.
			if evt.Has(fsnotify.Chmod) {
				continue
			}

			logger.DebugContext(ctx, "file event", slog.String("event", evt.String()))

			changed = evt.Name
			timer.Reset(w.debounce)

		case <-timer.C:
			err := fn(ctx, changed)
			if err != nil {
				logger.ErrorContext(ctx, "run after change",
					slog.String("file", changed),
					slog.Any("err", err),
				)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			logger.ErrorContext(ctx, "watch files", slog.Any("err", err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() {
	err := w.watcher.Close()
	if err != nil {
		slog.Error("close watcher", slog.Any("err", err))
	}
}

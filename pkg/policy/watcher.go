package policy

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Watcher reloads a policy file into a store whenever the file changes. A
// file that fails to load or validate is logged and ignored; the store keeps
// serving the previous table.
type Watcher struct {
	path     string
	store    *Store
	logger   *zap.Logger
	fsw      *fsnotify.Watcher
	onReload func(*Table)
}

// NewWatcher starts watching the directory containing path. The directory is
// watched rather than the file so that editors which replace the file on save
// are handled.
func NewWatcher(logger *zap.Logger, path string, store *Store) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve policy path %s", path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	return &Watcher{path: abs, store: store, logger: logger, fsw: fsw}, nil
}

// OnReload registers a callback invoked after each successful swap.
func (w *Watcher) OnReload(fn func(*Table)) {
	w.onReload = fn
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		_ = w.fsw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.Reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("policy watcher error",
				zap.String("op", "policy.Watcher.Run"),
				zap.Error(err),
			)
		}
	}
}

// Reload loads the file and installs it if valid. It reports whether the
// store now serves the file's table.
func (w *Watcher) Reload() bool {
	t, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("rejected policy reload, keeping active table",
			zap.String("op", "policy.Watcher.Reload"),
			zap.String("path", w.path),
			zap.String("active_version", w.store.Version()),
			zap.Error(err),
		)
		return false
	}

	old, err := w.store.Swap(t)
	if err != nil {
		return false
	}
	w.logger.Info("policy table reloaded",
		zap.String("op", "policy.Watcher.Reload"),
		zap.String("previous_version", old.Version()),
		zap.String("version", t.Version()),
	)
	if w.onReload != nil {
		w.onReload(t)
	}
	return true
}

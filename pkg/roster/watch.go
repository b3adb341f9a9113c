package roster

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/arnavshah/oncall-api-go/pkg/models"
	"github.com/fsnotify/fsnotify"
)

// WatchedSource keeps the roster in memory and re-reads the file when it
// changes on disk. A failed reload keeps serving the previous roster.
type WatchedSource struct {
	path string
	log  *slog.Logger

	mu     sync.RWMutex
	shifts []models.ShiftEntry

	watcher *fsnotify.Watcher
	reloads chan struct{}
}

// NewWatchedSource reads path once and starts watching its directory.
// Editors often replace files rather than write them in place, so the parent
// directory is watched and events are filtered by name.
func NewWatchedSource(path string, log *slog.Logger) (*WatchedSource, error) {
	if log == nil {
		log = slog.Default()
	}

	shifts, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create roster watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	return &WatchedSource{
		path:    path,
		log:     log,
		shifts:  shifts,
		watcher: watcher,
		reloads: make(chan struct{}, 1),
	}, nil
}

// Load returns the cached roster
func (w *WatchedSource) Load(_ context.Context) ([]models.ShiftEntry, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.shifts, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *WatchedSource) Run(ctx context.Context) error {
	defer w.watcher.Close()

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("roster watcher error", "err", err)
		}
	}
}

// Reloaded signals after every successful reload. Only the latest signal is kept.
func (w *WatchedSource) Reloaded() <-chan struct{} {
	return w.reloads
}

func (w *WatchedSource) reload() {
	shifts, err := ReadFile(w.path)
	if err != nil {
		w.log.Error("roster reload failed, keeping previous roster", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	w.shifts = shifts
	w.mu.Unlock()

	w.log.Info("roster reloaded", "path", w.path, "shifts", len(shifts))
	select {
	case w.reloads <- struct{}{}:
	default:
	}
}

// Close stops watching without waiting for Run.
func (w *WatchedSource) Close() error {
	return w.watcher.Close()
}

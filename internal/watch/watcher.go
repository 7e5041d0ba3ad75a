// Package watch reloads the topology when its file changes on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"apparray/internal/model"
	"apparray/pkg/logging"
)

// DefaultDebounce collapses bursts of writes into one reload.
const DefaultDebounce = 500 * time.Millisecond

// ReplaceFunc receives every successfully parsed topology.
type ReplaceFunc func(app *model.Application)

// TopologyWatcher watches one topology file.
//
// The parent directory is watched rather than the file so that editors
// replacing the file by rename are still seen.
type TopologyWatcher struct {
	mu sync.Mutex

	path     string
	debounce time.Duration
	replace  ReplaceFunc
	timer    *time.Timer
}

// NewTopologyWatcher creates a watcher for path.
func NewTopologyWatcher(path string, debounce time.Duration, replace ReplaceFunc) *TopologyWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &TopologyWatcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		replace:  replace,
	}
}

// Path returns the watched file.
func (w *TopologyWatcher) Path() string { return w.path }

// Load parses the topology file.
func Load(path string) (*model.Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology %s: %w", path, err)
	}
	app, err := model.ParseApplication(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse topology %s: %w", path, err)
	}
	return app, nil
}

// Reload parses the file now and hands the result to the replace callback.
// On error the current topology is kept.
func (w *TopologyWatcher) Reload() error {
	app, err := Load(w.path)
	if err != nil {
		logging.Warn("TopologyWatcher", "Keeping current topology: %v", err)
		return err
	}
	logging.Info("TopologyWatcher", "Reloaded topology %q from %s", app.ID, w.path)
	w.replace(app)
	return nil
}

// Run watches until ctx is cancelled.
func (w *TopologyWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create topology watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logging.Info("TopologyWatcher", "Watching %s for topology changes", w.path)

	defer w.cancelPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("TopologyWatcher", err, "Filesystem watcher error")
		}
	}
}

func (w *TopologyWatcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		logging.Debug("TopologyWatcher", "Ignoring %s on %s", event.Op, event.Name)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		_ = w.Reload()
	})
}

func (w *TopologyWatcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

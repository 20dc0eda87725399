package library

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of file events to
// settle before rescanning.
const DefaultDebounce = 250 * time.Millisecond

// Watcher watches the library directories and rescans the library when
// sound files appear, change or disappear.
type Watcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	library  *Library
	exts     []string
	debounce time.Duration

	watcher *fsnotify.Watcher
	timer   *time.Timer
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for lib. exts selects the files whose events
// trigger a rescan.
func NewWatcher(lib *Library, exts []string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:   logger,
		library:  lib,
		exts:     exts,
		debounce: DefaultDebounce,
	}
}

// SetDebounce sets the settle time between a file event and the rescan.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start begins watching the library directories and their subdirectories.
// Directories that do not exist are skipped.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	w.watcher = fw
	w.doneCh = make(chan struct{})
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.library.Dirs() {
		w.addTree(dir)
	}

	go w.watch(ctx, fw, w.doneCh)

	w.logger.Debug("library watcher started", "dirs", len(fw.WatchList()))
	return nil
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := w.add(path); err != nil {
			w.logger.Warn("failed to watch directory", "dir", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) add(path string) error {
	w.mu.Lock()
	fw := w.watcher
	w.mu.Unlock()

	if fw == nil {
		return nil
	}
	return fw.Add(path)
}

// watch is the main watch loop.
func (w *Watcher) watch(ctx context.Context, fw *fsnotify.Watcher, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("library watcher error", "error", err)
		}
	}
}

// handle reacts to a single file event.
func (w *Watcher) handle(event fsnotify.Event) {
	// New subdirectories need their own watch
	if event.Has(fsnotify.Create) {
		if isDir(event.Name) {
			w.addTree(event.Name)
			w.schedule()
			return
		}
	}

	if !IsSoundFile(event.Name, w.exts) {
		return
	}

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.logger.Debug("sound file changed", "path", event.Name, "op", event.Op.String())
		w.schedule()
	}
}

// schedule arranges a rescan once events have settled.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.rescan)
}

func (w *Watcher) rescan() {
	if err := w.library.Rescan(); err != nil {
		w.logger.Warn("failed to rescan library", "error", err)
	}
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	fw := w.watcher
	doneCh := w.doneCh
	w.watcher = nil
	w.mu.Unlock()

	err := fw.Close()
	<-doneCh

	w.logger.Debug("library watcher stopped")
	return err
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Package watcher reports debounced changes to a set of files.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ChangeEvent struct {
	Path      string
	Timestamp time.Time
}

type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	log       *zap.Logger

	mu    sync.Mutex
	files map[string]struct{}
}

func New(debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		log:       log,
		files:     make(map[string]struct{}),
	}, nil
}

// AddFile watches a single file. Its directory is what fsnotify watches, so
// editors that save by writing a temp file and renaming it over the
// original are still seen.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fsWatcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	w.mu.Lock()
	w.files[abs] = struct{}{}
	w.mu.Unlock()
	return nil
}

// Watch returns a channel that emits debounced change events.
func (w *Watcher) Watch(ctx context.Context) <-chan ChangeEvent {
	out := make(chan ChangeEvent)

	go func() {
		defer close(out)

		var mu sync.Mutex
		var pending *time.Timer
		var lastPath string

		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if pending != nil {
					pending.Stop()
				}
				mu.Unlock()
				return

			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}

				if !w.shouldWatch(event.Name) {
					continue
				}

				// Watch for write, create, rename (atomic saves), chmod (some editors)
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) == 0 {
					continue
				}

				mu.Lock()
				lastPath = event.Name

				if pending != nil {
					pending.Stop()
				}

				pending = time.AfterFunc(w.debounce, func() {
					mu.Lock()
					p := lastPath
					mu.Unlock()

					select {
					case out <- ChangeEvent{Path: p, Timestamp: time.Now()}:
					case <-ctx.Done():
					}
				})
				mu.Unlock()

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				w.log.Warn("file watch error", zap.Error(err))
			}
		}
	}()

	return out
}

func (w *Watcher) shouldWatch(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[abs]
	return ok
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

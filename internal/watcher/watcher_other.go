//go:build !darwin && !windows

package watcher

import (
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/lumipallolabs/filegap/internal/logging"
)

// Watcher watches for filesystem changes using fsnotify (inotify on Linux).
// fsnotify is not recursive, so every directory gets its own watch and new
// directories are added as they appear.
type Watcher struct {
	fsw     *fsnotify.Watcher
	eventCh chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// New creates a new filesystem watcher
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:     fsw,
		eventCh: make(chan Event, eventBuffer),
		done:    make(chan struct{}),
	}, nil
}

// Events returns the channel for receiving filesystem events
func (w *Watcher) Events() <-chan Event {
	return w.eventCh
}

// AddRecursive watches root and every directory below it. Directories that
// cannot be watched are skipped.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			if path == root {
				return err
			}
			logging.Debug.Printf("watch %s: %v", path, err)
		}
		return nil
	})
}

// Start begins delivering events
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Debug.Printf("watcher: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	var typ EventType
	switch {
	case event.Has(fsnotify.Create):
		typ = EventCreated
		// New directories need their own watch
		if err := w.AddRecursive(event.Name); err != nil {
			logging.Debug.Printf("watch %s: %v", event.Name, err)
		}
	case event.Has(fsnotify.Remove):
		typ = EventDeleted
	case event.Has(fsnotify.Rename):
		typ = EventRenamed
	default:
		return
	}

	select {
	case w.eventCh <- Event{Type: typ, Path: event.Name}:
	default:
	}
}

// Stop stops the watcher and closes the event channel
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	close(w.eventCh)
	return err
}

package core

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lumipallolabs/filegap/internal/logging"
	"github.com/lumipallolabs/filegap/internal/watcher"
)

// TreeChangedEvent is emitted by a watch once names under the watched root
// stop changing for the debounce period
type TreeChangedEvent struct {
	ScanID uuid.UUID // most recent scan when the change was seen
	Paths  []string  // changed paths, sorted
}

func (e TreeChangedEvent) ID() uuid.UUID { return e.ScanID }
func (TreeChangedEvent) isEvent()          {}

// StartWatching watches root for created, deleted and renamed entries. Bursts
// of changes are collapsed into one TreeChangedEvent after debounce of quiet.
// The returned channel is closed when ctx is done or StopWatching is called.
// Starting a new watch stops the previous one.
func (c *Controller) StartWatching(ctx context.Context, root string, debounce time.Duration) (<-chan Event, error) {
	c.StopWatching()

	w, err := watcher.New()
	if err != nil {
		return nil, err
	}
	if err := w.AddRecursive(root); err != nil {
		_ = w.Stop()
		return nil, err
	}
	w.Start()

	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()

	logging.Debug.Printf("[Controller] Filesystem watcher started for %s", root)

	eventCh := make(chan Event, eventBuffer)
	go c.watchLoop(ctx, w, debounce, eventCh)
	return eventCh, nil
}

// StopWatching stops the active watch, if any
func (c *Controller) StopWatching() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w != nil {
		_ = w.Stop()
	}
}

// Stop cancels any running scan and stops watching
func (c *Controller) Stop() {
	c.Cancel()
	c.StopWatching()
}

// watchLoop debounces filesystem events into TreeChangedEvents
func (c *Controller) watchLoop(ctx context.Context, w *watcher.Watcher, debounce time.Duration, eventCh chan Event) {
	defer close(eventCh)
	defer func() { _ = w.Stop() }()

	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			logging.Debug.Printf("[Controller] Watcher: %s %s", ev.Type, ev.Path)
			pending[ev.Path] = struct{}{}
			timer.Reset(debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			pending = make(map[string]struct{})

			select {
			case eventCh <- TreeChangedEvent{ScanID: c.State().ID, Paths: paths}:
			case <-ctx.Done():
				return
			}
		}
	}
}

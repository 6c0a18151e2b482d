package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lumipallolabs/filegap/internal/logging"
	"github.com/lumipallolabs/filegap/internal/scanner"
	"github.com/lumipallolabs/filegap/internal/watcher"
)

// ErrScanInProgress is returned when a scan is started while another one runs
var ErrScanInProgress = errors.New("a scan is already running")

// ErrNoPreviousScan is returned by Rescan before any scan was started
var ErrNoPreviousScan = errors.New("no previous scan to repeat")

// eventBuffer is the capacity of each scan's event channel
const eventBuffer = 100

// terminalGrace is how long a cancelled scan waits for room on a full
// channel before dropping its terminal event
var terminalGrace = 2 * time.Second

// Controller runs scans one at a time and publishes their events. It has no
// UI dependencies.
type Controller struct {
	mu sync.RWMutex

	scanner *scanner.Scanner
	scan    ScanState
	cancel  context.CancelFunc
	watcher *watcher.Watcher

	// last finished result, handed out as copies
	missing []string
}

// NewController creates a controller that scans with s
func NewController(s *scanner.Scanner) *Controller {
	return &Controller{scanner: s}
}

// State returns a snapshot of the current scan state
func (c *Controller) State() ScanState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scan
}

// Missing returns a copy of the missing folders of the last completed scan
func (c *Controller) Missing() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.missing)
}

// StartScan validates req and starts scanning it in the background. Events
// arrive on the returned channel, which is closed after the terminal event
// (ScanCompletedEvent, ScanCancelledEvent or ScanFailedEvent). The caller must
// drain the channel until it is closed. Once a scan is cancelled no send
// blocks for long: a consumer that stopped reading loses the remaining
// events, the terminal one included, but the scan still ends and State
// records its outcome.
func (c *Controller) StartScan(ctx context.Context, req scanner.Request) (<-chan Event, error) {
	if c.State().IsScanning() {
		return nil, ErrScanInProgress
	}

	if err := c.scanner.Validate(req); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.scan.IsScanning() {
		c.mu.Unlock()
		return nil, ErrScanInProgress
	}

	id := uuid.New()
	scanCtx, cancel := context.WithCancel(ctx)

	// Reset state for new scan
	c.scan = ScanState{
		ID:        id,
		Phase:     PhaseScanning,
		Request:   req,
		StartTime: time.Now(),
	}
	c.cancel = cancel
	c.mu.Unlock()

	eventCh := make(chan Event, eventBuffer)

	go c.runScan(scanCtx, cancel, id, req, eventCh)

	return eventCh, nil
}

// Rescan repeats the most recent scan request
func (c *Controller) Rescan(ctx context.Context) (<-chan Event, error) {
	state := c.State()
	if state.ID == uuid.Nil {
		return nil, ErrNoPreviousScan
	}
	return c.StartScan(ctx, state.Request)
}

// Cancel stops the running scan. It returns false when nothing was running.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.scan.IsScanning() || c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// runScan executes the scan in a goroutine
func (c *Controller) runScan(ctx context.Context, cancel context.CancelFunc, id uuid.UUID, req scanner.Request, eventCh chan Event) {
	defer close(eventCh)
	defer cancel()

	logging.Debug.Printf("[Controller] Starting scan %s of %s for %q", id, req.Root, req.Target)

	// send gives up once the scan is cancelled so a stalled consumer cannot
	// block cancellation
	send := func(e Event) bool {
		select {
		case eventCh <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	send(ScanStartedEvent{ScanID: id, Request: req})

	delivered := 0
	dropped := false

	rep := scanner.ReporterFuncs{
		OnProgress: func(p scanner.Progress) {
			c.mu.Lock()
			c.scan.Progress = p
			c.mu.Unlock()

			if !send(ProgressEvent{ScanID: id, Current: p.Current, Total: p.Total}) {
				dropped = true
			}
		},
		OnMissing: func(path string) {
			if !send(FolderMissingEvent{ScanID: id, Path: path}) {
				dropped = true
				return
			}
			delivered++

			c.mu.Lock()
			c.scan.MissingCount = delivered
			c.mu.Unlock()
		},
	}

	res, err := c.safeScan(ctx, req, rep)
	if err == nil && dropped {
		err = context.Canceled
	}

	c.finish(ctx, id, res, err, delivered, eventCh)
}

// safeScan runs the scanner, turning a panic into an error
func (c *Controller) safeScan(ctx context.Context, req scanner.Request, rep scanner.Reporter) (res *scanner.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("scan panicked: %v", r)
		}
	}()
	return c.scanner.Scan(ctx, req, rep)
}

// finish records the outcome and emits the terminal event
func (c *Controller) finish(ctx context.Context, id uuid.UUID, res *scanner.Result, err error, delivered int, eventCh chan Event) {
	c.mu.Lock()
	c.scan.EndTime = time.Now()
	c.scan.MissingCount = delivered
	c.cancel = nil

	var terminal Event
	switch {
	case err == nil:
		c.scan.Phase = PhaseComplete
		c.missing = slices.Clone(res.Missing)
		terminal = ScanCompletedEvent{
			ScanID:       id,
			MissingCount: delivered,
			Missing:      slices.Clone(res.Missing),
			Total:        res.Total,
			Excluded:     res.Excluded,
			Unreadable:   res.Unreadable,
		}
		logging.Debug.Printf("[Controller] Scan %s complete: %d missing of %d folders", id, delivered, res.Total)

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		c.scan.Phase = PhaseCancelled
		c.scan.Err = err
		terminal = ScanCancelledEvent{ScanID: id, MissingCount: delivered}
		logging.Debug.Printf("[Controller] Scan %s cancelled", id)

	default:
		c.scan.Phase = PhaseFailed
		c.scan.Err = err
		terminal = ScanFailedEvent{ScanID: id, Err: err}
		logging.Debug.Printf("[Controller] Scan %s failed: %v", id, err)
	}
	c.mu.Unlock()

	select {
	case eventCh <- terminal:
		return
	default:
	}
	if ctx.Err() == nil {
		eventCh <- terminal
		return
	}

	timer := time.NewTimer(terminalGrace)
	defer timer.Stop()
	select {
	case eventCh <- terminal:
	case <-timer.C:
		logging.Debug.Printf("[Controller] Scan %s: channel not drained, terminal event dropped", id)
	}
}

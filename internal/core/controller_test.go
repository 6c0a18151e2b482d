package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/lumipallolabs/filegap/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var root = filepath.Join(string(filepath.Separator), "data")

func newSource(t *testing.T, tree map[string][]string) *scanner.BillySource {
	t.Helper()
	src := scanner.NewMemorySource()
	fsys := src.Filesystem()
	require.NoError(t, fsys.MkdirAll(root, 0755))
	for dir, files := range tree {
		full := filepath.Join(root, dir)
		require.NoError(t, fsys.MkdirAll(full, 0755))
		for _, f := range files {
			require.NoError(t, util.WriteFile(fsys, filepath.Join(full, f), nil, 0644))
		}
	}
	return src
}

// blockingSource holds enumeration until released or cancelled
type blockingSource struct {
	*scanner.BillySource
	started chan struct{}
	release chan struct{}
	dirsErr error
	panics  bool
}

func (b *blockingSource) Dirs(ctx context.Context, r string, opts scanner.WalkOptions) ([]string, error) {
	if b.panics {
		panic("enumeration exploded")
	}
	if b.dirsErr != nil {
		return nil, b.dirsErr
	}
	close(b.started)
	select {
	case <-b.release:
		return b.BillySource.Dirs(ctx, r, opts)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newBlocking(t *testing.T) *blockingSource {
	return &blockingSource{
		BillySource: newSource(t, map[string][]string{".": {"x.txt"}}),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

// drain collects every event until the channel closes
func drain(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		case <-timeout:
			t.Fatal("timed out waiting for scan events")
			return nil
		}
	}
}

func TestControllerEventStream(t *testing.T) {
	src := newSource(t, map[string][]string{
		".": {"x.txt"},
		"A": {"x.txt"},
		"B": {"x.log"},
		"C": nil,
	})
	c := NewController(scanner.New(src, 2))

	assert.Equal(t, PhaseIdle, c.State().Phase)
	assert.False(t, c.State().HasRun())

	ch, err := c.StartScan(context.Background(), scanner.Request{Root: root, Target: "x.txt"})
	require.NoError(t, err)
	events := drain(t, ch)
	require.NotEmpty(t, events)

	started, ok := events[0].(ScanStartedEvent)
	require.True(t, ok, "first event must be ScanStartedEvent")
	id := started.ScanID
	assert.NotEqual(t, uuid.Nil, id)

	var missing []string
	last := 0
	for _, e := range events[1 : len(events)-1] {
		assert.Equal(t, id, e.ID())
		switch e := e.(type) {
		case ProgressEvent:
			assert.Equal(t, last+1, e.Current)
			assert.Equal(t, 4, e.Total)
			last = e.Current
		case FolderMissingEvent:
			missing = append(missing, e.Path)
		default:
			t.Fatalf("unexpected event %T", e)
		}
	}
	assert.Equal(t, 4, last)
	assert.Equal(t, []string{filepath.Join(root, "B"), filepath.Join(root, "C")}, missing)

	done, ok := events[len(events)-1].(ScanCompletedEvent)
	require.True(t, ok, "last event must be ScanCompletedEvent")
	assert.True(t, IsTerminal(done))
	assert.Equal(t, len(missing), done.MissingCount)
	assert.Equal(t, missing, done.Missing)

	state := c.State()
	assert.Equal(t, PhaseComplete, state.Phase)
	assert.True(t, state.HasRun())
	assert.False(t, state.AllFound())
	assert.Equal(t, missing, c.Missing())
}

func TestControllerAllFound(t *testing.T) {
	src := newSource(t, map[string][]string{".": {"Readme.md"}, "docs": {"README"}})
	c := NewController(scanner.New(src, 1))

	ch, err := c.StartScan(context.Background(), scanner.Request{Root: root, Target: "readme"})
	require.NoError(t, err)
	events := drain(t, ch)

	done := events[len(events)-1].(ScanCompletedEvent)
	assert.Zero(t, done.MissingCount)
	assert.True(t, c.State().AllFound())
}

func TestControllerRejectsSecondScan(t *testing.T) {
	src := newBlocking(t)
	c := NewController(scanner.New(src, 1))
	req := scanner.Request{Root: root, Target: "x.txt"}

	ch, err := c.StartScan(context.Background(), req)
	require.NoError(t, err)
	<-src.started

	_, err = c.StartScan(context.Background(), req)
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(src.release)
	events := drain(t, ch)
	_, ok := events[len(events)-1].(ScanCompletedEvent)
	assert.True(t, ok)
}

func TestControllerCancel(t *testing.T) {
	src := newBlocking(t)
	c := NewController(scanner.New(src, 1))

	assert.False(t, c.Cancel())

	ch, err := c.StartScan(context.Background(), scanner.Request{Root: root, Target: "x.txt"})
	require.NoError(t, err)
	<-src.started

	assert.True(t, c.Cancel())
	events := drain(t, ch)

	_, ok := events[len(events)-1].(ScanCancelledEvent)
	assert.True(t, ok, "expected ScanCancelledEvent, got %T", events[len(events)-1])
	for _, e := range events {
		_, completed := e.(ScanCompletedEvent)
		assert.False(t, completed)
	}
	assert.Equal(t, PhaseCancelled, c.State().Phase)
}

func TestControllerFailure(t *testing.T) {
	boom := errors.New("disk unplugged")
	src := newBlocking(t)
	src.dirsErr = boom
	c := NewController(scanner.New(src, 1))

	ch, err := c.StartScan(context.Background(), scanner.Request{Root: root, Target: "x.txt"})
	require.NoError(t, err)
	events := drain(t, ch)

	failed, ok := events[len(events)-1].(ScanFailedEvent)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Err, boom)

	state := c.State()
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.ErrorIs(t, state.Err, boom)
	assert.False(t, state.IsScanning())
}

func TestControllerRecoversPanic(t *testing.T) {
	src := newBlocking(t)
	src.panics = true
	c := NewController(scanner.New(src, 1))

	ch, err := c.StartScan(context.Background(), scanner.Request{Root: root, Target: "x.txt"})
	require.NoError(t, err)
	events := drain(t, ch)

	failed, ok := events[len(events)-1].(ScanFailedEvent)
	require.True(t, ok)
	assert.Contains(t, failed.Err.Error(), "enumeration exploded")
}

func TestControllerConfigurationErrors(t *testing.T) {
	c := NewController(scanner.New(newSource(t, nil), 1))

	_, err := c.StartScan(context.Background(), scanner.Request{Root: filepath.Join(root, "missing"), Target: "x"})
	assert.ErrorIs(t, err, scanner.ErrRootNotFound)

	_, err = c.StartScan(context.Background(), scanner.Request{Root: root})
	assert.ErrorIs(t, err, scanner.ErrEmptyTarget)

	assert.Equal(t, PhaseIdle, c.State().Phase)
}

func TestControllerRescan(t *testing.T) {
	c := NewController(scanner.New(newSource(t, map[string][]string{"sub": nil}), 1))

	_, err := c.Rescan(context.Background())
	assert.ErrorIs(t, err, ErrNoPreviousScan)

	ch, err := c.StartScan(context.Background(), scanner.Request{Root: root, Target: "x"})
	require.NoError(t, err)
	first := drain(t, ch)

	ch, err = c.Rescan(context.Background())
	require.NoError(t, err)
	second := drain(t, ch)

	assert.NotEqual(t, first[0].ID(), second[0].ID())
	assert.Equal(t,
		first[len(first)-1].(ScanCompletedEvent).Missing,
		second[len(second)-1].(ScanCompletedEvent).Missing)
}

func TestControllerCancelWithAbandonedChannel(t *testing.T) {
	grace := terminalGrace
	terminalGrace = 10 * time.Millisecond
	t.Cleanup(func() { terminalGrace = grace })

	tree := map[string][]string{".": {"x.txt"}}
	for i := range 2 * eventBuffer {
		tree[fmt.Sprintf("d%03d", i)] = []string{"x.txt"}
	}
	c := NewController(scanner.New(newSource(t, tree), 1))

	ch, err := c.StartScan(context.Background(), scanner.Request{Root: root, Target: "x.txt"})
	require.NoError(t, err)

	// The started event and progress fill the buffer; the worker then
	// blocks on the next progress event
	require.Eventually(t, func() bool {
		return c.State().Progress.Current >= eventBuffer
	}, 5*time.Second, time.Millisecond)

	assert.True(t, c.Cancel())
	require.Eventually(t, func() bool {
		return c.State().Phase == PhaseCancelled
	}, 5*time.Second, time.Millisecond)
	time.Sleep(50 * terminalGrace)

	events := drain(t, ch)
	assert.Len(t, events, eventBuffer)
	for _, e := range events {
		assert.False(t, IsTerminal(e), "unexpected %T", e)
	}
}

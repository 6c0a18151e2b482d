package core

import (
	"github.com/google/uuid"
	"github.com/lumipallolabs/filegap/internal/scanner"
)

// Event represents a state change from the controller
type Event interface {
	// ID returns the scan the event belongs to
	ID() uuid.UUID
	isEvent()
}

// ScanStartedEvent is emitted when a scan begins
type ScanStartedEvent struct {
	ScanID  uuid.UUID
	Request scanner.Request
}

func (e ScanStartedEvent) ID() uuid.UUID { return e.ScanID }
func (ScanStartedEvent) isEvent()          {}

// ProgressEvent is emitted once per enumerated folder
type ProgressEvent struct {
	ScanID  uuid.UUID
	Current int
	Total   int
}

func (e ProgressEvent) ID() uuid.UUID { return e.ScanID }
func (ProgressEvent) isEvent()          {}

// Percent returns progress as 0-100
func (e ProgressEvent) Percent() float64 {
	return scanner.Progress{Current: e.Current, Total: e.Total}.Percent()
}

// FolderMissingEvent is emitted as soon as a folder without the target file
// is found
type FolderMissingEvent struct {
	ScanID uuid.UUID
	Path   string
}

func (e FolderMissingEvent) ID() uuid.UUID { return e.ScanID }
func (FolderMissingEvent) isEvent()          {}

// ScanCompletedEvent is emitted when a scan finishes normally
type ScanCompletedEvent struct {
	ScanID       uuid.UUID
	MissingCount int
	Missing      []string // snapshot, owned by the receiver
	Total        int
	Excluded     int
	Unreadable   int
}

func (e ScanCompletedEvent) ID() uuid.UUID { return e.ScanID }
func (ScanCompletedEvent) isEvent()          {}

// ScanCancelledEvent is emitted instead of ScanCompletedEvent when the scan
// was cancelled
type ScanCancelledEvent struct {
	ScanID       uuid.UUID
	MissingCount int // missing folders reported before cancellation
}

func (e ScanCancelledEvent) ID() uuid.UUID { return e.ScanID }
func (ScanCancelledEvent) isEvent()          {}

// ScanFailedEvent is emitted instead of ScanCompletedEvent when the scan
// could not finish
type ScanFailedEvent struct {
	ScanID uuid.UUID
	Err    error
}

func (e ScanFailedEvent) ID() uuid.UUID { return e.ScanID }
func (ScanFailedEvent) isEvent()          {}

// IsTerminal returns true for the event that ends a scan's stream
func IsTerminal(e Event) bool {
	switch e.(type) {
	case ScanCompletedEvent, ScanCancelledEvent, ScanFailedEvent:
		return true
	}
	return false
}

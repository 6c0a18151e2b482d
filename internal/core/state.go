package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/lumipallolabs/filegap/internal/scanner"
)

// ScanPhase represents the current phase of scanning
type ScanPhase int

const (
	PhaseIdle ScanPhase = iota // no scan has run yet
	PhaseScanning
	PhaseComplete
	PhaseCancelled
	PhaseFailed
)

// String returns a human-readable phase name
func (p ScanPhase) String() string {
	switch p {
	case PhaseIdle:
		return ""
	case PhaseScanning:
		return "Scanning folders"
	case PhaseComplete:
		return "Complete"
	case PhaseCancelled:
		return "Cancelled"
	case PhaseFailed:
		return "Failed"
	default:
		return ""
	}
}

// ScanState holds the current scan state
type ScanState struct {
	ID           uuid.UUID
	Phase        ScanPhase
	Request      scanner.Request
	StartTime    time.Time
	EndTime      time.Time
	Progress     scanner.Progress
	MissingCount int
	Err          error
}

// IsScanning returns true if a scan is in progress
func (s ScanState) IsScanning() bool {
	return s.Phase == PhaseScanning
}

// HasRun returns true once a scan has reached a terminal phase. A completed
// scan with zero missing folders is the success case; an idle state means no
// result exists yet.
func (s ScanState) HasRun() bool {
	return s.Phase == PhaseComplete || s.Phase == PhaseCancelled || s.Phase == PhaseFailed
}

// AllFound returns true when a completed scan found the file everywhere
func (s ScanState) AllFound() bool {
	return s.Phase == PhaseComplete && s.MissingCount == 0
}

// Elapsed returns time since scan started, or the scan duration once it ended
func (s ScanState) Elapsed() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if !s.EndTime.IsZero() {
		return s.EndTime.Sub(s.StartTime).Truncate(time.Millisecond)
	}
	return time.Since(s.StartTime).Truncate(time.Second)
}

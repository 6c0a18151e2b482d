// Package watcher reports changes to folder and file names under a tree.
// Content changes are ignored: they cannot change which folders hold the
// target file.
package watcher

// EventType represents the type of filesystem event
type EventType int

const (
	EventDeleted EventType = iota
	EventCreated
	EventRenamed
)

// String returns a human-readable event type
func (t EventType) String() string {
	switch t {
	case EventDeleted:
		return "deleted"
	case EventCreated:
		return "created"
	case EventRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Event represents a filesystem change event
type Event struct {
	Type EventType
	Path string
}

// eventBuffer is the capacity of the event channel; events beyond it are
// dropped, since one pending change is enough to trigger a rescan
const eventBuffer = 100

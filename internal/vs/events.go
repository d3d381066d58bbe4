package vs

import "time"

// EventKind identifies what happened to stored files.
type EventKind string

const (
	EventFileCommitted  EventKind = "file.committed"
	EventFileDeleted    EventKind = "file.deleted"
	EventProjectDeleted EventKind = "project.deleted"
)

// Event is emitted after a metadata transaction has committed. Consumers
// such as spatial ingestion run asynchronously and never affect the
// outcome of the operation that produced the event.
type Event struct {
	Kind        EventKind
	ProjectID   string
	OwnerID     string
	FileID      string
	Name        string
	Version     int64
	ContentHash string
	StorageKey  string
	Size        int64
	At          time.Time
}

// EventSink receives post-commit events. Emit must not block on consumers.
type EventSink interface {
	Emit(event Event)
}

// NopEventSink drops all events.
type NopEventSink struct{}

func (NopEventSink) Emit(Event) {}

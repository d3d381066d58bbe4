package testutil

import (
	"sync"

	"verstore/internal/vs"
)

// RecordingSink collects emitted events.
type RecordingSink struct {
	mu     sync.Mutex
	events []vs.Event
}

func (r *RecordingSink) Emit(event vs.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the events emitted so far.
func (r *RecordingSink) Events() []vs.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]vs.Event(nil), r.events...)
}

// Kinds returns the kinds of the events emitted so far.
func (r *RecordingSink) Kinds() []vs.EventKind {
	var kinds []vs.EventKind
	for _, e := range r.Events() {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

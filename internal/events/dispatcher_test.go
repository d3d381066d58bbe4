package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"verstore/internal/config"
	"verstore/internal/vs"
)

type recorder struct {
	mu     sync.Mutex
	events []vs.Event
}

func (r *recorder) Handle(_ context.Context, event vs.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

func TestDispatcher_DeliversAllOnClose(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(config.EventsConfig{Workers: 4, QueueSize: 100}, vs.NewNopLogger(), rec)

	for i := 0; i < 50; i++ {
		d.Emit(vs.Event{Kind: vs.EventFileCommitted, Name: "a.txt"})
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := len(rec.names()); got != 50 {
		t.Errorf("delivered %d events, want 50", got)
	}
	if d.Delivered() != 50 {
		t.Errorf("Delivered() = %d, want 50", d.Delivered())
	}
	if d.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", d.Dropped())
	}
}

func TestDispatcher_EmitAfterCloseDrops(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(config.EventsConfig{}, vs.NewNopLogger(), rec)
	d.Close()
	d.Close()

	d.Emit(vs.Event{Kind: vs.EventFileCommitted, Name: "late.txt"})

	if d.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", d.Dropped())
	}
	if len(rec.names()) != 0 {
		t.Errorf("late event delivered: %v", rec.names())
	}
}

func TestDispatcher_FullQueueDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocking := HandlerFunc(func(context.Context, vs.Event) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})

	d := NewDispatcher(config.EventsConfig{Workers: 1, QueueSize: 1}, vs.NewNopLogger(), blocking)

	d.Emit(vs.Event{Name: "first"})
	<-started
	d.Emit(vs.Event{Name: "queued"})
	d.Emit(vs.Event{Name: "dropped"})

	if d.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", d.Dropped())
	}
	close(release)
	d.Close()
	if d.Delivered() != 2 {
		t.Errorf("Delivered() = %d, want 2", d.Delivered())
	}
}

func TestDispatcher_HandlerFailuresAreIsolated(t *testing.T) {
	rec := &recorder{}
	failing := HandlerFunc(func(context.Context, vs.Event) error {
		return errors.New("ingestion unavailable")
	})
	panicking := HandlerFunc(func(context.Context, vs.Event) error {
		panic("boom")
	})

	d := NewDispatcher(config.EventsConfig{Workers: 1, QueueSize: 4}, vs.NewNopLogger(), failing, panicking, rec)
	d.Emit(vs.Event{Kind: vs.EventFileCommitted, Name: "a.geojson"})
	d.Close()

	if got := rec.names(); len(got) != 1 || got[0] != "a.geojson" {
		t.Errorf("recorder got %v, want [a.geojson]", got)
	}
	if d.Delivered() != 1 {
		t.Errorf("Delivered() = %d, want 1", d.Delivered())
	}
}

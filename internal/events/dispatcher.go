// Package events delivers post-commit events to consumers off the
// request path.
package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"verstore/internal/config"
	"verstore/internal/vs"
)

// Handler consumes one event. Returned errors are logged and dropped.
type Handler interface {
	Handle(ctx context.Context, event vs.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event vs.Event) error

func (f HandlerFunc) Handle(ctx context.Context, event vs.Event) error {
	return f(ctx, event)
}

// Dispatcher queues events and delivers them to every handler on a fixed
// pool of workers. Emit never blocks: when the queue is full the event is
// dropped and counted.
type Dispatcher struct {
	handlers []Handler
	logger   vs.Logger
	queue    chan vs.Event

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	dropped   atomic.Int64
	delivered atomic.Int64
}

// NewDispatcher starts cfg.Workers workers (at least one) reading from a
// queue of cfg.QueueSize events (at least one).
func NewDispatcher(cfg config.EventsConfig, logger vs.Logger, handlers ...Handler) *Dispatcher {
	workers := max(cfg.Workers, 1)
	queueSize := max(cfg.QueueSize, 1)

	d := &Dispatcher{
		handlers: handlers,
		logger:   logger,
		queue:    make(chan vs.Event, queueSize),
	}
	d.wg.Add(workers)
	for range workers {
		go d.run()
	}
	return d
}

// Emit queues the event for delivery.
func (d *Dispatcher) Emit(event vs.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.logger.Warn("event emitted after close", "kind", event.Kind, "file_id", event.FileID)
		return
	}

	select {
	case d.queue <- event:
	default:
		d.dropped.Add(1)
		d.logger.Warn("event queue full, dropping event", "kind", event.Kind, "file_id", event.FileID)
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

// Dropped returns the number of events that were never queued.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Delivered returns the number of handler invocations that succeeded.
func (d *Dispatcher) Delivered() int64 {
	return d.delivered.Load()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		for _, h := range d.handlers {
			if err := d.deliver(h, event); err != nil {
				d.logger.Error("event handler failed", "kind", event.Kind, "file_id", event.FileID, "error", err)
				continue
			}
			d.delivered.Add(1)
		}
	}
}

func (d *Dispatcher) deliver(h Handler, event vs.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(context.Background(), event)
}

var _ vs.EventSink = (*Dispatcher)(nil)

// Package notify delivers domain events to notification targets such as the
// IRC relay and a Redis channel.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

// ErrQueueFull is returned by Dispatch when the event queue has no room left.
var ErrQueueFull = errors.New("event queue is full")

// Dispatcher implements core.EventDispatcher with a pool of worker
// goroutines. Every event is handed to every notifier.
type Dispatcher struct {
	notifiers  []core.Notifier
	queue      chan core.Event
	maxWorkers int
	wg         sync.WaitGroup
	stopOnce   sync.Once
	logger     *slog.Logger
}

var _ core.EventDispatcher = (*Dispatcher)(nil)

// NewDispatcher starts a dispatcher. If maxWorkers is 0 or negative, it
// defaults to 1; queueSize defaults to 100.
func NewDispatcher(notifiers []core.Notifier, maxWorkers, queueSize int, logger *slog.Logger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	d := &Dispatcher{
		notifiers:  notifiers,
		queue:      make(chan core.Event, queueSize),
		maxWorkers: maxWorkers,
		logger:     logger.With("component", "notify"),
	}
	d.startWorkers()
	return d
}

func (d *Dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker delivers events from the queue until it's closed.
func (d *Dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("starting notification worker", "id", workerID)

	for event := range d.queue {
		d.deliver(event)
	}

	d.logger.Debug("shutting down notification worker", "id", workerID)
}

// deliver runs every notifier for one event. Failures are logged; one
// notifier failing does not stop the others.
func (d *Dispatcher) deliver(event core.Event) {
	for _, n := range d.notifiers {
		if err := n.Notify(context.Background(), event); err != nil {
			d.logger.Error("notification failed",
				"notifier", n.Name(),
				"event", string(event.Type),
				"edit_id", event.EditID,
				"error", err,
			)
		}
	}
}

// Dispatch queues events without blocking. Events that do not fit are
// dropped and ErrQueueFull is returned.
func (d *Dispatcher) Dispatch(_ context.Context, events ...core.Event) error {
	if len(d.notifiers) == 0 {
		return nil
	}
	var dropped int
	for _, event := range events {
		select {
		case d.queue <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		d.logger.Warn("dropping events", "count", dropped)
		return ErrQueueFull
	}
	return nil
}

// Stop waits for queued events to be delivered. Dispatch must not be called
// after Stop.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
		d.wg.Wait()
		d.logger.Debug("all notifications delivered")
	})
}

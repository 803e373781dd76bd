package core

import (
	"context"
	"errors"
)

// ErrSkipped is returned by a Job that decided the item needs no work, for
// example because a result already exists and the run is not forced.
var ErrSkipped = errors.New("skipped")

// Job is a single named unit of work applied to one edit. The orchestrator
// runs a Job over a population of edit ids, one goroutine per item, and never
// lets one item's failure affect another.
type Job interface {
	// Name identifies the job in logs and metrics.
	Name() string
	// Run processes the edit with the given id.
	Run(ctx context.Context, editID int64) error
}

// EventDispatcher delivers domain events produced by core mutations to the
// notification collaborators. Dispatch must not block on delivery.
type EventDispatcher interface {
	Dispatch(ctx context.Context, events ...Event) error
}

// Notifier is a single delivery target for domain events.
//
//go:generate mockgen -destination=../../mocks/mock_notifier.go -package=mocks . Notifier
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event Event) error
}

// Package jobs runs named operations over populations of edits with a
// bounded worker pool, and the import operations that feed edits into groups.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/metrics"
)

// Observer receives per item and per run measurements.
type Observer interface {
	ObserveItem(operation, result string)
	ObserveRun(operation string, d time.Duration)
}

// EditLister selects edit ids.
type EditLister interface {
	ListEditIDs(ctx context.Context, filter core.EditFilter) ([]int64, error)
}

// Population selects the edits an operation runs over. EditID wins over
// GroupID; with neither set, Filter alone applies.
type Population struct {
	EditID  *int64
	GroupID *int64
	Filter  core.EditFilter
}

// RunReport summarises a finished run.
type RunReport struct {
	Operation string        `json:"operation"`
	Total     int           `json:"total"`
	OK        int           `json:"ok"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Orchestrator runs a core.Job over many edits. Items are independent: a
// failing or panicking item is logged and counted, and the run always drains.
type Orchestrator struct {
	lister   EditLister
	observer Observer
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator. observer may be nil.
func NewOrchestrator(lister EditLister, observer Observer, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		lister:   lister,
		observer: observer,
		logger:   logger.With("component", "orchestrator"),
	}
}

// Select resolves a population to edit ids.
func (o *Orchestrator) Select(ctx context.Context, p Population) ([]int64, error) {
	filter := p.Filter
	switch {
	case p.EditID != nil:
		filter.EditID = p.EditID
	case p.GroupID != nil:
		filter.GroupIDs = append(filter.GroupIDs, *p.GroupID)
	}
	ids, err := o.lister.ListEditIDs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to select edits: %w", err)
	}
	return ids, nil
}

// RunPopulation selects a population and runs job over it.
func (o *Orchestrator) RunPopulation(ctx context.Context, job core.Job, p Population, workers int) (*RunReport, error) {
	ids, err := o.Select(ctx, p)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, job, ids, workers), nil
}

// Run processes every id with at most workers concurrent items.
func (o *Orchestrator) Run(ctx context.Context, job core.Job, ids []int64, workers int) *RunReport {
	if workers <= 0 {
		workers = 1
	}
	start := time.Now()
	log := o.logger.With("operation", job.Name())
	log.Info("starting run", "edits", len(ids), "workers", workers)

	var ok, skipped, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(workers)
	for _, id := range ids {
		g.Go(func() error {
			result := o.runItem(ctx, log, job, id)
			switch result {
			case metrics.ResultOK:
				ok.Add(1)
			case metrics.ResultSkipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
			if o.observer != nil {
				o.observer.ObserveItem(job.Name(), result)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &RunReport{
		Operation: job.Name(),
		Total:     len(ids),
		OK:        int(ok.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(start),
	}
	if o.observer != nil {
		o.observer.ObserveRun(job.Name(), report.Duration)
	}
	log.Info("finished run",
		"ok", report.OK,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration.String(),
	)
	return report
}

func (o *Orchestrator) runItem(ctx context.Context, log *slog.Logger, job core.Job, id int64) (result string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("edit panicked", "edit_id", id, "panic", r, "stack", string(debug.Stack()))
			result = metrics.ResultFailed
		}
	}()

	if err := ctx.Err(); err != nil {
		log.Warn("edit not processed", "edit_id", id, "error", err)
		return metrics.ResultFailed
	}

	err := job.Run(ctx, id)
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, core.ErrSkipped):
		log.Debug("edit skipped", "edit_id", id)
		return metrics.ResultSkipped
	default:
		log.Error("edit failed", "edit_id", id, "error", err)
		return metrics.ResultFailed
	}
}

package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

// Store is the persistence needed to import training data.
type Store interface {
	core.EditRepository
	core.TrainingRepository
}

// Importer aggregates, gates and persists training data for edits.
type Importer struct {
	store      Store
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(store Store, aggregator *Aggregator, logger *slog.Logger) *Importer {
	return &Importer{
		store:      store,
		aggregator: aggregator,
		logger:     logger.With("component", "training-importer"),
	}
}

// Import builds and stores training data for one edit. Edits that already
// have training data are skipped unless force is set, and so are edits whose
// revision is gone; resolve-deletions applies the retention policy to those.
func (i *Importer) Import(ctx context.Context, editID int64, force bool) error {
	edit, err := i.store.GetEdit(ctx, editID)
	if err != nil {
		return fmt.Errorf("failed to load edit %d: %w", editID, err)
	}
	if edit.HasTrainingData && !force {
		return core.ErrSkipped
	}

	deleted, err := i.aggregator.source.RevisionDeleted(ctx, editID)
	if err != nil {
		return fmt.Errorf("failed to check revision of edit %d: %w", editID, err)
	}
	if deleted {
		i.logger.Info("revision deleted, not importing training data", "edit_id", editID)
		return core.ErrSkipped
	}

	record := i.aggregator.Aggregate(ctx, editID)
	return i.Persist(ctx, record)
}

// Persist stores a complete record. An incomplete record is logged with the
// fields it lacks and rejected with ErrIncomplete.
func (i *Importer) Persist(ctx context.Context, record *core.CandidateRecord) error {
	td, current, previous, err := ToTrainingData(record)
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			i.logger.Info("not storing incomplete training data",
				"edit_id", record.EditID,
				"missing", MissingFields(record),
			)
		}
		return err
	}

	if err := i.store.SaveTrainingData(ctx, td, current, previous); err != nil {
		return fmt.Errorf("failed to save training data for edit %d: %w", record.EditID, err)
	}
	i.logger.Info("stored training data", "edit_id", record.EditID, "creation", previous == nil)
	return nil
}

package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/editset"
	"github.com/sevigo/cbng-reviewer/internal/review"
	"github.com/sevigo/cbng-reviewer/internal/training"
)

// Operation names.
const (
	OpAggregateFeatures     = "aggregate-features"
	OpUpdateClassification  = "update-classification"
	OpResolveDeletion       = "resolve-deletion"
	OpImportTrainingScores  = "import-training-scores"
	OpImportVandalismScores = "import-vandalism-scores"
	OpMarkTrainingFlags     = "mark-training-flags"
)

// Scorer scores a dumped WPEdit.
type Scorer interface {
	Score(ctx context.Context, editID int64, wpEdit string) (float64, bool)
}

// VandalismScorer returns the score recorded when an edit was reverted.
type VandalismScorer interface {
	VandalismScore(ctx context.Context, editID int64) (float64, bool, error)
}

// ScoreStore is the persistence needed by the score jobs.
type ScoreStore interface {
	editset.Repository
	core.ScoreRepository
}

// AggregateFeatures imports training data for an edit.
type AggregateFeatures struct {
	Importer *training.Importer
	Force    bool
}

func (j *AggregateFeatures) Name() string { return OpAggregateFeatures }

func (j *AggregateFeatures) Run(ctx context.Context, editID int64) error {
	err := j.Importer.Import(ctx, editID, j.Force)
	if errors.Is(err, training.ErrIncomplete) {
		return core.ErrSkipped
	}
	return err
}

// UpdateClassification recomputes the classification of an edit.
type UpdateClassification struct {
	Service *review.Service
	Force   bool
}

func (j *UpdateClassification) Name() string { return OpUpdateClassification }

func (j *UpdateClassification) Run(ctx context.Context, editID int64) error {
	result, err := j.Service.Reclassify(ctx, editID, j.Force)
	if err != nil {
		return err
	}
	if !result.Changed {
		return core.ErrSkipped
	}
	return nil
}

// ResolveDeletion applies the retention policy to an edit whose source
// revision may be gone.
type ResolveDeletion struct {
	Service *review.Service
}

func (j *ResolveDeletion) Name() string { return OpResolveDeletion }

func (j *ResolveDeletion) Run(ctx context.Context, editID int64) error {
	action, err := j.Service.ResolveDeletion(ctx, editID)
	if err != nil {
		return err
	}
	if action == review.ActionNone {
		return core.ErrSkipped
	}
	return nil
}

// ImportTrainingScore stores the classifier score of an edit's dump.
type ImportTrainingScore struct {
	Store  ScoreStore
	Scorer Scorer
	Force  bool
}

func (j *ImportTrainingScore) Name() string { return OpImportTrainingScores }

func (j *ImportTrainingScore) Run(ctx context.Context, editID int64) error {
	if !j.Force {
		if has, err := hasScore(ctx, j.Store, editID, func(s *core.ScoreData) bool { return s.Training != nil }); err != nil || has {
			return skipIfNil(err)
		}
	}

	wpEdit, err := editset.DumpStored(ctx, j.Store, editID, editset.Options{})
	if err != nil {
		if editset.NotExportable(err) {
			return core.ErrSkipped
		}
		return fmt.Errorf("failed to dump edit %d: %w", editID, err)
	}

	score, ok := j.Scorer.Score(ctx, editID, wpEdit)
	if !ok {
		return fmt.Errorf("no score returned for edit %d", editID)
	}
	return j.Store.SaveTrainingScore(ctx, editID, score)
}

// ImportVandalismScore stores the score recorded by the report interface.
type ImportVandalismScore struct {
	Store   core.ScoreRepository
	Reports VandalismScorer
	Force   bool
}

func (j *ImportVandalismScore) Name() string { return OpImportVandalismScores }

func (j *ImportVandalismScore) Run(ctx context.Context, editID int64) error {
	if !j.Force {
		if has, err := hasScore(ctx, j.Store, editID, func(s *core.ScoreData) bool { return s.Reverted != nil }); err != nil || has {
			return skipIfNil(err)
		}
	}

	score, ok, err := j.Reports.VandalismScore(ctx, editID)
	if err != nil {
		return fmt.Errorf("failed to fetch vandalism score for edit %d: %w", editID, err)
	}
	if !ok {
		return core.ErrSkipped
	}
	return j.Store.SaveRevertedScore(ctx, editID, score)
}

// MarkTrainingFlag recomputes the has_training_data flag of an edit.
type MarkTrainingFlag struct {
	Store core.EditRepository
}

func (j *MarkTrainingFlag) Name() string { return OpMarkTrainingFlags }

func (j *MarkTrainingFlag) Run(ctx context.Context, editID int64) error {
	_, err := j.Store.RefreshTrainingDataFlag(ctx, editID)
	return err
}

func hasScore(ctx context.Context, store core.ScoreRepository, editID int64, present func(*core.ScoreData) bool) (bool, error) {
	scores, err := store.GetScoreData(ctx, editID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to load scores for edit %d: %w", editID, err)
	}
	return present(scores), nil
}

// skipIfNil turns "already has a score" into a skip while keeping errors.
func skipIfNil(err error) error {
	if err != nil {
		return err
	}
	return core.ErrSkipped
}

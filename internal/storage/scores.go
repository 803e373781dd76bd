package storage

import (
	"context"
	"fmt"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

func (s *postgresStore) GetScoreData(ctx context.Context, editID int64) (*core.ScoreData, error) {
	var sd core.ScoreData
	if err := s.db.GetContext(ctx, &sd, `SELECT edit_id, reverted, training FROM score_data WHERE edit_id = $1`, editID); err != nil {
		return nil, notFound(err, "scores for edit", editID)
	}
	return &sd, nil
}

func (s *postgresStore) SaveRevertedScore(ctx context.Context, editID int64, score float64) error {
	query := `
		INSERT INTO score_data (edit_id, reverted) VALUES ($1, $2)
		ON CONFLICT (edit_id) DO UPDATE SET reverted = EXCLUDED.reverted`
	if _, err := s.db.ExecContext(ctx, query, editID, score); err != nil {
		return fmt.Errorf("failed to save reverted score for edit %d: %w", editID, err)
	}
	return nil
}

func (s *postgresStore) SaveTrainingScore(ctx context.Context, editID int64, score float64) error {
	query := `
		INSERT INTO score_data (edit_id, training) VALUES ($1, $2)
		ON CONFLICT (edit_id) DO UPDATE SET training = EXCLUDED.training`
	if _, err := s.db.ExecContext(ctx, query, editID, score); err != nil {
		return fmt.Errorf("failed to save training score for edit %d: %w", editID, err)
	}
	return nil
}

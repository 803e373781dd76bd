package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

const voteColumns = `id, edit_id, reviewer, classification, comment, created_at`

const insertVoteQuery = `
	INSERT INTO classifications (edit_id, reviewer, classification, comment, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT ON CONSTRAINT one_classification_per_reviewer DO NOTHING
	RETURNING id`

func (s *postgresStore) VotesForEdit(ctx context.Context, editID int64) ([]core.Vote, error) {
	var votes []core.Vote
	if err := s.db.SelectContext(ctx, &votes, `SELECT `+voteColumns+` FROM classifications WHERE edit_id = $1 ORDER BY id`, editID); err != nil {
		return nil, fmt.Errorf("failed to load votes for edit %d: %w", editID, err)
	}
	return votes, nil
}

func (s *postgresStore) GetVote(ctx context.Context, editID int64, reviewer string) (*core.Vote, error) {
	var v core.Vote
	query := `SELECT ` + voteColumns + ` FROM classifications WHERE edit_id = $1 AND reviewer = $2`
	if err := s.db.GetContext(ctx, &v, query, editID, reviewer); err != nil {
		return nil, notFound(err, "vote on edit", editID)
	}
	return &v, nil
}

func insertVote(ctx context.Context, q sqlx.QueryerContext, vote *core.Vote) (bool, error) {
	err := q.QueryRowxContext(ctx, insertVoteQuery,
		vote.EditID, vote.Reviewer, vote.Classification, vote.Comment, vote.CreatedAt).Scan(&vote.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert vote on edit %d: %w", vote.EditID, err)
	}
	return true, nil
}

func (s *postgresStore) InsertVote(ctx context.Context, vote *core.Vote) (bool, error) {
	return insertVote(ctx, s.db, vote)
}

func (s *postgresStore) ReplaceVote(ctx context.Context, vote *core.Vote) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM classifications WHERE edit_id = $1 AND reviewer = $2`,
			vote.EditID, vote.Reviewer); err != nil {
			return fmt.Errorf("failed to remove previous vote on edit %d: %w", vote.EditID, err)
		}
		_, err := insertVote(ctx, tx, vote)
		return err
	})
}

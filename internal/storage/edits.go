package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

const editColumns = `e.id, e.status, e.classification, e.is_deleted, e.has_training_data,
	e.number_of_reviewers, e.number_of_agreeing_reviewers, e.last_updated`

func (s *postgresStore) GetEdit(ctx context.Context, id int64) (*core.Edit, error) {
	var e core.Edit
	query := `SELECT ` + editColumns + ` FROM edits e WHERE e.id = $1`
	if err := s.db.GetContext(ctx, &e, query, id); err != nil {
		return nil, notFound(err, "edit", id)
	}
	return &e, nil
}

func (s *postgresStore) GetOrCreateEdit(ctx context.Context, id int64) (*core.Edit, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO edits (id, last_updated) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		id, time.Now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("failed to create edit %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	e, err := s.GetEdit(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return e, n > 0, nil
}

// SaveEdit writes the review state of an edit. has_training_data is owned by
// RefreshTrainingDataFlag and is not written here.
func (s *postgresStore) SaveEdit(ctx context.Context, edit *core.Edit) error {
	query := `
		UPDATE edits
		SET status = $2, classification = $3, is_deleted = $4,
			number_of_reviewers = $5, number_of_agreeing_reviewers = $6, last_updated = $7
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		edit.ID, edit.Status, edit.Classification, edit.IsDeleted,
		edit.NumberOfReviewers, edit.NumberOfAgreeingReviewers, edit.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save edit %d: %w", edit.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("edit %d: %w", edit.ID, core.ErrNotFound)
	}
	return nil
}

func (s *postgresStore) MarkEditDeleted(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE edits SET is_deleted = TRUE, last_updated = $2 WHERE id = $1 AND is_deleted = FALSE`,
		id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to mark edit %d deleted: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var dependentTables = []string{
	"classifications",
	"training_data",
	"current_revisions",
	"previous_revisions",
}

func (s *postgresStore) PurgeDependents(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range dependentTables {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE edit_id = $1`, id); err != nil {
				return fmt.Errorf("failed to purge %s for edit %d: %w", table, id, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE edits SET has_training_data = FALSE WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear training flag for edit %d: %w", id, err)
		}
		return nil
	})
}

func (s *postgresStore) DeleteEdit(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM edits WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete edit %d: %w", id, err)
	}
	return nil
}

// buildEditFilter renders f as a WHERE clause using positional parameters.
func buildEditFilter(f core.EditFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.EditID != nil {
		conds = append(conds, "e.id = "+next(*f.EditID))
	}
	if len(f.GroupIDs) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM edit_group_members m WHERE m.edit_id = e.id AND m.group_id = ANY("+next(pq.Array(f.GroupIDs))+"))")
	}
	if len(f.ExcludeStatus) > 0 {
		statuses := make([]int64, len(f.ExcludeStatus))
		for i, st := range f.ExcludeStatus {
			statuses[i] = int64(st)
		}
		conds = append(conds, "NOT (e.status = ANY("+next(pq.Array(statuses))+"))")
	}
	if f.IsDeleted != nil {
		conds = append(conds, "e.is_deleted = "+next(*f.IsDeleted))
	}
	if f.HasTrainingData != nil {
		conds = append(conds, "e.has_training_data = "+next(*f.HasTrainingData))
	}
	if f.Dangling {
		conds = append(conds, "NOT EXISTS (SELECT 1 FROM edit_group_members m WHERE m.edit_id = e.id)")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *postgresStore) ListEditIDs(ctx context.Context, filter core.EditFilter) ([]int64, error) {
	where, args := buildEditFilter(filter)
	query := `SELECT e.id FROM edits e` + where + ` ORDER BY e.id`

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	return ids, nil
}

const refreshTrainingFlagQuery = `
	UPDATE edits e SET has_training_data = (
		EXISTS (SELECT 1 FROM training_data t WHERE t.edit_id = e.id)
		AND EXISTS (SELECT 1 FROM current_revisions c WHERE c.edit_id = e.id)
		AND (
			EXISTS (SELECT 1 FROM previous_revisions p WHERE p.edit_id = e.id)
			OR EXISTS (SELECT 1 FROM current_revisions c WHERE c.edit_id = e.id AND c.is_creation)
		)
	)
	WHERE e.id = $1
	RETURNING e.has_training_data`

func refreshTrainingFlag(ctx context.Context, q sqlx.QueryerContext, id int64) (bool, error) {
	var flag bool
	if err := sqlx.GetContext(ctx, q, &flag, refreshTrainingFlagQuery, id); err != nil {
		return false, notFound(err, "edit", id)
	}
	return flag, nil
}

func (s *postgresStore) RefreshTrainingDataFlag(ctx context.Context, id int64) (bool, error) {
	return refreshTrainingFlag(ctx, s.db, id)
}

// NextEditForReviewer picks the unfinished edit from the heaviest group the
// reviewer has not voted on yet.
func (s *postgresStore) NextEditForReviewer(ctx context.Context, reviewer string) (*core.Edit, error) {
	query := `
		SELECT ` + editColumns + `
		FROM edits e
		JOIN edit_group_members m ON m.edit_id = e.id
		JOIN edit_groups g ON g.id = m.group_id
		WHERE e.status <> $2 AND e.is_deleted = FALSE
			AND NOT EXISTS (SELECT 1 FROM classifications c WHERE c.edit_id = e.id AND c.reviewer = $1)
		ORDER BY g.weight DESC, e.id ASC
		LIMIT 1`
	var e core.Edit
	if err := s.db.GetContext(ctx, &e, query, reviewer, core.StatusDone); err != nil {
		return nil, notFound(err, "next edit for reviewer", reviewer)
	}
	return &e, nil
}

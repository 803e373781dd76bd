package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

const trainingColumns = `edit_id, timestamp, comment, user_name, user_edit_count, user_distinct_pages,
	user_warns, user_reg_time, prev_user, page_title, page_namespace, page_created_time,
	page_creator, page_num_recent_edits, page_num_recent_reverts`

const upsertTrainingDataQuery = `
	INSERT INTO training_data (` + trainingColumns + `)
	VALUES (:edit_id, :timestamp, :comment, :user_name, :user_edit_count, :user_distinct_pages,
		:user_warns, :user_reg_time, :prev_user, :page_title, :page_namespace, :page_created_time,
		:page_creator, :page_num_recent_edits, :page_num_recent_reverts)
	ON CONFLICT (edit_id) DO UPDATE SET
		timestamp = EXCLUDED.timestamp,
		comment = EXCLUDED.comment,
		user_name = EXCLUDED.user_name,
		user_edit_count = EXCLUDED.user_edit_count,
		user_distinct_pages = EXCLUDED.user_distinct_pages,
		user_warns = EXCLUDED.user_warns,
		user_reg_time = EXCLUDED.user_reg_time,
		prev_user = EXCLUDED.prev_user,
		page_title = EXCLUDED.page_title,
		page_namespace = EXCLUDED.page_namespace,
		page_created_time = EXCLUDED.page_created_time,
		page_creator = EXCLUDED.page_creator,
		page_num_recent_edits = EXCLUDED.page_num_recent_edits,
		page_num_recent_reverts = EXCLUDED.page_num_recent_reverts`

const upsertCurrentRevisionQuery = `
	INSERT INTO current_revisions (edit_id, is_minor, is_creation, timestamp, text)
	VALUES (:edit_id, :is_minor, :is_creation, :timestamp, :text)
	ON CONFLICT (edit_id) DO UPDATE SET
		is_minor = EXCLUDED.is_minor,
		is_creation = EXCLUDED.is_creation,
		timestamp = EXCLUDED.timestamp,
		text = EXCLUDED.text`

const upsertPreviousRevisionQuery = `
	INSERT INTO previous_revisions (edit_id, is_minor, timestamp, text)
	VALUES (:edit_id, :is_minor, :timestamp, :text)
	ON CONFLICT (edit_id) DO UPDATE SET
		is_minor = EXCLUDED.is_minor,
		timestamp = EXCLUDED.timestamp,
		text = EXCLUDED.text`

func (s *postgresStore) GetTrainingData(ctx context.Context, editID int64) (*core.TrainingData, error) {
	var td core.TrainingData
	if err := s.db.GetContext(ctx, &td, `SELECT `+trainingColumns+` FROM training_data WHERE edit_id = $1`, editID); err != nil {
		return nil, notFound(err, "training data for edit", editID)
	}
	return &td, nil
}

// GetRevisions returns the stored snapshots. A missing snapshot is nil.
func (s *postgresStore) GetRevisions(ctx context.Context, editID int64) (*core.Revision, *core.Revision, error) {
	current, err := s.getRevision(ctx,
		`SELECT edit_id, is_minor, is_creation, timestamp, text FROM current_revisions WHERE edit_id = $1`, editID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load current revision of edit %d: %w", editID, err)
	}
	previous, err := s.getRevision(ctx,
		`SELECT edit_id, is_minor, FALSE AS is_creation, timestamp, text FROM previous_revisions WHERE edit_id = $1`, editID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load previous revision of edit %d: %w", editID, err)
	}
	return current, previous, nil
}

func (s *postgresStore) getRevision(ctx context.Context, query string, editID int64) (*core.Revision, error) {
	var r core.Revision
	err := s.db.GetContext(ctx, &r, query, editID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *postgresStore) SaveTrainingData(ctx context.Context, data *core.TrainingData, current, previous *core.Revision) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, upsertTrainingDataQuery, data); err != nil {
			return fmt.Errorf("failed to save training data for edit %d: %w", data.EditID, err)
		}
		if current != nil {
			current.EditID = data.EditID
			if _, err := tx.NamedExecContext(ctx, upsertCurrentRevisionQuery, current); err != nil {
				return fmt.Errorf("failed to save current revision for edit %d: %w", data.EditID, err)
			}
		}
		if previous != nil {
			previous.EditID = data.EditID
			if _, err := tx.NamedExecContext(ctx, upsertPreviousRevisionQuery, previous); err != nil {
				return fmt.Errorf("failed to save previous revision for edit %d: %w", data.EditID, err)
			}
		} else {
			// A creation has no previous revision; drop one left by an earlier import.
			if _, err := tx.ExecContext(ctx, `DELETE FROM previous_revisions WHERE edit_id = $1`, data.EditID); err != nil {
				return fmt.Errorf("failed to clear previous revision for edit %d: %w", data.EditID, err)
			}
		}
		_, err := refreshTrainingFlag(ctx, tx, data.EditID)
		return err
	})
}

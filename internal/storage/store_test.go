package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

var editRowColumns = []string{
	"id", "status", "classification", "is_deleted", "has_training_data",
	"number_of_reviewers", "number_of_agreeing_reviewers", "last_updated",
}

func newMockStore(t *testing.T) (*postgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &postgresStore{db: sqlx.NewDb(db, "postgres")}, mock
}

func TestGetEdit(t *testing.T) {
	s, mock := newMockStore(t)
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM edits e WHERE e.id = \\$1").
		WithArgs(1234).
		WillReturnRows(sqlmock.NewRows(editRowColumns).AddRow(1234, 2, 0, false, true, 2, 2, updated))

	edit, err := s.GetEdit(context.Background(), 1234)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), edit.ID)
	assert.Equal(t, core.StatusDone, edit.Status)
	assert.True(t, edit.IsClassifiedAs(core.ClassificationVandalism))
	assert.True(t, edit.HasTrainingData)
	assert.Equal(t, updated, edit.LastUpdated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEdit_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT .* FROM edits e").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(editRowColumns))

	_, err := s.GetEdit(context.Background(), 99)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateEdit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO edits \\(id, last_updated\\)").
		WithArgs(42, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .* FROM edits e WHERE e.id = \\$1").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(editRowColumns).AddRow(42, 0, nil, false, false, 0, 0, time.Now()))

	edit, created, err := s.GetOrCreateEdit(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, core.StatusPending, edit.Status)
	assert.Nil(t, edit.Classification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEdit_Missing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("UPDATE edits").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.SaveEdit(context.Background(), &core.Edit{ID: 7, Status: core.StatusPartial})
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestBuildEditFilter(t *testing.T) {
	id := int64(5)
	deleted := false

	where, args := buildEditFilter(core.EditFilter{
		EditID:        &id,
		GroupIDs:      []int64{1, 2},
		ExcludeStatus: []core.EditStatus{core.StatusDone},
		IsDeleted:     &deleted,
		Dangling:      true,
	})

	assert.Contains(t, where, "e.id = $1")
	assert.Contains(t, where, "m.group_id = ANY($2)")
	assert.Contains(t, where, "NOT (e.status = ANY($3))")
	assert.Contains(t, where, "e.is_deleted = $4")
	assert.Contains(t, where, "NOT EXISTS (SELECT 1 FROM edit_group_members m WHERE m.edit_id = e.id)")
	assert.Len(t, args, 4)

	where, args = buildEditFilter(core.EditFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestListEditIDs(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id FROM edits e WHERE NOT (e.status = ANY($1)) ORDER BY e.id")).
		WithArgs("{2}").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(3))

	ids, err := s.ListEditIDs(context.Background(), core.EditFilter{ExcludeStatus: []core.EditStatus{core.StatusDone}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEditDeleted(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("UPDATE edits SET is_deleted = TRUE").
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE edits SET is_deleted = TRUE").
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := s.MarkEditDeleted(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.MarkEditDeleted(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRefreshTrainingDataFlag(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("UPDATE edits e SET has_training_data").
		WithArgs(1234).
		WillReturnRows(sqlmock.NewRows([]string{"has_training_data"}).AddRow(true))

	flag, err := s.RefreshTrainingDataFlag(context.Background(), 1234)
	require.NoError(t, err)
	assert.True(t, flag)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextEditForReviewer(t *testing.T) {
	s, mock := newMockStore(t)
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("ORDER BY g.weight DESC, e.id ASC").
		WithArgs("reviewer-a", core.StatusDone).
		WillReturnRows(sqlmock.NewRows(editRowColumns).AddRow(42, 0, nil, false, false, 0, 0, updated))

	edit, err := s.NextEditForReviewer(context.Background(), "reviewer-a")
	require.NoError(t, err)
	assert.Equal(t, int64(42), edit.ID)
	assert.Equal(t, core.StatusPending, edit.Status)
	assert.Nil(t, edit.Classification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextEditForReviewer_NoneLeft(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("ORDER BY g.weight DESC").
		WithArgs("reviewer-a", core.StatusDone).
		WillReturnRows(sqlmock.NewRows(editRowColumns))

	_, err := s.NextEditForReviewer(context.Background(), "reviewer-a")
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeDependents(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	assert.NotContains(t, dependentTables, "score_data", "scores outlive a tombstoned edit")
	for _, table := range []string{"classifications", "training_data", "current_revisions", "previous_revisions"} {
		mock.ExpectExec("DELETE FROM " + table + " WHERE edit_id = \\$1").
			WithArgs(9).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("UPDATE edits SET has_training_data = FALSE").
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.PurgeDependents(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeDependents_RollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM classifications").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.PurgeDependents(context.Background(), 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifications")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertVote(t *testing.T) {
	s, mock := newMockStore(t)
	vote := &core.Vote{EditID: 1234, Reviewer: "alice", Classification: core.ClassificationConstructive, CreatedAt: time.Now()}

	mock.ExpectQuery("INSERT INTO classifications").
		WithArgs(1234, "alice", 1, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))

	inserted, err := s.InsertVote(context.Background(), vote)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(17), vote.ID)

	mock.ExpectQuery("INSERT INTO classifications").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inserted, err = s.InsertVote(context.Background(), &core.Vote{EditID: 1234, Reviewer: "alice"})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceVote(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM classifications WHERE edit_id = \\$1 AND reviewer = \\$2").
		WithArgs(1234, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO classifications").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(18))
	mock.ExpectCommit()

	vote := &core.Vote{EditID: 1234, Reviewer: "alice", Classification: core.ClassificationVandalism}
	require.NoError(t, s.ReplaceVote(context.Background(), vote))
	assert.Equal(t, int64(18), vote.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTrainingData(t *testing.T) {
	s, mock := newMockStore(t)
	ts := int64(1700000000)
	text := "page text"

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO training_data").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO current_revisions").
		WithArgs(1234, false, true, ts, text).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM previous_revisions WHERE edit_id = \\$1").
		WithArgs(1234).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE edits e SET has_training_data").
		WithArgs(1234).
		WillReturnRows(sqlmock.NewRows([]string{"has_training_data"}).AddRow(true))
	mock.ExpectCommit()

	err := s.SaveTrainingData(context.Background(),
		&core.TrainingData{EditID: 1234, User: "Example"},
		&core.Revision{IsCreation: true, Timestamp: &ts, Text: &text},
		nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTrainingData_WithPrevious(t *testing.T) {
	s, mock := newMockStore(t)
	ts, prevTS := int64(1700000000), int64(1690000000)
	text, prevText := "page text", "older text"

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO training_data").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO current_revisions").
		WithArgs(1234, true, false, ts, text).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO previous_revisions").
		WithArgs(1234, false, prevTS, prevText).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE edits e SET has_training_data").
		WithArgs(1234).
		WillReturnRows(sqlmock.NewRows([]string{"has_training_data"}).AddRow(true))
	mock.ExpectCommit()

	err := s.SaveTrainingData(context.Background(),
		&core.TrainingData{EditID: 1234, User: "Example"},
		&core.Revision{IsMinor: true, Timestamp: &ts, Text: &text},
		&core.Revision{Timestamp: &prevTS, Text: &prevText})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRevisions_Missing(t *testing.T) {
	s, mock := newMockStore(t)
	cols := []string{"edit_id", "is_minor", "is_creation", "timestamp", "text"}
	mock.ExpectQuery("FROM current_revisions").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, true, false, 1700000000, "now"))
	mock.ExpectQuery("FROM previous_revisions").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(cols))

	current, previous, err := s.GetRevisions(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.True(t, current.IsMinor)
	assert.True(t, current.IsComplete())
	assert.Nil(t, previous)
}

func TestGetOrCreateGroup(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("INSERT INTO edit_groups").
		WithArgs("Report Interface Import", 0, nil, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "weight", "related_to", "group_type"}).
			AddRow(3, "Report Interface Import", 0, nil, 1))

	g, err := s.GetOrCreateGroup(context.Background(), &core.EditGroup{
		Name: "Report Interface Import",
		Type: core.GroupTypeReportedFalsePositive,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), g.ID)
	assert.True(t, g.Type.IsReporting())
	assert.Nil(t, g.RelatedTo)
}

func TestGroupStats(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT g.id, g.name, g.weight").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "weight", "pending", "in_progress", "done"}).
			AddRow(1, "Sampled Main Namespace Edits", 40, 10, 2, 5).
			AddRow(2, "Report Interface Import", 0, 0, 0, 1))

	stats, err := s.GroupStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, core.GroupStats{GroupID: 1, Name: "Sampled Main Namespace Edits", Weight: 40, Pending: 10, InProgress: 2, Done: 5}, stats[0])
}

func TestSaveScores(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO score_data \\(edit_id, reverted\\)").
		WithArgs(1, 0.25).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO score_data \\(edit_id, training\\)").
		WithArgs(1, 0.75).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SaveRevertedScore(context.Background(), 1, 0.25))
	require.NoError(t, s.SaveTrainingScore(context.Background(), 1, 0.75))
	assert.NoError(t, mock.ExpectationsWereMet())
}

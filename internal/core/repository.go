package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// EditFilter selects a population of edits. Zero values mean "no constraint".
type EditFilter struct {
	EditID          *int64
	GroupIDs        []int64
	ExcludeStatus   []EditStatus
	IsDeleted       *bool
	HasTrainingData *bool
	// Dangling limits the population to edits without any group membership.
	Dangling bool
}

// EditRepository persists Edit aggregates.
type EditRepository interface {
	GetEdit(ctx context.Context, id int64) (*Edit, error)
	// GetOrCreateEdit returns the edit, creating a Pending one when missing.
	// The boolean reports whether a row was created.
	GetOrCreateEdit(ctx context.Context, id int64) (*Edit, bool, error)
	SaveEdit(ctx context.Context, edit *Edit) error
	// MarkEditDeleted sets is_deleted and reports whether it was previously unset.
	MarkEditDeleted(ctx context.Context, id int64) (bool, error)
	// PurgeDependents removes votes, training data and revision snapshots of
	// an edit, leaving the edit row and its scores.
	PurgeDependents(ctx context.Context, id int64) error
	DeleteEdit(ctx context.Context, id int64) error
	ListEditIDs(ctx context.Context, filter EditFilter) ([]int64, error)
	// RefreshTrainingDataFlag recomputes has_training_data from the stored
	// training data and revision snapshots and returns the new value.
	RefreshTrainingDataFlag(ctx context.Context, id int64) (bool, error)
	NextEditForReviewer(ctx context.Context, reviewer string) (*Edit, error)
}

// GroupRepository persists EditGroups and memberships.
type GroupRepository interface {
	GetGroup(ctx context.Context, id int64) (*EditGroup, error)
	GetGroupByName(ctx context.Context, name string) (*EditGroup, error)
	GetOrCreateGroup(ctx context.Context, group *EditGroup) (*EditGroup, error)
	ListGroups(ctx context.Context) ([]EditGroup, error)
	RelatedGroups(ctx context.Context, id int64) ([]EditGroup, error)
	GroupsForEdit(ctx context.Context, editID int64) ([]EditGroup, error)
	// AddEditToGroup reports whether a new membership was created.
	AddEditToGroup(ctx context.Context, editID, groupID int64) (bool, error)
	GroupStats(ctx context.Context) ([]GroupStats, error)
}

// VoteRepository persists reviewer classifications. Votes are insert-only.
type VoteRepository interface {
	VotesForEdit(ctx context.Context, editID int64) ([]Vote, error)
	GetVote(ctx context.Context, editID int64, reviewer string) (*Vote, error)
	// InsertVote reports false when a vote for (edit, reviewer) already exists.
	InsertVote(ctx context.Context, vote *Vote) (bool, error)
	// ReplaceVote deletes the reviewer's existing vote and inserts vote.
	ReplaceVote(ctx context.Context, vote *Vote) error
}

// TrainingRepository persists training data with its revision snapshots.
type TrainingRepository interface {
	GetTrainingData(ctx context.Context, editID int64) (*TrainingData, error)
	GetRevisions(ctx context.Context, editID int64) (current, previous *Revision, err error)
	// SaveTrainingData replaces the training data and the given snapshots of an
	// edit and refreshes its has_training_data flag in one transaction.
	SaveTrainingData(ctx context.Context, data *TrainingData, current, previous *Revision) error
}

// ScoreRepository persists externally computed scores.
type ScoreRepository interface {
	GetScoreData(ctx context.Context, editID int64) (*ScoreData, error)
	SaveRevertedScore(ctx context.Context, editID int64, score float64) error
	SaveTrainingScore(ctx context.Context, editID int64, score float64) error
}

// Package core defines the domain types and the narrow interfaces that the
// curation components depend on. Everything here is free of I/O so that the
// classification, retention and codec logic can be exercised in isolation.
package core

import (
	"fmt"
	"time"
)

// EditStatus is the review progress of an edit.
type EditStatus int

const (
	StatusPending EditStatus = 0
	StatusPartial EditStatus = 1
	StatusDone    EditStatus = 2
)

// String returns the human label used in exports and reports.
func (s EditStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusPartial:
		return "Partial"
	case StatusDone:
		return "Done"
	default:
		return fmt.Sprintf("EditStatus(%d)", int(s))
	}
}

// Classification is a reviewer judgement, and also the final verdict of an edit.
type Classification int

const (
	ClassificationVandalism    Classification = 0
	ClassificationConstructive Classification = 1
	ClassificationSkipped      Classification = 2
)

// Valid reports whether c is one of the known classifications.
func (c Classification) Valid() bool {
	return c >= ClassificationVandalism && c <= ClassificationSkipped
}

func (c Classification) String() string {
	switch c {
	case ClassificationVandalism:
		return "Vandalism"
	case ClassificationConstructive:
		return "Constructive"
	case ClassificationSkipped:
		return "Skipped"
	default:
		return fmt.Sprintf("Classification(%d)", int(c))
	}
}

// ClassificationPtr returns a pointer to c, for optional fields.
func ClassificationPtr(c Classification) *Classification {
	return &c
}

// Edit is a single content revision under review, keyed by the source revision id.
type Edit struct {
	ID                        int64           `db:"id" json:"id"`
	Status                    EditStatus      `db:"status" json:"status"`
	Classification            *Classification `db:"classification" json:"classification"`
	IsDeleted                 bool            `db:"is_deleted" json:"is_deleted"`
	HasTrainingData           bool            `db:"has_training_data" json:"has_training_data"`
	NumberOfReviewers         int             `db:"number_of_reviewers" json:"number_of_reviewers"`
	NumberOfAgreeingReviewers int             `db:"number_of_agreeing_reviewers" json:"number_of_agreeing_reviewers"`
	LastUpdated               time.Time       `db:"last_updated" json:"last_updated"`
}

// IsClassifiedAs reports whether the edit carries classification c.
func (e *Edit) IsClassifiedAs(c Classification) bool {
	return e.Classification != nil && *e.Classification == c
}

// GroupType tags an EditGroup with its purpose.
type GroupType int

const (
	GroupTypeGeneric               GroupType = 0
	GroupTypeReportedFalsePositive GroupType = 1
	GroupTypeTraining              GroupType = 2
	GroupTypeTrial                 GroupType = 3
)

// IsReporting reports whether membership in a group of this type must survive
// purges, because external reporting indexes the edits it contains.
func (t GroupType) IsReporting() bool {
	return t == GroupTypeReportedFalsePositive
}

// EditGroup is a weighted bucket of edits. (Name, RelatedTo) is unique.
type EditGroup struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Weight    int       `db:"weight" json:"weight"`
	RelatedTo *int64    `db:"related_to" json:"related_to,omitempty"`
	Type      GroupType `db:"group_type" json:"group_type"`
}

// Vote is one reviewer's classification of one edit.
type Vote struct {
	ID             int64          `db:"id" json:"id"`
	EditID         int64          `db:"edit_id" json:"edit_id"`
	Reviewer       string         `db:"reviewer" json:"reviewer"`
	Classification Classification `db:"classification" json:"classification"`
	Comment        *string        `db:"comment" json:"comment,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// Revision is a snapshot of one page revision. Timestamp and Text are optional
// while a candidate is being assembled; persisted snapshots always carry both.
// IsCreation is only meaningful for the current revision.
type Revision struct {
	EditID     int64   `db:"edit_id"`
	IsMinor    bool    `db:"is_minor"`
	IsCreation bool    `db:"is_creation"`
	Timestamp  *int64  `db:"timestamp"`
	Text       *string `db:"text"`

	// User and Comment are only populated from the content source.
	User    string `db:"-"`
	Comment string `db:"-"`
}

// IsComplete reports whether the snapshot carries both a timestamp and text.
func (r *Revision) IsComplete() bool {
	return r != nil && r.Timestamp != nil && r.Text != nil
}

// TrainingData is the flattened, persisted feature set of a trainable edit.
// All times are unix seconds.
type TrainingData struct {
	EditID               int64   `db:"edit_id"`
	Timestamp            int64   `db:"timestamp"`
	Comment              string  `db:"comment"`
	User                 string  `db:"user_name"`
	UserEditCount        int     `db:"user_edit_count"`
	UserDistinctPages    int     `db:"user_distinct_pages"`
	UserWarns            int     `db:"user_warns"`
	UserRegTime          int64   `db:"user_reg_time"`
	PrevUser             *string `db:"prev_user"`
	PageTitle            string  `db:"page_title"`
	PageNamespace        int     `db:"page_namespace"`
	PageCreatedTime      int64   `db:"page_created_time"`
	PageCreator          string  `db:"page_creator"`
	PageNumRecentEdits   int     `db:"page_num_recent_edits"`
	PageNumRecentReverts int     `db:"page_num_recent_reverts"`
}

// ScoreData holds externally computed scores attached to an edit.
type ScoreData struct {
	EditID   int64    `db:"edit_id"`
	Reverted *float64 `db:"reverted"`
	Training *float64 `db:"training"`
}

// GroupStats summarises the review progress of one group.
type GroupStats struct {
	GroupID    int64  `db:"id" json:"id" yaml:"id"`
	Name       string `db:"name" json:"name" yaml:"name"`
	Weight     int    `db:"weight" json:"weight" yaml:"weight"`
	Pending    int    `db:"pending" json:"pending" yaml:"pending"`
	InProgress int    `db:"in_progress" json:"in_progress" yaml:"in_progress"`
	Done       int    `db:"done" json:"done" yaml:"done"`
}

package training

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

// ErrIncomplete is returned when a record is missing a required field.
var ErrIncomplete = errors.New("candidate record is incomplete")

// MissingFields lists the required fields a record lacks, in export order.
// Zero counts are present values.
func MissingFields(r *core.CandidateRecord) []string {
	var missing []string
	add := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}

	add(r.Title != "", "title")
	add(r.PageMadeTime != nil, "page_made_time")
	add(r.Creator != "", "creator")
	add(r.Current.IsComplete(), "current")
	add(r.Previous == nil || r.Previous.IsComplete(), "previous")
	add(r.UserRegTime != nil, "user_reg_time")
	add(r.UserWarns != nil, "user_warns")
	add(r.UserEditCount != nil, "user_edit_count")
	add(r.UserDistinctPages != nil, "user_distinct_pages")
	add(r.NumRecentEdits != nil, "num_recent_edits")
	add(r.NumRecentReversions != nil, "num_recent_reversions")
	return missing
}

// IsComplete reports whether the record may be persisted as training data.
func IsComplete(r *core.CandidateRecord) bool {
	return len(MissingFields(r)) == 0
}

// ToTrainingData flattens a complete record. The revision snapshots are
// returned alongside for persistence; previous is nil for a page creation.
func ToTrainingData(r *core.CandidateRecord) (*core.TrainingData, *core.Revision, *core.Revision, error) {
	if missing := MissingFields(r); len(missing) > 0 {
		return nil, nil, nil, fmt.Errorf("%w: edit %d missing %s", ErrIncomplete, r.EditID, strings.Join(missing, ", "))
	}

	td := &core.TrainingData{
		EditID:               r.EditID,
		Timestamp:            *r.Current.Timestamp,
		Comment:              r.Comment,
		User:                 r.User,
		UserEditCount:        *r.UserEditCount,
		UserDistinctPages:    *r.UserDistinctPages,
		UserWarns:            *r.UserWarns,
		UserRegTime:          *r.UserRegTime,
		PrevUser:             r.PrevUser,
		PageTitle:            r.Title,
		PageNamespace:        r.Namespace,
		PageCreatedTime:      *r.PageMadeTime,
		PageCreator:          r.Creator,
		PageNumRecentEdits:   *r.NumRecentEdits,
		PageNumRecentReverts: *r.NumRecentReversions,
	}

	current := *r.Current
	current.EditID = r.EditID
	current.IsCreation = r.Previous == nil

	var previous *core.Revision
	if r.Previous != nil {
		p := *r.Previous
		p.EditID = r.EditID
		p.IsCreation = false
		previous = &p
	}
	return td, &current, previous, nil
}

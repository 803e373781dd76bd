// Package review turns reviewer votes into edit verdicts and decides what
// survives when the source revision of an edit disappears.
package review

import (
	"github.com/sevigo/cbng-reviewer/internal/core"
)

// Options tune a classification update.
type Options struct {
	// MinimumClassifications is the vote count the leading classification
	// must reach before a verdict is considered.
	MinimumClassifications int
	// ProtectHistorical leaves Done, classified edits without any votes
	// untouched. Imported legacy edits have no votes.
	ProtectHistorical bool
	// ProtectDeleted leaves Done, classified edits whose source is gone untouched.
	ProtectDeleted bool
	// KeepDone leaves every Done, classified edit untouched. A settled edit is
	// only re-evaluated by a forced recompute.
	KeepDone bool
}

// DefaultOptions returns the conservative options used for routine updates.
func DefaultOptions(minimum int) Options {
	return Options{
		MinimumClassifications: minimum,
		ProtectHistorical:      true,
		ProtectDeleted:         true,
		KeepDone:               true,
	}
}

// Forced clears the done and deleted guards so the edit is recomputed from
// its votes. Historical edits stay protected: without votes there is nothing
// to recompute their verdict from.
func (o Options) Forced() Options {
	return Options{
		MinimumClassifications: o.MinimumClassifications,
		ProtectHistorical:      o.ProtectHistorical,
	}
}

// Tally counts votes per classification.
type Tally struct {
	Vandalism    int
	Constructive int
	Skipped      int
}

// TallyVotes counts the votes. Unknown classifications are ignored.
func TallyVotes(votes []core.Vote) Tally {
	var t Tally
	for _, v := range votes {
		switch v.Classification {
		case core.ClassificationVandalism:
			t.Vandalism++
		case core.ClassificationConstructive:
			t.Constructive++
		case core.ClassificationSkipped:
			t.Skipped++
		}
	}
	return t
}

// Total is the number of counted votes.
func (t Tally) Total() int {
	return t.Vandalism + t.Constructive + t.Skipped
}

// Count returns the number of votes for c.
func (t Tally) Count(c core.Classification) int {
	switch c {
	case core.ClassificationVandalism:
		return t.Vandalism
	case core.ClassificationConstructive:
		return t.Constructive
	case core.ClassificationSkipped:
		return t.Skipped
	}
	return 0
}

func (t Tally) max() int {
	return max(t.Vandalism, t.Constructive, t.Skipped)
}

// verdict applies the tie-break rules in priority order. ok is false when
// the votes are contested.
func (t Tally) verdict() (core.Classification, bool) {
	switch {
	case 2*t.Skipped > t.Total():
		return core.ClassificationSkipped, true
	case t.Constructive >= 3*t.Vandalism:
		return core.ClassificationConstructive, true
	case t.Vandalism >= 3*t.Constructive:
		return core.ClassificationVandalism, true
	}
	return 0, false
}

// Result is the outcome of UpdateClassification.
type Result struct {
	Edit    core.Edit
	Changed bool
	Events  []core.Event
}

// UpdateClassification recomputes an edit's status and classification from
// its votes. It does not modify edit; the new state is returned in Result.
// Calling it again with the returned edit and the same votes yields
// Changed == false.
func UpdateClassification(edit core.Edit, votes []core.Vote, opts Options) Result {
	tally := TallyVotes(votes)
	prior := edit

	settled := edit.Status == core.StatusDone && edit.Classification != nil
	if settled {
		if opts.KeepDone ||
			(opts.ProtectHistorical && tally.Total() == 0) ||
			(opts.ProtectDeleted && edit.IsDeleted) {
			return Result{Edit: edit}
		}
	}

	next := edit
	if tally.Total() == 0 {
		next.Status = core.StatusPending
	} else {
		next.Status = core.StatusPartial
	}

	if tally.max() >= opts.MinimumClassifications {
		if c, ok := tally.verdict(); ok {
			next.Status = core.StatusDone
			next.Classification = core.ClassificationPtr(c)
		}
	}

	if next.Status == core.StatusDone {
		next.NumberOfReviewers = tally.Total()
		next.NumberOfAgreeingReviewers = tally.Count(*next.Classification)
	}

	changed := next.Status != prior.Status ||
		!sameClassification(next.Classification, prior.Classification) ||
		next.NumberOfReviewers != prior.NumberOfReviewers ||
		next.NumberOfAgreeingReviewers != prior.NumberOfAgreeingReviewers

	var events []core.Event
	if prior.Status != core.StatusDone && next.Status == core.StatusDone && next.Classification != nil {
		events = append(events, core.NewEvent(core.EventEditCompleted, &next))
	}

	if !changed {
		return Result{Edit: prior}
	}
	return Result{Edit: next, Changed: true, Events: events}
}

func sameClassification(a, b *core.Classification) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

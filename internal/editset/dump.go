// Package editset implements the WPEdit/WPEditSet wire format shared with the
// classifier trainer. Dumps must stay byte-for-byte compatible with existing
// consumers, so element order, escaping and indentation are fixed.
package editset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

var (
	// ErrNoTrainingData is returned when an edit has no stored training data.
	ErrNoTrainingData = errors.New("edit has no training data")
	// ErrNoCurrentRevision is returned when the current revision snapshot is missing.
	ErrNoCurrentRevision = errors.New("edit has no current revision")
	// ErrNoPreviousRevision is returned when the previous revision snapshot is
	// missing and the current revision is not a page creation.
	ErrNoPreviousRevision = errors.New("edit has no previous revision")
	// ErrUnknownNamespace is returned when the training data namespace id is not in the table.
	ErrUnknownNamespace = errors.New("unknown namespace")
)

// Document is everything needed to dump one edit.
type Document struct {
	Edit         *core.Edit
	TrainingData *core.TrainingData
	Current      *core.Revision
	Previous     *core.Revision
	Score        *core.ScoreData
}

// Options controls a dump.
type Options struct {
	// Group, when set, is written as the EditDB source.
	Group *core.EditGroup
	// IndentBlock shifts every element line one space right, as used inside a
	// WPEditSet.
	IndentBlock bool
	// Escape escapes character data. Defaults to EscapeTextWithQuotes.
	Escape EscapeFunc
}

// Dump renders one WPEdit element.
func Dump(doc Document, opts Options) (string, error) {
	root, err := buildWPEdit(doc, opts.Group)
	if err != nil {
		return "", err
	}

	escape := opts.Escape
	if escape == nil {
		escape = EscapeTextWithQuotes
	}

	var sb strings.Builder
	root.write(&sb, escape, 0)
	out := sb.String()

	if opts.IndentBlock {
		out = indentBlock(out)
	}
	return out, nil
}

func buildWPEdit(doc Document, group *core.EditGroup) (*element, error) {
	edit, td := doc.Edit, doc.TrainingData
	if edit == nil || td == nil {
		return nil, ErrNoTrainingData
	}
	if !doc.Current.IsComplete() {
		return nil, ErrNoCurrentRevision
	}
	if doc.Previous == nil && !doc.Current.IsCreation {
		return nil, ErrNoPreviousRevision
	}
	namespace, ok := core.DisplayNamespace(td.PageNamespace)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNamespace, td.PageNamespace)
	}

	root := newElement("WPEdit")

	editDB := root.add(newElement("EditDB"))
	editDB.leaf("isActive", "true")
	if group != nil {
		editDB.leaf("source", group.Name)
	}
	editDB.leaf("lastUpdated", strconv.FormatInt(edit.LastUpdated.Unix(), 10))

	root.leaf("EditType", "change")
	root.leaf("EditID", strconv.FormatInt(edit.ID, 10))
	root.leaf("comment", td.Comment)
	root.leaf("user", td.User)
	root.leaf("user_edit_count", strconv.Itoa(td.UserEditCount))
	root.leaf("user_distinct_pages", strconv.Itoa(td.UserDistinctPages))
	root.leaf("user_warns", strconv.Itoa(td.UserWarns))
	root.optionalLeaf("prev_user", td.PrevUser)
	root.leaf("user_reg_time", strconv.FormatInt(td.UserRegTime, 10))

	common := root.add(newElement("common"))
	common.leaf("page_made_time", strconv.FormatInt(td.PageCreatedTime, 10))
	common.leaf("title", td.PageTitle)
	common.leaf("namespace", namespace)
	common.leaf("creator", td.PageCreator)
	common.leaf("num_recent_edits", strconv.Itoa(td.PageNumRecentEdits))
	common.leaf("num_recent_reversions", strconv.Itoa(td.PageNumRecentReverts))

	current := root.add(newElement("current"))
	current.leaf("minor", strconv.FormatBool(doc.Current.IsMinor))
	current.leaf("timestamp", strconv.FormatInt(*doc.Current.Timestamp, 10))
	current.optionalLeaf("text", doc.Current.Text)

	previous := root.add(newElement("previous"))
	if doc.Previous != nil {
		if doc.Previous.Timestamp != nil {
			previous.leaf("timestamp", strconv.FormatInt(*doc.Previous.Timestamp, 10))
		} else {
			previous.add(newElement("timestamp"))
		}
		previous.optionalLeaf("text", doc.Previous.Text)
	}

	review := root.add(newElement("ReviewInterface"))
	review.leaf("status", edit.Status.String())
	if edit.Status == core.StatusDone {
		// isVandalism belongs to WPEdit and lands after ReviewInterface.
		root.leaf("isVandalism", strconv.FormatBool(edit.IsClassifiedAs(core.ClassificationVandalism)))
		review.leaf("reviewers", strconv.Itoa(edit.NumberOfReviewers))
		review.leaf("reviewers_agreeing", strconv.Itoa(edit.NumberOfAgreeingReviewers))
	}

	if doc.Score != nil {
		scores := root.add(newElement("core_scores"))
		// A stored zero is a real score and is written; only missing scores are left out.
		if doc.Score.Reverted != nil {
			scores.leaf("reverted", formatScore(*doc.Score.Reverted))
		}
		if doc.Score.Training != nil {
			scores.leaf("training", formatScore(*doc.Score.Training))
		}
	}

	return root, nil
}

// formatScore renders a float the way the trainer tooling has always seen
// it: shortest round-trip digits, always with a fractional part, exponent
// form only for very small or very large magnitudes.
func formatScore(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

package review

import "github.com/sevigo/cbng-reviewer/internal/core"

// ReportStatus is the review progress code shown on the report interface.
type ReportStatus int

const (
	ReportQueued       ReportStatus = 0
	ReportPartial      ReportStatus = 1
	ReportVandalism    ReportStatus = 2
	ReportConstructive ReportStatus = 3
	ReportNotIncluded  ReportStatus = 4
	ReportDataRemoved  ReportStatus = 5
)

// ReportStatusOf maps an edit to its report status. The boolean is false for
// edits that have nothing to report: a deleted Done edit, or a Done edit
// without a classification.
func ReportStatusOf(edit core.Edit) (ReportStatus, bool) {
	if edit.IsDeleted {
		return ReportDataRemoved, edit.Status != core.StatusDone
	}
	switch edit.Status {
	case core.StatusPending:
		return ReportQueued, true
	case core.StatusPartial:
		return ReportPartial, true
	}
	if edit.Classification == nil {
		return 0, false
	}
	switch *edit.Classification {
	case core.ClassificationVandalism:
		return ReportVandalism, true
	case core.ClassificationConstructive:
		return ReportConstructive, true
	case core.ClassificationSkipped:
		return ReportNotIncluded, true
	}
	return 0, false
}

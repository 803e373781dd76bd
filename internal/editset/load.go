package editset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

// Repository is the read access needed to dump stored edits.
type Repository interface {
	GetEdit(ctx context.Context, id int64) (*core.Edit, error)
	GetTrainingData(ctx context.Context, editID int64) (*core.TrainingData, error)
	GetRevisions(ctx context.Context, editID int64) (current, previous *core.Revision, err error)
	GetScoreData(ctx context.Context, editID int64) (*core.ScoreData, error)
}

// Load reads everything stored for an edit. Missing training data or scores
// leave the matching fields nil.
func Load(ctx context.Context, repo Repository, editID int64) (Document, error) {
	edit, err := repo.GetEdit(ctx, editID)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Edit: edit}

	if doc.TrainingData, err = repo.GetTrainingData(ctx, editID); err != nil && !errors.Is(err, core.ErrNotFound) {
		return Document{}, fmt.Errorf("failed to load training data: %w", err)
	}
	if doc.Current, doc.Previous, err = repo.GetRevisions(ctx, editID); err != nil {
		return Document{}, fmt.Errorf("failed to load revisions: %w", err)
	}
	if doc.Score, err = repo.GetScoreData(ctx, editID); err != nil && !errors.Is(err, core.ErrNotFound) {
		return Document{}, fmt.Errorf("failed to load scores: %w", err)
	}
	return doc, nil
}

// DumpStored loads and dumps one edit.
func DumpStored(ctx context.Context, repo Repository, editID int64, opts Options) (string, error) {
	doc, err := Load(ctx, repo, editID)
	if err != nil {
		return "", err
	}
	return Dump(doc, opts)
}

// NotExportable reports whether err means the edit lacks data for a dump,
// as opposed to a storage failure.
func NotExportable(err error) bool {
	return errors.Is(err, ErrNoTrainingData) ||
		errors.Is(err, ErrNoCurrentRevision) ||
		errors.Is(err, ErrNoPreviousRevision) ||
		errors.Is(err, ErrUnknownNamespace) ||
		errors.Is(err, core.ErrNotFound)
}

// WriteGroup streams the given edits as a WPEditSet with group as the
// EditDB source. Edits that cannot be dumped are left out. It returns the
// number of edits written.
func WriteGroup(ctx context.Context, repo Repository, w io.Writer, group *core.EditGroup, ids []int64, logger *slog.Logger) (int, error) {
	sw := NewSetWriter(w)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return sw.Count(), err
		}
		wpEdit, err := DumpStored(ctx, repo, id, Options{Group: group, IndentBlock: true})
		if err != nil {
			if NotExportable(err) {
				logger.Debug("skipping edit in group dump", "edit_id", id, "reason", err)
				continue
			}
			return sw.Count(), fmt.Errorf("failed to dump edit %d: %w", id, err)
		}
		if err := sw.Add(wpEdit); err != nil {
			return sw.Count(), err
		}
	}
	return sw.Count(), sw.Close()
}

// GroupSource is the access needed to export a group.
type GroupSource interface {
	Repository
	ListEditIDs(ctx context.Context, filter core.EditFilter) ([]int64, error)
	RelatedGroups(ctx context.Context, id int64) ([]core.EditGroup, error)
}

// ExportFilter selects the Done edits with training data of the given groups.
func ExportFilter(groupIDs ...int64) core.EditFilter {
	hasTraining := true
	return core.EditFilter{
		GroupIDs:        groupIDs,
		ExcludeStatus:   []core.EditStatus{core.StatusPending, core.StatusPartial},
		HasTrainingData: &hasTraining,
	}
}

// ExportGroup streams the exportable edits of group as a WPEditSet, with
// group as the source of every edit. With expand the edits of its child
// groups are included.
func ExportGroup(ctx context.Context, src GroupSource, w io.Writer, group *core.EditGroup, expand bool, logger *slog.Logger) (int, error) {
	groupIDs := []int64{group.ID}
	if expand {
		related, err := src.RelatedGroups(ctx, group.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to load groups related to %d: %w", group.ID, err)
		}
		for _, g := range related {
			groupIDs = append(groupIDs, g.ID)
		}
	}

	ids, err := src.ListEditIDs(ctx, ExportFilter(groupIDs...))
	if err != nil {
		return 0, fmt.Errorf("failed to select edits of group %d: %w", group.ID, err)
	}
	return WriteGroup(ctx, src, w, group, ids, logger)
}

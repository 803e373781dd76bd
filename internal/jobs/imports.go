package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/editset"
	"github.com/sevigo/cbng-reviewer/internal/storage"
	"github.com/sevigo/cbng-reviewer/internal/training"
)

// SampleSource picks random recent revisions.
type SampleSource interface {
	SampledEdits(ctx context.Context, namespace int, from, to time.Time, limit int) ([]int64, error)
}

// ReportExporter lists reported edits waiting for review.
type ReportExporter interface {
	EditIDsRequiringReview(ctx context.Context, includeInProgress bool) ([]int64, error)
}

// ImportSummary describes edits added to a group.
type ImportSummary struct {
	Group    string     `json:"group"`
	Seen     int        `json:"seen"`
	Created  int        `json:"created"`
	Added    int        `json:"added"`
	Training *RunReport `json:"training,omitempty"`
}

// EditSetImport configures ImportEditSet.
type EditSetImport struct {
	// Group receives every record; Parent, when set, is its parent group.
	Group  string
	Parent string
	// DynamicGroups puts each record in a child group of Group named after
	// the record's EditDB source.
	DynamicGroups bool
	// SkipExisting leaves training data of edits that already have it alone.
	SkipExisting bool
	// ForceStatus applies the record's verdict to existing edits too.
	ForceStatus bool
}

// EditSetSummary describes an edit set import.
type EditSetSummary struct {
	Records    int `json:"records"`
	Created    int `json:"created"`
	Added      int `json:"added"`
	Imported   int `json:"training_imported"`
	Incomplete int `json:"incomplete"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Importer feeds edits into groups from the replica sample, the report
// interface, edit set files and the store itself.
type Importer struct {
	store      storage.Store
	samples    SampleSource
	reports    ReportExporter
	trainer    *training.Importer
	orch       *Orchestrator
	dispatcher core.EventDispatcher
	cfg        config.ReviewConfig
	workers    int
	logger     *slog.Logger
	now        func() time.Time
}

// NewImporter creates an Importer.
func NewImporter(
	store storage.Store,
	samples SampleSource,
	reports ReportExporter,
	trainer *training.Importer,
	orch *Orchestrator,
	dispatcher core.EventDispatcher,
	cfg *config.Config,
	logger *slog.Logger,
) *Importer {
	return &Importer{
		store:      store,
		samples:    samples,
		reports:    reports,
		trainer:    trainer,
		orch:       orch,
		dispatcher: dispatcher,
		cfg:        cfg.Review,
		workers:    cfg.Workers.Default,
		logger:     logger.With("component", "importer"),
		now:        time.Now,
	}
}

// SeedSampledEdits adds a random sample of recent revisions to the sampled
// edits group and imports training data for the new ones.
func (i *Importer) SeedSampledEdits(ctx context.Context) (*ImportSummary, error) {
	group, err := i.store.GetOrCreateGroup(ctx, &core.EditGroup{
		Name:   i.cfg.SampledEditSet.Name,
		Weight: i.cfg.SampledEditSet.Weight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure sampled edit group: %w", err)
	}

	now := i.now().UTC()
	from := now.AddDate(0, 0, -i.cfg.SampledEditsLookbackDays)
	ids, err := i.samples.SampledEdits(ctx, i.cfg.SampledEditsNamespace, from, now, i.cfg.SampledEditsQuantity)
	if err != nil {
		return nil, fmt.Errorf("failed to sample edits: %w", err)
	}
	return i.intoGroup(ctx, group, ids)
}

// ImportReportedEdits adds the edits reported on the report interface to
// the reported edits group and imports training data for the new ones.
func (i *Importer) ImportReportedEdits(ctx context.Context, includeInProgress bool) (*ImportSummary, error) {
	group, err := i.store.GetOrCreateGroup(ctx, &core.EditGroup{
		Name:   i.cfg.ReportEditSet.Name,
		Weight: i.cfg.ReportEditSet.Weight,
		Type:   core.GroupTypeReportedFalsePositive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure report edit group: %w", err)
	}

	ids, err := i.reports.EditIDsRequiringReview(ctx, includeInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reported edits: %w", err)
	}
	return i.intoGroup(ctx, group, ids)
}

// AddDanglingEdits puts every edit without a group into the dangling edits group.
func (i *Importer) AddDanglingEdits(ctx context.Context) (*ImportSummary, error) {
	ids, err := i.store.ListEditIDs(ctx, core.EditFilter{Dangling: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list dangling edits: %w", err)
	}
	summary := &ImportSummary{Group: i.cfg.DanglingEditSet.Name, Seen: len(ids)}
	if len(ids) == 0 {
		return summary, nil
	}
	i.logger.Info("found dangling edits", "count", len(ids))

	group, err := i.store.GetOrCreateGroup(ctx, &core.EditGroup{
		Name:   i.cfg.DanglingEditSet.Name,
		Weight: i.cfg.DanglingEditSet.Weight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure dangling edit group: %w", err)
	}
	for _, id := range ids {
		added, err := i.store.AddEditToGroup(ctx, id, group.ID)
		if err != nil {
			return summary, fmt.Errorf("failed to add edit %d to %s: %w", id, group.Name, err)
		}
		if added {
			summary.Added++
		}
	}
	return summary, nil
}

// intoGroup creates missing edits, adds every edit to group and imports
// training data for the created ones.
func (i *Importer) intoGroup(ctx context.Context, group *core.EditGroup, ids []int64) (*ImportSummary, error) {
	summary := &ImportSummary{Group: group.Name, Seen: len(ids)}
	var created []int64

	for _, id := range ids {
		edit, isNew, err := i.store.GetOrCreateEdit(ctx, id)
		if err != nil {
			return summary, fmt.Errorf("failed to create edit %d: %w", id, err)
		}
		added, err := i.store.AddEditToGroup(ctx, id, group.ID)
		if err != nil {
			return summary, fmt.Errorf("failed to add edit %d to %s: %w", id, group.Name, err)
		}
		if added {
			summary.Added++
			i.logger.Info("added edit to group", "edit_id", id, "group", group.Name)
		}
		if isNew {
			created = append(created, id)
			i.dispatch(ctx, core.NewEvent(core.EventEditCreated, edit))
		}
	}
	summary.Created = len(created)

	if len(created) > 0 {
		summary.Training = i.orch.Run(ctx, &AggregateFeatures{Importer: i.trainer}, created, i.workers)
	}
	return summary, nil
}

// ImportEditSet streams an edit set file into a group. Every record marks
// its edit Done with the record's verdict when the edit is new, and complete
// records have their training data stored.
func (i *Importer) ImportEditSet(ctx context.Context, r io.Reader, opts EditSetImport) (*EditSetSummary, error) {
	target, err := i.ensureTarget(ctx, opts)
	if err != nil {
		return nil, err
	}

	summary := &EditSetSummary{}
	children := map[string]*core.EditGroup{}

	err = editset.Parse(r, i.logger, func(rec *core.CandidateRecord) error {
		summary.Records++
		log := i.logger.With("edit_id", rec.EditID)

		group := target
		if opts.DynamicGroups && rec.EditDBSource != "" {
			child, ok := children[rec.EditDBSource]
			if !ok {
				c, err := i.store.GetOrCreateGroup(ctx, &core.EditGroup{Name: rec.EditDBSource, RelatedTo: &target.ID})
				if err != nil {
					return fmt.Errorf("failed to ensure group %q: %w", rec.EditDBSource, err)
				}
				children[rec.EditDBSource] = c
				child = c
			}
			group = child
		}

		edit, created, err := i.store.GetOrCreateEdit(ctx, rec.EditID)
		if err != nil {
			return fmt.Errorf("failed to create edit %d: %w", rec.EditID, err)
		}
		if created {
			summary.Created++
		}
		if created || opts.ForceStatus {
			applyVerdict(edit, rec, i.now().UTC())
			if err := i.store.SaveEdit(ctx, edit); err != nil {
				return fmt.Errorf("failed to save edit %d: %w", rec.EditID, err)
			}
		}

		added, err := i.store.AddEditToGroup(ctx, rec.EditID, group.ID)
		if err != nil {
			return fmt.Errorf("failed to add edit %d to %s: %w", rec.EditID, group.Name, err)
		}
		if added {
			summary.Added++
			log.Info("added edit to group", "group", group.Name)
		}

		if opts.SkipExisting && edit.HasTrainingData {
			summary.Skipped++
			return nil
		}
		switch err := i.trainer.Persist(ctx, rec); {
		case err == nil:
			summary.Imported++
		case errors.Is(err, training.ErrIncomplete):
			summary.Incomplete++
		default:
			summary.Failed++
			log.Error("failed to import training data", "error", err)
		}
		return nil
	})

	i.logger.Info("imported edit set",
		"group", target.Name,
		"records", summary.Records,
		"created", summary.Created,
		"training_imported", summary.Imported,
		"incomplete", summary.Incomplete,
	)
	if err != nil {
		return summary, fmt.Errorf("edit set import stopped: %w", err)
	}
	return summary, nil
}

func (i *Importer) ensureTarget(ctx context.Context, opts EditSetImport) (*core.EditGroup, error) {
	if opts.Group == "" {
		return nil, errors.New("target group is required")
	}
	target := &core.EditGroup{Name: opts.Group}
	if opts.Parent != "" {
		parent, err := i.store.GetOrCreateGroup(ctx, &core.EditGroup{Name: opts.Parent})
		if err != nil {
			return nil, fmt.Errorf("failed to ensure group %q: %w", opts.Parent, err)
		}
		target.RelatedTo = &parent.ID
	}
	group, err := i.store.GetOrCreateGroup(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure group %q: %w", opts.Group, err)
	}
	return group, nil
}

// applyVerdict marks an edit Done with the classification carried by an
// edit set record. Records without a verdict count as constructive.
func applyVerdict(edit *core.Edit, rec *core.CandidateRecord, now time.Time) {
	verdict := core.ClassificationConstructive
	if rec.IsVandalism != nil && *rec.IsVandalism {
		verdict = core.ClassificationVandalism
	}
	edit.Status = core.StatusDone
	edit.Classification = core.ClassificationPtr(verdict)
	if rec.Reviewers != nil {
		edit.NumberOfReviewers = *rec.Reviewers
	}
	if rec.ReviewersAgreeing != nil {
		edit.NumberOfAgreeingReviewers = *rec.ReviewersAgreeing
	}
	edit.LastUpdated = now
}

// ReportedPopulation selects the live edits of every reporting group. The
// boolean is false when there are no reporting groups.
func ReportedPopulation(ctx context.Context, groups core.GroupRepository) (Population, bool, error) {
	all, err := groups.ListGroups(ctx)
	if err != nil {
		return Population{}, false, fmt.Errorf("failed to list groups: %w", err)
	}
	notDeleted := false
	p := Population{Filter: core.EditFilter{IsDeleted: &notDeleted}}
	for _, g := range all {
		if g.Type.IsReporting() {
			p.Filter.GroupIDs = append(p.Filter.GroupIDs, g.ID)
		}
	}
	return p, len(p.Filter.GroupIDs) > 0, nil
}

func (i *Importer) dispatch(ctx context.Context, events ...core.Event) {
	if i.dispatcher == nil {
		return
	}
	if err := i.dispatcher.Dispatch(ctx, events...); err != nil {
		i.logger.Warn("failed to dispatch events", "count", len(events), "error", err)
	}
}

// Package training assembles candidate records from the content source,
// decides whether they are complete, and persists the complete ones.
package training

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

// Aggregator builds a CandidateRecord for an edit from independent content
// source lookups. A failed lookup leaves its fields nil.
type Aggregator struct {
	source core.ContentSource
	window time.Duration
	logger *slog.Logger
}

// NewAggregator creates an Aggregator. window is the trailing period used
// for recent page activity.
func NewAggregator(source core.ContentSource, window time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		window: window,
		logger: logger.With("component", "aggregator"),
	}
}

// Aggregate never fails as a whole. Without page metadata the record only
// carries the edit id; without the current revision the user and activity
// lookups are skipped.
func (a *Aggregator) Aggregate(ctx context.Context, editID int64) *core.CandidateRecord {
	record := &core.CandidateRecord{EditID: editID}
	log := a.logger.With("edit_id", editID)

	meta, err := a.source.EditMetadata(ctx, editID)
	if err != nil {
		log.Warn("failed to resolve page metadata", "error", err)
		return record
	}
	record.Title = meta.Title
	record.Namespace = meta.Namespace

	var (
		creation          *core.PageCreation
		current, previous *core.Revision
		g                 errgroup.Group
	)
	g.Go(func() error {
		c, err := a.source.PageCreation(ctx, meta.Title, meta.Namespace)
		if err != nil {
			log.Warn("failed to resolve page creation", "title", meta.Title, "error", err)
			return nil
		}
		creation = c
		return nil
	})
	g.Go(func() error {
		cur, prev, err := a.source.PageRevisions(ctx, meta.Title, editID)
		if err != nil {
			log.Warn("failed to resolve revisions", "title", meta.Title, "error", err)
			return nil
		}
		current, previous = cur, prev
		return nil
	})
	_ = g.Wait()

	if creation != nil {
		record.Creator = creation.Creator
		record.PageMadeTime = core.Int64Ptr(creation.CreatedAt.Unix())
	}
	if current == nil {
		return record
	}

	current.EditID = editID
	current.IsCreation = previous == nil
	record.Current = current
	record.Previous = previous
	record.Comment = current.Comment
	record.User = current.User
	if previous != nil {
		record.PrevUser = core.StringPtr(previous.User)
	}

	if current.Timestamp == nil {
		log.Warn("current revision has no timestamp, skipping user and page activity")
		return record
	}
	at := time.Unix(*current.Timestamp, 0).UTC()

	a.resolveActivity(ctx, log, record, at)
	return record
}

// resolveActivity runs the user and page lookups that only depend on the
// acting user, the page and the edit time.
func (a *Aggregator) resolveActivity(ctx context.Context, log *slog.Logger, record *core.CandidateRecord, at time.Time) {
	user, title, namespace, window := record.User, record.Title, record.Namespace, a.window
	var (
		regTime                    *int64
		editCount, distinct, warns *int
		recentEdits, recentReverts *int
		g                          errgroup.Group
	)

	count := func(name string, dst **int, fn func() (int, error)) {
		g.Go(func() error {
			n, err := fn()
			if err != nil {
				log.Warn("lookup failed", "field", name, "error", err)
				return nil
			}
			*dst = &n
			return nil
		})
	}

	g.Go(func() error {
		t, err := a.source.UserRegistrationTime(ctx, user)
		if err != nil {
			log.Warn("lookup failed", "field", "user_reg_time", "error", err)
			return nil
		}
		regTime = core.Int64Ptr(t.Unix())
		return nil
	})
	count("user_edit_count", &editCount, func() (int, error) {
		return a.source.UserEditCount(ctx, user, at)
	})
	count("user_distinct_pages", &distinct, func() (int, error) {
		return a.source.UserDistinctPages(ctx, user, at)
	})
	count("user_warns", &warns, func() (int, error) {
		return a.source.UserWarningCount(ctx, user, at)
	})
	count("num_recent_edits", &recentEdits, func() (int, error) {
		return a.source.PageRecentEditCount(ctx, title, namespace, at, window)
	})
	count("num_recent_reversions", &recentReverts, func() (int, error) {
		return a.source.PageRecentRevertCount(ctx, title, namespace, at, window)
	})
	_ = g.Wait()

	record.UserRegTime = regTime
	record.UserEditCount = editCount
	record.UserDistinctPages = distinct
	record.UserWarns = warns
	record.NumRecentEdits = recentEdits
	record.NumRecentReversions = recentReverts
}

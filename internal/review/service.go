package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

var (
	// ErrInvalidClassification is returned for a vote value outside the known set.
	ErrInvalidClassification = errors.New("invalid classification")
	// ErrConfirmationRequired is returned when a reviewer changes an earlier
	// vote without confirming the change.
	ErrConfirmationRequired = errors.New("a different classification is already stored, confirmation required")
	// ErrMissingReviewer is returned when a vote has no reviewer.
	ErrMissingReviewer = errors.New("reviewer is required")
)

// Store is the persistence needed by the review service.
type Store interface {
	core.EditRepository
	core.VoteRepository
	core.GroupRepository
}

// DeletionChecker reports whether the source revision of an edit is gone.
type DeletionChecker interface {
	RevisionDeleted(ctx context.Context, revisionID int64) (bool, error)
}

// Service applies votes, classification updates and deletion decisions to
// stored edits and hands the resulting events to a dispatcher.
type Service struct {
	store      Store
	checker    DeletionChecker
	dispatcher core.EventDispatcher
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a review service.
func NewService(store Store, checker DeletionChecker, dispatcher core.EventDispatcher, opts Options, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		checker:    checker,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger.With("component", "review"),
		now:        time.Now,
	}
}

// VoteRequest is a reviewer's classification of an edit.
type VoteRequest struct {
	EditID         int64               `json:"edit_id"`
	Reviewer       string              `json:"reviewer"`
	Classification core.Classification `json:"classification"`
	Comment        *string             `json:"comment,omitempty"`
	// Confirm allows replacing an earlier, different vote by the same reviewer.
	Confirm bool `json:"confirm"`
}

// VoteResult describes what happened to a vote.
type VoteResult struct {
	Recorded bool       `json:"recorded"`
	Message  string     `json:"message"`
	Edit     *core.Edit `json:"edit,omitempty"`
}

// RecordVote stores a vote and reclassifies the edit. A repeated identical
// vote is not an error; it is reported as already recorded.
func (s *Service) RecordVote(ctx context.Context, req VoteRequest) (*VoteResult, error) {
	if !req.Classification.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidClassification, int(req.Classification))
	}
	reviewer := strings.TrimSpace(req.Reviewer)
	if reviewer == "" {
		return nil, ErrMissingReviewer
	}

	if _, err := s.store.GetEdit(ctx, req.EditID); err != nil {
		return nil, fmt.Errorf("failed to load edit %d: %w", req.EditID, err)
	}

	vote := &core.Vote{
		EditID:         req.EditID,
		Reviewer:       reviewer,
		Classification: req.Classification,
		Comment:        req.Comment,
		CreatedAt:      s.now().UTC(),
	}

	existing, err := s.store.GetVote(ctx, req.EditID, reviewer)
	switch {
	case err == nil:
		if existing.Classification == req.Classification {
			return &VoteResult{Message: "Review already stored"}, nil
		}
		if !req.Confirm {
			return nil, ErrConfirmationRequired
		}
		if err := s.store.ReplaceVote(ctx, vote); err != nil {
			return nil, fmt.Errorf("failed to replace vote: %w", err)
		}
	case errors.Is(err, core.ErrNotFound):
		inserted, err := s.store.InsertVote(ctx, vote)
		if err != nil {
			return nil, fmt.Errorf("failed to store vote: %w", err)
		}
		if !inserted {
			return &VoteResult{Message: "Review already stored"}, nil
		}
	default:
		return nil, fmt.Errorf("failed to load existing vote: %w", err)
	}

	s.logger.Info("stored vote", "edit_id", req.EditID, "reviewer", reviewer, "classification", req.Classification.String())

	result, err := s.Reclassify(ctx, req.EditID, false)
	if err != nil {
		return nil, err
	}
	return &VoteResult{Recorded: true, Message: "Review stored", Edit: &result.Edit}, nil
}

// Reclassify recomputes and persists the classification of one edit. With
// force every guard is bypassed.
func (s *Service) Reclassify(ctx context.Context, editID int64, force bool) (*Result, error) {
	edit, err := s.store.GetEdit(ctx, editID)
	if err != nil {
		return nil, fmt.Errorf("failed to load edit %d: %w", editID, err)
	}
	votes, err := s.store.VotesForEdit(ctx, editID)
	if err != nil {
		return nil, fmt.Errorf("failed to load votes for edit %d: %w", editID, err)
	}

	opts := s.opts
	if force {
		opts = opts.Forced()
	}

	result := UpdateClassification(*edit, votes, opts)
	if !result.Changed {
		return &result, nil
	}

	result.Edit.LastUpdated = s.now().UTC()
	if err := s.store.SaveEdit(ctx, &result.Edit); err != nil {
		return nil, fmt.Errorf("failed to save edit %d: %w", editID, err)
	}
	s.logger.Info("updated classification",
		"edit_id", editID,
		"status", result.Edit.Status.String(),
		"votes", len(votes),
	)

	s.dispatch(ctx, result.Events...)
	return &result, nil
}

// ResolveDeletion checks the source of an edit and applies the retention
// decision when it is gone.
func (s *Service) ResolveDeletion(ctx context.Context, editID int64) (Action, error) {
	deleted, err := s.checker.RevisionDeleted(ctx, editID)
	if err != nil {
		return ActionNone, fmt.Errorf("failed to check revision %d: %w", editID, err)
	}
	return s.ApplyDeletion(ctx, editID, deleted)
}

// ApplyDeletion applies the retention decision for a known deletion signal.
func (s *Service) ApplyDeletion(ctx context.Context, editID int64, sourceDeleted bool) (Action, error) {
	if !sourceDeleted {
		return ActionNone, nil
	}

	edit, err := s.store.GetEdit(ctx, editID)
	if err != nil {
		return ActionNone, fmt.Errorf("failed to load edit %d: %w", editID, err)
	}
	groups, err := s.store.GroupsForEdit(ctx, editID)
	if err != nil {
		return ActionNone, fmt.Errorf("failed to load groups for edit %d: %w", editID, err)
	}

	action := ResolveDeletion(*edit, sourceDeleted, groups)
	switch action {
	case ActionKeep:
		err = s.markDeleted(ctx, edit)
	case ActionPurgeDependents:
		if err = s.store.PurgeDependents(ctx, editID); err == nil {
			err = s.markDeleted(ctx, edit)
		}
	case ActionRemove:
		if err = s.store.PurgeDependents(ctx, editID); err == nil {
			err = s.store.DeleteEdit(ctx, editID)
		}
		if err == nil {
			s.dispatch(ctx, core.NewEvent(core.EventEditDeleted, edit))
		}
	}
	if err != nil {
		return action, fmt.Errorf("failed to apply %s to edit %d: %w", action, editID, err)
	}

	s.logger.Info("resolved deleted edit", "edit_id", editID, "action", action.String())
	return action, nil
}

func (s *Service) markDeleted(ctx context.Context, edit *core.Edit) error {
	changed, err := s.store.MarkEditDeleted(ctx, edit.ID)
	if err != nil {
		return err
	}
	if changed {
		edit.IsDeleted = true
		s.dispatch(ctx, core.NewEvent(core.EventEditDeleted, edit))
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, events ...core.Event) {
	if len(events) == 0 || s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, events...); err != nil {
		s.logger.Warn("failed to dispatch events", "count", len(events), "error", err)
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/review"
)

// ReviewerHandler serves the review queue and stores classifications.
type ReviewerHandler struct {
	edits   core.EditRepository
	reviews *review.Service
	logger  *slog.Logger
}

// NewReviewerHandler creates a ReviewerHandler.
func NewReviewerHandler(edits core.EditRepository, reviews *review.Service, logger *slog.Logger) *ReviewerHandler {
	return &ReviewerHandler{edits: edits, reviews: reviews, logger: logger}
}

type nextEditResponse struct {
	EditID  *int64 `json:"edit_id"`
	Message string `json:"message,omitempty"`
}

// NextEdit returns the next edit the reviewer should classify.
func (h *ReviewerHandler) NextEdit(w http.ResponseWriter, r *http.Request) {
	name := reviewer(r)
	if name == "" {
		http.Error(w, "Reviewer required", http.StatusUnauthorized)
		return
	}

	edit, err := h.edits.NextEditForReviewer(r.Context(), name)
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusOK, nextEditResponse{Message: "No Pending Edit Found"})
	case err != nil:
		h.logger.Error("failed to select next edit", "reviewer", name, "error", err)
		http.Error(w, "Failed to select next edit", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, nextEditResponse{EditID: &edit.ID})
	}
}

type classifyRequest struct {
	EditID         int64   `json:"edit_id"`
	Classification *int    `json:"classification"`
	Comment        *string `json:"comment"`
	Confirmation   bool    `json:"confirmation"`
}

type classifyResponse struct {
	Message             string `json:"message,omitempty"`
	RequireConfirmation bool   `json:"require_confirmation,omitempty"`
}

// Classify stores the reviewer's classification of an edit.
func (h *ReviewerHandler) Classify(w http.ResponseWriter, r *http.Request) {
	name := reviewer(r)
	if name == "" {
		http.Error(w, "Reviewer required", http.StatusUnauthorized)
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Classification == nil {
		http.Error(w, "Invalid classification", http.StatusBadRequest)
		return
	}
	if req.Comment != nil && strings.TrimSpace(*req.Comment) == "" {
		req.Comment = nil
	}

	result, err := h.reviews.RecordVote(r.Context(), review.VoteRequest{
		EditID:         req.EditID,
		Reviewer:       name,
		Classification: core.Classification(*req.Classification),
		Comment:        req.Comment,
		Confirm:        req.Confirmation,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, classifyResponse{Message: result.Message})
	case errors.Is(err, review.ErrConfirmationRequired):
		writeJSON(w, http.StatusOK, classifyResponse{RequireConfirmation: true})
	case errors.Is(err, review.ErrInvalidClassification):
		http.Error(w, "Invalid classification", http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.logger.Error("failed to store classification", "edit_id", req.EditID, "reviewer", name, "error", err)
		http.Error(w, "Failed to store classification", http.StatusInternalServerError)
	}
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/editset"
)

// EditHandler serves single edit dumps.
type EditHandler struct {
	repo   editset.Repository
	logger *slog.Logger
}

// NewEditHandler creates an EditHandler.
func NewEditHandler(repo editset.Repository, logger *slog.Logger) *EditHandler {
	return &EditHandler{repo: repo, logger: logger}
}

// DumpWPEdit returns the WPEdit of one edit, or 404 when the edit is unknown
// or cannot be dumped.
func (h *EditHandler) DumpWPEdit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "editID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	wpEdit, err := editset.DumpStored(r.Context(), h.repo, id, editset.Options{})
	switch {
	case err == nil:
		writeXML(w, wpEdit)
	case editset.NotExportable(err) || errors.Is(err, core.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.logger.Error("failed to dump edit", "edit_id", id, "error", err)
		http.Error(w, "Failed to dump edit", http.StatusInternalServerError)
	}
}

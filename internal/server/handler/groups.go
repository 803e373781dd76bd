package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/editset"
	"github.com/sevigo/cbng-reviewer/internal/review"
	"github.com/sevigo/cbng-reviewer/internal/storage"
)

// GroupHandler serves edit groups, their exports and statistics.
type GroupHandler struct {
	store  storage.Store
	logger *slog.Logger
}

// NewGroupHandler creates a GroupHandler.
func NewGroupHandler(store storage.Store, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{store: store, logger: logger}
}

// List returns every group. With exclude_empty_editsets=1 only groups holding
// exportable edits are returned, together with their parents.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.logger.Error("failed to list groups", "error", err)
		http.Error(w, "Failed to list groups", http.StatusInternalServerError)
		return
	}
	if r.URL.Query().Get("exclude_empty_editsets") != "1" {
		writeJSON(w, http.StatusOK, groups)
		return
	}

	keep := map[int64]bool{}
	for _, g := range groups {
		ids, err := h.store.ListEditIDs(r.Context(), editset.ExportFilter(g.ID))
		if err != nil {
			h.logger.Error("failed to list group edits", "group_id", g.ID, "error", err)
			http.Error(w, "Failed to list groups", http.StatusInternalServerError)
			return
		}
		if len(ids) == 0 {
			continue
		}
		keep[g.ID] = true
		if g.RelatedTo != nil {
			keep[*g.RelatedTo] = true
		}
	}
	out := []core.EditGroup{}
	for _, g := range groups {
		if keep[g.ID] {
			out = append(out, g)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one group.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, ok := h.group(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// ReportStatus returns the report status of every edit in a reporting group,
// keyed by edit id.
func (h *GroupHandler) ReportStatus(w http.ResponseWriter, r *http.Request) {
	group, ok := h.group(w, r)
	if !ok {
		return
	}
	if !group.Type.IsReporting() {
		http.NotFound(w, r)
		return
	}

	ids, err := h.store.ListEditIDs(r.Context(), core.EditFilter{GroupIDs: []int64{group.ID}})
	if err != nil {
		h.logger.Error("failed to list group edits", "group_id", group.ID, "error", err)
		http.Error(w, "Failed to load report status", http.StatusInternalServerError)
		return
	}

	statuses := make(map[int64]review.ReportStatus, len(ids))
	for _, id := range ids {
		edit, err := h.store.GetEdit(r.Context(), id)
		if err != nil {
			h.logger.Error("failed to load edit", "edit_id", id, "error", err)
			http.Error(w, "Failed to load report status", http.StatusInternalServerError)
			return
		}
		if status, ok := review.ReportStatusOf(*edit); ok {
			statuses[id] = status
		}
	}
	writeJSON(w, http.StatusOK, statuses)
}

// DumpEditSet streams the Done edits with training data of a group as a
// WPEditSet. With expand=1 the edits of its child groups are included.
func (h *GroupHandler) DumpEditSet(w http.ResponseWriter, r *http.Request) {
	group, ok := h.group(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	n, err := editset.ExportGroup(r.Context(), h.store, w, group, r.URL.Query().Get("expand") == "1", h.logger)
	if err != nil {
		// The document may already be partially written.
		h.logger.Error("edit set dump aborted", "group_id", group.ID, "written", n, "error", err)
		return
	}
	h.logger.Info("dumped edit set", "group", group.Name, "edits", n)
}

// Stats returns the review progress of every group.
func (h *GroupHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GroupStats(r.Context())
	if err != nil {
		h.logger.Error("failed to load group statistics", "error", err)
		http.Error(w, "Failed to load statistics", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []core.GroupStats{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *GroupHandler) group(w http.ResponseWriter, r *http.Request) (*core.EditGroup, bool) {
	id, err := idParam(r, "groupID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	group, err := h.store.GetGroup(r.Context(), id)
	switch {
	case errors.Is(err, core.ErrNotFound):
		http.NotFound(w, r)
		return nil, false
	case err != nil:
		h.logger.Error("failed to load group", "group_id", id, "error", err)
		http.Error(w, "Failed to load group", http.StatusInternalServerError)
		return nil, false
	}
	return group, true
}

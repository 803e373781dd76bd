package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/cbng-reviewer/internal/review"
	"github.com/sevigo/cbng-reviewer/internal/server/handler"
	"github.com/sevigo/cbng-reviewer/internal/storage"
)

// NewRouter creates the HTTP router with middleware and API routes.
// metrics may be nil.
func NewRouter(store storage.Store, reviews *review.Service, metrics http.Handler, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	health := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
	r.Get("/health", health)
	r.Get("/internal/health", health)
	if metrics != nil {
		r.Handle("/internal/metrics", metrics)
	}

	edits := handler.NewEditHandler(store, logger)
	groups := handler.NewGroupHandler(store, logger)
	reviewers := handler.NewReviewerHandler(store, reviews, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Edit set dumps stream whole groups and are not bounded by the timeout.
		r.Get("/edit-groups/{groupID}/dump-editset", groups.DumpEditSet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/edit-groups", groups.List)
			r.Get("/edit-groups/{groupID}", groups.Get)
			r.Get("/edit-groups/{groupID}/dump-report-status", groups.ReportStatus)
			r.Get("/edit/{editID}/dump-wpedit", edits.DumpWPEdit)
			r.Get("/stats", groups.Stats)

			r.Get("/reviewer/next-edit", reviewers.NextEdit)
			r.Post("/reviewer/classify-edit", reviewers.Classify)
		})
	})

	return r
}

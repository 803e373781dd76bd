// Package app holds the wired components of the reviewer backend: the store,
// the content source and the services the CLI and the HTTP server run.
package app

import (
	"context"
	"log/slog"

	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/db"
	"github.com/sevigo/cbng-reviewer/internal/jobs"
	"github.com/sevigo/cbng-reviewer/internal/metrics"
	"github.com/sevigo/cbng-reviewer/internal/notify"
	"github.com/sevigo/cbng-reviewer/internal/reportiface"
	"github.com/sevigo/cbng-reviewer/internal/review"
	"github.com/sevigo/cbng-reviewer/internal/scorer"
	"github.com/sevigo/cbng-reviewer/internal/server"
	"github.com/sevigo/cbng-reviewer/internal/storage"
	"github.com/sevigo/cbng-reviewer/internal/training"
	"github.com/sevigo/cbng-reviewer/internal/wikipedia"
)

// App holds the main application components.
type App struct {
	Config       *config.Config
	DB           *db.DB
	Store        storage.Store
	Wikipedia    *wikipedia.Source
	Reviews      *review.Service
	Trainer      *training.Importer
	Orchestrator *jobs.Orchestrator
	Importer     *jobs.Importer
	Scorer       *scorer.Client
	Reports      *reportiface.Client
	Metrics      *metrics.Recorder
	Logger       *slog.Logger

	server     *server.Server
	dispatcher *notify.Dispatcher
}

// NewApp assembles the application.
func NewApp(
	cfg *config.Config,
	dbConn *db.DB,
	store storage.Store,
	source *wikipedia.Source,
	reviews *review.Service,
	trainer *training.Importer,
	orch *jobs.Orchestrator,
	importer *jobs.Importer,
	scorerClient *scorer.Client,
	reports *reportiface.Client,
	dispatcher *notify.Dispatcher,
	recorder *metrics.Recorder,
	srv *server.Server,
	logger *slog.Logger,
) *App {
	return &App{
		Config:       cfg,
		DB:           dbConn,
		Store:        store,
		Wikipedia:    source,
		Reviews:      reviews,
		Trainer:      trainer,
		Orchestrator: orch,
		Importer:     importer,
		Scorer:       scorerClient,
		Reports:      reports,
		Metrics:      recorder,
		Logger:       logger,
		server:       srv,
		dispatcher:   dispatcher,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.Logger.Info("starting ClueBot NG reviewer API", "server_port", a.Config.Server.Port)

	if err := a.server.Start(); err != nil {
		a.Logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts the HTTP server down and drains queued events.
func (a *App) Stop() error {
	a.Logger.Info("shutting down ClueBot NG reviewer services")

	serverErr := a.server.Stop()
	if serverErr != nil {
		a.Logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()

	if serverErr != nil {
		return serverErr
	}
	a.Logger.Info("ClueBot NG reviewer stopped successfully")
	return nil
}

// PushMetrics refreshes the group gauges and pushes every metric to the
// pushgateway. Failures are logged; metrics never fail an operation.
func (a *App) PushMetrics(ctx context.Context) {
	stats, err := a.Store.GroupStats(ctx)
	if err != nil {
		a.Logger.Warn("failed to load group statistics for metrics", "error", err)
	} else {
		a.Metrics.SetGroupStats(stats)
	}
	if err := a.Metrics.Push(ctx); err != nil {
		a.Logger.Warn("failed to push metrics", "error", err)
	}
}

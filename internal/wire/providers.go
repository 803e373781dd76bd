package wire

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/wire"
	"github.com/jmoiron/sqlx"

	"github.com/sevigo/cbng-reviewer/internal/app"
	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/db"
	"github.com/sevigo/cbng-reviewer/internal/jobs"
	"github.com/sevigo/cbng-reviewer/internal/logger"
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

// AppSet provides every component of the application.
var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	config.LoadConfig,
	logger.NewLogger,
	db.NewDatabase,
	storage.NewStore,
	wikipedia.NewClient,
	wikipedia.OpenReplica,
	wikipedia.NewSource,
	scorer.NewClient,
	reportiface.NewClient,
	notify.NewNotifiers,
	metrics.NewRecorder,
	training.NewImporter,
	jobs.NewImporter,
	provideLoggingConfig,
	provideLogWriter,
	provideDBConfig,
	provideSQLX,
	provideWikipediaConfig,
	provideReplicaConfig,
	provideScorerConfig,
	provideReportInterfaceConfig,
	provideMetricsConfig,
	provideAggregator,
	provideDispatcher,
	provideReviewService,
	provideOrchestrator,
	wire.Bind(new(core.ContentSource), new(*wikipedia.Source)),
	wire.Bind(new(core.EventDispatcher), new(*notify.Dispatcher)),
	wire.Bind(new(training.Store), new(storage.Store)),
	wire.Bind(new(jobs.SampleSource), new(*wikipedia.Source)),
	wire.Bind(new(jobs.ReportExporter), new(*reportiface.Client)),
)

func provideLoggingConfig(cfg *config.Config) config.LoggingConfig {
	return cfg.Logging
}

// provideLogWriter keeps stdout free for dumped documents.
func provideLogWriter() io.Writer {
	return os.Stderr
}

func provideDBConfig(cfg *config.Config) config.DBConfig {
	return cfg.Database
}

func provideSQLX(conn *db.DB) *sqlx.DB {
	return conn.DB
}

func provideWikipediaConfig(cfg *config.Config) config.WikipediaConfig {
	return cfg.Wikipedia
}

func provideReplicaConfig(cfg *config.Config) config.ReplicaConfig {
	return cfg.Replica
}

func provideScorerConfig(cfg *config.Config) config.ScorerConfig {
	return cfg.Scorer
}

func provideReportInterfaceConfig(cfg *config.Config) config.ReportInterfaceConfig {
	return cfg.ReportInterface
}

func provideMetricsConfig(cfg *config.Config) config.MetricsConfig {
	return cfg.Metrics
}

func provideAggregator(source core.ContentSource, cfg *config.Config, logger *slog.Logger) *training.Aggregator {
	return training.NewAggregator(source, cfg.Review.RecentEditWindow(), logger)
}

// provideDispatcher starts the event workers; the cleanup drains the queue.
func provideDispatcher(notifiers []core.Notifier, cfg *config.Config, logger *slog.Logger) (*notify.Dispatcher, func()) {
	d := notify.NewDispatcher(notifiers, cfg.Workers.Notifiers, cfg.Workers.QueueSize, logger)
	return d, d.Stop
}

func provideReviewService(store storage.Store, client *wikipedia.Client, dispatcher core.EventDispatcher, cfg *config.Config, logger *slog.Logger) *review.Service {
	return review.NewService(store, client, dispatcher, review.DefaultOptions(cfg.Review.MinimumClassifications), logger)
}

func provideOrchestrator(store storage.Store, recorder *metrics.Recorder, logger *slog.Logger) *jobs.Orchestrator {
	return jobs.NewOrchestrator(store, recorder, logger)
}

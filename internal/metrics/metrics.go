// Package metrics records operation runs and review progress as Prometheus
// metrics, served by the HTTP server or pushed to a pushgateway by the CLI.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/core"
)

const namespace = "cbng"

// Item results.
const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Recorder holds the run and progress metrics in its own registry.
type Recorder struct {
	registry *prometheus.Registry

	items      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	groupEdits *prometheus.GaugeVec
	pushURL    string
	jobName    string
	logger     *slog.Logger
}

// NewRecorder creates a recorder. Pushing is disabled when no pushgateway
// URL is configured.
func NewRecorder(cfg config.MetricsConfig, logger *slog.Logger) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_items_total",
			Help:      "Edits processed by an operation, by result",
		}, []string{"operation", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of a complete operation run",
			Buckets:   []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		}, []string{"operation"}),
		groupEdits: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "edit_group_edits_by_status_count",
			Help:      "Number of edits by status in an edit group",
		}, []string{"group", "status"}),
		pushURL: cfg.PushgatewayURL,
		jobName: cfg.JobName,
		logger:  logger.With("component", "metrics"),
	}
}

// ObserveItem counts one processed edit.
func (r *Recorder) ObserveItem(operation, result string) {
	r.items.WithLabelValues(operation, result).Inc()
}

// ObserveRun records the duration of a finished run.
func (r *Recorder) ObserveRun(operation string, d time.Duration) {
	r.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// SetGroupStats publishes the per group status counts.
func (r *Recorder) SetGroupStats(stats []core.GroupStats) {
	for _, s := range stats {
		r.groupEdits.WithLabelValues(s.Name, core.StatusPending.String()).Set(float64(s.Pending))
		r.groupEdits.WithLabelValues(s.Name, core.StatusPartial.String()).Set(float64(s.InProgress))
		r.groupEdits.WithLabelValues(s.Name, core.StatusDone.String()).Set(float64(s.Done))
	}
}

// Handler serves the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Push sends every metric to the pushgateway, replacing the previous push
// of this job.
func (r *Recorder) Push(ctx context.Context) error {
	if r.pushURL == "" {
		return nil
	}
	if err := push.New(r.pushURL, r.jobName).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", r.pushURL, err)
	}
	r.logger.Debug("pushed metrics", "job", r.jobName)
	return nil
}

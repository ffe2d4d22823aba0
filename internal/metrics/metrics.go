// Package metrics exposes Prometheus metrics for sync runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kazz187/agentsync/internal/reconcile"
)

const namespace = "agentsync"

// Metrics records sync outcomes. It implements reconcile.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// syncRunsTotal counts runs by result (ok, error, noop).
	syncRunsTotal *prometheus.CounterVec
	// actionsTotal counts executed actions by kind.
	// Labels:
	//   - action: register, copy-to-project, rename, remove, skip
	//   - status: applied, failed, planned
	actionsTotal *prometheus.CounterVec
	diagnostics  prometheus.Gauge
	lastSync     prometheus.Gauge
	syncDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_runs_total",
				Help:      "Total number of sync runs by result",
			},
			[]string{"result"},
		),
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Total number of reconciliation actions by kind and status",
			},
			[]string{"action", "status"},
		),
		diagnostics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "diagnostics",
			Help:      "Number of diagnostics reported by the last scan",
		}),
		lastSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the last successful sync run",
		}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
	}
	m.registry.MustRegister(
		m.syncRunsTotal,
		m.actionsTotal,
		m.diagnostics,
		m.lastSync,
		m.syncDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveSync(run reconcile.SyncRun) {
	plan, summary := run.Plan, run.Summary
	if plan != nil {
		m.diagnostics.Set(float64(len(plan.Diagnostics)))
	}

	switch {
	case run.Err != nil:
		m.syncRunsTotal.WithLabelValues("error").Inc()
	case run.DryRun:
		m.syncRunsTotal.WithLabelValues("dry_run").Inc()
	case summary == nil:
		m.syncRunsTotal.WithLabelValues("noop").Inc()
	default:
		m.syncRunsTotal.WithLabelValues("ok").Inc()
		m.lastSync.Set(float64(time.Now().Unix()))
	}
	// Previews stay out of the duration histogram.
	if !run.DryRun {
		m.syncDuration.Observe(run.Elapsed.Seconds())
	}

	if summary == nil {
		if plan != nil {
			for _, a := range plan.Actions {
				m.actionsTotal.WithLabelValues(a.Kind.String(), "planned").Inc()
			}
		}
		return
	}
	m.add(reconcile.ActionRegister, "applied", summary.Registered)
	m.add(reconcile.ActionCopyToProject, "applied", summary.Copied)
	m.add(reconcile.ActionRename, "applied", summary.Renamed)
	m.add(reconcile.ActionRemove, "applied", summary.Removed)
	m.add(reconcile.ActionSkip, "applied", summary.Skipped)
	for _, f := range summary.Failed {
		m.actionsTotal.WithLabelValues(f.Action.String(), "failed").Inc()
	}
}

func (m *Metrics) add(kind reconcile.ActionKind, status string, n int) {
	if n > 0 {
		m.actionsTotal.WithLabelValues(kind.String(), status).Add(float64(n))
	}
}

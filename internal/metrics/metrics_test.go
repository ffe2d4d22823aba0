package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/agentsync/internal/agentdef"
	"github.com/kazz187/agentsync/internal/reconcile"
	"github.com/kazz187/agentsync/internal/scope"
)

func TestObserveSync(t *testing.T) {
	m := New()

	plan := &reconcile.Plan{
		Actions: []reconcile.Action{
			{Kind: reconcile.ActionRegister, Identifier: "alpha", Scope: scope.User},
			{Kind: reconcile.ActionSkip, Identifier: "beta", Scope: scope.User},
		},
		Diagnostics: []agentdef.Diagnostic{{Scope: scope.User, Message: "failed to load"}},
	}
	summary := &reconcile.Summary{
		Registered: 2,
		Renamed:    1,
		Failed: []reconcile.Failure{
			{Identifier: "gamma", Scope: scope.Project, Action: reconcile.ActionRegister, Reason: "boom"},
		},
	}

	m.ObserveSync(reconcile.SyncRun{Plan: plan, Summary: summary, Elapsed: 20 * time.Millisecond})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.actionsTotal.WithLabelValues("register", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionsTotal.WithLabelValues("rename", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionsTotal.WithLabelValues("register", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.diagnostics))
	assert.Positive(t, testutil.ToFloat64(m.lastSync))

	m.ObserveSync(reconcile.SyncRun{Plan: plan, Elapsed: time.Millisecond})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRunsTotal.WithLabelValues("noop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionsTotal.WithLabelValues("register", "planned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionsTotal.WithLabelValues("skip", "planned")))

	m.ObserveSync(reconcile.SyncRun{Err: errors.New("registry unavailable"), Elapsed: time.Millisecond})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRunsTotal.WithLabelValues("error")))

	metric := &dto.Metric{}
	require.NoError(t, m.syncDuration.Write(metric))
	assert.Equal(t, uint64(3), metric.GetHistogram().GetSampleCount())
}

func TestObserveSync_DryRun(t *testing.T) {
	m := New()
	plan := &reconcile.Plan{Actions: []reconcile.Action{
		{Kind: reconcile.ActionRegister, Identifier: "alpha", Scope: scope.Project},
	}}

	m.ObserveSync(reconcile.SyncRun{Plan: plan, Elapsed: time.Millisecond, DryRun: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRunsTotal.WithLabelValues("dry_run")))
	assert.Zero(t, testutil.ToFloat64(m.syncRunsTotal.WithLabelValues("noop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionsTotal.WithLabelValues("register", "planned")))
	assert.Zero(t, testutil.ToFloat64(m.lastSync))

	metric := &dto.Metric{}
	require.NoError(t, m.syncDuration.Write(metric))
	assert.Zero(t, metric.GetHistogram().GetSampleCount())
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveSync(reconcile.SyncRun{Plan: &reconcile.Plan{}, Elapsed: time.Millisecond})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `agentsync_sync_runs_total{result="noop"} 1`)
	assert.Contains(t, rec.Body.String(), "agentsync_sync_duration_seconds_count 1")
}

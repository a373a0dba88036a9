// Package observability exposes orchestrator metrics through Prometheus.
// The collector plugs into the scheduler as a set of lifecycle hooks, so
// the scheduler itself stays free of any metrics dependency.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/gantry/pkg/domain"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	runsTotal   *prometheus.CounterVec
	jobsTotal   *prometheus.CounterVec
	stepsTotal  *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewMetrics creates and registers the collectors on the registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gantry",
			Name:      "runs_total",
			Help:      "Pipeline runs by workflow and terminal status.",
		}, []string{"workflow", "status"}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gantry",
			Name:      "jobs_total",
			Help:      "Jobs by ID and terminal status.",
		}, []string{"job", "status"}),
		stepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gantry",
			Name:      "steps_total",
			Help:      "Steps by name and terminal status.",
		}, []string{"step", "status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gantry",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of finished runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	reg.MustRegister(m.runsTotal, m.jobsTotal, m.stepsTotal, m.runDuration)
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			m.runsTotal.WithLabelValues(e.Workflow, string(e.Status)).Inc()
			m.runDuration.Observe(e.Elapsed.Seconds())
		},
		OnJobFinish: func(_ context.Context, e *domain.JobEvent) {
			m.jobsTotal.WithLabelValues(e.JobID, string(e.Status)).Inc()
		},
		OnStepFinish: func(_ context.Context, e *domain.StepEvent) {
			m.stepsTotal.WithLabelValues(e.StepName, string(e.Status)).Inc()
		},
	}
}

// RunsTotal exposes the run counter for inspection in tests.
func (m *Metrics) RunsTotal() *prometheus.CounterVec {
	return m.runsTotal
}

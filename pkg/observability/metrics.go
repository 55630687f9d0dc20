package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// Metrics holds the collectors fed by the orchestrator hooks.
type Metrics struct {
	Actions     *prometheus.CounterVec
	TaskSeconds *prometheus.HistogramVec
	StageEntry  *prometheus.CounterVec
	TaskErrors  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses a private registry, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_actions_total",
				Help: "Actions handled, by workflow, action and resulting status",
			},
			[]string{"workflow", "action", "status"},
		),
		TaskSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "concierge_task_duration_seconds",
				Help:    "Duration of task body executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"workflow", "task"},
		),
		StageEntry: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_stage_entries_total",
				Help: "Successful stage transitions, by target stage",
			},
			[]string{"workflow", "stage"},
		),
		TaskErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_task_errors_total",
				Help: "Task bodies that failed, panicked or timed out",
			},
			[]string{"workflow", "task"},
		),
	}
	reg.MustRegister(m.Actions, m.TaskSeconds, m.StageEntry, m.TaskErrors)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOutcome: func(_ context.Context, e *domain.OutcomeEvent) {
			m.Actions.WithLabelValues(e.Workflow, string(e.Action), string(e.Status)).Inc()
		},
		OnTaskExecuted: func(_ context.Context, e *domain.TaskEvent) {
			m.TaskSeconds.WithLabelValues(e.Workflow, e.Task).Observe(e.Duration.Seconds())
			if e.IsError {
				m.TaskErrors.WithLabelValues(e.Workflow, e.Task).Inc()
			}
		},
		OnStageEntered: func(_ context.Context, e *domain.StageEvent) {
			m.StageEntry.WithLabelValues(e.Workflow, e.To).Inc()
		},
	}
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

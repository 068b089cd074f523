// Package metrics bundles the prometheus collectors for the espalier
// server. Collectors live on their own registry so embedders and tests
// never fight over the global one.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/espalier/pkg/domain"
)

// Metrics owns the registry and the edit counters.
type Metrics struct {
	registry *prometheus.Registry

	edits     *prometheus.CounterVec
	denials   *prometheus.CounterVec
	histories *prometheus.CounterVec
}

// New creates the espalier collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		edits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_edits_total",
				Help: "Total number of applied edits",
			},
			[]string{"kind", "node_kind"},
		),
		denials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_edits_denied_total",
				Help: "Total number of edits rejected by the placement rules",
			},
			[]string{"kind"},
		),
		histories: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_history_steps_total",
				Help: "Total number of undo and redo steps",
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(m.edits, m.denials, m.histories)
	return m
}

// Registerer exposes the registry for additional collectors, such as the
// store middleware.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns editor hooks recording every applied, denied and history
// edit.
func (m *Metrics) Hooks() domain.EditHooks {
	return domain.EditHooks{
		OnEdit: func(_ context.Context, e *domain.EditEvent) {
			m.edits.WithLabelValues(string(e.Kind), string(e.NodeKind)).Inc()
		},
		OnDenied: func(_ context.Context, e *domain.EditEvent) {
			m.denials.WithLabelValues(string(e.Kind)).Inc()
		},
		OnHistory: func(_ context.Context, e *domain.EditEvent) {
			m.histories.WithLabelValues(string(e.Kind)).Inc()
		},
	}
}

// TrackOpenEditors samples fn at scrape time, typically wired to the
// session manager's OpenCount.
func (m *Metrics) TrackOpenEditors(fn func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "espalier_open_editors",
			Help: "Editors currently cached by the session manager",
		},
		func() float64 { return float64(fn()) },
	))
}

package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

type metricsMiddleware struct {
	next     ports.DocumentStore
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsMiddleware creates a middleware that records operation counts
// and latencies for every store call. Collectors register on reg, or on the
// default registry when reg is nil.
func NewMetricsMiddleware(reg prometheus.Registerer) Middleware {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "espalier_store_operations_total",
			Help: "Total number of document store operations",
		},
		[]string{"op", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "espalier_store_operation_duration_seconds",
			Help: "Duration of document store operations",
		},
		[]string{"op"},
	)
	reg.MustRegister(ops, duration)
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &metricsMiddleware{next: next, ops: ops, duration: duration}
	}
}

func (m *metricsMiddleware) Save(ctx context.Context, id string, doc domain.Document) error {
	start := time.Now()
	err := m.next.Save(ctx, id, doc)
	m.observe("save", start, err)
	return err
}

func (m *metricsMiddleware) Load(ctx context.Context, id string) (domain.Document, error) {
	start := time.Now()
	doc, err := m.next.Load(ctx, id)
	m.observe("load", start, err)
	return doc, err
}

func (m *metricsMiddleware) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := m.next.Delete(ctx, id)
	m.observe("delete", start, err)
	return err
}

func (m *metricsMiddleware) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	start := time.Now()
	infos, err := m.next.List(ctx)
	m.observe("list", start, err)
	return infos, err
}

func (m *metricsMiddleware) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ops.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

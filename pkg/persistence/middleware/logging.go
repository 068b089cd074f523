package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.DocumentStore
	logger *slog.Logger
}

// NewLoggingMiddleware creates a middleware that logs every store operation
// with its duration and outcome. Successful operations log at Debug,
// failures at Error.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) Save(ctx context.Context, id string, doc domain.Document) error {
	start := time.Now()
	err := m.next.Save(ctx, id, doc)
	m.observe("save", start, err, "id", id, "nodes", doc.Root.Count())
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, id string) (domain.Document, error) {
	start := time.Now()
	doc, err := m.next.Load(ctx, id)
	m.observe("load", start, err, "id", id)
	return doc, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := m.next.Delete(ctx, id)
	m.observe("delete", start, err, "id", id)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	start := time.Now()
	infos, err := m.next.List(ctx)
	m.observe("list", start, err, "documents", len(infos))
	return infos, err
}

func (m *loggingMiddleware) observe(op string, start time.Time, err error, args ...any) {
	args = append(args, "duration", time.Since(start))
	if err != nil {
		m.logger.Error("store "+op+" failed", append(args, "error", err)...)
		return
	}
	m.logger.Debug("store "+op, args...)
}

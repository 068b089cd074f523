package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/espalier/pkg/persistence/middleware"
)

func TestLoggingMiddleware_RecordsOperations(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := middleware.NewLoggingMiddleware(logger)(NewMockStore())

	ctx := context.Background()
	doc := documentWithText(t, "Logged", "hello")

	if err := store.Save(ctx, "logged", doc); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, "logged"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.List(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "logged"); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{`"store save"`, `"store load"`, `"store list"`, `"store delete"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
	if !strings.Contains(out, `"id":"logged"`) {
		t.Errorf("log output missing document id:\n%s", out)
	}
	if !strings.Contains(out, `"nodes":3`) {
		t.Errorf("log output missing node count for save:\n%s", out)
	}
}

func TestLoggingMiddleware_RecordsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := middleware.NewLoggingMiddleware(logger)(NewMockStore())

	if _, err := store.Load(context.Background(), "missing"); err == nil {
		t.Fatal("expected load of a missing document to fail")
	}

	out := buf.String()
	if !strings.Contains(out, `"store load failed"`) {
		t.Errorf("log output missing failure line:\n%s", out)
	}
	if !strings.Contains(out, `"level":"ERROR"`) {
		t.Errorf("failure should log at error level:\n%s", out)
	}
	if !strings.Contains(out, "document not found") {
		t.Errorf("log output missing error detail:\n%s", out)
	}
}

package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/editor"
)

func TestHooksCountEdits(t *testing.T) {
	m := New()
	ctx := context.Background()

	ed := editor.New(domain.NewDocument("Metered"), editor.WithHooks(m.Hooks()))
	page := ed.Document().Root.Children[0]

	if _, err := ed.Insert(ctx, page.ID, domain.Blank(domain.KindHeading)); err != nil {
		t.Fatal(err)
	}
	if _, err := ed.Insert(ctx, page.ID, domain.Blank(domain.KindOption)); err == nil {
		t.Fatal("option on a page should be denied")
	}
	if _, ok := ed.Undo(ctx); !ok {
		t.Fatal("undo should apply")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`espalier_edits_total{kind="insert",node_kind="heading"} 1`,
		`espalier_edits_denied_total{kind="insert"} 1`,
		`espalier_history_steps_total{kind="undo"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestTrackOpenEditors(t *testing.T) {
	m := New()
	m.TrackOpenEditors(func() int { return 3 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "espalier_open_editors 3") {
		t.Errorf("gauge missing:\n%s", rec.Body.String())
	}
}

package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/editor"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
)

func TestRedactionMiddleware_MasksContentOnSave(t *testing.T) {
	underlying := NewMockStore()
	mw := middleware.NewRedactionMiddleware([]string{`\b555-\d{4}\b`})
	store := mw(underlying)

	ctx := context.Background()
	ed := editor.New(domain.NewDocument("Contacts"))
	page := ed.Document().Root.Children[0]

	para, err := ed.Insert(ctx, page.ID, domain.Blank(domain.KindParagraph))
	if err != nil {
		t.Fatal(err)
	}
	if err := ed.SetText(ctx, para.ID, "call 555-0100 before launch"); err != nil {
		t.Fatal(err)
	}

	field := domain.Blank(domain.KindTextField)
	field.Control = &domain.ControlPayload{Placeholder: "phone", Value: "555-0199"}
	if _, err := ed.Insert(ctx, page.ID, field); err != nil {
		t.Fatal(err)
	}

	original := ed.Document()
	if err := store.Save(ctx, "contacts", original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The backing store holds masked content.
	stored, err := underlying.Load(ctx, "contacts")
	if err != nil {
		t.Fatal(err)
	}
	if !containsText(stored, "call *** before launch") {
		t.Errorf("stored text not masked, contents: %v", textContents(stored))
	}
	var storedValue string
	stored.Root.Walk(func(n domain.Node) bool {
		if n.Control != nil && n.Control.Value != "" {
			storedValue = n.Control.Value
		}
		return true
	})
	if storedValue != "***" {
		t.Errorf("stored control value = %q, want %q", storedValue, "***")
	}

	// The in-memory document the editor holds is untouched.
	if !containsText(original, "call 555-0100 before launch") {
		t.Error("redaction mutated the document passed to Save")
	}

	// Loads hand back the stored, masked content.
	loaded, err := store.Load(ctx, "contacts")
	if err != nil {
		t.Fatal(err)
	}
	if containsText(loaded, "call 555-0100 before launch") {
		t.Error("expected the plain text to be gone after a save and load cycle")
	}
}

func TestRedactionMiddleware_LeavesUnmatchedContentAlone(t *testing.T) {
	underlying := NewMockStore()
	store := middleware.NewRedactionMiddleware([]string{`secret`})(underlying)

	ctx := context.Background()
	doc := documentWithText(t, "Plain", "nothing to hide here")
	if err := store.Save(ctx, "plain", doc); err != nil {
		t.Fatal(err)
	}

	stored, err := underlying.Load(ctx, "plain")
	if err != nil {
		t.Fatal(err)
	}
	if !containsText(stored, "nothing to hide here") {
		t.Errorf("unmatched content changed, contents: %v", textContents(stored))
	}
}

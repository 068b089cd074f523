package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

type redactionMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks text matching the
// patterns before a document reaches the backing store. It covers the
// places authors type free text: text payloads and form control values.
// Redaction is one way; loads hand back the stored, masked content.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, id string, doc domain.Document) error {
	// Nodes share payload pointers across history snapshots, so redaction
	// rebuilds the affected nodes instead of writing through the pointers.
	// The in-memory document the editor holds stays untouched.
	doc.Root = redactNode(doc.Root, m.patterns)
	return m.next.Save(ctx, id, doc)
}

func (m *redactionMiddleware) Load(ctx context.Context, id string) (domain.Document, error) {
	return m.next.Load(ctx, id)
}

func (m *redactionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	return m.next.List(ctx)
}

func redactNode(n domain.Node, patterns []*regexp.Regexp) domain.Node {
	if n.Text != nil {
		text := *n.Text
		text.Content = mask(text.Content, patterns)
		n.Text = &text
	}
	if n.Control != nil && n.Control.Value != "" {
		control := *n.Control
		control.Value = mask(control.Value, patterns)
		n.Control = &control
	}
	if len(n.Children) > 0 {
		children := make([]domain.Node, len(n.Children))
		for i, child := range n.Children {
			children[i] = redactNode(child, patterns)
		}
		n.Children = children
	}
	return n
}

func mask(s string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		s = p.ReplaceAllString(s, "***")
	}
	return s
}

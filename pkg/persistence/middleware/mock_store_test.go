package middleware_test

import (
	"context"
	"sort"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/editor"
	"github.com/aretw0/espalier/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]domain.Document
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.Document),
	}
}

func (s *MockStore) Save(ctx context.Context, id string, doc domain.Document) error {
	s.data[id] = doc
	return nil
}

func (s *MockStore) Load(ctx context.Context, id string) (domain.Document, error) {
	doc, ok := s.data[id]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *MockStore) Delete(ctx context.Context, id string) error {
	delete(s.data, id)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	infos := make([]ports.DocumentInfo, 0, len(s.data))
	for id, doc := range s.data {
		infos = append(infos, ports.DocumentInfo{
			ID:        id,
			Name:      doc.Name,
			Nodes:     doc.Root.Count(),
			UpdatedAt: doc.UpdatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

var _ ports.DocumentStore = (*MockStore)(nil)

// documentWithText builds a document whose first page holds one paragraph
// with the given content.
func documentWithText(t *testing.T, name, content string) domain.Document {
	t.Helper()
	ctx := context.Background()
	ed := editor.New(domain.NewDocument(name))
	page := ed.Document().Root.Children[0]
	para, err := ed.Insert(ctx, page.ID, domain.Blank(domain.KindParagraph))
	if err != nil {
		t.Fatalf("insert paragraph: %v", err)
	}
	if err := ed.SetText(ctx, para.ID, content); err != nil {
		t.Fatalf("set text: %v", err)
	}
	return ed.Document()
}

// textContents collects every text payload in the tree, in pre-order.
func textContents(doc domain.Document) []string {
	var out []string
	doc.Root.Walk(func(n domain.Node) bool {
		if n.Text != nil {
			out = append(out, n.Text.Content)
		}
		return true
	})
	return out
}

func containsText(doc domain.Document, content string) bool {
	for _, got := range textContents(doc) {
		if got == content {
			return true
		}
	}
	return false
}

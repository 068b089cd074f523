package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Store implements ports.DocumentStore in memory.
// Safe for concurrent use.
//
// Documents are held in their encoded form, so a Load always hands back an
// independent value with exactly the semantics of the persistent stores.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the document in memory.
func (s *Store) Save(ctx context.Context, id string, doc domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = data
	return nil
}

// Load retrieves the document from memory.
func (s *Store) Load(ctx context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()

	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return domain.DecodeDocument(data)
}

// Delete removes the document. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored documents, ordered by id.
func (s *Store) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]ports.DocumentInfo, 0, len(s.data))
	for id, data := range s.data {
		doc, err := domain.DecodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("stored document %s is corrupt: %w", id, err)
		}
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

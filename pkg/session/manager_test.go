package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/editor"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]domain.Document
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, id string, doc domain.Document) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]domain.Document)
	}
	s.data[id] = doc
	return nil
}

func (s *SlowStore) Load(ctx context.Context, id string) (domain.Document, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.data[id]; ok {
		return doc, nil
	}
	return domain.Document{}, domain.ErrDocumentNotFound
}

func (s *SlowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	return nil, nil
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	doc, err := manager.Create(ctx, id, "Race")
	require.NoError(t, err)
	pageID := doc.Root.Children[0].ID

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Each goroutine is a read-modify-write against the shared editor.
	// Without the per-document lock these would lose inserts.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := manager.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
				_, err := ed.Insert(ctx, pageID, domain.Blank(domain.KindParagraph))
				return err
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	final, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, doc.Root.Count()+concurrentWrites, final.Root.Count(),
		"every concurrent insert must land")
}

func TestManager_CreateIsExclusive(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Create(ctx, id, "First")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		if err == nil {
			created++
		}
	}
	assert.Equal(t, 1, created, "exactly one Create must win")

	// Should exist and be valid
	doc, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.KindDocument, doc.Root.Kind)
}

func TestManager_UndoSurvivesCalls(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "history-test"

	doc, err := manager.Create(ctx, id, "History")
	require.NoError(t, err)
	pageID := doc.Root.Children[0].ID
	baseCount := doc.Root.Count()

	err = manager.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		_, err := ed.Insert(ctx, pageID, domain.Blank(domain.KindHeading))
		return err
	})
	require.NoError(t, err)

	// A separate call still sees the undo stack: the manager caches editors.
	err = manager.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		require.True(t, ed.CanUndo())
		_, ok := ed.Undo(ctx)
		require.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	final, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, baseCount, final.Root.Count(), "undo must persist")

	err = manager.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		require.True(t, ed.CanRedo())
		_, ok := ed.Redo(ctx)
		require.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	final, err = manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, baseCount+1, final.Root.Count(), "redo must persist")
}

func TestManager_LoadMissing(t *testing.T) {
	manager := session.NewManager(&SlowStore{})

	_, err := manager.Load(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrDocumentNotFound))
}

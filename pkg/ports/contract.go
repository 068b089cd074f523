package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a
// DocumentStore implementation adheres to the defined interface contract.
// Adapter test files call this against their own construction.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	docID := "contract-" + uuid.NewString()

	t.Run("Save and Load", func(t *testing.T) {
		doc := domain.NewDocument("contract")
		doc.UpdatedAt = time.Now().UTC().Truncate(time.Second)
		doc.Collapsed = domain.IDSet{}.Add(doc.Root.Children[0].ID)

		err := store.Save(ctx, docID, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, doc.Name, loaded.Name)
		assert.Equal(t, doc.Schema, loaded.Schema)
		assert.Equal(t, doc.Seed, loaded.Seed)
		assert.Equal(t, doc.Root.ID, loaded.Root.ID)
		assert.Equal(t, doc.Root.Count(), loaded.Root.Count())
		assert.True(t, loaded.Collapsed.Has(doc.Root.Children[0].ID))
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		// Mutating a loaded copy must not leak into the store.
		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		loaded.Root.Name = "scribbled"

		again, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.NotEqual(t, "scribbled", again.Root.Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		doc := domain.NewDocument("first")
		require.NoError(t, store.Save(ctx, docID, doc))
		doc.Name = "second"
		require.NoError(t, store.Save(ctx, docID, doc))

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.Name)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, docID, domain.NewDocument("doomed")))

		err := store.Delete(ctx, docID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")

		assert.NoError(t, store.Delete(ctx, docID), "Delete of an absent ID is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewDocument("one")))
		require.NoError(t, store.Save(ctx, id2, domain.NewDocument("two")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		infos, err := store.List(ctx)
		require.NoError(t, err)

		byID := make(map[string]DocumentInfo, len(infos))
		for _, info := range infos {
			byID[info.ID] = info
		}
		require.Contains(t, byID, id1)
		require.Contains(t, byID, id2)
		assert.Equal(t, "one", byID[id1].Name)
		assert.Equal(t, 2, byID[id1].Nodes, "a fresh document is a root plus one page")
	})
}

package archive_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/adapters/archive"
	"github.com/aretw0/espalier/pkg/domain"
)

func openArchive(t *testing.T) *archive.Archive {
	t.Helper()
	arc, err := archive.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = arc.Close() })
	return arc
}

func TestArchive_RoundTrip(t *testing.T) {
	arc := openArchive(t)
	ctx := context.Background()

	doc := domain.NewDocument("Landing Page")
	cp, err := arc.Write(ctx, doc)
	require.NoError(t, err)
	assert.Len(t, cp.Hash, 64, "hash should be hex-encoded BLAKE3-256")
	assert.Equal(t, "Landing Page", cp.Name)
	assert.Equal(t, 2, cp.Nodes)
	assert.Greater(t, cp.Size, int64(0))

	loaded, err := arc.Load(ctx, cp.Hash)
	require.NoError(t, err)
	assert.Equal(t, doc.Name, loaded.Name)
	assert.Equal(t, doc.Root, loaded.Root)
	assert.Equal(t, doc.Seed, loaded.Seed)

	require.NoError(t, arc.Verify(ctx, cp.Hash))
}

func TestArchive_IdenticalRevisionsShareOneCheckpoint(t *testing.T) {
	arc := openArchive(t)
	ctx := context.Background()

	doc := domain.NewDocument("Landing Page")
	first, err := arc.Write(ctx, doc)
	require.NoError(t, err)
	second, err := arc.Write(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash)

	checkpoints, err := arc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, checkpoints, 1)
}

func TestArchive_DetectsTampering(t *testing.T) {
	dir := t.TempDir()
	arc, err := archive.New(dir)
	require.NoError(t, err)
	defer arc.Close()
	ctx := context.Background()

	cp, err := arc.Write(ctx, domain.NewDocument("Original"))
	require.NoError(t, err)

	// Overwrite the checkpoint with well-formed zstd of different content.
	// Decompression succeeds, so only the content address can catch it.
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	tampered := enc.EncodeAll([]byte(`{"name":"Forged"}`), nil)
	require.NoError(t, enc.Close())
	path := filepath.Join(dir, cp.Hash+".json.zst")
	require.NoError(t, os.WriteFile(path, tampered, 0644))

	_, err = arc.Load(ctx, cp.Hash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content verification")

	err = arc.Verify(ctx, cp.Hash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content verification")
}

func TestArchive_ListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	arc, err := archive.New(dir)
	require.NoError(t, err)
	defer arc.Close()
	ctx := context.Background()

	older, err := arc.Write(ctx, domain.NewDocument("Older"))
	require.NoError(t, err)
	newer, err := arc.Write(ctx, domain.NewDocument("Newer"))
	require.NoError(t, err)

	// Filesystem timestamps can be too coarse to separate back-to-back
	// writes, so backdate the first checkpoint explicitly.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, older.Hash+".json.zst"), past, past))

	checkpoints, err := arc.List(ctx)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, newer.Hash, checkpoints[0].Hash)
	assert.Equal(t, "Newer", checkpoints[0].Name)
	assert.Equal(t, older.Hash, checkpoints[1].Hash)
}

func TestArchive_LoadMissing(t *testing.T) {
	arc := openArchive(t)

	_, err := arc.Load(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

package archive

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
)

const extension = ".json.zst"

// Checkpoint describes one archived document revision.
type Checkpoint struct {
	Hash    string
	Name    string
	Nodes   int
	Size    int64
	SavedAt time.Time
}

// Archive keeps immutable, content-addressed document checkpoints on disk.
// Each revision is stored zstd-compressed under the BLAKE3 hash of its
// encoded form, so identical revisions share one file and any corruption
// is detectable on read.
type Archive struct {
	dir string
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New opens an archive rooted at dir, creating it if needed.
func New(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to init decompressor: %w", err)
	}

	return &Archive{dir: dir, enc: enc, dec: dec}, nil
}

func (a *Archive) path(hash string) string {
	return filepath.Join(a.dir, hash+extension)
}

// Write archives doc and returns its checkpoint. Writing a revision that
// is already archived is a cheap no-op returning the existing checkpoint.
func (a *Archive) Write(ctx context.Context, doc domain.Document) (Checkpoint, error) {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return Checkpoint{}, err
	}

	sum := blake3.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	dest := a.path(hash)

	if fi, err := os.Stat(dest); err == nil {
		return Checkpoint{
			Hash:    hash,
			Name:    doc.Name,
			Nodes:   doc.Root.Count(),
			Size:    fi.Size(),
			SavedAt: fi.ModTime(),
		}, nil
	}

	compressed := a.enc.EncodeAll(data, nil)

	// Atomic landing, same idiom as the file store: temp file in the same
	// directory, then rename.
	tmpFile, err := os.CreateTemp(a.dir, "tmp-*"+extension)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(compressed); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to fsync checkpoint: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to land checkpoint: %w", err)
	}

	fi, err := os.Stat(dest)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to stat checkpoint: %w", err)
	}

	return Checkpoint{
		Hash:    hash,
		Name:    doc.Name,
		Nodes:   doc.Root.Count(),
		Size:    fi.Size(),
		SavedAt: fi.ModTime(),
	}, nil
}

// read decompresses a checkpoint and verifies its content address.
func (a *Archive) read(hash string) ([]byte, error) {
	compressed, err := os.ReadFile(a.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("checkpoint %s: %w", hash, domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	data, err := a.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s is not valid zstd: %w", hash, err)
	}

	sum := blake3.Sum256(data)
	if hex.EncodeToString(sum[:]) != hash {
		return nil, fmt.Errorf("checkpoint %s failed content verification", hash)
	}
	return data, nil
}

// Load retrieves and verifies one checkpoint.
func (a *Archive) Load(ctx context.Context, hash string) (domain.Document, error) {
	data, err := a.read(hash)
	if err != nil {
		return domain.Document{}, err
	}

	doc, err := schema.Decode(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("checkpoint %s: %w", hash, err)
	}
	return doc, nil
}

// Verify checks one checkpoint's integrity without decoding it.
func (a *Archive) Verify(ctx context.Context, hash string) error {
	_, err := a.read(hash)
	return err
}

// List returns the archived checkpoints, newest first.
func (a *Archive) List(ctx context.Context) ([]Checkpoint, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}

	var checkpoints []Checkpoint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, extension) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		hash := strings.TrimSuffix(name, extension)

		fi, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
		}

		data, err := a.read(hash)
		if err != nil {
			return nil, err
		}
		doc, err := schema.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("checkpoint %s: %w", hash, err)
		}

		checkpoints = append(checkpoints, Checkpoint{
			Hash:    hash,
			Name:    doc.Name,
			Nodes:   doc.Root.Count(),
			Size:    fi.Size(),
			SavedAt: fi.ModTime(),
		})
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].SavedAt.After(checkpoints[j].SavedAt)
	})
	return checkpoints, nil
}

// Close releases the compressor resources.
func (a *Archive) Close() error {
	a.dec.Close()
	return a.enc.Close()
}

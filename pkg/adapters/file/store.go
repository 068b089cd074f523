package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/schema"
)

// Store implements ports.DocumentStore using the local filesystem.
// It stores documents as JSON files in a configured directory.
//
// Loads go through the schema migration chain, so a directory written by an
// older build keeps working.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".espalier/documents".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".espalier", "documents")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BasePath, id+".json")
}

// Save persists the document to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it
// to the destination.
func (s *Store) Save(ctx context.Context, id string, doc domain.Document) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure document directory: %w", err)
	}

	destPath := s.path(id)

	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return err
	}

	// The temp file shares the destination directory so the rename stays on
	// one filesystem (required for atomicity).
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+id+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()    // Ensure closed
		_ = os.Remove(tmpPath) // Remove if still exists (not renamed)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Close before rename (cannot rename an open file on Windows).
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists, so remove it first. The
	// brief delete window beats leaving a partially written file around.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing document file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}

// Load retrieves and, if necessary, migrates the document from disk.
func (s *Store) Load(ctx context.Context, id string) (domain.Document, error) {
	if id == "" {
		return domain.Document{}, fmt.Errorf("document id cannot be empty")
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return domain.Document{}, fmt.Errorf("failed to read document file: %w", err)
	}

	doc, err := schema.Decode(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	return doc, nil
}

// Delete removes the document file. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}

	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document file: %w", err)
	}
	return nil
}

// List returns the stored documents, ordered by filename.
func (s *Store) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []ports.DocumentInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var infos []ports.DocumentInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")

		doc, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		infos = append(infos, ports.DocumentInfo{
			ID:        id,
			Name:      doc.Name,
			Nodes:     doc.Root.Count(),
			UpdatedAt: doc.UpdatedAt,
		})
	}

	return infos, nil
}

// Watch implements ports.Watchable. It emits the id of every document
// whose file lands or changes under the base path until ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure document directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start document watcher: %w", err)
	}
	if err := watcher.Add(s.BasePath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch document directory: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Atomic saves surface as the rename landing on the
				// destination; temp files are noise.
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
					continue
				}
				name := filepath.Base(event.Name)
				if filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
					continue
				}
				select {
				case ch <- strings.TrimSuffix(name, ".json"):
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return ch, nil
}

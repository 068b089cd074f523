package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/schema"
)

// Store implements ports.DocumentStore on a local SQLite database.
//
// Besides the live documents, the store can keep a bounded trail of save
// snapshots per document (see WithKeepSnapshots), which covers recovery
// from a bad save without a separate backup job.
type Store struct {
	db            *sql.DB
	keepSnapshots int
}

// Option configures a Store.
type Option func(*Store)

// WithKeepSnapshots retains the last n save snapshots per document.
// Zero (the default) disables snapshotting.
func WithKeepSnapshots(n int) Option {
	return func(s *Store) { s.keepSnapshots = n }
}

// New opens (creating if necessary) the database at path.
func New(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection
	// serializes access instead of surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewInMemory opens a private in-memory database, handy for tests.
func NewInMemory(opts ...Option) (*Store, error) {
	return New(":memory:", opts...)
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	nodes      INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL,
	body       BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	doc_id   TEXT NOT NULL,
	seq      INTEGER NOT NULL,
	saved_at TEXT NOT NULL,
	body     BLOB NOT NULL,
	PRIMARY KEY (doc_id, seq)
);
`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Save upserts the document, appending a snapshot when snapshotting is on.
func (s *Store) Save(ctx context.Context, id string, doc domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO documents (id, name, nodes, updated_at, body)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	nodes = excluded.nodes,
	updated_at = excluded.updated_at,
	body = excluded.body
`
	updatedAt := doc.UpdatedAt.UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, upsert, id, doc.Name, doc.Root.Count(), updatedAt, data); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	if s.keepSnapshots > 0 {
		const insertSnap = `
INSERT INTO snapshots (doc_id, seq, saved_at, body)
VALUES (?, COALESCE((SELECT MAX(seq) FROM snapshots WHERE doc_id = ?), 0) + 1, ?, ?)
`
		savedAt := time.Now().UTC().Format(time.RFC3339Nano)
		if _, err := tx.ExecContext(ctx, insertSnap, id, id, savedAt, data); err != nil {
			return fmt.Errorf("failed to snapshot document: %w", err)
		}

		const prune = `
DELETE FROM snapshots
WHERE doc_id = ? AND seq <= (SELECT MAX(seq) FROM snapshots WHERE doc_id = ?) - ?
`
		if _, err := tx.ExecContext(ctx, prune, id, id, s.keepSnapshots); err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

// Load retrieves the document.
func (s *Store) Load(ctx context.Context, id string) (domain.Document, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to load document: %w", err)
	}

	doc, err := schema.Decode(body)
	if err != nil {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	return doc, nil
}

// Delete removes the document and its snapshots. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE doc_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// List returns the stored documents, ordered by id.
func (s *Store) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, nodes, updated_at FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var infos []ports.DocumentInfo
	for rows.Next() {
		var (
			info      ports.DocumentInfo
			updatedAt string
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.Nodes, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		info.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("document %s has a bad timestamp: %w", info.ID, err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return infos, nil
}

// Snapshot is one retained save of a document.
type Snapshot struct {
	Seq     int
	SavedAt time.Time
}

// Snapshots lists the retained saves for a document, oldest first.
func (s *Store) Snapshots(ctx context.Context, id string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, saved_at FROM snapshots WHERE doc_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			savedAt string
		)
		if err := rows.Scan(&snap.Seq, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d has a bad timestamp: %w", snap.Seq, err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}

// LoadSnapshot retrieves one retained save.
func (s *Store) LoadSnapshot(ctx context.Context, id string, seq int) (domain.Document, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM snapshots WHERE doc_id = ? AND seq = ?`, id, seq).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	doc, err := schema.Decode(body)
	if err != nil {
		return domain.Document{}, fmt.Errorf("snapshot %s/%d: %w", id, seq, err)
	}
	return doc, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/editor"
	"github.com/aretw0/espalier/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu     sync.Mutex
	refs   int
	unlock ports.UnlockFunc // releases the distributed lock (if any)
}

// openDoc is one cached editor. The cache is what makes undo work across
// requests: the store only persists the present snapshot, the editor holds
// the past and future.
type openDoc struct {
	editor   *editor.Editor
	lastUsed time.Time
}

// Manager orchestrates document access, ensuring safe concurrent
// operations. It uses reference counting to garbage collect unused locks
// and keeps an editor cache so history survives between calls.
type Manager struct {
	store ports.DocumentStore

	mu    sync.Mutex            // global lock for both maps
	locks map[string]*lockEntry // active per-document locks
	open  map[string]*openDoc   // cached editors

	locker     ports.DistributedLocker // optional distributed locker
	logger     *slog.Logger
	editorOpts []editor.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithEditorOptions forwards options (hooks, history limit, clock) to every
// editor the manager opens.
func WithEditorOptions(opts ...editor.Option) Option {
	return func(m *Manager) { m.editorOpts = append(m.editorOpts, opts...) }
}

// NewManager creates a new document session manager over the given store.
func NewManager(store ports.DocumentStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		open:   make(map[string]*openDoc),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after
// unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it
// reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return // should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock executes a function while holding the lock for the document.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, 30*time.Second)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"document_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// editorFor returns the cached editor, loading the document on a cache
// miss. Caller must hold the document lock.
func (m *Manager) editorFor(ctx context.Context, id string) (*editor.Editor, error) {
	m.mu.Lock()
	entry, ok := m.open[id]
	if ok {
		entry.lastUsed = time.Now()
	}
	m.mu.Unlock()
	if ok {
		return entry.editor, nil
	}

	doc, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	opts := append([]editor.Option{editor.WithDocumentID(id), editor.WithLogger(m.logger)}, m.editorOpts...)
	ed := editor.New(doc, opts...)

	m.mu.Lock()
	m.open[id] = &openDoc{editor: ed, lastUsed: time.Now()}
	m.mu.Unlock()
	return ed, nil
}

// Create initializes a new well-formed document, persists it immediately to
// reserve the ID, and caches its editor.
func (m *Manager) Create(ctx context.Context, id, name string) (domain.Document, error) {
	var doc domain.Document
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		if _, err := m.store.Load(ctx, id); err == nil {
			return fmt.Errorf("document %s already exists", id)
		} else if !errors.Is(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("failed to check document existence: %w", err)
		}

		doc = domain.NewDocument(name)
		if err := m.store.Save(ctx, id, doc); err != nil {
			return fmt.Errorf("failed to initialize document: %w", err)
		}

		opts := append([]editor.Option{editor.WithDocumentID(id), editor.WithLogger(m.logger)}, m.editorOpts...)
		m.mu.Lock()
		m.open[id] = &openDoc{editor: editor.New(doc, opts...), lastUsed: time.Now()}
		m.mu.Unlock()
		return nil
	})
	return doc, err
}

// Edit runs fn against the document's editor under the lock and persists
// the resulting present snapshot. One call may apply several edits; each is
// its own undo step. When fn fails the snapshot is not saved, but edits fn
// already applied stay in the cached editor and persist on the next
// successful call.
func (m *Manager) Edit(ctx context.Context, id string, fn func(context.Context, *editor.Editor) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		ed, err := m.editorFor(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, ed); err != nil {
			return err
		}
		return m.store.Save(ctx, id, ed.Document())
	})
}

// View runs fn against the document's editor under the lock without
// saving afterwards.
func (m *Manager) View(ctx context.Context, id string, fn func(context.Context, *editor.Editor) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		ed, err := m.editorFor(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, ed)
	})
}

// Load retrieves the present document, from the cache when the document is
// open and from the store otherwise.
func (m *Manager) Load(ctx context.Context, id string) (domain.Document, error) {
	var doc domain.Document
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		ed, err := m.editorFor(ctx, id)
		if err != nil {
			return err
		}
		doc = ed.Document()
		return nil
	})
	return doc, err
}

// Delete removes the document from the store and drops its cached editor
// and history.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		delete(m.open, id)
		m.mu.Unlock()
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	return m.store.List(ctx)
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.store
}

// OpenCount reports how many editors are cached.
func (m *Manager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// EvictIdle drops cached editors untouched for at least idle and returns
// how many were evicted. Evicted documents lose their in-memory undo
// history; the present snapshot is already persisted by Edit. The serve
// command runs this on a schedule.
func (m *Manager) EvictIdle(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, entry := range m.open {
		if entry.lastUsed.Before(cutoff) {
			delete(m.open, id)
			evicted++
		}
	}
	if evicted > 0 {
		m.logger.Debug("evicted idle editors", "count", evicted)
	}
	return evicted
}

package espalier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/catalog"
	"github.com/aretw0/espalier/pkg/codegen"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/editor"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/render"
	"github.com/aretw0/espalier/pkg/session"
)

// Workspace is the high-level entry point for the espalier library.
// It wraps a session manager over a document store and provides a
// simplified API for consumers.
type Workspace struct {
	sessions     *session.Manager
	store        ports.DocumentStore
	catalog      *catalog.Catalog
	locker       ports.DistributedLocker
	hooks        domain.EditHooks
	hooksSet     bool
	historyLimit int
	logger       *slog.Logger
	Name         string
}

// Option defines a functional option for configuring the Workspace.
type Option func(*Workspace)

// WithStore injects a custom DocumentStore, bypassing the default
// filesystem store.
func WithStore(s ports.DocumentStore) Option {
	return func(w *Workspace) {
		w.store = s
	}
}

// WithCatalog sets the template catalog placements draw from.
func WithCatalog(c *catalog.Catalog) Option {
	return func(w *Workspace) {
		w.catalog = c
	}
}

// WithLocker adds distributed locking for multi-process setups.
func WithLocker(l ports.DistributedLocker) Option {
	return func(w *Workspace) {
		w.locker = l
	}
}

// WithEditHooks registers observability hooks fired on every edit.
func WithEditHooks(h domain.EditHooks) Option {
	return func(w *Workspace) {
		w.hooks = h
		w.hooksSet = true
	}
}

// WithHistoryLimit caps how many undo steps each open document keeps.
func WithHistoryLimit(n int) Option {
	return func(w *Workspace) {
		w.historyLimit = n
	}
}

// WithLogger sets a custom structured logger for the workspace.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// New initializes a new Workspace.
// By default, it persists documents under the given path.
// If WithStore option is provided, path can be empty and the filesystem is
// skipped.
func New(path string, opts ...Option) (*Workspace, error) {
	ws := &Workspace{}

	// Apply Options first to check if a store is provided
	for _, opt := range opts {
		opt(ws)
	}

	// If no store was injected, persist to the filesystem
	if ws.store == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no custom store is provided")
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}

		ws.Name = filepath.Base(absPath)
		ws.store = &file.Store{BasePath: absPath}
	} else if path != "" {
		// With a custom store, path serves as a descriptive label.
		ws.Name = filepath.Base(path)
	}

	// Ensure logger is initialized (so we don't pass nil down, which would
	// overwrite the manager's default)
	if ws.logger == nil {
		ws.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Enrich logger with the workspace name if available
	if ws.Name != "" {
		ws.logger = ws.logger.With("workspace", ws.Name)
	}

	if ws.catalog == nil {
		ws.catalog = catalog.Builtins(catalog.WithLogger(ws.logger))
	}

	var editorOpts []editor.Option
	if ws.hooksSet {
		editorOpts = append(editorOpts, editor.WithHooks(ws.hooks))
	}
	if ws.historyLimit > 0 {
		editorOpts = append(editorOpts, editor.WithHistoryLimit(ws.historyLimit))
	}

	managerOpts := []session.Option{session.WithLogger(ws.logger)}
	if ws.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(ws.locker))
	}
	if len(editorOpts) > 0 {
		managerOpts = append(managerOpts, session.WithEditorOptions(editorOpts...))
	}

	ws.sessions = session.NewManager(ws.store, managerOpts...)

	return ws, nil
}

// Create makes a new document with a root and one starter page, and
// persists it.
func (w *Workspace) Create(ctx context.Context, id, name string) (domain.Document, error) {
	return w.sessions.Create(ctx, id, name)
}

// Load retrieves the current revision of a document.
func (w *Workspace) Load(ctx context.Context, id string) (domain.Document, error) {
	return w.sessions.Load(ctx, id)
}

// Edit runs fn against the document's editor under the document lock and
// persists the result. Undo history accumulates across Edit calls for as
// long as the document stays open.
func (w *Workspace) Edit(ctx context.Context, id string, fn func(context.Context, *editor.Editor) error) error {
	return w.sessions.Edit(ctx, id, fn)
}

// View runs fn against the document's editor without persisting anything
// afterwards. fn must not mutate.
func (w *Workspace) View(ctx context.Context, id string, fn func(context.Context, *editor.Editor) error) error {
	return w.sessions.View(ctx, id, fn)
}

// Delete removes a document from the store and drops its editing session.
func (w *Workspace) Delete(ctx context.Context, id string) error {
	return w.sessions.Delete(ctx, id)
}

// List returns a summary row per stored document.
func (w *Workspace) List(ctx context.Context) ([]ports.DocumentInfo, error) {
	return w.sessions.List(ctx)
}

// Place instantiates a named template from the catalog and inserts it
// relative to the node at `at`, following the combined-insert rule.
func (w *Workspace) Place(ctx context.Context, id, templateName string, at domain.NodeID) (domain.Node, error) {
	tpl, err := w.catalog.Get(ctx, templateName)
	if err != nil {
		return domain.Node{}, err
	}

	var placed domain.Node
	err = w.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		placed, err = ed.Insert(ctx, at, tpl.Node)
		return err
	})
	return placed, err
}

// Generate renders a document in the given format: html, markdown or
// mermaid.
func (w *Workspace) Generate(ctx context.Context, id, format string) (string, error) {
	doc, err := w.sessions.Load(ctx, id)
	if err != nil {
		return "", err
	}
	switch format {
	case "html":
		return codegen.HTML(doc, render.DefaultTheme()), nil
	case "markdown", "md":
		return codegen.Markdown(doc), nil
	case "mermaid":
		return codegen.Mermaid(doc, &codegen.MermaidOverlay{Collapsed: doc.Collapsed}), nil
	default:
		return "", fmt.Errorf("unknown format %q (want html, markdown or mermaid)", format)
	}
}

// Watch returns a channel that signals the id of each document changed
// behind the workspace's back.
// Returns an error if the store does not support watching.
func (w *Workspace) Watch(ctx context.Context) (<-chan string, error) {
	if watcher, ok := w.store.(ports.Watchable); ok {
		return watcher.Watch(ctx)
	}
	return nil, fmt.Errorf("current store does not support watching")
}

// Sessions returns the underlying session manager, for adapters that need
// direct access to open editors.
func (w *Workspace) Sessions() *session.Manager {
	return w.sessions
}

// Store returns the underlying DocumentStore used by the workspace.
func (w *Workspace) Store() ports.DocumentStore {
	return w.store
}

// Catalog returns the template catalog placements draw from.
func (w *Workspace) Catalog() *catalog.Catalog {
	return w.catalog
}

package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/history"
)

// ErrRootEdit is returned when an operation would remove, move or duplicate
// the tree root.
var ErrRootEdit = errors.New("the root cannot be removed, moved or duplicated")

// Editor owns one open document: the history stack, the id seed threading
// and the placement gates. Every completed operation pushes exactly one
// snapshot; rejected operations push nothing.
//
// An Editor is not safe for concurrent use. The session manager hands each
// caller exclusive access to a document's editor.
type Editor struct {
	docID   string
	history *history.History
	hooks   domain.EditHooks
	logger  *slog.Logger
	clock   func() time.Time

	historyLimit int
}

// Option configures an Editor.
type Option func(*Editor)

// WithHooks installs observability callbacks.
func WithHooks(h domain.EditHooks) Option {
	return func(e *Editor) { e.hooks = h }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithHistoryLimit caps retained undo depth. Zero keeps everything.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.historyLimit = n }
}

// WithClock overrides the timestamp source. Tests pin it.
func WithClock(fn func() time.Time) Option {
	return func(e *Editor) {
		if fn != nil {
			e.clock = fn
		}
	}
}

// WithDocumentID tags emitted events with the store-level document id.
func WithDocumentID(id string) Option {
	return func(e *Editor) { e.docID = id }
}

// New opens an editor over doc.
func New(doc domain.Document, opts ...Option) *Editor {
	e := &Editor{
		logger: logging.NewNop(),
		clock:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.history = history.New(doc, history.WithLimit(e.historyLimit))
	return e
}

// Document returns the present snapshot.
func (e *Editor) Document() domain.Document {
	return e.history.Present()
}

// Cursor returns a cursor at the present tree's root.
func (e *Editor) Cursor() domain.Cursor {
	return e.Document().Cursor()
}

// Find returns a cursor focused on the node with the given id.
func (e *Editor) Find(id domain.NodeID) (domain.Cursor, bool) {
	return e.Cursor().FindByID(id)
}

// CanUndo reports whether Undo would change the present.
func (e *Editor) CanUndo() bool { return e.history.HasPast() }

// CanRedo reports whether Redo would change the present.
func (e *Editor) CanRedo() bool { return e.history.HasFuture() }

// commit stamps and pushes one completed edit, then fires hooks.
func (e *Editor) commit(ctx context.Context, next domain.Document, event *domain.EditEvent) {
	next.UpdatedAt = e.clock()
	e.history.Push(next)

	event.Timestamp = next.UpdatedAt
	event.Document = e.docID
	e.logger.DebugContext(ctx, "edit applied",
		"kind", event.Kind, "node", event.NodeID, "node_kind", event.NodeKind)
	if e.hooks.OnEdit != nil {
		e.hooks.OnEdit(ctx, event)
	}
}

// deny fires the denial hook and wraps domain.ErrPlacementDenied.
func (e *Editor) deny(ctx context.Context, event *domain.EditEvent, reason string) error {
	event.Timestamp = e.clock()
	event.Document = e.docID
	event.Denied = true
	event.Reason = reason
	e.logger.DebugContext(ctx, "edit denied", "kind", event.Kind, "reason", reason)
	if e.hooks.OnDenied != nil {
		e.hooks.OnDenied(ctx, event)
	}
	return fmt.Errorf("%s: %w", reason, domain.ErrPlacementDenied)
}

// Insert stamps fresh ids onto sub (which usually carries placeholder ids
// from a template) and places it relative to the node at `at`, following
// the combined-insert rule: containers receive it as their last child,
// anything else puts it after the focused node's parent, with the root as
// the documented fallback anchor. Returns the node as placed.
func (e *Editor) Insert(ctx context.Context, at domain.NodeID, sub domain.Node) (domain.Node, error) {
	event := &domain.EditEvent{Kind: domain.EditInsert, NodeKind: sub.Kind}

	doc := e.Document()
	cur, ok := doc.Cursor().FindByID(at)
	if !ok {
		return domain.Node{}, fmt.Errorf("insert at %s: %w", at, domain.ErrNodeNotFound)
	}

	if reason, ok := insertAllowed(cur, sub.Kind); !ok {
		return domain.Node{}, e.deny(ctx, event, reason)
	}

	stamped, seed := domain.CloneTree(sub, doc.Seed)
	placed := domain.Insert(cur, stamped)

	next := doc.WithRoot(placed.Root())
	next.Seed = seed

	event.NodeID = stamped.ID
	e.commit(ctx, next, event)
	return stamped, nil
}

// insertAllowed applies the placement tables to the combined-insert rule:
// the containment row when the focus is a container, the sibling row
// against the focused node's parent otherwise, and the root containment row
// when the fallback anchor applies.
func insertAllowed(at domain.Cursor, candidate domain.Kind) (string, bool) {
	focus := at.Node().Kind
	if focus.IsContainer() {
		if !domain.CanContain(focus, candidate) {
			return fmt.Sprintf("%s may not contain %s", focus, candidate), false
		}
		return "", true
	}
	parent, ok := at.Up()
	if !ok {
		if !domain.CanContain(focus, candidate) {
			return fmt.Sprintf("%s may not receive %s", focus, candidate), false
		}
		return "", true
	}
	if parent.IsRoot() {
		root := parent.Node().Kind
		if !domain.CanContain(root, candidate) {
			return fmt.Sprintf("%s may not contain %s", root, candidate), false
		}
		return "", true
	}
	if !domain.CanNeighbor(parent.Node().Kind, candidate) {
		return fmt.Sprintf("%s may not sit beside %s", candidate, parent.Node().Kind), false
	}
	grand, _ := parent.Up()
	if !domain.CanContain(grand.Node().Kind, candidate) {
		return fmt.Sprintf("%s may not contain %s", grand.Node().Kind, candidate), false
	}
	return "", true
}

// Remove detaches the subtree rooted at id. Removing the root is illegal.
func (e *Editor) Remove(ctx context.Context, id domain.NodeID) error {
	doc := e.Document()
	cur, ok := doc.Cursor().FindByID(id)
	if !ok {
		return fmt.Errorf("remove %s: %w", id, domain.ErrNodeNotFound)
	}
	if cur.IsRoot() {
		return fmt.Errorf("remove %s: %w", id, ErrRootEdit)
	}

	removedKind := cur.Node().Kind
	detachedIDs := cur.Node().IDs()
	parent, _ := cur.Remove()

	next := doc.WithRoot(parent.Root())
	// Detached subtrees take their collapse marks with them.
	for _, gone := range detachedIDs {
		next.Collapsed = next.Collapsed.Remove(gone)
	}

	e.commit(ctx, next, &domain.EditEvent{Kind: domain.EditRemove, NodeID: id, NodeKind: removedKind})
	return nil
}

// Duplicate clones the subtree rooted at id, stamping a brand-new id on
// every node, and places the clone immediately after the original.
func (e *Editor) Duplicate(ctx context.Context, id domain.NodeID) (domain.Node, error) {
	doc := e.Document()
	cur, ok := doc.Cursor().FindByID(id)
	if !ok {
		return domain.Node{}, fmt.Errorf("duplicate %s: %w", id, domain.ErrNodeNotFound)
	}
	if cur.IsRoot() {
		return domain.Node{}, fmt.Errorf("duplicate %s: %w", id, ErrRootEdit)
	}

	clone, seed := domain.CloneTree(cur.Node(), doc.Seed)
	placed, ok := cur.InsertAfter(clone)
	if !ok {
		return domain.Node{}, fmt.Errorf("duplicate %s: %w", id, ErrRootEdit)
	}

	next := doc.WithRoot(placed.Root())
	next.Seed = seed

	e.commit(ctx, next, &domain.EditEvent{Kind: domain.EditDuplicate, NodeID: clone.ID, NodeKind: clone.Kind})
	return clone, nil
}

// Rename sets the display name of the node with the given id.
func (e *Editor) Rename(ctx context.Context, id domain.NodeID, name string) error {
	return e.replaceNode(ctx, id, domain.EditRename, func(n domain.Node) domain.Node {
		return n.WithName(name)
	})
}

// SetText replaces the text content of a Heading, Paragraph or Text node.
func (e *Editor) SetText(ctx context.Context, id domain.NodeID, content string) error {
	return e.replaceNode(ctx, id, domain.EditStyle, func(n domain.Node) domain.Node {
		if n.Text == nil {
			return n
		}
		p := *n.Text
		p.Content = content
		return n.WithText(p)
	})
}

// UpdateStyle applies a pure transform to the node's style record.
func (e *Editor) UpdateStyle(ctx context.Context, id domain.NodeID, fn func(domain.Style) domain.Style) error {
	return e.replaceNode(ctx, id, domain.EditStyle, func(n domain.Node) domain.Node {
		return n.WithStyle(fn(n.Style))
	})
}

// SetLocalFontFamily pins the font family on the node itself.
func (e *Editor) SetLocalFontFamily(ctx context.Context, id domain.NodeID, family string) error {
	return e.UpdateStyle(ctx, id, func(s domain.Style) domain.Style {
		s.Font.Family = domain.Local(family)
		return s
	})
}

// SetLocalFontColor pins the font color on the node itself.
func (e *Editor) SetLocalFontColor(ctx context.Context, id domain.NodeID, color domain.Color) error {
	return e.UpdateStyle(ctx, id, func(s domain.Style) domain.Style {
		s.Font.Color = domain.Local(color)
		return s
	})
}

// SetLocalFontSize pins the font size on the node itself.
func (e *Editor) SetLocalFontSize(ctx context.Context, id domain.NodeID, size int) error {
	return e.UpdateStyle(ctx, id, func(s domain.Style) domain.Style {
		s.Font.Size = domain.Local(domain.ClampSize(size))
		return s
	})
}

// ClearLocalFont reverts all three font attributes to inheritance.
func (e *Editor) ClearLocalFont(ctx context.Context, id domain.NodeID) error {
	return e.UpdateStyle(ctx, id, func(s domain.Style) domain.Style {
		s.Font = domain.Typography{}
		return s
	})
}

// replaceNode runs one Replace-at-id edit as a single snapshot.
func (e *Editor) replaceNode(ctx context.Context, id domain.NodeID, kind domain.EditKind, fn func(domain.Node) domain.Node) error {
	doc := e.Document()
	cur, ok := doc.Cursor().FindByID(id)
	if !ok {
		return fmt.Errorf("edit %s: %w", id, domain.ErrNodeNotFound)
	}
	replaced := cur.Replace(fn)
	next := doc.WithRoot(replaced.Root())

	e.commit(ctx, next, &domain.EditEvent{Kind: kind, NodeID: id, NodeKind: replaced.Node().Kind})
	return nil
}

// SetViewport pans or zooms the camera. Camera moves ride the present
// without becoming undo steps: one user-intent edit equals one snapshot,
// and panning is not an edit.
func (e *Editor) SetViewport(ctx context.Context, vp domain.Viewport) {
	doc := e.Document()
	doc.Viewport = vp
	e.history.Amend(doc)
}

// ToggleCollapsed flips a node's outline collapse mark. Like the viewport,
// collapse state is not an undo step.
func (e *Editor) ToggleCollapsed(ctx context.Context, id domain.NodeID) bool {
	doc := e.Document()
	doc.Collapsed = doc.Collapsed.Toggle(id)
	e.history.Amend(doc)
	return doc.Collapsed.Has(id)
}

// Undo steps back one snapshot. ok is false when there is no past.
func (e *Editor) Undo(ctx context.Context) (domain.Document, bool) {
	doc, ok := e.history.Undo()
	if ok {
		e.fireHistory(ctx, domain.EditUndo)
	}
	return doc, ok
}

// Redo steps forward one snapshot. ok is false when there is no future.
func (e *Editor) Redo(ctx context.Context) (domain.Document, bool) {
	doc, ok := e.history.Redo()
	if ok {
		e.fireHistory(ctx, domain.EditRedo)
	}
	return doc, ok
}

func (e *Editor) fireHistory(ctx context.Context, kind domain.EditKind) {
	event := &domain.EditEvent{Timestamp: e.clock(), Kind: kind, Document: e.docID}
	e.logger.DebugContext(ctx, "history step", "kind", kind)
	if e.hooks.OnHistory != nil {
		e.hooks.OnHistory(ctx, event)
	}
}

// ResolveTypography resolves the effective font attributes at id against
// the given defaults.
func (e *Editor) ResolveTypography(id domain.NodeID, def domain.ResolvedTypography) (domain.ResolvedTypography, error) {
	cur, ok := e.Find(id)
	if !ok {
		return def, fmt.Errorf("resolve %s: %w", id, domain.ErrNodeNotFound)
	}
	return domain.ResolveTypography(cur, def), nil
}

// Validate checks the present document's invariants.
func (e *Editor) Validate() []domain.Violation {
	return domain.ValidateDocument(e.Document())
}

package editor

import (
	"context"
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// Position says where a dragged subtree lands relative to the target.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
	Into   Position = "into"
)

// DropTarget is one highlightable destination for a drag in progress.
type DropTarget struct {
	NodeID   domain.NodeID `json:"node_id"`
	Kind     domain.Kind   `json:"kind"`
	Position Position      `json:"position"`
}

// CanDrop reports whether the subtree at src may land at dst in the given
// position. It answers purely from the placement tables plus two structural
// rules: the root never moves, and a node never lands inside its own
// subtree.
func (e *Editor) CanDrop(src, dst domain.NodeID, pos Position) bool {
	if src == dst {
		return false
	}
	srcCur, ok := e.Find(src)
	if !ok || srcCur.IsRoot() {
		return false
	}
	if srcCur.Node().Contains(dst) {
		return false
	}
	dstCur, ok := e.Find(dst)
	if !ok {
		return false
	}

	kind := srcCur.Node().Kind
	switch pos {
	case Into:
		return domain.CanContain(dstCur.Node().Kind, kind)
	case Before, After:
		if dstCur.IsRoot() {
			return false
		}
		parent, _ := dstCur.Up()
		return domain.CanNeighbor(dstCur.Node().Kind, kind) &&
			domain.CanContain(parent.Node().Kind, kind)
	default:
		return false
	}
}

// DropTargets enumerates every legal destination for dragging src, the list
// a canvas uses to highlight drop zones. Order is the tree's pre-order.
func (e *Editor) DropTargets(src domain.NodeID) []DropTarget {
	var out []DropTarget
	e.Cursor().Node().Walk(func(n domain.Node) bool {
		for _, pos := range []Position{Before, After, Into} {
			if e.CanDrop(src, n.ID, pos) {
				out = append(out, DropTarget{NodeID: n.ID, Kind: n.Kind, Position: pos})
			}
		}
		return true
	})
	return out
}

// Drop completes a drag: it detaches src and re-inserts it at dst in one
// history snapshot. The subtree keeps its ids; a move is not a clone.
func (e *Editor) Drop(ctx context.Context, src, dst domain.NodeID, pos Position) error {
	event := &domain.EditEvent{Kind: domain.EditMove, NodeID: src}

	if !e.CanDrop(src, dst, pos) {
		return e.deny(ctx, event, fmt.Sprintf("cannot drop %s %s %s", src, pos, dst))
	}

	doc := e.Document()
	srcCur, ok := doc.Cursor().FindByID(src)
	if !ok {
		return fmt.Errorf("drop %s: %w", src, domain.ErrNodeNotFound)
	}
	event.NodeKind = srcCur.Node().Kind

	subtree := srcCur.Node()
	parent, ok := srcCur.Remove()
	if !ok {
		return fmt.Errorf("drop %s: %w", src, ErrRootEdit)
	}

	// Find the target in the detached tree. CanDrop refused dst inside
	// the dragged subtree, so it is still present.
	dstCur, ok := parent.FindByID(dst)
	if !ok {
		return fmt.Errorf("drop onto %s: %w", dst, domain.ErrNodeNotFound)
	}

	var placed domain.Cursor
	switch pos {
	case Into:
		placed = dstCur.AppendChild(subtree)
	case Before:
		placed, ok = dstCur.InsertBefore(subtree)
		if !ok {
			return fmt.Errorf("drop before %s: %w", dst, ErrRootEdit)
		}
	case After:
		placed, ok = dstCur.InsertAfter(subtree)
		if !ok {
			return fmt.Errorf("drop after %s: %w", dst, ErrRootEdit)
		}
	default:
		return fmt.Errorf("drop position %q: %w", pos, domain.ErrPlacementDenied)
	}

	e.commit(ctx, doc.WithRoot(placed.Root()), event)
	return nil
}

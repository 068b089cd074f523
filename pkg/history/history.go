package history

import "github.com/aretw0/espalier/pkg/domain"

// History is the linear undo/redo state for one open document: a past
// (oldest first), the present, and a future (nearest first). The unit of
// snapshot is the whole Document, so undo restores viewport and collapse
// state along with the tree.
//
// History itself is a mutable container owned by one editor; the Documents
// inside are immutable values and may share subtrees freely.
type History struct {
	past    []domain.Document
	present domain.Document
	future  []domain.Document
	limit   int
}

// Option configures a History.
type Option func(*History)

// WithLimit caps how many past snapshots are retained. Pushing beyond the
// cap drops the oldest entry. Zero means unlimited.
func WithLimit(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.limit = n
		}
	}
}

// New starts history at the given present with empty past and future.
func New(present domain.Document, opts ...Option) *History {
	h := &History{present: present}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Present returns the current snapshot.
func (h *History) Present() domain.Document {
	return h.present
}

// Push records one completed edit: the old present moves onto the past and
// the future is cleared. Exactly one Push per user-intent edit; partial or
// rejected edits never reach here.
func (h *History) Push(next domain.Document) {
	h.past = append(h.past, h.present)
	if h.limit > 0 && len(h.past) > h.limit {
		h.past = append([]domain.Document(nil), h.past[len(h.past)-h.limit:]...)
	}
	h.present = next
	h.future = nil
}

// Amend replaces the present without recording a snapshot. It carries
// non-undoable state (viewport pans, outline collapse) forward so the next
// Push captures it, without making camera moves their own undo steps.
func (h *History) Amend(next domain.Document) {
	h.present = next
}

// Undo steps the present back one snapshot. It reports false and changes
// nothing when there is no past.
func (h *History) Undo() (domain.Document, bool) {
	if len(h.past) == 0 {
		return h.present, false
	}
	last := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append([]domain.Document{h.present}, h.future...)
	h.present = last
	return h.present, true
}

// Redo is the mirror of Undo. It reports false and changes nothing when
// there is no future.
func (h *History) Redo() (domain.Document, bool) {
	if len(h.future) == 0 {
		return h.present, false
	}
	next := h.future[0]
	h.future = h.future[1:]
	h.past = append(h.past, h.present)
	h.present = next
	return h.present, true
}

// HasPast reports whether Undo would change the present. Pure.
func (h *History) HasPast() bool { return len(h.past) > 0 }

// HasFuture reports whether Redo would change the present. Pure.
func (h *History) HasFuture() bool { return len(h.future) > 0 }

// Depth returns how many snapshots sit on either side of the present.
func (h *History) Depth() (past, future int) {
	return len(h.past), len(h.future)
}

package history

import (
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
)

// doc builds a distinguishable snapshot.
func doc(name string) domain.Document {
	d := domain.NewDocument(name)
	return d
}

func TestUndoRedoWalk(t *testing.T) {
	a := doc("A")
	b := doc("B")

	h := New(a)
	if h.HasPast() || h.HasFuture() {
		t.Fatal("fresh history must be empty on both sides")
	}

	// Apply edit: present=B, past=[A], future=[].
	h.Push(b)
	if h.Present().Name != "B" {
		t.Errorf("present = %s, want B", h.Present().Name)
	}
	if !h.HasPast() || h.HasFuture() {
		t.Error("after push: want past, no future")
	}

	// Undo: present=A, future=[B].
	got, ok := h.Undo()
	if !ok || got.Name != "A" {
		t.Errorf("undo = %s, %v, want A", got.Name, ok)
	}
	if !h.HasFuture() {
		t.Error("undo must fill the future")
	}

	// Redo: present=B, future=[].
	got, ok = h.Redo()
	if !ok || got.Name != "B" {
		t.Errorf("redo = %s, %v, want B", got.Name, ok)
	}
	if h.HasFuture() {
		t.Error("redo must consume the future")
	}
}

func TestUndoEmptyPastNoOp(t *testing.T) {
	a := doc("A")
	h := New(a)

	got, ok := h.Undo()
	if ok {
		t.Error("undo with empty past must be a no-op")
	}
	if got.Name != "A" || h.Present().Name != "A" {
		t.Errorf("present changed to %s", got.Name)
	}

	got, ok = h.Redo()
	if ok || got.Name != "A" {
		t.Error("redo with empty future must be a no-op")
	}
}

func TestPushClearsFuture(t *testing.T) {
	h := New(doc("A"))
	h.Push(doc("B"))
	h.Push(doc("C"))

	if _, ok := h.Undo(); !ok {
		t.Fatal("undo failed")
	}
	if !h.HasFuture() {
		t.Fatal("expected future after undo")
	}

	// A new edit from B forks the timeline: C is gone for good.
	h.Push(doc("D"))
	if h.HasFuture() {
		t.Error("push must clear the future")
	}
	if h.Present().Name != "D" {
		t.Errorf("present = %s, want D", h.Present().Name)
	}

	got, _ := h.Undo()
	if got.Name != "B" {
		t.Errorf("undo after fork = %s, want B", got.Name)
	}
}

func TestQueriesArePure(t *testing.T) {
	h := New(doc("A"))
	h.Push(doc("B"))

	for i := 0; i < 5; i++ {
		h.HasPast()
		h.HasFuture()
	}
	past, future := h.Depth()
	if past != 1 || future != 0 {
		t.Errorf("Depth = %d/%d, want 1/0", past, future)
	}
	if h.Present().Name != "B" {
		t.Error("queries mutated the present")
	}
}

func TestDeepUndoRedo(t *testing.T) {
	names := []string{"A", "B", "C", "D", "E"}
	h := New(doc(names[0]))
	for _, n := range names[1:] {
		h.Push(doc(n))
	}

	// Walk all the way back.
	for i := len(names) - 2; i >= 0; i-- {
		got, ok := h.Undo()
		if !ok || got.Name != names[i] {
			t.Fatalf("undo to %s failed: got %s, %v", names[i], got.Name, ok)
		}
	}
	if _, ok := h.Undo(); ok {
		t.Error("undo past the beginning must fail")
	}

	// And all the way forward.
	for i := 1; i < len(names); i++ {
		got, ok := h.Redo()
		if !ok || got.Name != names[i] {
			t.Fatalf("redo to %s failed: got %s, %v", names[i], got.Name, ok)
		}
	}
	if _, ok := h.Redo(); ok {
		t.Error("redo past the end must fail")
	}
}

func TestWithLimit(t *testing.T) {
	h := New(doc("0"), WithLimit(3))
	for i := 1; i <= 10; i++ {
		h.Push(doc(string(rune('0' + i))))
	}

	past, _ := h.Depth()
	if past != 3 {
		t.Fatalf("past depth = %d, want 3", past)
	}

	// Only the newest three snapshots survive.
	for i := 0; i < 3; i++ {
		if _, ok := h.Undo(); !ok {
			t.Fatalf("undo %d failed", i)
		}
	}
	if _, ok := h.Undo(); ok {
		t.Error("limit should have dropped older snapshots")
	}
}

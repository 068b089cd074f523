package domain

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NodeID is the opaque identity of a node. Ids are unique within one
// document and never reused after deletion.
type NodeID string

// PlaceholderID marks template nodes that have not been stamped with a real
// identity yet. It is the zero ULID.
const PlaceholderID NodeID = "00000000000000000000000000"

// Seed threads deterministic identity through every call site that mints
// ids. There is no process-wide counter: callers receive the next seed back
// and are responsible for carrying it forward (the Document envelope
// persists it so ids are never recycled across save/load).
type Seed uint64

// idEpoch anchors the ULID timestamp component. Ids are a pure function of
// the seed, not of wall-clock time.
var idEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// NextID mints the id for seed and returns the seed for the next call.
// Equal seeds always yield equal ids; consecutive seeds never collide
// because the timestamp component strictly increases.
func NextID(seed Seed) (NodeID, Seed) {
	ts := ulid.Timestamp(idEpoch.Add(time.Duration(seed) * time.Millisecond))
	entropy := rand.New(rand.NewSource(int64(seed)))
	id := ulid.MustNew(ts, entropy)
	return NodeID(id.String()), seed + 1
}

// CloneTree deep-copies the subtree rooted at n, stamping a brand-new id on
// every node. The seed folds through a pre-order traversal that visits each
// node exactly once, so a k-node subtree consumes exactly k seeds.
func CloneTree(n Node, seed Seed) (Node, Seed) {
	clone := n
	clone.ID, seed = NextID(seed)

	// Fresh payload pointers so the clone shares no mutable state with
	// the original.
	if n.Text != nil {
		p := *n.Text
		clone.Text = &p
	}
	if n.Image != nil {
		p := *n.Image
		clone.Image = &p
	}
	if n.Control != nil {
		p := *n.Control
		clone.Control = &p
	}

	if len(n.Children) > 0 {
		clone.Children = make([]Node, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i], seed = CloneTree(child, seed)
		}
	}
	return clone, seed
}

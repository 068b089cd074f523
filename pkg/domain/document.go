package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// SchemaVersion is the envelope format this build reads and writes. Older
// versions are raised through registered migrations (pkg/schema) before
// decoding; newer versions are rejected.
const SchemaVersion = 2

// Viewport is the camera over the canvas. It is part of the snapshot unit
// so undo restores the user's view along with the tree.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultViewport returns the origin camera at 100% zoom.
func DefaultViewport() Viewport {
	return Viewport{Zoom: 1}
}

// IDSet is a set of node ids (the collapsed-outline state). Sets are
// copy-on-write: Add, Remove and Toggle return a new set and leave the
// receiver untouched, because history snapshots share Document values.
type IDSet map[NodeID]struct{}

// Has reports membership.
func (s IDSet) Has(id NodeID) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) clone(extra int) IDSet {
	out := make(IDSet, len(s)+extra)
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Add returns a set that also contains id.
func (s IDSet) Add(id NodeID) IDSet {
	if s.Has(id) {
		return s
	}
	out := s.clone(1)
	out[id] = struct{}{}
	return out
}

// Remove returns a set without id.
func (s IDSet) Remove(id NodeID) IDSet {
	if !s.Has(id) {
		return s
	}
	out := s.clone(0)
	delete(out, id)
	return out
}

// Toggle flips id's membership.
func (s IDSet) Toggle(id NodeID) IDSet {
	if s.Has(id) {
		return s.Remove(id)
	}
	return s.Add(id)
}

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []NodeID {
	ids := make([]NodeID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MarshalJSON encodes the set as a sorted array so document encodings are
// stable across runs.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of ids.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []NodeID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	out := make(IDSet, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	*s = out
	return nil
}

// Document is the persistence and versioning unit: the whole tree plus the
// camera, the collapsed-outline state and the id seed. History snapshots
// whole Documents; stores save and load whole Documents.
type Document struct {
	Schema    int       `json:"schema"`
	Name      string    `json:"name,omitempty"`
	Root      Node      `json:"root"`
	Viewport  Viewport  `json:"viewport"`
	Collapsed IDSet     `json:"collapsed,omitempty"`
	Seed      Seed      `json:"seed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocument builds a well-formed empty document: a Document root holding
// one Page, ids minted from seed zero, with the next seed recorded in the
// envelope.
func NewDocument(name string) Document {
	seed := Seed(0)

	root := Node{Kind: KindDocument, Name: name, Style: DefaultStyle()}
	root.ID, seed = NextID(seed)

	page := Blank(KindPage)
	page.Name = "Page 1"
	page.ID, seed = NextID(seed)

	root.Children = []Node{page}

	return Document{
		Schema:   SchemaVersion,
		Name:     name,
		Root:     root,
		Viewport: DefaultViewport(),
		Seed:     seed,
	}
}

// Cursor returns a cursor at the document's root.
func (d Document) Cursor() Cursor {
	return NewCursor(d.Root)
}

// WithRoot returns a copy of d holding the given tree.
func (d Document) WithRoot(root Node) Document {
	d.Root = root
	return d
}

// EncodeDocument serializes d as indented JSON.
func EncodeDocument(d Document) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// ProbeSchema reads just the schema field of a serialized document.
// A missing field wraps ErrSchemaVersion.
func ProbeSchema(data []byte) (int, error) {
	var probe struct {
		Schema *int `json:"schema"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("probe document: %w", err)
	}
	if probe.Schema == nil {
		return 0, fmt.Errorf("document has no schema field: %w", ErrSchemaVersion)
	}
	return *probe.Schema, nil
}

// DecodeDocument deserializes a document written at the current schema
// version. Callers holding possibly-old data go through schema.Decode,
// which migrates before calling this.
func DecodeDocument(data []byte) (Document, error) {
	version, err := ProbeSchema(data)
	if err != nil {
		return Document{}, err
	}
	if version != SchemaVersion {
		return Document{}, fmt.Errorf("document schema %d, supported %d: %w", version, SchemaVersion, ErrSchemaVersion)
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return d, nil
}

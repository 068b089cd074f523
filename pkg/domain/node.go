package domain

// Kind is the closed type tag of a node. The placement tables in
// placement.go switch over every variant; adding a kind means revisiting
// them.
type Kind string

const (
	// Structural containers.
	KindDocument   Kind = "document"
	KindPage       Kind = "page"
	KindRow        Kind = "row"
	KindColumn     Kind = "column"
	KindTextColumn Kind = "text_column"

	// Leaf content.
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindText      Kind = "text"
	KindImage     Kind = "image"

	// Interactive controls.
	KindButton             Kind = "button"
	KindCheckbox           Kind = "checkbox"
	KindTextField          Kind = "text_field"
	KindTextFieldMultiline Kind = "text_field_multiline"
	KindRadio              Kind = "radio"
	KindOption             Kind = "option"
)

// Kinds lists every node kind, in declaration order.
var Kinds = []Kind{
	KindDocument, KindPage, KindRow, KindColumn, KindTextColumn,
	KindHeading, KindParagraph, KindText, KindImage,
	KindButton, KindCheckbox, KindTextField, KindTextFieldMultiline,
	KindRadio, KindOption,
}

// ParseKind maps a wire string to a Kind. ok is false for unknown tags.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// TextPayload is the content of Heading, Paragraph and Text nodes.
type TextPayload struct {
	Content string `json:"content"`
	// Level is the heading level (1..6). Only meaningful on Heading nodes.
	Level int `json:"level,omitempty"`
}

// ImagePayload points at the displayed asset.
type ImagePayload struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// ControlPayload carries the interactive state of form controls.
// Which fields matter depends on the Kind: Button and Option use Label,
// Checkbox uses Label+Checked, text fields use Placeholder/Value/Rows,
// Radio uses Group.
type ControlPayload struct {
	Label       string `json:"label,omitempty"`
	Value       string `json:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Checked     bool   `json:"checked,omitempty"`
	Rows        int    `json:"rows,omitempty"`
	Group       string `json:"group,omitempty"`
}

// Node represents one element instance in the design tree.
//
// Node is a value: assignment copies it, and the payload pointers and child
// slice are treated as immutable after construction. All edits go through
// copy-on-write helpers (With*) or the Cursor, so trees may safely share
// subtrees across history snapshots.
type Node struct {
	ID   NodeID `json:"id"`
	Name string `json:"name,omitempty"`
	Kind Kind   `json:"kind"`

	// Exactly one payload pointer is set, matching the Kind family
	// (checked by ValidateDocument). Containers carry none.
	Text    *TextPayload    `json:"text,omitempty"`
	Image   *ImagePayload   `json:"image,omitempty"`
	Control *ControlPayload `json:"control,omitempty"`

	Style Style `json:"style"`

	Children []Node `json:"children,omitempty"`
}

// WithChildren returns a copy of n with the given children.
func (n Node) WithChildren(children []Node) Node {
	n.Children = children
	return n
}

// WithStyle returns a copy of n with its style replaced.
func (n Node) WithStyle(s Style) Node {
	n.Style = s
	return n
}

// WithName returns a copy of n with its display name replaced.
func (n Node) WithName(name string) Node {
	n.Name = name
	return n
}

// WithText returns a copy of n pointing at a fresh text payload.
func (n Node) WithText(p TextPayload) Node {
	n.Text = &p
	return n
}

// WithImage returns a copy of n pointing at a fresh image payload.
func (n Node) WithImage(p ImagePayload) Node {
	n.Image = &p
	return n
}

// WithControl returns a copy of n pointing at a fresh control payload.
func (n Node) WithControl(p ControlPayload) Node {
	n.Control = &p
	return n
}

// Walk visits n and every descendant in depth-first pre-order. It stops
// early when fn returns false and reports whether the walk ran to
// completion.
func (n Node) Walk(fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the subtree rooted at n.
func (n Node) Count() int {
	total := 0
	n.Walk(func(Node) bool {
		total++
		return true
	})
	return total
}

// IDs returns every node id in the subtree, in pre-order.
func (n Node) IDs() []NodeID {
	ids := make([]NodeID, 0, 8)
	n.Walk(func(m Node) bool {
		ids = append(ids, m.ID)
		return true
	})
	return ids
}

// Contains reports whether id names n itself or any descendant. Drag and
// drop uses this to refuse moving a node into its own subtree.
func (n Node) Contains(id NodeID) bool {
	found := false
	n.Walk(func(m Node) bool {
		if m.ID == id {
			found = true
			return false
		}
		return true
	})
	return found
}

package domain

// IsContainer reports whether k belongs to the fixed closed set of kinds
// that hold children: Document, Page, Row, Column, TextColumn and Radio.
func (k Kind) IsContainer() bool {
	switch k {
	case KindDocument, KindPage, KindRow, KindColumn, KindTextColumn, KindRadio:
		return true
	default:
		return false
	}
}

// CanContain reports whether a container node of kind container accepts a
// child of kind candidate.
//
// Radio accepts only Option. Document, Page, Row, Column and TextColumn
// accept any non-Option kind. Every other kind accepts nothing. This table
// is authoritative: drop-target logic, menus and remote validation all
// consult it and never re-derive the rule.
func CanContain(container, candidate Kind) bool {
	switch container {
	case KindRadio:
		return candidate == KindOption
	case KindDocument, KindPage, KindRow, KindColumn, KindTextColumn:
		return candidate != KindOption
	default:
		return false
	}
}

// CanNeighbor reports whether candidate may sit directly beside neighbor.
//
// Option only beside Option, Page only beside Page; any other pairing is
// compatible as long as neither side is an Option or a Page.
func CanNeighbor(neighbor, candidate Kind) bool {
	if neighbor == KindOption || candidate == KindOption {
		return neighbor == KindOption && candidate == KindOption
	}
	if neighbor == KindPage || candidate == KindPage {
		return neighbor == KindPage && candidate == KindPage
	}
	return true
}

// Insert places sub relative to the focus and returns a cursor on sub.
//
// When the focus is a container, sub becomes its last child. Otherwise sub
// is inserted as the sibling immediately after the focused node's parent.
// When the focus has no parent, or its parent is the root, the tree root is
// the fallback anchor and receives sub as its last child. The fallback is a
// deliberate, documented edge case, kept even though well-formed trees make
// a non-container root unreachable.
func Insert(at Cursor, sub Node) Cursor {
	if at.Node().Kind.IsContainer() {
		return at.AppendChild(sub)
	}
	parent, ok := at.Up()
	if !ok {
		return at.AppendChild(sub)
	}
	after, ok := parent.InsertAfter(sub)
	if !ok {
		return parent.AppendChild(sub)
	}
	return after
}

package domain

// testNode builds a tree node with a hand-picked id. Payloads come from the
// kind's blank template so the result passes validation.
func testNode(id NodeID, kind Kind, children ...Node) Node {
	n := Blank(kind)
	n.ID = id
	if len(children) > 0 {
		n.Children = children
	}
	return n
}

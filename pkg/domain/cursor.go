package domain

// crumb records everything needed to rebuild a parent when moving up: the
// parent label (its Node record minus children) and the siblings on either
// side of the focus, in order.
type crumb struct {
	parent Node
	left   []Node
	right  []Node
}

// Cursor is a position inside a tree: the focused subtree plus the trail of
// crumbs back to the root.
//
// Cursors are values. Navigation and mutation return new cursors and never
// modify the tree they came from; two cursors derived from the same tree
// can diverge freely. Failed moves return the receiver unchanged with
// ok=false instead of an error.
type Cursor struct {
	node  Node
	trail []crumb
}

// NewCursor returns a cursor focused on root.
func NewCursor(root Node) Cursor {
	return Cursor{node: root}
}

// Node returns the focused subtree.
func (c Cursor) Node() Node { return c.node }

// IsRoot reports whether the focus is the tree root.
func (c Cursor) IsRoot() bool { return len(c.trail) == 0 }

// Depth returns how many ancestors the focus has.
func (c Cursor) Depth() int { return len(c.trail) }

// Path returns the ids from the root down to and including the focus.
func (c Cursor) Path() []NodeID {
	path := make([]NodeID, 0, len(c.trail)+1)
	for _, cr := range c.trail {
		path = append(path, cr.parent.ID)
	}
	return append(path, c.node.ID)
}

// pushCrumb grows a trail by one. It always copies: trails share backing
// arrays across cursors, and an in-place append would overwrite a sibling
// cursor's crumbs.
func pushCrumb(trail []crumb, cr crumb) []crumb {
	out := make([]crumb, len(trail)+1)
	copy(out, trail)
	out[len(trail)] = cr
	return out
}

// replaceTop swaps the last crumb of a trail, copying for the same reason.
func replaceTop(trail []crumb, cr crumb) []crumb {
	out := make([]crumb, len(trail))
	copy(out, trail)
	out[len(out)-1] = cr
	return out
}

// joinNodes concatenates node slices into a fresh slice. Crumb slices are
// never appended to in place; they may share memory with live trees. An
// empty result is nil so that detaching an only child restores the parent
// to its childless form exactly.
func joinNodes(parts ...[]Node) []Node {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	if total == 0 {
		return nil
	}
	out := make([]Node, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// label strips a node to the record stored in a crumb. The children live in
// the crumb's left/right halves plus the focus.
func label(n Node) Node {
	n.Children = nil
	return n
}

// Up moves the focus to the parent, rebuilding it from the crumb.
func (c Cursor) Up() (Cursor, bool) {
	if len(c.trail) == 0 {
		return c, false
	}
	cr := c.trail[len(c.trail)-1]
	parent := cr.parent
	parent.Children = joinNodes(cr.left, []Node{c.node}, cr.right)
	return Cursor{node: parent, trail: c.trail[:len(c.trail)-1]}, true
}

// FirstChild moves the focus to the focused node's first child.
func (c Cursor) FirstChild() (Cursor, bool) {
	if len(c.node.Children) == 0 {
		return c, false
	}
	cr := crumb{parent: label(c.node), right: c.node.Children[1:]}
	return Cursor{node: c.node.Children[0], trail: pushCrumb(c.trail, cr)}, true
}

// LastChild moves the focus to the focused node's last child.
func (c Cursor) LastChild() (Cursor, bool) {
	n := len(c.node.Children)
	if n == 0 {
		return c, false
	}
	cr := crumb{parent: label(c.node), left: c.node.Children[:n-1]}
	return Cursor{node: c.node.Children[n-1], trail: pushCrumb(c.trail, cr)}, true
}

// NextSibling moves the focus one position right.
func (c Cursor) NextSibling() (Cursor, bool) {
	if len(c.trail) == 0 {
		return c, false
	}
	cr := c.trail[len(c.trail)-1]
	if len(cr.right) == 0 {
		return c, false
	}
	next := crumb{
		parent: cr.parent,
		left:   joinNodes(cr.left, []Node{c.node}),
		right:  cr.right[1:],
	}
	return Cursor{node: cr.right[0], trail: replaceTop(c.trail, next)}, true
}

// PrevSibling moves the focus one position left.
func (c Cursor) PrevSibling() (Cursor, bool) {
	if len(c.trail) == 0 {
		return c, false
	}
	cr := c.trail[len(c.trail)-1]
	if len(cr.left) == 0 {
		return c, false
	}
	n := len(cr.left)
	prev := crumb{
		parent: cr.parent,
		left:   cr.left[:n-1],
		right:  joinNodes([]Node{c.node}, cr.right),
	}
	return Cursor{node: cr.left[n-1], trail: replaceTop(c.trail, prev)}, true
}

// Root rebuilds and returns the full tree from wherever the focus is.
func (c Cursor) Root() Node {
	for {
		up, ok := c.Up()
		if !ok {
			return c.node
		}
		c = up
	}
}

// FindByID searches the whole tree depth-first, starting from the root
// regardless of where the receiver is focused, and returns a cursor on the
// match. A miss returns ok=false, never an error.
func (c Cursor) FindByID(id NodeID) (Cursor, bool) {
	return findDFS(NewCursor(c.Root()), id)
}

func findDFS(c Cursor, id NodeID) (Cursor, bool) {
	if c.node.ID == id {
		return c, true
	}
	for child, ok := c.FirstChild(); ok; child, ok = child.NextSibling() {
		if found, hit := findDFS(child, id); hit {
			return found, true
		}
	}
	return Cursor{}, false
}

// Replace applies a pure transform to the focused node and returns a cursor
// at the same position over the updated tree.
func (c Cursor) Replace(fn func(Node) Node) Cursor {
	c.node = fn(c.node)
	return c
}

// AppendChild adds sub as the focused node's last child and moves the focus
// to it.
func (c Cursor) AppendChild(sub Node) Cursor {
	cr := crumb{parent: label(c.node), left: c.node.Children}
	return Cursor{node: sub, trail: pushCrumb(c.trail, cr)}
}

// InsertBefore adds sub as the sibling immediately before the focus and
// moves the focus to it. The root has no siblings; ok=false, no change.
func (c Cursor) InsertBefore(sub Node) (Cursor, bool) {
	if len(c.trail) == 0 {
		return c, false
	}
	cr := c.trail[len(c.trail)-1]
	next := crumb{
		parent: cr.parent,
		left:   cr.left,
		right:  joinNodes([]Node{c.node}, cr.right),
	}
	return Cursor{node: sub, trail: replaceTop(c.trail, next)}, true
}

// InsertAfter adds sub as the sibling immediately after the focus and moves
// the focus to it. The root has no siblings; ok=false, no change.
func (c Cursor) InsertAfter(sub Node) (Cursor, bool) {
	if len(c.trail) == 0 {
		return c, false
	}
	cr := c.trail[len(c.trail)-1]
	next := crumb{
		parent: cr.parent,
		left:   joinNodes(cr.left, []Node{c.node}),
		right:  cr.right,
	}
	return Cursor{node: sub, trail: replaceTop(c.trail, next)}, true
}

// Remove detaches the focused subtree and moves the focus to the parent.
// Removing the root is illegal and is a no-op with ok=false.
func (c Cursor) Remove() (Cursor, bool) {
	if len(c.trail) == 0 {
		return c, false
	}
	cr := c.trail[len(c.trail)-1]
	parent := cr.parent
	parent.Children = joinNodes(cr.left, cr.right)
	return Cursor{node: parent, trail: c.trail[:len(c.trail)-1]}, true
}

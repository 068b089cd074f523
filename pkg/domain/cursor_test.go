package domain

import (
	"reflect"
	"testing"
)

// sampleTree builds the same fixture every time:
//
//	root (document)
//	└── page
//	    ├── row
//	    │   ├── a (text)
//	    │   └── b (text)
//	    └── col (column)
func sampleTree() Node {
	return testNode("root", KindDocument,
		testNode("page", KindPage,
			testNode("row", KindRow,
				testNode("a", KindText),
				testNode("b", KindText),
			),
			testNode("col", KindColumn),
		),
	)
}

func TestCursorNavigation(t *testing.T) {
	c := NewCursor(sampleTree())

	page, ok := c.FirstChild()
	if !ok || page.Node().ID != "page" {
		t.Fatalf("FirstChild = %s, %v", page.Node().ID, ok)
	}

	row, ok := page.FirstChild()
	if !ok || row.Node().ID != "row" {
		t.Fatalf("FirstChild = %s, %v", row.Node().ID, ok)
	}

	col, ok := row.NextSibling()
	if !ok || col.Node().ID != "col" {
		t.Fatalf("NextSibling = %s, %v", col.Node().ID, ok)
	}

	back, ok := col.PrevSibling()
	if !ok || back.Node().ID != "row" {
		t.Fatalf("PrevSibling = %s, %v", back.Node().ID, ok)
	}

	b, ok := row.LastChild()
	if !ok || b.Node().ID != "b" {
		t.Fatalf("LastChild = %s, %v", b.Node().ID, ok)
	}

	up, ok := b.Up()
	if !ok || up.Node().ID != "row" {
		t.Fatalf("Up = %s, %v", up.Node().ID, ok)
	}

	if got := b.Depth(); got != 3 {
		t.Errorf("Depth = %d, want 3", got)
	}
	wantPath := []NodeID{"root", "page", "row", "b"}
	if got := b.Path(); !reflect.DeepEqual(got, wantPath) {
		t.Errorf("Path = %v, want %v", got, wantPath)
	}
}

func TestCursorBoundaries(t *testing.T) {
	root := NewCursor(sampleTree())

	if _, ok := root.Up(); ok {
		t.Error("Up at root should fail")
	}
	if _, ok := root.NextSibling(); ok {
		t.Error("NextSibling at root should fail")
	}
	if _, ok := root.PrevSibling(); ok {
		t.Error("PrevSibling at root should fail")
	}
	if _, ok := root.Remove(); ok {
		t.Error("Remove at root should fail")
	}
	if _, ok := root.InsertBefore(testNode("x", KindText)); ok {
		t.Error("InsertBefore at root should fail")
	}
	if _, ok := root.InsertAfter(testNode("x", KindText)); ok {
		t.Error("InsertAfter at root should fail")
	}

	leaf, ok := root.FindByID("a")
	if !ok {
		t.Fatal("a not found")
	}
	if _, ok := leaf.FirstChild(); ok {
		t.Error("FirstChild on a leaf should fail")
	}
	if _, ok := leaf.LastChild(); ok {
		t.Error("LastChild on a leaf should fail")
	}
	if _, ok := leaf.PrevSibling(); ok {
		t.Error("PrevSibling on a first child should fail")
	}

	// Failed moves return the receiver unchanged.
	same, _ := leaf.FirstChild()
	if same.Node().ID != "a" {
		t.Errorf("failed move changed focus to %s", same.Node().ID)
	}
}

func TestFindByID(t *testing.T) {
	c := NewCursor(sampleTree())

	// Finds from the root even when the receiver is focused elsewhere.
	row, ok := c.FindByID("row")
	if !ok {
		t.Fatal("row not found")
	}
	b, ok := row.FindByID("b")
	if !ok || b.Node().ID != "b" {
		t.Fatalf("FindByID(b) = %s, %v", b.Node().ID, ok)
	}

	if _, ok := c.FindByID("missing"); ok {
		t.Error("FindByID(missing) should fail")
	}
}

func TestFindAfterAppend(t *testing.T) {
	// Appending a fresh node always makes it findable by id.
	tree := sampleTree()
	fresh, _ := CloneTree(Blank(KindHeading), 100)

	col, ok := NewCursor(tree).FindByID("col")
	if !ok {
		t.Fatal("col not found")
	}
	appended := col.AppendChild(fresh)

	found, ok := NewCursor(appended.Root()).FindByID(fresh.ID)
	if !ok {
		t.Fatalf("appended node %s not findable", fresh.ID)
	}
	if found.Node().ID != fresh.ID {
		t.Errorf("focus = %s, want %s", found.Node().ID, fresh.ID)
	}
}

func TestRemoveAfterAppendRestores(t *testing.T) {
	before := sampleTree()
	fresh, _ := CloneTree(Blank(KindParagraph), 7)

	col, ok := NewCursor(before).FindByID("col")
	if !ok {
		t.Fatal("col not found")
	}
	appended := col.AppendChild(fresh)

	removed, ok := appended.Remove()
	if !ok {
		t.Fatal("Remove failed")
	}
	after := removed.Root()

	if !reflect.DeepEqual(before, after) {
		t.Errorf("append then remove changed the tree:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestCursorCopyOnWrite(t *testing.T) {
	original := sampleTree()
	snapshot := sampleTree() // same shape, independent value

	c, ok := NewCursor(original).FindByID("a")
	if !ok {
		t.Fatal("a not found")
	}

	// Mutate through the cursor in several ways.
	c = c.Replace(func(n Node) Node { return n.WithName("renamed") })
	c, _ = c.InsertAfter(testNode("x", KindText))
	c = c.AppendChild(testNode("y", KindText))
	if _, ok := c.Remove(); !ok {
		t.Fatal("Remove failed")
	}

	// The holder of the pre-mutation tree observes no change.
	if !reflect.DeepEqual(original, snapshot) {
		t.Errorf("pre-mutation tree changed:\ngot  %+v\nwant %+v", original, snapshot)
	}
}

func TestCursorDivergence(t *testing.T) {
	// Two cursors derived from the same position must not share trail
	// storage: mutations through one never leak into the other.
	root := NewCursor(sampleTree())
	page, _ := root.FirstChild()

	left, _ := page.FirstChild() // row
	leftTree := left.AppendChild(testNode("fromLeft", KindText)).Root()

	right, _ := page.LastChild() // col
	rightTree := right.AppendChild(testNode("fromRight", KindText)).Root()

	if _, ok := NewCursor(leftTree).FindByID("fromRight"); ok {
		t.Error("left tree sees the right cursor's insert")
	}
	if _, ok := NewCursor(rightTree).FindByID("fromLeft"); ok {
		t.Error("right tree sees the left cursor's insert")
	}
}

func TestInsertBeforeAfterOrder(t *testing.T) {
	root := sampleTree()

	a, ok := NewCursor(root).FindByID("a")
	if !ok {
		t.Fatal("a not found")
	}
	withBefore, ok := a.InsertBefore(testNode("pre", KindText))
	if !ok {
		t.Fatal("InsertBefore failed")
	}
	if withBefore.Node().ID != "pre" {
		t.Fatalf("focus = %s, want pre", withBefore.Node().ID)
	}

	b, ok := NewCursor(withBefore.Root()).FindByID("b")
	if !ok {
		t.Fatal("b not found")
	}
	withAfter, ok := b.InsertAfter(testNode("post", KindText))
	if !ok {
		t.Fatal("InsertAfter failed")
	}

	row, ok := NewCursor(withAfter.Root()).FindByID("row")
	if !ok {
		t.Fatal("row not found")
	}
	var ids []NodeID
	for _, child := range row.Node().Children {
		ids = append(ids, child.ID)
	}
	want := []NodeID{"pre", "a", "b", "post"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("row children = %v, want %v", ids, want)
	}
}

func TestRemoveMovesToParent(t *testing.T) {
	c, ok := NewCursor(sampleTree()).FindByID("a")
	if !ok {
		t.Fatal("a not found")
	}
	parent, ok := c.Remove()
	if !ok {
		t.Fatal("Remove failed")
	}
	if parent.Node().ID != "row" {
		t.Errorf("focus after remove = %s, want row", parent.Node().ID)
	}
	if len(parent.Node().Children) != 1 || parent.Node().Children[0].ID != "b" {
		t.Errorf("row children after remove = %+v", parent.Node().Children)
	}
}

func TestRootRebuild(t *testing.T) {
	tree := sampleTree()
	c, ok := NewCursor(tree).FindByID("b")
	if !ok {
		t.Fatal("b not found")
	}
	if got := c.Root(); !reflect.DeepEqual(got, tree) {
		t.Errorf("Root() rebuilt a different tree:\ngot  %+v\nwant %+v", got, tree)
	}
}

func TestReplaceKeepsPosition(t *testing.T) {
	c, ok := NewCursor(sampleTree()).FindByID("a")
	if !ok {
		t.Fatal("a not found")
	}
	c = c.Replace(func(n Node) Node {
		return n.WithText(TextPayload{Content: "hello"})
	})

	if c.Node().Text == nil || c.Node().Text.Content != "hello" {
		t.Fatalf("Replace did not apply: %+v", c.Node().Text)
	}
	if got := c.Path(); got[len(got)-1] != "a" {
		t.Errorf("Replace moved the focus: path %v", got)
	}

	found, ok := NewCursor(c.Root()).FindByID("a")
	if !ok || found.Node().Text == nil || found.Node().Text.Content != "hello" {
		t.Error("replacement not visible from the rebuilt root")
	}
}

func TestNodeWalkAndCount(t *testing.T) {
	tree := sampleTree()

	if got := tree.Count(); got != 6 {
		t.Errorf("Count = %d, want 6", got)
	}

	var order []NodeID
	tree.Walk(func(n Node) bool {
		order = append(order, n.ID)
		return true
	})
	want := []NodeID{"root", "page", "row", "a", "b", "col"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Walk order = %v, want %v", order, want)
	}

	// Early stop.
	var visited int
	tree.Walk(func(n Node) bool {
		visited++
		return n.ID != "row"
	})
	if visited != 3 {
		t.Errorf("early-stop visited %d nodes, want 3", visited)
	}

	if !tree.Contains("col") {
		t.Error("Contains(col) = false")
	}
	if tree.Contains("nope") {
		t.Error("Contains(nope) = true")
	}
}

package render

import (
	"reflect"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
)

func styled(id string, kind domain.Kind, style domain.Style, children ...domain.Node) domain.Node {
	n := domain.Blank(kind)
	n.ID = domain.NodeID(id)
	n.Style = style
	n.Children = children
	return n
}

func plain(id string, kind domain.Kind, children ...domain.Node) domain.Node {
	return styled(id, kind, domain.DefaultStyle(), children...)
}

func TestFoldVisitsChildrenFirst(t *testing.T) {
	tree := plain("root", domain.KindDocument,
		plain("page", domain.KindPage,
			plain("a", domain.KindHeading),
			plain("b", domain.KindParagraph),
		),
	)

	var order []string
	Fold(tree, DefaultTheme(), func(r Resolved, kids []struct{}) struct{} {
		order = append(order, string(r.Node.ID))
		return struct{}{}
	})

	want := []string{"a", "b", "page", "root"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("fold order = %v, want %v", order, want)
	}
}

func TestFoldDepthAndIndex(t *testing.T) {
	tree := plain("root", domain.KindDocument,
		plain("page", domain.KindPage,
			plain("a", domain.KindHeading),
			plain("b", domain.KindParagraph),
		),
	)

	got := map[string][2]int{}
	Fold(tree, DefaultTheme(), func(r Resolved, kids []struct{}) struct{} {
		got[string(r.Node.ID)] = [2]int{r.Depth, r.Index}
		return struct{}{}
	})

	want := map[string][2]int{
		"root": {0, 0},
		"page": {1, 0},
		"a":    {2, 0},
		"b":    {2, 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("positions = %v, want %v", got, want)
	}
}

func TestFoldAppliesInheritance(t *testing.T) {
	redStyle := domain.DefaultStyle()
	redStyle.Font.Color = domain.Local[domain.Color]("#ff0000")

	blueStyle := domain.DefaultStyle()
	blueStyle.Font.Color = domain.Local[domain.Color]("#0000ff")

	tree := styled("root", domain.KindDocument, redStyle,
		plain("page", domain.KindPage,
			plain("inherits", domain.KindParagraph),
			styled("local", domain.KindParagraph, blueStyle),
		),
	)

	fonts := map[string]domain.ResolvedTypography{}
	Fold(tree, DefaultTheme(), func(r Resolved, kids []struct{}) struct{} {
		fonts[string(r.Node.ID)] = r.Font
		return struct{}{}
	})

	theme := DefaultTheme()
	if got := fonts["inherits"]; got.Color != "#ff0000" {
		t.Errorf("inheriting node color = %s, want #ff0000", got.Color)
	}
	if got := fonts["local"]; got.Color != "#0000ff" {
		t.Errorf("local node color = %s, want #0000ff", got.Color)
	}
	// Attributes with no local value anywhere bottom out on the theme.
	if got := fonts["inherits"]; got.Family != theme.FontFamily || got.Size != theme.FontSize {
		t.Errorf("inheriting node font = %+v, want theme defaults", got)
	}

	// The fold must agree with cursor-based resolution at every node.
	cur, _ := domain.NewCursor(tree).FindByID("inherits")
	want := domain.ResolveTypography(cur, theme.Defaults())
	if got := fonts["inherits"]; got != want {
		t.Errorf("fold resolution %+v disagrees with cursor resolution %+v", got, want)
	}
}

func TestFoldCountMatchesNodeCount(t *testing.T) {
	doc := domain.NewDocument("Counted")

	total := FoldDocument(doc, DefaultTheme(), func(r Resolved, kids []int) int {
		sum := 1
		for _, k := range kids {
			sum += k
		}
		return sum
	})

	if want := doc.Root.Count(); total != want {
		t.Fatalf("fold counted %d nodes, Count says %d", total, want)
	}
}

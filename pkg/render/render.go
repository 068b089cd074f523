package render

import (
	"github.com/aretw0/espalier/pkg/domain"
)

// Theme supplies the document-wide typography defaults that inheritance
// bottoms out on.
type Theme struct {
	FontFamily string
	FontColor  domain.Color
	FontSize   int
}

// DefaultTheme mirrors what a fresh document looks like on screen.
func DefaultTheme() Theme {
	return Theme{
		FontFamily: "Inter",
		FontColor:  "#1a1a1a",
		FontSize:   16,
	}
}

// Defaults returns the theme's typography as resolution defaults.
func (t Theme) Defaults() domain.ResolvedTypography {
	return domain.ResolvedTypography{
		Family: t.FontFamily,
		Color:  t.FontColor,
		Size:   t.FontSize,
	}
}

// Resolved is one node as a renderer sees it: inheritance already applied,
// with its position in the tree.
type Resolved struct {
	Node  domain.Node
	Font  domain.ResolvedTypography
	Depth int // 0 at the root
	Index int // position among siblings
}

// Fold reduces a tree bottom-up. fn runs once per node, after its children:
// it receives the resolved node and the folded results of its children in
// order, and produces the result for the subtree. Typography flows down
// during the walk so fn never needs to climb the tree itself.
func Fold[T any](root domain.Node, theme Theme, fn func(Resolved, []T) T) T {
	return fold(root, theme.Defaults(), 0, 0, fn)
}

// FoldDocument folds doc's tree.
func FoldDocument[T any](doc domain.Document, theme Theme, fn func(Resolved, []T) T) T {
	return Fold(doc.Root, theme, fn)
}

func fold[T any](n domain.Node, inherited domain.ResolvedTypography, depth, index int, fn func(Resolved, []T) T) T {
	eff := effective(n, inherited)

	var kids []T
	if len(n.Children) > 0 {
		kids = make([]T, 0, len(n.Children))
		for i, c := range n.Children {
			kids = append(kids, fold(c, eff, depth+1, i, fn))
		}
	}

	return fn(Resolved{Node: n, Font: eff, Depth: depth, Index: index}, kids)
}

// effective overlays n's local font attributes on the inherited set.
// Matches the upward resolution in pkg/domain: a downward pass visiting
// every ancestor first lands on the same nearest-local value.
func effective(n domain.Node, in domain.ResolvedTypography) domain.ResolvedTypography {
	out := in
	if f := n.Style.Font.Family; f.Local {
		out.Family = f.Value
	}
	if c := n.Style.Font.Color; c.Local {
		out.Color = c.Value
	}
	if s := n.Style.Font.Size; s.Local {
		out.Size = s.Value
	}
	return out
}

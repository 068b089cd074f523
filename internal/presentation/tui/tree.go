package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/espalier/pkg/domain"
)

// PrintTree writes a colored outline of the document tree. Collapsed
// subtrees print a hidden-node count instead of their children. showIDs
// appends each node id, for use with prefix addressing in the CLI.
func PrintTree(w io.Writer, doc domain.Document, showIDs bool) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, nodeLine(out, doc.Root, doc.Collapsed, showIDs))
	printChildren(w, out, doc.Root, "", doc.Collapsed, showIDs)
}

func printChildren(w io.Writer, out *termenv.Output, n domain.Node, prefix string, collapsed domain.IDSet, showIDs bool) {
	if collapsed.Has(n.ID) {
		return
	}
	for i, child := range n.Children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(n.Children)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, connector, nodeLine(out, child, collapsed, showIDs))
		printChildren(w, out, child, childPrefix, collapsed, showIDs)
	}
}

func nodeLine(out *termenv.Output, n domain.Node, collapsed domain.IDSet, showIDs bool) string {
	label := string(n.Kind)
	if n.Name != "" {
		label += fmt.Sprintf(" %q", n.Name)
	}
	if n.Text != nil && n.Text.Content != "" {
		label += ": " + firstLine(n.Text.Content, 40)
	}
	line := out.String(label).Foreground(out.Color(colorFor(n.Kind))).String()
	if collapsed.Has(n.ID) && len(n.Children) > 0 {
		line += out.String(fmt.Sprintf(" [+%d]", n.Count()-1)).Faint().String()
	}
	if showIDs {
		line += out.String(" " + string(n.ID)).Faint().String()
	}
	return line
}

func firstLine(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// Kind colors follow the canvas palette: structure indigo, layout violet,
// content green, controls amber.
func colorFor(k domain.Kind) string {
	switch k {
	case domain.KindDocument, domain.KindPage:
		return "#818cf8"
	case domain.KindRow, domain.KindColumn, domain.KindTextColumn:
		return "#a78bfa"
	case domain.KindHeading, domain.KindParagraph, domain.KindText, domain.KindImage:
		return "#34d399"
	default:
		return "#fbbf24"
	}
}

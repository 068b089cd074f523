package codegen

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// MermaidOverlay contains dynamic state data to visualize on the graph.
type MermaidOverlay struct {
	Collapsed domain.IDSet
	Selected  domain.NodeID
}

// Mermaid produces a Mermaid flowchart syntax string from the document
// tree. It applies semantic styling:
// - Root: ((Circle))
// - Container: [[Subroutine]]
// - Control (Input): [/Parallelogram/]
// - Default: [Rectangle]
// Collapsed subtrees are pruned below their mark and the selected node is
// highlighted, if an overlay is provided.
func Mermaid(doc domain.Document, overlay *MermaidOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	collapsed := writeMermaidNode(&sb, doc.Root, true, overlay)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef collapsed fill:#eceff1,stroke:#607d8b,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for _, id := range collapsed {
			sb.WriteString(fmt.Sprintf("    class %s collapsed;\n", sanitizeMermaidID(id)))
		}
		if overlay.Selected != "" {
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", sanitizeMermaidID(overlay.Selected)))
		}
	}

	return sb.String()
}

// writeMermaidNode emits n and its edges, recursing into children unless n
// is collapsed. It returns the ids it pruned at, for overlay styling.
func writeMermaidNode(sb *strings.Builder, n domain.Node, isRoot bool, overlay *MermaidOverlay) []domain.NodeID {
	safeID := sanitizeMermaidID(n.ID)

	// Node Shape based on Kind
	opener, closer := "[", "]"
	switch {
	case isRoot:
		opener, closer = "((", "))" // Circle
	case n.Kind.IsContainer():
		opener, closer = "[[", "]]" // Subroutine
	case n.Control != nil:
		opener, closer = "[/", "/]" // Parallelogram (Input)
	}

	label := mermaidLabel(n)
	pruned := overlay != nil && overlay.Collapsed.Has(n.ID)
	if pruned && len(n.Children) > 0 {
		label = fmt.Sprintf("%s (+%d)", label, n.Count()-1)
	}
	fmt.Fprintf(sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

	if pruned {
		return []domain.NodeID{n.ID}
	}

	var collapsed []domain.NodeID
	for _, child := range n.Children {
		fmt.Fprintf(sb, "    %s --> %s\n", safeID, sanitizeMermaidID(child.ID))
		collapsed = append(collapsed, writeMermaidNode(sb, child, false, overlay)...)
	}
	return collapsed
}

func mermaidLabel(n domain.Node) string {
	label := n.Name
	if label == "" && n.Text != nil {
		label = n.Text.Content
	}
	if label == "" && n.Control != nil {
		label = n.Control.Label
	}
	if label == "" {
		label = string(n.Kind)
	}
	// Escape double quotes for Mermaid
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id domain.NodeID) string {
	s := strings.ReplaceAll(string(id), ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

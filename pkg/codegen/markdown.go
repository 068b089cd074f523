package codegen

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/render"
)

// Markdown renders doc as a plain outline: pages become level-one headings,
// text flows as paragraphs, controls become list items. The TUI preview
// feeds this through glamour.
func Markdown(doc domain.Document) string {
	out := render.FoldDocument(doc, render.DefaultTheme(), emitMarkdown)
	return strings.TrimLeft(out, "\n") + "\n"
}

func emitMarkdown(r render.Resolved, kids []string) string {
	n := r.Node

	switch n.Kind {
	case domain.KindDocument:
		return joinBlocks(kids)
	case domain.KindPage:
		name := n.Name
		if name == "" {
			name = "Page"
		}
		body := joinBlocks(kids)
		if body == "" {
			return "# " + name
		}
		return "# " + name + "\n\n" + body
	case domain.KindRow, domain.KindColumn, domain.KindTextColumn:
		return joinBlocks(kids)

	case domain.KindHeading:
		level := 2
		if n.Text != nil && n.Text.Level > 0 {
			level = n.Text.Level + 1
		}
		if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + textContent(n)
	case domain.KindParagraph, domain.KindText:
		return textContent(n)

	case domain.KindImage:
		if n.Image == nil {
			return ""
		}
		return fmt.Sprintf("![%s](%s)", n.Image.Alt, n.Image.URL)

	case domain.KindButton:
		return fmt.Sprintf("`[ %s ]`", controlLabel(n))
	case domain.KindCheckbox:
		mark := " "
		if n.Control != nil && n.Control.Checked {
			mark = "x"
		}
		return fmt.Sprintf("- [%s] %s", mark, controlLabel(n))
	case domain.KindTextField, domain.KindTextFieldMultiline:
		label := controlLabel(n)
		hint := ""
		if n.Control != nil && n.Control.Placeholder != "" {
			hint = fmt.Sprintf(" _(%s)_", n.Control.Placeholder)
		}
		return fmt.Sprintf("%s: `________`%s", label, hint)

	case domain.KindRadio:
		header := controlLabel(n)
		body := strings.Join(kids, "\n")
		if header == "" {
			return body
		}
		return "**" + header + "**\n\n" + body
	case domain.KindOption:
		mark := " "
		if n.Control != nil && n.Control.Checked {
			mark = "o"
		}
		return fmt.Sprintf("- (%s) %s", mark, controlLabel(n))
	}

	return joinBlocks(kids)
}

func joinBlocks(kids []string) string {
	parts := make([]string, 0, len(kids))
	for _, k := range kids {
		if k != "" {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, "\n\n")
}

func textContent(n domain.Node) string {
	if n.Text == nil {
		return ""
	}
	return n.Text.Content
}

func controlLabel(n domain.Node) string {
	if n.Control == nil {
		return ""
	}
	return n.Control.Label
}

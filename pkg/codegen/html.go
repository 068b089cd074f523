package codegen

import (
	"fmt"
	"html"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/render"
)

// fragment is one rendered subtree. Options surface their input payload so
// the enclosing radio can stamp its group name on them; everything else is
// finished markup.
type fragment struct {
	markup string
	option *optionInput
}

type optionInput struct {
	label   string
	value   string
	checked bool
	style   string
}

// HTML renders doc as a standalone page: semantic tags per node kind,
// inline styles from the resolved records, flex layout for containers.
func HTML(doc domain.Document, theme render.Theme) string {
	body := render.FoldDocument(doc, theme, emitHTML).markup

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(doc.Name))
	sb.WriteString("<style>\n")
	sb.WriteString(baseCSS)
	sb.WriteString("</style>\n</head>\n<body>\n")
	sb.WriteString(body)
	sb.WriteString("\n</body>\n</html>\n")
	return sb.String()
}

// HTMLNode renders just the subtree at root, for partial previews.
func HTMLNode(root domain.Node, theme render.Theme) string {
	return render.Fold(root, theme, emitHTML).markup
}

const baseCSS = `main { display: flex; flex-direction: column; }
.page { display: flex; flex-direction: column; min-height: 100vh; }
.row { display: flex; flex-direction: row; }
.column, .text-column { display: flex; flex-direction: column; }
.radio-group { display: flex; flex-direction: column; border: none; padding: 0; margin: 0; }
`

func emitHTML(r render.Resolved, kids []fragment) fragment {
	n := r.Node
	style := inlineCSS(r)
	attr := styleAttr(style)

	switch n.Kind {
	case domain.KindDocument:
		return fragment{markup: wrap("main", attr, joinMarkup(kids))}
	case domain.KindPage:
		return fragment{markup: wrap(`section class="page"`, attr, joinMarkup(kids))}
	case domain.KindRow:
		return fragment{markup: wrap(`div class="row"`, attr, joinMarkup(kids))}
	case domain.KindColumn:
		return fragment{markup: wrap(`div class="column"`, attr, joinMarkup(kids))}
	case domain.KindTextColumn:
		return fragment{markup: wrap(`div class="text-column"`, attr, joinMarkup(kids))}

	case domain.KindHeading:
		level := 1
		if n.Text != nil && n.Text.Level > 0 {
			level = n.Text.Level
		}
		if level > 6 {
			level = 6
		}
		tag := fmt.Sprintf("h%d", level)
		return fragment{markup: fmt.Sprintf("<%s%s>%s</%s>", tag, attr, escapedText(n), tag)}
	case domain.KindParagraph:
		return fragment{markup: fmt.Sprintf("<p%s>%s</p>", attr, escapedText(n))}
	case domain.KindText:
		return fragment{markup: fmt.Sprintf("<span%s>%s</span>", attr, escapedText(n))}

	case domain.KindImage:
		src, alt := "", ""
		if n.Image != nil {
			src, alt = n.Image.URL, n.Image.Alt
		}
		return fragment{markup: fmt.Sprintf("<img src=\"%s\" alt=\"%s\"%s>",
			html.EscapeString(src), html.EscapeString(alt), attr)}

	case domain.KindButton:
		return fragment{markup: fmt.Sprintf("<button type=\"button\"%s>%s</button>", attr, escapedLabel(n))}
	case domain.KindCheckbox:
		checked := ""
		if n.Control != nil && n.Control.Checked {
			checked = " checked"
		}
		return fragment{markup: fmt.Sprintf("<label%s><input type=\"checkbox\"%s> %s</label>",
			attr, checked, escapedLabel(n))}
	case domain.KindTextField:
		placeholder, value := "", ""
		if n.Control != nil {
			placeholder, value = n.Control.Placeholder, n.Control.Value
		}
		return fragment{markup: fmt.Sprintf("<input type=\"text\" placeholder=\"%s\" value=\"%s\"%s>",
			html.EscapeString(placeholder), html.EscapeString(value), attr)}
	case domain.KindTextFieldMultiline:
		rows, placeholder, value := 3, "", ""
		if n.Control != nil {
			if n.Control.Rows > 0 {
				rows = n.Control.Rows
			}
			placeholder, value = n.Control.Placeholder, n.Control.Value
		}
		return fragment{markup: fmt.Sprintf("<textarea rows=\"%d\" placeholder=\"%s\"%s>%s</textarea>",
			rows, html.EscapeString(placeholder), attr, html.EscapeString(value))}

	case domain.KindRadio:
		group := "group"
		if n.Control != nil && n.Control.Group != "" {
			group = n.Control.Group
		}
		var inner []string
		for _, kid := range kids {
			if kid.option == nil {
				inner = append(inner, kid.markup)
				continue
			}
			checked := ""
			if kid.option.checked {
				checked = " checked"
			}
			inner = append(inner, fmt.Sprintf(
				"<label%s><input type=\"radio\" name=\"%s\" value=\"%s\"%s> %s</label>",
				styleAttr(kid.option.style), html.EscapeString(group),
				html.EscapeString(kid.option.value), checked, kid.option.label))
		}
		return fragment{markup: wrap(`fieldset class="radio-group"`, attr, strings.Join(inner, "\n"))}
	case domain.KindOption:
		opt := &optionInput{label: escapedLabel(n), style: style}
		if n.Control != nil {
			opt.value = n.Control.Value
			opt.checked = n.Control.Checked
		}
		return fragment{option: opt}
	}

	return fragment{markup: joinMarkup(kids)}
}

func wrap(openTag, attr, inner string) string {
	name := openTag
	if i := strings.IndexByte(openTag, ' '); i >= 0 {
		name = openTag[:i]
	}
	if inner == "" {
		return fmt.Sprintf("<%s%s></%s>", openTag, attr, name)
	}
	return fmt.Sprintf("<%s%s>\n%s\n</%s>", openTag, attr, inner, name)
}

func joinMarkup(kids []fragment) string {
	parts := make([]string, 0, len(kids))
	for _, k := range kids {
		if k.markup != "" {
			parts = append(parts, k.markup)
		}
	}
	return strings.Join(parts, "\n")
}

func styleAttr(style string) string {
	if style == "" {
		return ""
	}
	return fmt.Sprintf(" style=\"%s\"", style)
}

func escapedText(n domain.Node) string {
	if n.Text == nil {
		return ""
	}
	return html.EscapeString(n.Text.Content)
}

func escapedLabel(n domain.Node) string {
	if n.Control == nil {
		return ""
	}
	return html.EscapeString(n.Control.Label)
}

// inlineCSS turns the node's style record into a CSS declaration list.
// Font attributes are emitted only where they are local (plus the full
// resolved triple at the root): CSS inheritance then reproduces the
// document's own resolution rules.
func inlineCSS(r render.Resolved) string {
	s := r.Node.Style
	var rules []string

	rules = append(rules, dimensionCSS("width", s.Width)...)
	rules = append(rules, dimensionCSS("height", s.Height)...)

	if css := insetsCSS("margin", s.Spacing); css != "" {
		rules = append(rules, css)
	}
	if css := insetsCSS("padding", s.Padding); css != "" {
		rules = append(rules, css)
	}

	if css := transformCSS(s.Transform); css != "" {
		rules = append(rules, css)
	}
	if css := borderCSS(s.Border); css != "" {
		rules = append(rules, css)
	}
	if css := radiusCSS(s.Border.Radius); css != "" {
		rules = append(rules, css)
	}
	if css := shadowCSS(s.Shadow); css != "" {
		rules = append(rules, css)
	}

	switch s.Background.Kind {
	case domain.BackgroundSolid:
		if s.Background.Color != "" {
			rules = append(rules, fmt.Sprintf("background-color:%s", s.Background.Color))
		}
	case domain.BackgroundImage:
		if s.Background.URL != "" {
			rules = append(rules, fmt.Sprintf("background-image:url('%s')", s.Background.URL), "background-size:cover")
		}
	}

	if a := alignCSS("justify-content", s.Align.X); a != "" {
		rules = append(rules, a)
	}
	if a := alignCSS("align-items", s.Align.Y); a != "" {
		rules = append(rules, a)
	}
	if s.Stacking == domain.StackingInFront {
		rules = append(rules, "z-index:1")
	}

	if r.Depth == 0 {
		rules = append(rules,
			fmt.Sprintf("font-family:%s", r.Font.Family),
			fmt.Sprintf("color:%s", r.Font.Color),
			fmt.Sprintf("font-size:%dpx", r.Font.Size))
	} else {
		if s.Font.Family.Local {
			rules = append(rules, fmt.Sprintf("font-family:%s", r.Font.Family))
		}
		if s.Font.Color.Local {
			rules = append(rules, fmt.Sprintf("color:%s", r.Font.Color))
		}
		if s.Font.Size.Local {
			rules = append(rules, fmt.Sprintf("font-size:%dpx", r.Font.Size))
		}
	}

	return strings.Join(rules, ";")
}

func dimensionCSS(axis string, d domain.Dimension) []string {
	var rules []string
	switch d.Mode {
	case domain.SizeFixed:
		rules = append(rules, fmt.Sprintf("%s:%dpx", axis, d.Value))
	case domain.SizeFill:
		rules = append(rules, fmt.Sprintf("%s:100%%", axis))
	}
	if d.Min > 0 {
		rules = append(rules, fmt.Sprintf("min-%s:%dpx", axis, d.Min))
	}
	if d.Max > 0 {
		rules = append(rules, fmt.Sprintf("max-%s:%dpx", axis, d.Max))
	}
	return rules
}

func insetsCSS(prop string, e domain.EdgeInsets) string {
	if e.Top == 0 && e.Right == 0 && e.Bottom == 0 && e.Left == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%dpx %dpx %dpx %dpx", prop, e.Top, e.Right, e.Bottom, e.Left)
}

func transformCSS(t domain.Transform) string {
	var parts []string
	if t.X != 0 || t.Y != 0 {
		parts = append(parts, fmt.Sprintf("translate(%dpx,%dpx)", t.X, t.Y))
	}
	if t.Rotation != 0 {
		parts = append(parts, fmt.Sprintf("rotate(%gdeg)", t.Rotation))
	}
	if t.Scale != 0 && t.Scale != 1 {
		parts = append(parts, fmt.Sprintf("scale(%g)", t.Scale))
	}
	if len(parts) == 0 {
		return ""
	}
	return "transform:" + strings.Join(parts, " ")
}

func borderCSS(b domain.Border) string {
	w := b.Width
	if w.Top == 0 && w.Right == 0 && w.Bottom == 0 && w.Left == 0 {
		return ""
	}
	style := b.Style
	if style == "" {
		style = domain.LineSolid
	}
	color := b.Color
	if color == "" {
		color = "#000000"
	}
	if w.Top == w.Right && w.Right == w.Bottom && w.Bottom == w.Left {
		return fmt.Sprintf("border:%dpx %s %s", w.Top, style, color)
	}
	return fmt.Sprintf("border-style:%s;border-color:%s;border-width:%dpx %dpx %dpx %dpx",
		style, color, w.Top, w.Right, w.Bottom, w.Left)
}

func radiusCSS(c domain.Corners) string {
	if c.TopLeft == 0 && c.TopRight == 0 && c.BottomRight == 0 && c.BottomLeft == 0 {
		return ""
	}
	return fmt.Sprintf("border-radius:%dpx %dpx %dpx %dpx", c.TopLeft, c.TopRight, c.BottomRight, c.BottomLeft)
}

func shadowCSS(s domain.Shadow) string {
	if s.Color == "" {
		return ""
	}
	inset := ""
	if s.Kind == domain.ShadowInner {
		inset = "inset "
	}
	return fmt.Sprintf("box-shadow:%s%dpx %dpx %dpx %dpx %s", inset, s.OffsetX, s.OffsetY, s.Blur, s.Size, s.Color)
}

func alignCSS(prop string, a domain.Align) string {
	switch a {
	case domain.AlignStart:
		return prop + ":flex-start"
	case domain.AlignCenter:
		return prop + ":center"
	case domain.AlignEnd:
		return prop + ":flex-end"
	case domain.AlignStretch:
		return prop + ":stretch"
	}
	return ""
}

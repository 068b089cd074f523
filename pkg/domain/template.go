package domain

// Template is a prototype node record whose ids are placeholders.
// Instantiate stamps a fresh identity onto every node of a copy, so one
// template can be placed any number of times.
type Template struct {
	Name string `json:"name"`
	Node Node   `json:"node"`
}

// Instantiate clones the template's subtree with fresh ids.
func (t Template) Instantiate(seed Seed) (Node, Seed) {
	return CloneTree(t.Node, seed)
}

// Blank returns an un-identified node of the given kind with the default
// style and a kind-appropriate empty payload. The caller stamps identity via
// CloneTree or Template.Instantiate.
func Blank(kind Kind) Node {
	n := Node{
		ID:    PlaceholderID,
		Kind:  kind,
		Style: DefaultStyle(),
	}
	switch kind {
	case KindHeading:
		n.Text = &TextPayload{Content: "Heading", Level: 1}
	case KindParagraph:
		n.Text = &TextPayload{Content: "Paragraph"}
	case KindText:
		n.Text = &TextPayload{Content: "Text"}
	case KindImage:
		n.Image = &ImagePayload{}
	case KindButton:
		n.Control = &ControlPayload{Label: "Button"}
	case KindCheckbox:
		n.Control = &ControlPayload{Label: "Checkbox"}
	case KindTextField:
		n.Control = &ControlPayload{Placeholder: "Text"}
	case KindTextFieldMultiline:
		n.Control = &ControlPayload{Placeholder: "Text", Rows: 3}
	case KindRadio:
		n.Control = &ControlPayload{Group: "group"}
	case KindOption:
		n.Control = &ControlPayload{Label: "Option"}
	}
	return n
}

// BuiltinTemplates returns the stock template per kind, keyed by the kind's
// wire tag. A flat-file catalog can override or extend these.
func BuiltinTemplates() map[string]Template {
	out := make(map[string]Template, len(Kinds))
	for _, k := range Kinds {
		if k == KindDocument {
			// Documents are never instantiated from a template; they
			// are the root NewDocument builds.
			continue
		}
		t := Template{Name: string(k), Node: Blank(k)}
		if k == KindRadio {
			// A usable radio group starts with two options.
			t.Node.Children = []Node{Blank(KindOption), Blank(KindOption)}
		}
		out[string(k)] = t
	}
	return out
}

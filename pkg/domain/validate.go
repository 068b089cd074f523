package domain

import "fmt"

// Violation describes one invariant breach found by ValidateDocument.
type Violation struct {
	NodeID NodeID `json:"node_id,omitempty"`
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

func (v Violation) String() string {
	if v.NodeID == "" {
		return fmt.Sprintf("%s: %s", v.Rule, v.Detail)
	}
	return fmt.Sprintf("%s: %s (node %s)", v.Rule, v.Detail, v.NodeID)
}

// Rule names reported by ValidateDocument.
const (
	RuleRootKind    = "root-kind"
	RuleUniqueID    = "unique-id"
	RuleEmptyID     = "empty-id"
	RuleContainment = "containment"
	RuleNeighbor    = "neighbor"
	RulePageChild   = "page-child"
	RulePayload     = "payload"
	RuleStyleRange  = "style-range"
	RuleCollapsed   = "collapsed"
	RuleSchema      = "schema"
)

// ValidateDocument checks every structural invariant of the envelope and
// returns all violations found. A nil result means the document is
// well-formed. Validation never mutates and never stops at the first
// finding; store loads and remote writes surface the full list.
func ValidateDocument(d Document) []Violation {
	var out []Violation

	if d.Schema != SchemaVersion {
		out = append(out, Violation{
			Rule:   RuleSchema,
			Detail: fmt.Sprintf("schema %d, expected %d", d.Schema, SchemaVersion),
		})
	}

	if d.Root.Kind != KindDocument {
		out = append(out, Violation{
			NodeID: d.Root.ID,
			Rule:   RuleRootKind,
			Detail: fmt.Sprintf("root is %s, expected %s", d.Root.Kind, KindDocument),
		})
	}

	seen := make(map[NodeID]bool, d.Root.Count())
	d.Root.Walk(func(n Node) bool {
		if n.ID == "" || n.ID == PlaceholderID {
			out = append(out, Violation{NodeID: n.ID, Rule: RuleEmptyID, Detail: "node has no stamped identity"})
		} else if seen[n.ID] {
			out = append(out, Violation{NodeID: n.ID, Rule: RuleUniqueID, Detail: "id appears more than once"})
		}
		seen[n.ID] = true

		out = append(out, validateNode(n)...)
		return true
	})

	for id := range d.Collapsed {
		if !seen[id] {
			out = append(out, Violation{NodeID: id, Rule: RuleCollapsed, Detail: "collapsed id not present in tree"})
		}
	}

	return out
}

func validateNode(n Node) []Violation {
	var out []Violation

	for _, child := range n.Children {
		if !CanContain(n.Kind, child.Kind) {
			out = append(out, Violation{
				NodeID: child.ID,
				Rule:   RuleContainment,
				Detail: fmt.Sprintf("%s may not contain %s", n.Kind, child.Kind),
			})
		}
		// Document children are Pages in well-formed documents, a
		// stricter rule than the containment table alone.
		if n.Kind == KindDocument && child.Kind != KindPage {
			out = append(out, Violation{
				NodeID: child.ID,
				Rule:   RulePageChild,
				Detail: fmt.Sprintf("document child is %s, expected %s", child.Kind, KindPage),
			})
		}
	}
	for i := 1; i < len(n.Children); i++ {
		prev, cur := n.Children[i-1], n.Children[i]
		if !CanNeighbor(prev.Kind, cur.Kind) {
			out = append(out, Violation{
				NodeID: cur.ID,
				Rule:   RuleNeighbor,
				Detail: fmt.Sprintf("%s may not sit beside %s", cur.Kind, prev.Kind),
			})
		}
	}

	if v, ok := validatePayload(n); !ok {
		out = append(out, v)
	}
	out = append(out, validateStyle(n)...)
	return out
}

func validatePayload(n Node) (Violation, bool) {
	wantText := n.Kind == KindHeading || n.Kind == KindParagraph || n.Kind == KindText
	wantImage := n.Kind == KindImage
	wantControl := n.Kind == KindButton || n.Kind == KindCheckbox ||
		n.Kind == KindTextField || n.Kind == KindTextFieldMultiline ||
		n.Kind == KindRadio || n.Kind == KindOption

	ok := (n.Text != nil) == wantText &&
		(n.Image != nil) == wantImage &&
		(n.Control != nil) == wantControl
	if ok {
		return Violation{}, true
	}
	return Violation{
		NodeID: n.ID,
		Rule:   RulePayload,
		Detail: fmt.Sprintf("payload does not match kind %s", n.Kind),
	}, false
}

func validateStyle(n Node) []Violation {
	var out []Violation
	report := func(what string) {
		out = append(out, Violation{NodeID: n.ID, Rule: RuleStyleRange, Detail: what})
	}

	checkDim := func(axis string, d Dimension) {
		if d.Value < SizeMin || d.Value > SizeMax {
			report(fmt.Sprintf("%s value %d outside [%d,%d]", axis, d.Value, SizeMin, SizeMax))
		}
		if d.Min < SizeMin || d.Min > SizeMax {
			report(fmt.Sprintf("%s min %d outside [%d,%d]", axis, d.Min, SizeMin, SizeMax))
		}
		if d.Max < SizeMin || d.Max > SizeMax {
			report(fmt.Sprintf("%s max %d outside [%d,%d]", axis, d.Max, SizeMin, SizeMax))
		}
		if d.Min > 0 && d.Max > 0 && d.Min > d.Max {
			report(fmt.Sprintf("%s min %d exceeds max %d", axis, d.Min, d.Max))
		}
	}
	checkDim("width", n.Style.Width)
	checkDim("height", n.Style.Height)

	checkEdges := func(what string, e EdgeInsets) {
		for _, v := range []int{e.Top, e.Right, e.Bottom, e.Left} {
			if v < SizeMin || v > SizeMax {
				report(fmt.Sprintf("%s edge %d outside [%d,%d]", what, v, SizeMin, SizeMax))
				return
			}
		}
	}
	checkEdges("spacing", n.Style.Spacing)
	checkEdges("padding", n.Style.Padding)
	checkEdges("border width", n.Style.Border.Width)

	return out
}

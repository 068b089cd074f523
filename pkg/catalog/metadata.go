package catalog

// TemplateSpec is the frontmatter of a template file. It uses
// "mapstructure" tags to match the YAML keys authors write.
//
// A spec describes one node: its kind plus the payload fields that apply
// to that kind, and optionally nested children. Unknown or inapplicable
// fields are ignored. For text-bearing kinds the markdown body, when
// present, overrides the text field of the top-level node.
type TemplateSpec struct {
	Name string `json:"name" mapstructure:"name"`
	Kind string `json:"kind" mapstructure:"kind"`

	// Text payload (heading, paragraph, text)
	Text  string `json:"text" mapstructure:"text"`
	Level int    `json:"level" mapstructure:"level"`

	// Image payload
	URL string `json:"url" mapstructure:"url"`
	Alt string `json:"alt" mapstructure:"alt"`

	// Control payload (button, checkbox, fields, radio, option)
	Label       string `json:"label" mapstructure:"label"`
	Value       string `json:"value" mapstructure:"value"`
	Placeholder string `json:"placeholder" mapstructure:"placeholder"`
	Checked     bool   `json:"checked" mapstructure:"checked"`
	Rows        int    `json:"rows" mapstructure:"rows"`
	Group       string `json:"group" mapstructure:"group"`

	Children []TemplateSpec `json:"children" mapstructure:"children"`
}

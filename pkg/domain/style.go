package domain

import "strconv"

// Size limits for every numeric style input (widths, heights, spacings,
// offsets). Inputs outside the range are clamped, never rejected.
const (
	SizeMin = 0
	SizeMax = 9999
)

// ClampSize forces v into the [SizeMin, SizeMax] range.
func ClampSize(v int) int {
	if v < SizeMin {
		return SizeMin
	}
	if v > SizeMax {
		return SizeMax
	}
	return v
}

// ParseSize turns free-form numeric text from a property field into a size.
// Unparseable input falls back to 0; everything is clamped. Editing a style
// never fails on bad numeric text.
func ParseSize(text string) int {
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return ClampSize(v)
}

// SizeMode selects how a dimension is computed.
type SizeMode string

const (
	SizeFixed SizeMode = "fixed" // exact Value
	SizeFill  SizeMode = "fill"  // expand into available space
	SizeFit   SizeMode = "fit"   // shrink to content
)

// Dimension is one axis of a node's sizing.
// Min and Max are optional clamps; 0 means unbounded on that side.
type Dimension struct {
	Mode  SizeMode `json:"mode"`
	Value int      `json:"value,omitempty"`
	Min   int      `json:"min,omitempty"`
	Max   int      `json:"max,omitempty"`
}

// Fixed returns a fixed dimension of v (clamped).
func Fixed(v int) Dimension { return Dimension{Mode: SizeFixed, Value: ClampSize(v)} }

// Fill returns a dimension that expands into available space.
func Fill() Dimension { return Dimension{Mode: SizeFill} }

// Fit returns a dimension that shrinks to content.
func Fit() Dimension { return Dimension{Mode: SizeFit} }

// EdgeInsets is a per-edge integer quad. When Locked is set, property
// editors apply one value to all four edges.
type EdgeInsets struct {
	Top    int  `json:"top,omitempty"`
	Right  int  `json:"right,omitempty"`
	Bottom int  `json:"bottom,omitempty"`
	Left   int  `json:"left,omitempty"`
	Locked bool `json:"locked,omitempty"`
}

// Uniform returns insets with all four edges at v (clamped) and the lock on.
func Uniform(v int) EdgeInsets {
	v = ClampSize(v)
	return EdgeInsets{Top: v, Right: v, Bottom: v, Left: v, Locked: true}
}

// Corners is a per-corner integer quad for border radii.
type Corners struct {
	TopLeft     int  `json:"top_left,omitempty"`
	TopRight    int  `json:"top_right,omitempty"`
	BottomRight int  `json:"bottom_right,omitempty"`
	BottomLeft  int  `json:"bottom_left,omitempty"`
	Locked      bool `json:"locked,omitempty"`
}

// Transform is the node's 2D placement on the canvas.
type Transform struct {
	X        int     `json:"x,omitempty"`
	Y        int     `json:"y,omitempty"`
	Rotation float64 `json:"rotation,omitempty"` // degrees, clockwise
	Scale    float64 `json:"scale,omitempty"`    // 1 = natural size
}

// LineStyle is the stroke pattern of a border.
type LineStyle string

const (
	LineSolid  LineStyle = "solid"
	LineDashed LineStyle = "dashed"
	LineDotted LineStyle = "dotted"
)

// Border describes the node's outline.
type Border struct {
	Color  Color      `json:"color,omitempty"`
	Style  LineStyle  `json:"style,omitempty"`
	Width  EdgeInsets `json:"width"`
	Radius Corners    `json:"radius"`
}

// ShadowKind places the shadow outside or inside the node's box.
type ShadowKind string

const (
	ShadowOuter ShadowKind = "outer"
	ShadowInner ShadowKind = "inner"
)

// Shadow describes the node's drop shadow.
type Shadow struct {
	OffsetX int        `json:"offset_x,omitempty"`
	OffsetY int        `json:"offset_y,omitempty"`
	Size    int        `json:"size,omitempty"`
	Blur    int        `json:"blur,omitempty"`
	Color   Color      `json:"color,omitempty"`
	Kind    ShadowKind `json:"kind,omitempty"`
}

// BackgroundKind tags the background union.
type BackgroundKind string

const (
	BackgroundNone  BackgroundKind = "none"
	BackgroundSolid BackgroundKind = "solid"
	BackgroundImage BackgroundKind = "image"
)

// Background is a tagged union: none, a solid color, or an image URL.
// Color is meaningful only for solid, URL only for image.
type Background struct {
	Kind  BackgroundKind `json:"kind"`
	Color Color          `json:"color,omitempty"`
	URL   string         `json:"url,omitempty"`
}

// Align is one axis of a node's alignment inside its parent.
type Align string

const (
	AlignNone    Align = "none"
	AlignStart   Align = "start"
	AlignCenter  Align = "center"
	AlignEnd     Align = "end"
	AlignStretch Align = "stretch"
)

// Alignment is the per-axis alignment pair.
type Alignment struct {
	X Align `json:"x,omitempty"`
	Y Align `json:"y,omitempty"`
}

// Stacking selects the node's paint order relative to its siblings.
type Stacking string

const (
	StackingNormal  Stacking = "normal"
	StackingInFront Stacking = "in_front"
)

// Color is a CSS-style hex string such as "#1f2933". Empty means unset.
type Color string

// Typography is the inheritable text styling triple. Each attribute is
// independently Local or Inherit; resolution walks ancestors (resolve.go).
type Typography struct {
	Family Inheritable[string] `json:"family"`
	Color  Inheritable[Color]  `json:"color"`
	Size   Inheritable[int]    `json:"size"`
}

// Style is the full visual record every node carries, regardless of kind.
type Style struct {
	Width      Dimension  `json:"width"`
	Height     Dimension  `json:"height"`
	Spacing    EdgeInsets `json:"spacing"`
	Padding    EdgeInsets `json:"padding"`
	Transform  Transform  `json:"transform"`
	Border     Border     `json:"border"`
	Shadow     Shadow     `json:"shadow"`
	Background Background `json:"background"`
	Font       Typography `json:"font"`
	Align      Alignment  `json:"align"`
	Stacking   Stacking   `json:"stacking,omitempty"`
}

// DefaultStyle is the style every fresh node starts from: fit-sized,
// untransformed, no background, everything inherited.
func DefaultStyle() Style {
	return Style{
		Width:      Fit(),
		Height:     Fit(),
		Transform:  Transform{Scale: 1},
		Background: Background{Kind: BackgroundNone},
		Stacking:   StackingNormal,
	}
}

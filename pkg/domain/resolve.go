package domain

// resolve walks from the focus toward the root and returns the first local
// value of the picked attribute, or def when every level inherits.
// Resolution is a pure function of tree position: callers recompute after
// reparenting or after editing a local setting, nothing is cached.
func resolve[T any](c Cursor, pick func(Style) Inheritable[T], def T) T {
	for {
		if attr := pick(c.Node().Style); attr.Local {
			return attr.Value
		}
		up, ok := c.Up()
		if !ok {
			return def
		}
		c = up
	}
}

// ResolveFontFamily returns the effective font family at the focus.
func ResolveFontFamily(c Cursor, def string) string {
	return resolve(c, func(s Style) Inheritable[string] { return s.Font.Family }, def)
}

// ResolveFontColor returns the effective font color at the focus.
func ResolveFontColor(c Cursor, def Color) Color {
	return resolve(c, func(s Style) Inheritable[Color] { return s.Font.Color }, def)
}

// ResolveFontSize returns the effective font size at the focus.
func ResolveFontSize(c Cursor, def int) int {
	return resolve(c, func(s Style) Inheritable[int] { return s.Font.Size }, def)
}

// ResolvedTypography is the fully resolved text styling at one position,
// ready for a renderer or code generator.
type ResolvedTypography struct {
	Family string `json:"family"`
	Color  Color  `json:"color"`
	Size   int    `json:"size"`
}

// ResolveTypography resolves all three font attributes at once against a
// set of defaults.
func ResolveTypography(c Cursor, def ResolvedTypography) ResolvedTypography {
	return ResolvedTypography{
		Family: ResolveFontFamily(c, def.Family),
		Color:  ResolveFontColor(c, def.Color),
		Size:   ResolveFontSize(c, def.Size),
	}
}

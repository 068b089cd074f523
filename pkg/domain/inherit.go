package domain

// Inheritable wraps a style attribute that is either set locally on a node
// or falls through to the nearest ancestor carrying a local value. The zero
// value inherits.
type Inheritable[T any] struct {
	Local bool `json:"local,omitempty"`
	Value T    `json:"value,omitempty"`
}

// Local marks v as set on the node itself.
func Local[T any](v T) Inheritable[T] {
	return Inheritable[T]{Local: true, Value: v}
}

// Inherit returns an attribute that defers to the ancestors.
func Inherit[T any]() Inheritable[T] {
	return Inheritable[T]{}
}

// Or returns the local value when set, def otherwise. This is the terminal
// step of resolution once the ancestor walk is exhausted.
func (i Inheritable[T]) Or(def T) T {
	if i.Local {
		return i.Value
	}
	return def
}

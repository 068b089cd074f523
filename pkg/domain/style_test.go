package domain

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"Plain", "42", 42},
		{"Overflow Clamps", "99999", 9999},
		{"Upper Bound", "9999", 9999},
		{"Just Above", "10000", 9999},
		{"Negative Falls To Zero", "-5", 0},
		{"Garbage Falls To Zero", "12px", 0},
		{"Empty Falls To Zero", "", 0},
		{"Zero", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSize(tt.text); got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestClampSize(t *testing.T) {
	if got := ClampSize(-1); got != 0 {
		t.Errorf("ClampSize(-1) = %d, want 0", got)
	}
	if got := ClampSize(10000); got != 9999 {
		t.Errorf("ClampSize(10000) = %d, want 9999", got)
	}
	if got := ClampSize(500); got != 500 {
		t.Errorf("ClampSize(500) = %d, want 500", got)
	}
}

func TestDimensionHelpers(t *testing.T) {
	if d := Fixed(120); d.Mode != SizeFixed || d.Value != 120 {
		t.Errorf("Fixed(120) = %+v", d)
	}
	if d := Fixed(50000); d.Value != 9999 {
		t.Errorf("Fixed clamps: got %d", d.Value)
	}
	if d := Fill(); d.Mode != SizeFill {
		t.Errorf("Fill() = %+v", d)
	}
	if d := Fit(); d.Mode != SizeFit {
		t.Errorf("Fit() = %+v", d)
	}
}

func TestUniformInsets(t *testing.T) {
	e := Uniform(8)
	if e.Top != 8 || e.Right != 8 || e.Bottom != 8 || e.Left != 8 {
		t.Errorf("Uniform(8) = %+v", e)
	}
	if !e.Locked {
		t.Error("Uniform should lock the edges")
	}
}

func TestDefaultStyle(t *testing.T) {
	s := DefaultStyle()

	if s.Width.Mode != SizeFit || s.Height.Mode != SizeFit {
		t.Errorf("default sizing = %+v/%+v, want fit", s.Width, s.Height)
	}
	if s.Background.Kind != BackgroundNone {
		t.Errorf("default background = %+v", s.Background)
	}
	if s.Transform.Scale != 1 {
		t.Errorf("default scale = %v, want 1", s.Transform.Scale)
	}
	if s.Font.Family.Local || s.Font.Color.Local || s.Font.Size.Local {
		t.Error("default typography must inherit everything")
	}
	if s.Stacking != StackingNormal {
		t.Errorf("default stacking = %s", s.Stacking)
	}
}

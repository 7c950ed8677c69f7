package paint

import "github.com/woozymasta/geopaint/internal/geo"

const (
	eyedropperLabel       = "Eyedropper"
	eyedropperLabelActive = "Eyedropper (active)"
	eyedropperBorder      = "#2a2a2a"
	eyedropperBorderOn    = "var(--accent)"
)

// Eyedropper describes the toggle button affordance.
type Eyedropper struct {
	Label  string `json:"label"`
	Border string `json:"border"`
	Active bool   `json:"active"`
}

// Color returns the current picker value.
func (p *Painter) Color() string {
	return p.color
}

// Swatch returns the color shown next to the picker.
func (p *Painter) Swatch() string {
	return p.color
}

// SetColor changes the picker value.
func (p *Painter) SetColor(value string) error {
	c, err := geo.NormalizeColor(value)
	if err != nil {
		return err
	}

	p.color = c
	p.changed()
	return nil
}

// Eyedropper returns the toggle state.
func (p *Painter) Eyedropper() Eyedropper {
	if p.eyedropper {
		return Eyedropper{Active: true, Label: eyedropperLabelActive, Border: eyedropperBorderOn}
	}
	return Eyedropper{Active: false, Label: eyedropperLabel, Border: eyedropperBorder}
}

// ToggleEyedropper flips the eyedropper mode. When it turns on, the color stored on the
// last clicked region is copied into the picker unless it is missing or the default fill.
func (p *Painter) ToggleEyedropper() {
	p.eyedropper = !p.eyedropper

	if p.eyedropper {
		if r, ok := p.LastClicked(); ok {
			if c, ok := r.Fill(); ok && !sameColor(c, p.cfg.Style.FillColor) {
				p.color = c
			}
		}
	}

	p.changed()
}

func sameColor(a, b string) bool {
	na, errA := geo.NormalizeColor(a)
	nb, errB := geo.NormalizeColor(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return na == nb
}

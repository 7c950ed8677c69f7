package paint

import (
	"github.com/paulmach/orb"

	"github.com/woozymasta/geopaint/internal/config"
	"github.com/woozymasta/geopaint/internal/geo"
)

// Surface is the base map: fixed tile layer settings, the current view
// and at most one attached region collection.
type Surface struct {
	cfg    config.Surface
	layer  *Collection
	view   geo.View
	width  int
	height int
	seq    uint64
}

// NewSurface creates a surface showing the default view.
func NewSurface(cfg config.Surface) *Surface {
	s := &Surface{
		cfg:    cfg,
		width:  cfg.Width,
		height: cfg.Height,
	}
	if s.width <= 0 {
		s.width = 1280
	}
	if s.height <= 0 {
		s.height = 800
	}
	s.SetDefaultView()

	return s
}

// Attach replaces the attached collection with c.
func (s *Surface) Attach(c *Collection) {
	s.layer = c
}

// Detach removes the attached collection.
func (s *Surface) Detach() {
	s.layer = nil
}

// Layer returns the attached collection or nil.
func (s *Surface) Layer() *Collection {
	return s.layer
}

// View returns the current view.
func (s *Surface) View() geo.View {
	return s.view
}

// ViewSeq counts view changes, including moves to an unchanged view.
func (s *Surface) ViewSeq() uint64 {
	return s.seq
}

// Size returns the viewport size in pixels.
func (s *Surface) Size() (width, height int) {
	return s.width, s.height
}

// Resize records the viewport size reported by the page.
func (s *Surface) Resize(width, height int) {
	if width > 0 {
		s.width = width
	}
	if height > 0 {
		s.height = height
	}
}

// SetView moves the map to center ([Lat, Lon]) at zoom, clamped to the layer range.
func (s *Surface) SetView(center [2]float64, zoom int) {
	s.view = geo.View{
		Center: center,
		Zoom:   geo.ClampZoom(zoom, s.cfg.MinZoom, s.cfg.MaxZoom),
	}
	s.seq++
}

// SetDefaultView moves the map to the configured fallback view.
func (s *Surface) SetDefaultView() {
	s.SetView(s.cfg.DefaultCenter, s.cfg.DefaultZoom)
}

// FitBounds shows b with padding pixels around it. A positive maxZoom caps the zoom.
func (s *Surface) FitBounds(b orb.Bound, padding, maxZoom int) {
	limit := s.cfg.MaxZoom
	if maxZoom > 0 && maxZoom < limit {
		limit = maxZoom
	}
	s.view = geo.FitBound(b, s.width, s.height, padding, s.cfg.MinZoom, limit)
	s.seq++
}

package paint

import "github.com/woozymasta/geopaint/internal/geo"

// Snapshot is the serializable view of the painter state.
type Snapshot struct {
	LastClicked *RegionKey    `json:"last_clicked"`
	Surface     SurfaceInfo   `json:"surface"`
	Eyedropper  Eyedropper    `json:"eyedropper"`
	Color       string        `json:"color"`
	Swatch      string        `json:"swatch"`
	Regions     []RegionState `json:"regions"`
	View        geo.View      `json:"view"`
	ViewSeq     uint64        `json:"view_seq"`
	Generation  uint64        `json:"generation"`
	Loaded      bool          `json:"loaded"`
}

// SurfaceInfo is the base layer setup the page needs.
type SurfaceInfo struct {
	TileURL     string  `json:"tile_url"`
	Attribution string  `json:"attribution"`
	MinZoom     int     `json:"min_zoom"`
	MaxZoom     int     `json:"max_zoom"`
	Opacity     float64 `json:"opacity"`
}

// RegionState is the per-region part of a snapshot.
type RegionState struct {
	Name  string `json:"name"`
	Fill  string `json:"fill,omitempty"`
	Style Style  `json:"style"`
	ID    int    `json:"id"`
	Z     int    `json:"z"`
}

// Snapshot captures the current state.
func (p *Painter) Snapshot() Snapshot {
	s := Snapshot{
		Surface: SurfaceInfo{
			TileURL:     p.cfg.Surface.TileURL,
			Attribution: p.cfg.Surface.Attribution,
			MinZoom:     p.cfg.Surface.MinZoom,
			MaxZoom:     p.cfg.Surface.MaxZoom,
			Opacity:     p.cfg.Surface.Opacity,
		},
		Eyedropper: p.Eyedropper(),
		Color:      p.color,
		Swatch:     p.Swatch(),
		View:       p.surface.View(),
		ViewSeq:    p.surface.ViewSeq(),
		Regions:    []RegionState{},
	}

	if r, ok := p.LastClicked(); ok {
		k := r.Key
		s.LastClicked = &k
	}

	c := p.surface.Layer()
	if c == nil {
		return s
	}

	s.Loaded = true
	s.Generation = c.Generation
	s.Regions = make([]RegionState, 0, len(c.Regions))
	for _, r := range c.Regions {
		fill, _ := r.Fill()
		s.Regions = append(s.Regions, RegionState{
			ID:    r.Key.Index,
			Name:  r.Name,
			Fill:  fill,
			Style: r.Style,
			Z:     r.Z,
		})
	}

	return s
}

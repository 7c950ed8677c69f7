package paint

import (
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geopaint/internal/config"
	"github.com/woozymasta/geopaint/internal/event"
	"github.com/woozymasta/geopaint/internal/geo"
	"github.com/woozymasta/geopaint/internal/metrics"
)

// Painter owns the whole interaction state of the painting page.
type Painter struct {
	cfg      *config.Config
	sched    event.Scheduler
	surface  *Surface
	restore  *pendingRestore
	observer func()

	names       geo.NameResolver
	lastClicked *RegionKey
	color       string
	generation  uint64
	eyedropper  bool
}

// New creates a painter with no collection attached.
func New(cfg *config.Config, sched event.Scheduler) (*Painter, error) {
	color, err := geo.NormalizeColor(cfg.Color)
	if err != nil {
		return nil, err
	}

	return &Painter{
		cfg:     cfg,
		sched:   sched,
		surface: NewSurface(cfg.Surface),
		names:   geo.NewNameResolver(cfg.Names.Keys, cfg.Names.Placeholder),
		color:   color,
	}, nil
}

// OnChange sets a callback invoked after every state change,
// including changes made by scheduled tasks.
func (p *Painter) OnChange(fn func()) {
	p.observer = fn
}

func (p *Painter) changed() {
	if p.observer != nil {
		p.observer()
	}
}

// Surface returns the map surface.
func (p *Painter) Surface() *Surface {
	return p.surface
}

// Collection returns the attached collection or nil.
func (p *Painter) Collection() *Collection {
	return p.surface.Layer()
}

// Names returns the display name resolver.
func (p *Painter) Names() geo.NameResolver {
	return p.names
}

// Region resolves a key against the attached collection.
func (p *Painter) Region(key RegionKey) (*Region, bool) {
	return p.surface.Layer().Region(key)
}

// LastClicked returns the most recently clicked region if it is still attached.
func (p *Painter) LastClicked() (*Region, bool) {
	if p.lastClicked == nil {
		return nil, false
	}
	return p.Region(*p.lastClicked)
}

func (p *Painter) defaultStyle() Style {
	return Style{
		Color:       p.cfg.Style.Color,
		FillColor:   p.cfg.Style.FillColor,
		Weight:      p.cfg.Style.Weight,
		Opacity:     p.cfg.Style.Opacity,
		FillOpacity: p.cfg.Style.FillOpacity,
	}
}

// BuildLayer replaces the attached collection with one built from fc and fits the view to it.
func (p *Painter) BuildLayer(fc *geojson.FeatureCollection) *Collection {
	if p.surface.Layer() != nil {
		p.surface.Detach()
	}
	p.cancelRestore()

	p.generation++
	c := newCollection(fc, p.generation, p.defaultStyle(), p.names)
	p.surface.Attach(c)

	if b, err := c.Bound(); err != nil {
		log.Debug().
			Err(err).
			Uint64("generation", c.Generation).
			Msg("Layer bounds unavailable, using default view")
		p.surface.SetDefaultView()
	} else {
		p.surface.FitBounds(b, p.cfg.FitPadding, 0)
	}

	metrics.LayerBuildsTotal.Inc()
	metrics.Regions.Set(float64(c.Len()))

	log.Info().
		Uint64("generation", c.Generation).
		Int("regions", c.Len()).
		Int("zoom", p.surface.View().Zoom).
		Msg("Region layer built")

	p.changed()
	return c
}

// FitAll fits the view to the whole collection.
func (p *Painter) FitAll() {
	c := p.surface.Layer()
	if c == nil {
		return
	}

	b, err := c.Bound()
	if err != nil {
		return
	}
	p.surface.FitBounds(b, p.cfg.FitPadding, 0)
	p.changed()
}

// Resize records the page viewport size.
func (p *Painter) Resize(width, height int) {
	p.surface.Resize(width, height)
}

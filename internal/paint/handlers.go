package paint

import (
	"github.com/woozymasta/geopaint/internal/event"
	"github.com/woozymasta/geopaint/internal/metrics"
)

// Register binds every page control to the painter.
func (p *Painter) Register(d *event.Dispatcher) {
	region := func(fn func(RegionKey) error) event.Handler {
		return func(ev event.Event) error {
			return fn(RegionKey{Generation: ev.Generation, Index: ev.Region})
		}
	}
	action := func(fn func()) event.Handler {
		return func(event.Event) error {
			fn()
			return nil
		}
	}

	p.register(d, event.Region, event.Click, region(p.Click))
	p.register(d, event.Region, event.MouseOver, region(p.HoverIn))
	p.register(d, event.Region, event.MouseOut, region(p.HoverOut))

	p.register(d, event.Color, event.Input, func(ev event.Event) error {
		return p.SetColor(ev.Value)
	})
	p.register(d, event.Eyedropper, event.Click, action(p.ToggleEyedropper))

	p.register(d, event.ResetSel, event.Click, action(p.ResetSelection))
	p.register(d, event.ResetAll, event.Click, action(p.ResetAll))
	p.register(d, event.FitAll, event.Click, action(p.FitAll))

	p.register(d, event.Search, event.KeyUp, func(ev event.Event) error {
		p.Search(ev.Value)
		return nil
	})

	p.register(d, event.Surface, event.Resize, func(ev event.Event) error {
		p.Resize(ev.Width, ev.Height)
		return nil
	})
}

func (p *Painter) register(d *event.Dispatcher, c event.Component, k event.Kind, h event.Handler) {
	d.Register(c, k, func(ev event.Event) error {
		metrics.EventsTotal.WithLabelValues(string(c), string(k)).Inc()
		return h(ev)
	})
}

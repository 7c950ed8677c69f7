package paint

import (
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geopaint/internal/event"
	"github.com/woozymasta/geopaint/internal/geo"
)

type pendingRestore struct {
	timer event.Timer
	key   RegionKey
}

// Search emphasizes and zooms to the first region, in collection order,
// whose display name starts with the query. Case is ignored.
func (p *Painter) Search(query string) (*Region, bool) {
	q := geo.NormalizeQuery(query)
	c := p.surface.Layer()
	if q == "" || c == nil {
		return nil, false
	}

	var found *Region
	for _, r := range c.Regions {
		if geo.HasPrefixFold(r.Name, q) {
			found = r
			break
		}
	}
	if found == nil {
		log.Debug().Str("query", q).Msg("Search found no region")
		return nil, false
	}

	p.replaceRestore(found.Key)

	c.BringToFront(found)
	found.Style.Weight = p.cfg.Search.Weight
	if b, err := geo.Bound(found.Feature); err == nil {
		p.surface.FitBounds(b, p.cfg.Search.Padding, p.cfg.Search.MaxZoom)
	}

	pr := &pendingRestore{key: found.Key}
	pr.timer = p.sched.AfterFunc(p.cfg.Search.Delay, func() { p.finishRestore(pr) })
	p.restore = pr

	p.changed()
	return found, true
}

// replaceRestore stops the pending outline restore. A different region is restored
// right away so an older search never leaves its match emphasized.
func (p *Painter) replaceRestore(next RegionKey) {
	pr := p.restore
	if pr == nil {
		return
	}
	p.restore = nil
	pr.timer.Stop()

	if pr.key == next {
		return
	}
	if r, ok := p.Region(pr.key); ok {
		r.Style.Weight = p.cfg.Style.Weight
	}
}

func (p *Painter) cancelRestore() {
	if p.restore == nil {
		return
	}
	p.restore.timer.Stop()
	p.restore = nil
}

func (p *Painter) finishRestore(pr *pendingRestore) {
	// replaced after the timer already fired
	if p.restore != pr {
		return
	}
	p.restore = nil

	r, ok := p.Region(pr.key)
	if !ok {
		return
	}
	r.Style.Weight = p.cfg.Style.Weight
	p.changed()
}

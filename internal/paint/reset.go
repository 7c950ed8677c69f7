package paint

// ResetSelection restores the default fill of the last clicked region.
func (p *Painter) ResetSelection() {
	r, ok := p.LastClicked()
	if !ok {
		return
	}

	r.clearFill(p.cfg.Style.FillColor, p.cfg.Style.FillOpacity)
	p.changed()
}

// ResetAll restores the default fill of every region. The last clicked region is kept.
func (p *Painter) ResetAll() {
	c := p.surface.Layer()
	if c == nil {
		return
	}

	for _, r := range c.Regions {
		r.clearFill(p.cfg.Style.FillColor, p.cfg.Style.FillOpacity)
	}
	p.changed()
}

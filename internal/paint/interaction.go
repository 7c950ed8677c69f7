package paint

// Tooltip returns the sticky tooltip text of a region.
func (p *Painter) Tooltip(key RegionKey) (string, error) {
	r, ok := p.Region(key)
	if !ok {
		return "", ErrStaleRegion
	}
	return r.Name, nil
}

// HoverIn emphasizes the region outline.
func (p *Painter) HoverIn(key RegionKey) error {
	return p.setWeight(key, p.cfg.Style.HoverWeight)
}

// HoverOut restores the region outline.
func (p *Painter) HoverOut(key RegionKey) error {
	return p.setWeight(key, p.cfg.Style.Weight)
}

func (p *Painter) setWeight(key RegionKey, weight float64) error {
	r, ok := p.Region(key)
	if !ok {
		return ErrStaleRegion
	}

	r.Style.Weight = weight
	p.changed()
	return nil
}

// Click paints the region with the current picker color and remembers it as last clicked.
func (p *Painter) Click(key RegionKey) error {
	r, ok := p.Region(key)
	if !ok {
		return ErrStaleRegion
	}

	r.setFill(p.color, p.cfg.Style.PaintOpacity)
	k := r.Key
	p.lastClicked = &k

	p.changed()
	return nil
}

// Package paint holds the painting tool state and the operations behind every page control.
// A Painter is not safe for concurrent use; it is driven from a single event loop.
package paint

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/geopaint/internal/geo"
)

// FillKey is the reserved property holding the last applied fill color.
const FillKey = "_fill"

// ErrStaleRegion is returned for region keys that do not resolve in the current collection.
var ErrStaleRegion = errors.New("region is not in the current collection")

// Style is the visual style of a region, named like the Leaflet path options.
type Style struct {
	Color       string  `json:"color"`
	FillColor   string  `json:"fillColor"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fillOpacity"`
}

// RegionKey identifies a region by collection generation and position.
type RegionKey struct {
	Generation uint64 `json:"generation"`
	Index      int    `json:"index"`
}

// Region is one rendered feature.
type Region struct {
	Feature *geojson.Feature
	Name    string
	Style   Style
	Key     RegionKey
	Z       int
}

// Fill returns the stored fill color, if any.
func (r *Region) Fill() (string, bool) {
	c, ok := r.Feature.Properties[FillKey].(string)
	if !ok || c == "" {
		return "", false
	}
	return c, true
}

func (r *Region) setFill(color string, opacity float64) {
	r.Style.FillColor = color
	r.Style.FillOpacity = opacity
	r.Feature.Properties[FillKey] = color
}

func (r *Region) clearFill(color string, opacity float64) {
	r.Style.FillColor = color
	r.Style.FillOpacity = opacity
	r.Feature.Properties[FillKey] = nil
}

// Collection is the set of regions rendered together.
type Collection struct {
	Regions    []*Region
	Generation uint64

	bound    orb.Bound
	boundErr error
	nextZ    int
}

func newCollection(fc *geojson.FeatureCollection, generation uint64, style Style, names geo.NameResolver) *Collection {
	c := &Collection{Generation: generation}

	var features []*geojson.Feature
	if fc != nil {
		features = fc.Features
	}

	c.Regions = make([]*Region, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}

		// own copy of the attributes, paint state never leaks between builds
		props := f.Properties.Clone()
		if props == nil {
			props = geojson.Properties{}
		}
		delete(props, FillKey)

		feature := &geojson.Feature{
			ID:         f.ID,
			Type:       f.Type,
			BBox:       f.BBox,
			Geometry:   f.Geometry,
			Properties: props,
		}

		c.Regions = append(c.Regions, &Region{
			Feature: feature,
			Name:    names.Resolve(props),
			Style:   style,
			Key:     RegionKey{Generation: generation, Index: len(c.Regions)},
			Z:       len(c.Regions),
		})
	}
	c.nextZ = len(c.Regions)

	regionFeatures := make([]*geojson.Feature, len(c.Regions))
	for i, r := range c.Regions {
		regionFeatures[i] = r.Feature
	}
	c.bound, c.boundErr = geo.CollectionBound(regionFeatures)

	return c
}

// Region resolves a key, reporting false for other generations and unknown indexes.
func (c *Collection) Region(key RegionKey) (*Region, bool) {
	if c == nil || key.Generation != c.Generation {
		return nil, false
	}
	if key.Index < 0 || key.Index >= len(c.Regions) {
		return nil, false
	}
	return c.Regions[key.Index], true
}

// Bound returns the combined bound of the collection.
func (c *Collection) Bound() (orb.Bound, error) {
	return c.bound, c.boundErr
}

// Len returns the number of regions.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Regions)
}

// BringToFront draws r above its siblings.
func (c *Collection) BringToFront(r *Region) {
	r.Z = c.nextZ
	c.nextZ++
}

// FeatureCollection returns the regions as GeoJSON with "_id" and "_name" properties
// for the page to bind its layers to region keys.
func (c *Collection) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range c.Regions {
		props := r.Feature.Properties.Clone()
		props["_id"] = r.Key.Index
		props["_name"] = r.Name

		f := geojson.NewFeature(r.Feature.Geometry)
		f.ID = r.Key.Index
		f.Properties = props
		fc.Append(f)
	}
	return fc
}

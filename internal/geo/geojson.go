// Package geo handles GeoJSON parsing, region naming and viewport math.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrEmptyBounds is returned when no finite bound can be computed.
var ErrEmptyBounds = errors.New("bounds are empty")

// Parse decodes a GeoJSON FeatureCollection.
func Parse(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	return fc, nil
}

// Bound returns the bound of a single feature.
func Bound(f *geojson.Feature) (orb.Bound, error) {
	if f == nil || f.Geometry == nil {
		return orb.Bound{}, ErrEmptyBounds
	}

	b := f.Geometry.Bound()
	if !finite(b) || isEmptyGeometry(f.Geometry) {
		return orb.Bound{}, ErrEmptyBounds
	}

	return b, nil
}

// CollectionBound returns the combined bound of all features that have geometry.
func CollectionBound(features []*geojson.Feature) (orb.Bound, error) {
	var (
		out orb.Bound
		ok  bool
	)

	for _, f := range features {
		b, err := Bound(f)
		if err != nil {
			continue
		}
		if !ok {
			out, ok = b, true
			continue
		}
		out = out.Union(b)
	}

	if !ok {
		return orb.Bound{}, ErrEmptyBounds
	}

	return out, nil
}

func finite(b orb.Bound) bool {
	for _, v := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// isEmptyGeometry reports geometries without a single coordinate,
// whose Bound() is the zero bound rather than an error.
func isEmptyGeometry(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(v) == 0
	case orb.LineString:
		return len(v) == 0
	case orb.MultiLineString:
		for _, ls := range v {
			if len(ls) > 0 {
				return false
			}
		}
		return true
	case orb.Ring:
		return len(v) == 0
	case orb.Polygon:
		for _, r := range v {
			if len(r) > 0 {
				return false
			}
		}
		return true
	case orb.MultiPolygon:
		for _, p := range v {
			if !isEmptyGeometry(p) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, sub := range v {
			if !isEmptyGeometry(sub) {
				return false
			}
		}
		return true
	case orb.Bound:
		return false
	}

	return true
}

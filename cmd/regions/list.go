package main

import (
	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/geopaint/internal/geo"
)

// listRegions resolves the display name of every feature, keeping those
// matching prefix the same way the search control does.
func listRegions(features []*geojson.Feature, names geo.NameResolver, prefix string) []Entry {
	query := geo.NormalizeQuery(prefix)

	out := make([]Entry, 0, len(features))
	for i, f := range features {
		if f == nil {
			continue
		}

		name := names.Resolve(f.Properties)
		if query != "" && !geo.HasPrefixFold(name, query) {
			continue
		}

		e := Entry{Name: name, Index: i}
		if b, err := geo.Bound(f); err == nil {
			e.Bound = &[4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
		}
		out = append(out, e)
	}

	return out
}

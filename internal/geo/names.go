package geo

import (
	"strconv"
	"strings"
)

// DefaultNameKeys are the property keys probed for a display name, in priority order.
// They cover IBGE shapefile exports and the usual OSM/Natural Earth conventions.
var DefaultNameKeys = []string{"NM_MUN", "NM_MUNICIP", "NOME", "name", "NAME", "municipio", "MUNICIPIO"}

// DefaultPlaceholder is used when no name key is present.
const DefaultPlaceholder = "Município"

// NameResolver picks a best-effort display name from feature properties.
type NameResolver struct {
	Keys        []string
	Placeholder string
}

// NewNameResolver returns a resolver, falling back to the defaults for empty arguments.
func NewNameResolver(keys []string, placeholder string) NameResolver {
	if len(keys) == 0 {
		keys = DefaultNameKeys
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	return NameResolver{Keys: keys, Placeholder: placeholder}
}

// Resolve returns the first non-empty value among the configured keys.
// Nil properties and values of unexpected types are tolerated.
func (r NameResolver) Resolve(props map[string]interface{}) string {
	for _, key := range r.Keys {
		if name, ok := nameValue(props[key]); ok {
			return name
		}
	}

	return r.Placeholder
}

func nameValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		// whitespace counts as a name, only "" falls through
		if val == "" {
			return "", false
		}
		return val, true
	case float64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		if val == 0 {
			return "", false
		}
		return strconv.Itoa(val), true
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	}

	return "", false
}

// HasPrefixFold reports whether name starts with the already lowercased query.
func HasPrefixFold(name, lowerQuery string) bool {
	return strings.HasPrefix(strings.ToLower(name), lowerQuery)
}

// NormalizeQuery trims and lowercases a search query.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

package geo

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned for values that are neither hex colors nor known color names.
var ErrInvalidColor = errors.New("invalid color")

// NormalizeColor converts "#rgb", "#rrggbb" or a CSS color name into lowercase "#rrggbb".
func NormalizeColor(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return "", ErrInvalidColor
	}

	if !strings.HasPrefix(v, "#") {
		c, ok := colornames.Map[v]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B), nil
	}

	hex := v[1:]
	for _, ch := range hex {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
	}

	switch len(hex) {
	case 6:
		return v, nil
	case 3:
		return "#" + string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}), nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

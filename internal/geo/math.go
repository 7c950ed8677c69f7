package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// TileSize is the pixel size of a base layer tile at every zoom.
	TileSize = 256

	// MaxLat is the latitude limit of the Web Mercator projection.
	MaxLat = 85.05112878
)

// View is a map viewport position.
type View struct {
	Center [2]float64 `json:"center"` // [Lat, Lon]
	Zoom   int        `json:"zoom"`
}

// Project converts WGS84 into normalized Web Mercator world coordinates.
// Both axes cover [0..1], y grows southwards like tile rows.
func Project(lon, lat float64) (x, y float64) {
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	x = (lon + 180.0) / 360.0

	latRad := lat * (math.Pi / 180.0)
	y = (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0

	return x, y
}

// Unproject converts normalized world coordinates back to WGS84.
func Unproject(x, y float64) (lon, lat float64) {
	lon = x*360.0 - 180.0

	// y: [0..1] -> mercatorY: [PI..-PI]
	mercatorY := math.Pi * (1.0 - 2.0*y)

	// Inverse Mercator projection
	latRad := (2.0 * math.Atan(math.Exp(mercatorY))) - (math.Pi * 0.5)
	lat = latRad * (180.0 / math.Pi)

	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	return lon, lat
}

// FitBound returns the view that shows b inside a width x height viewport
// keeping padding pixels free on every side. The zoom is the largest integer
// level that fits, clamped to [minZoom, maxZoom]. A degenerate bound gets maxZoom.
func FitBound(b orb.Bound, width, height, padding, minZoom, maxZoom int) View {
	x1, y1 := Project(b.Min[0], b.Max[1]) // north-west
	x2, y2 := Project(b.Max[0], b.Min[1]) // south-east

	availW := float64(width - 2*padding)
	availH := float64(height - 2*padding)
	if availW < 1 {
		availW = 1
	}
	if availH < 1 {
		availH = 1
	}

	dx := (x2 - x1) * TileSize
	dy := (y2 - y1) * TileSize

	zoom := maxZoom
	if dx > 0 || dy > 0 {
		scale := math.Min(availW/dx, availH/dy)
		zoom = int(math.Floor(math.Log2(scale)))
	}
	zoom = ClampZoom(zoom, minZoom, maxZoom)

	lon, lat := Unproject((x1+x2)/2, (y1+y2)/2)

	return View{Center: [2]float64{lat, lon}, Zoom: zoom}
}

// ClampZoom limits z to [minZoom, maxZoom].
func ClampZoom(z, minZoom, maxZoom int) int {
	if z > maxZoom {
		z = maxZoom
	}
	if z < minZoom {
		z = minZoom
	}

	return z
}

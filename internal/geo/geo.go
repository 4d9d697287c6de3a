// Package geo provides great-circle distance math for proximity
// deduplication. Everything here is pure and side-effect free.
package geo

import "math"

const earthRadiusMeters = 6371000.0

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinate is inside the WGS84 range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// DistanceMeters returns the haversine great-circle distance between a
// and b. Identical points return exactly 0. Accuracy is well under 1%
// at city scale, which is all the dedup threshold needs.
func DistanceMeters(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	latA := radians(a.Lat)
	latB := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLng*sinLng
	// Clamp against floating-point drift before the sqrt.
	if h > 1 {
		h = 1
	}
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// BoundingBox is a coarse lat/lng rectangle used to pre-filter dedup
// candidates. It deliberately over-covers; exact distances are computed
// afterward. When the box straddles the ±180° antimeridian, MinLng is
// greater than MaxLng and the longitude range wraps through the seam.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// WrapsLng reports whether the longitude range crosses the
// antimeridian.
func (b BoundingBox) WrapsLng() bool {
	return b.MinLng > b.MaxLng
}

// ContainsLng reports whether lng falls inside the box's longitude
// range, wrap included.
func (b BoundingBox) ContainsLng(lng float64) bool {
	if b.WrapsLng() {
		return lng >= b.MinLng || lng <= b.MaxLng
	}
	return lng >= b.MinLng && lng <= b.MaxLng
}

// BoxAround returns a bounding box covering every point within
// radiusMeters of center. Near the poles the longitude span degenerates;
// the box falls back to the full longitude range there.
func BoxAround(center Coordinate, radiusMeters float64) BoundingBox {
	dLat := degrees(radiusMeters / earthRadiusMeters)

	box := BoundingBox{
		MinLat: center.Lat - dLat,
		MaxLat: center.Lat + dLat,
		MinLng: -180,
		MaxLng: 180,
	}
	if box.MinLat < -90 {
		box.MinLat = -90
	}
	if box.MaxLat > 90 {
		box.MaxLat = 90
	}

	cosLat := math.Cos(radians(center.Lat))
	if cosLat > 1e-6 {
		dLng := degrees(radiusMeters / (earthRadiusMeters * cosLat))
		if dLng < 180 {
			// Wrap each edge back into [-180, 180]; a box crossing the
			// antimeridian ends up with MinLng > MaxLng.
			box.MinLng = wrapLng(center.Lng - dLng)
			box.MaxLng = wrapLng(center.Lng + dLng)
		}
	}
	return box
}

// wrapLng folds a longitude into [-180, 180], treating the antimeridian
// as periodic.
func wrapLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

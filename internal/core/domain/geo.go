package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a normalized geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Area is the play area as loaded: two raw corners in whatever order the
// game author wrote them. X is latitude, Y is longitude.
type Area struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Bounds normalizes the two corners into min/max form.
func (a Area) Bounds() Bounds {
	return Bounds{
		MinLat: math.Min(a.X1, a.X2),
		MinLon: math.Min(a.Y1, a.Y2),
		MaxLat: math.Max(a.X1, a.X2),
		MaxLon: math.Max(a.Y1, a.Y2),
	}
}

// Contains reports whether the point lies inside the area, edges included.
func (a Area) Contains(lat, lon float64) bool {
	b := a.Bounds()
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Corners returns the raw corners as points, e.g. for fitting a map view.
func (a Area) Corners() [2]GeoPoint {
	return [2]GeoPoint{{Lat: a.X1, Lon: a.Y1}, {Lat: a.X2, Lon: a.Y2}}
}

func validCoord(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidPosition reports whether lat/lon is a finite WGS 84 coordinate.
func ValidPosition(lat, lon float64) bool {
	return validCoord(lat) && validCoord(lon) &&
		lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

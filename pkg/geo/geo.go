// Package geo holds the small amount of coordinate math the search and
// distance-inference code needs. All distances are kilometers.
package geo

import "math"

const earthRadiusKm = 6371.0

type Geopoint struct {
	Latitude  float64
	Longitude float64
}

// DistanceTo returns the great-circle distance in kilometers.
func (g Geopoint) DistanceTo(other Geopoint) float64 {
	lat1 := g.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - g.Latitude) * math.Pi / 180
	dLon := (other.Longitude - g.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Viewport is a latitude/longitude bounding box.
type Viewport struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

func (v Viewport) Center() Geopoint {
	return Geopoint{
		Latitude:  (v.LatMin + v.LatMax) / 2,
		Longitude: (v.LonMin + v.LonMax) / 2,
	}
}

// IsJustADot reports whether the box collapsed to a single point.
func (v Viewport) IsJustADot() bool {
	return v.LatMin == v.LatMax && v.LonMin == v.LonMax
}

// SmartRoundedAverageDistance returns the midpoint of two distances, rounded
// to a precision that matches their magnitude. Used for display-only guessed
// distances, so two decimals below 10km and one above are plenty.
func SmartRoundedAverageDistance(d1, d2 float64) float64 {
	avg := (d1 + d2) / 2
	if avg >= 10 {
		return math.Round(avg*10) / 10
	}
	return math.Round(avg*100) / 100
}

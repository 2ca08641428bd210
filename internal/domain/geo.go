package domain

import (
	"fmt"
	"math"
)

const (
	EarthRadiusKm = 6371.0

	// CoordinateTolerance is the per-axis slack used when comparing locations.
	CoordinateTolerance = 1e-6
)

// GeoLocation is an immutable, validated latitude/longitude pair in degrees.
type GeoLocation struct {
	lat, lng float64
}

func NewGeoLocation(lat, lng float64) (GeoLocation, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return GeoLocation{}, &ValidationError{Field: "latitude", Reason: fmt.Sprintf("%v is outside [-90, 90]", lat)}
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return GeoLocation{}, &ValidationError{Field: "longitude", Reason: fmt.Sprintf("%v is outside [-180, 180]", lng)}
	}
	return GeoLocation{lat: lat, lng: lng}, nil
}

func (g GeoLocation) Latitude() float64 { return g.lat }
func (g GeoLocation) Longitude() float64 { return g.lng }

// Equal reports whether both axes differ by less than CoordinateTolerance.
func (g GeoLocation) Equal(o GeoLocation) bool {
	return SameCoordinates(g.lat, g.lng, o.lat, o.lng)
}

// Key returns the tolerance-grid cell of g. Tolerance equality is not
// transitive, so no key can be exact: Equal locations share a key or sit in
// adjacent cells. Use NeighborKeys to find every candidate.
func (g GeoLocation) Key() [2]int64 {
	return [2]int64{
		int64(math.Round(g.lat / CoordinateTolerance)),
		int64(math.Round(g.lng / CoordinateTolerance)),
	}
}

// NeighborKeys returns Key and the eight cells around it. Any location Equal
// to g has its Key among them.
func (g GeoLocation) NeighborKeys() [9][2]int64 {
	k := g.Key()
	var out [9][2]int64
	i := 0
	for dLat := int64(-1); dLat <= 1; dLat++ {
		for dLng := int64(-1); dLng <= 1; dLng++ {
			out[i] = [2]int64{k[0] + dLat, k[1] + dLng}
			i++
		}
	}
	return out
}

// DistanceTo returns the haversine great-circle distance in kilometers.
func (g GeoLocation) DistanceTo(o GeoLocation) float64 {
	if g.Equal(o) {
		return 0
	}
	lat1, lat2 := toRadians(g.lat), toRadians(o.lat)
	dLat := lat2 - lat1
	dLng := toRadians(o.lng - g.lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push a just outside [0, 1] near antipodes
	a = math.Min(1, math.Max(0, a))
	return EarthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

func (g GeoLocation) String() string { return fmt.Sprintf("(%.6f, %.6f)", g.lat, g.lng) }

// SameCoordinates applies the location tolerance to raw coordinates. Backends
// use it for duplicate detection without building a GeoLocation.
func SameCoordinates(lat1, lng1, lat2, lng2 float64) bool {
	return math.Abs(lat1-lat2) < CoordinateTolerance && math.Abs(lng1-lng2) < CoordinateTolerance
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

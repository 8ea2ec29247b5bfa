// internal/geo/geo.go
package geo

import (
	"errors"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/terrahex/engine/pkg/core"
)

// GEO POINTS
// Geographic input is always WGS84 (EPSG:4326). The hex tessellation is laid
// out on the EPSG:3857 plane so cell math stays Euclidean; distances shown to
// the player are great-circle, computed on the sphere, never on the plane.

// ErrInvalidCoordinate is returned when a latitude or longitude is not a
// finite number or is outside the valid range.
var ErrInvalidCoordinate = errors.New("invalid coordinate provided")

const (
	// EarthRadiusM is the spherical Earth radius used for position-based
	// distances.
	EarthRadiusM = 6371000.0

	// EarthRadiusKm is the same radius in kilometers, used by the
	// home-distance check.
	EarthRadiusKm = 6371.0
)

// Validate checks that a coordinate is finite and within WGS84 bounds.
func Validate(c core.Coordinate) error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return ErrInvalidCoordinate
	}
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// haversine computes the central angle term shared by both distance
// functions: sin²(Δφ/2) + cosφ₁·cosφ₂·sin²(Δλ/2), then 2·atan2(√a, √(1−a)).
func haversine(a, b core.Coordinate) float64 {
	phi1 := a.Latitude * math.Pi / 180
	phi2 := b.Latitude * math.Pi / 180
	dPhi := (b.Latitude - a.Latitude) * math.Pi / 180
	dLambda := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceM returns the great-circle distance between two coordinates in
// meters.
func DistanceM(a, b core.Coordinate) float64 {
	return haversine(a, b) * EarthRadiusM
}

// DistanceKm returns the great-circle distance between two coordinates in
// kilometers.
func DistanceKm(a, b core.Coordinate) float64 {
	return haversine(a, b) * EarthRadiusKm
}

// To3857 projects a WGS84 coordinate onto the EPSG:3857 plane. Returns the
// easting and northing in meters.
func To3857(c core.Coordinate) (x, y float64) {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ = f(c.Longitude, c.Latitude, 0)
	return x, y
}

// From3857 unprojects an EPSG:3857 plane point back to a WGS84 coordinate.
func From3857(x, y float64) core.Coordinate {
	f := wgs84.EPSG().Transform(3857, 4326)
	long, lat, _ := f(x, y, 0)
	return core.Coordinate{Latitude: lat, Longitude: long}
}

// PointFromCoordinate builds a simplefeatures XY point (long, lat order)
// from a coordinate.
func PointFromCoordinate(c core.Coordinate) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: c.Longitude, Y: c.Latitude},
		Type: geom.DimXY,
	})
}

// RingFromCoordinates builds a closed simplefeatures line string from an
// ordered ring of coordinates. The first vertex must already be repeated
// as the last.
func RingFromCoordinates(ring []core.Coordinate) (geom.LineString, error) {
	seq := make([]float64, 0, len(ring)*2)
	for _, c := range ring {
		if err := Validate(c); err != nil {
			return geom.LineString{}, err
		}
		seq = append(seq, c.Longitude, c.Latitude)
	}
	return geom.NewLineString(geom.NewSequence(seq, geom.DimXY)), nil
}

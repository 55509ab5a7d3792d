package geo

import (
	"math"

	"github.com/worldphotos/playback/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// EarthRadiusKm is the spherical Earth radius used for distance estimation.
// The source data is casual photo GPS; ellipsoidal precision buys nothing here.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points in
// kilometers using the haversine formula. It is symmetric and returns 0 for
// identical points.
func DistanceKm(a, b core.Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Centroid returns the arithmetic mean coordinate of the points.
// ok is false when the slice is empty. Sum-then-divide is commutative, so
// iteration order never affects the result.
func Centroid(points []core.Point) (c core.Point, ok bool) {
	if len(points) == 0 {
		return core.Point{}, false
	}
	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(points))
	return core.Point{Lat: sumLat / n, Lng: sumLng / n}, true
}

// Lerp blends two points linearly. Latitude and longitude interpolate
// independently; t=0 yields a exactly and t=1 yields b exactly.
func Lerp(a, b core.Point, t float64) core.Point {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return core.Point{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}

// PaddedBounds returns the southwest/northeast corners of the bounding box
// covering both points, grown on every side by the given fraction of the
// box's span. Degenerate boxes (identical points) stay degenerate.
func PaddedBounds(a, b core.Point, padding float64) (sw, ne core.Point) {
	minLat := math.Min(a.Lat, b.Lat)
	maxLat := math.Max(a.Lat, b.Lat)
	minLng := math.Min(a.Lng, b.Lng)
	maxLng := math.Max(a.Lng, b.Lng)

	padLat := (maxLat - minLat) * padding
	padLng := (maxLng - minLng) * padding

	sw = core.Point{Lat: minLat - padLat, Lng: minLng - padLng}
	ne = core.Point{Lat: maxLat + padLat, Lng: maxLng + padLng}
	return sw, ne
}

// TrailWKT builds the straight transition trail between two points as a
// WKT LINESTRING for the frontend to draw.
func TrailWKT(from, to core.Point) string {
	seq := geom.NewSequence([]float64{from.Lng, from.Lat, to.Lng, to.Lat}, geom.DimXY)
	return geom.NewLineString(seq).AsText()
}

// toWebMercator is built once; the projection runs on every animation
// frame and the EPSG registry is expensive to construct.
var toWebMercator = wgs84.EPSG().Transform(4326, 3857)

// ProjectWebMercator projects a WGS84 point to EPSG:3857 meters, the
// screen-space coordinate system of the map frontend.
func ProjectWebMercator(p core.Point) core.ScreenPoint {
	x, y, _ := toWebMercator(p.Lng, p.Lat, 0)
	return core.ScreenPoint{X: x, Y: y}
}

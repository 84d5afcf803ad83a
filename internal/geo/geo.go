// Package geo provides the geospatial pieces of the radius query:
// geohash encoding, great-circle distance, and the set of geohash
// ranges covering a search circle. Geohash ranges over-select, so
// callers must post-filter results by true distance.
package geo

import (
	"math"
	"sort"

	"github.com/mmcloughlin/geohash"
)

// EncodePrecision is the number of geohash characters stored on
// documents. Matches the hosted store's location hashes.
const EncodePrecision = 10

// earthRadiusMeters is the mean Earth radius used for haversine.
const earthRadiusMeters = 6371000.0

// Encode returns the geohash for a coordinate at the storage precision.
func Encode(lat, lng float64) string {
	return geohash.EncodeWithPrecision(lat, lng, EncodePrecision)
}

// Distance returns the great-circle distance in meters between two
// coordinates (haversine).
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

// Range is a lexicographic geohash interval [Start, End] used to query
// the store's geohash-ordered index.
type Range struct {
	Start string
	End   string
}

// cellHeights maps geohash precision to the minimum cell dimension in
// meters. Used to choose a precision whose cells are at least as large
// as the search radius, so the center cell plus its eight neighbors
// cover the circle.
var cellHeights = []struct {
	precision uint
	meters    float64
}{
	{8, 19},
	{7, 153},
	{6, 610},
	{5, 4890},
	{4, 19500},
	{3, 156000},
	{2, 625000},
	{1, 5000000},
}

// precisionForRadius returns the longest geohash prefix whose cells are
// no smaller than the radius.
func precisionForRadius(radiusMeters float64) uint {
	for _, c := range cellHeights {
		if radiusMeters <= c.meters {
			return c.precision
		}
	}
	return 1
}

// QueryRanges returns the geohash ranges covering a circle of
// radiusMeters around the center coordinate. The union of ranges is a
// superset of the circle; it never misses a point inside it.
func QueryRanges(lat, lng, radiusMeters float64) []Range {
	p := precisionForRadius(radiusMeters)
	center := geohash.EncodeWithPrecision(lat, lng, p)

	cells := append(geohash.Neighbors(center), center)
	sort.Strings(cells)

	ranges := make([]Range, 0, len(cells))
	var last string
	for _, cell := range cells {
		if cell == last {
			continue
		}
		last = cell
		// "~" sorts after every geohash character, so [cell, cell+"~"]
		// spans all hashes with this prefix.
		ranges = append(ranges, Range{Start: cell, End: cell + "~"})
	}
	return ranges
}

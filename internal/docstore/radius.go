package docstore

import (
	"context"
	"fmt"

	"github.com/cocobologroup/seatsync/internal/geo"
)

// GeohashField is the indexed field path holding a document's geohash.
const GeohashField = "location.geohash"

// QueryByRadius returns the documents in a collection whose stored
// location lies within radiusMeters of the center coordinate. It issues
// one range query per covering geohash range, then filters by true
// great-circle distance; the geohash cover over-selects, so the
// distance check is what makes the result correct. Documents without a
// decodable location are skipped.
func QueryByRadius(ctx context.Context, s Store, collection string, lat, lng, radiusMeters float64) ([]Document, error) {
	ranges := geo.QueryRanges(lat, lng, radiusMeters)

	seen := make(map[string]bool)
	var out []Document
	for _, r := range ranges {
		docs, err := s.QueryRange(ctx, collection, GeohashField, r.Start, r.End)
		if err != nil {
			return nil, fmt.Errorf("range %s: %w", r.Start, err)
		}
		for _, doc := range docs {
			if seen[doc.ID] {
				continue
			}
			seen[doc.ID] = true

			docLat, docLng, ok := documentCoordinates(doc)
			if !ok {
				continue
			}
			if geo.Distance(lat, lng, docLat, docLng) <= radiusMeters {
				out = append(out, doc)
			}
		}
	}
	return out, nil
}

// documentCoordinates pulls lat/lng out of a document's location field map.
func documentCoordinates(doc Document) (lat, lng float64, ok bool) {
	loc, ok := doc.Fields["location"].(map[string]any)
	if !ok {
		return 0, 0, false
	}
	lat, latOK := loc["lat"].(float64)
	lng, lngOK := loc["lng"].(float64)
	return lat, lng, latOK && lngOK
}

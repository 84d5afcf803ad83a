package repo

import (
	"context"
	"log/slog"

	"github.com/cocobologroup/seatsync/internal/docstore"
)

// QueryByRadius returns the records whose stored location lies within
// radiusMeters of the center coordinate. The geohash cover over-selects
// by construction; results are post-filtered by true great-circle
// distance, so a record just past the radius never appears even when
// its geohash cell intersects the cover.
func QueryByRadius[T Located](ctx context.Context, r *Repository[T], lat, lng, radiusMeters float64) ([]T, error) {
	docs, err := docstore.QueryByRadius(ctx, r.store, r.collection, lat, lng, radiusMeters)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		rec := r.newRecord()
		if err := decodeInto(rec, doc); err != nil {
			slog.Warn("skipping undecodable document in radius query",
				"collection", r.collection, "id", doc.ID, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

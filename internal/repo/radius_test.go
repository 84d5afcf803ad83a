package repo_test

import (
	"context"
	"testing"

	"github.com/cocobologroup/seatsync/internal/docstore/docstoretest"
	"github.com/cocobologroup/seatsync/internal/geo"
	"github.com/cocobologroup/seatsync/internal/model"
	"github.com/cocobologroup/seatsync/internal/repo"
)

func newServerRepo(store *docstoretest.MemStore) *repo.Repository[*model.Server] {
	return repo.New[*model.Server](store, func() *model.Server { return &model.Server{} })
}

func seedServerAt(mem *docstoretest.MemStore, id string, lat, lng float64) {
	mem.Seed("servers", id, map[string]any{
		"firstName": id,
		"location": map[string]any{
			"geohash": geo.Encode(lat, lng),
			"lat":     lat,
			"lng":     lng,
		},
	})
}

func TestQueryByRadius_BoundaryExcluded(t *testing.T) {
	ctx := context.Background()
	mem := docstoretest.NewMemStore()
	servers := newServerRepo(mem)

	// One degree of latitude is ~111195m. With a 1000m radius, a record
	// ~890m north is inside and one ~1112m north is just past the edge
	// but still inside the geohash cover.
	const lat, lng = 40.7536, -73.9832
	seedServerAt(mem, "inside", lat+0.008, lng)
	seedServerAt(mem, "edge", lat+0.01, lng)

	got, err := repo.QueryByRadius(ctx, servers, lat, lng, 1000)
	if err != nil {
		t.Fatalf("QueryByRadius: %v", err)
	}
	if len(got) != 1 || got[0].ID != "inside" {
		ids := make([]string, len(got))
		for i, s := range got {
			ids[i] = s.ID
		}
		t.Errorf("got %v, want [inside]: true distance must gate the geohash cover", ids)
	}
}

func TestQueryByRadius_DecodesRecords(t *testing.T) {
	ctx := context.Background()
	mem := docstoretest.NewMemStore()
	servers := newServerRepo(mem)

	seedServerAt(mem, "s1", 40.7536, -73.9832)

	got, err := repo.QueryByRadius(ctx, servers, 40.7536, -73.9832, 500)
	if err != nil {
		t.Fatalf("QueryByRadius: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].ID != "s1" || got[0].FirstName != "s1" {
		t.Errorf("record not decoded: %+v", got[0])
	}
	if got[0].Location == nil || got[0].Location.Geohash == "" {
		t.Errorf("location not decoded: %+v", got[0].Location)
	}
}

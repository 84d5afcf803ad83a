package model

import (
	"encoding/json"
	"time"

	"github.com/cocobologroup/seatsync/internal/geo"
)

// Location is a geotagged coordinate stored on guests and servers. The
// geohash is derived from the coordinate at construction time and is
// what radius queries index on. The timestamp records when the location
// was last written; it is refreshed on every encode, so a stored
// location always carries the time of its most recent upload.
type Location struct {
	Geohash   string
	Lat       float64
	Lng       float64
	Timestamp time.Time
}

// NewLocation builds a Location from a coordinate, deriving the geohash.
func NewLocation(lat, lng float64) *Location {
	return &Location{
		Geohash:   geo.Encode(lat, lng),
		Lat:       lat,
		Lng:       lng,
		Timestamp: time.Now().UTC(),
	}
}

type locationWire struct {
	Geohash   string    `json:"geohash"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"locationTimestamp"`
}

// MarshalJSON refreshes the timestamp: every write of a location stamps
// the current time, regardless of when the value was constructed.
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationWire{
		Geohash:   l.Geohash,
		Lat:       l.Lat,
		Lng:       l.Lng,
		Timestamp: time.Now().UTC(),
	})
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var w locationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l.Geohash = w.Geohash
	l.Lat = w.Lat
	l.Lng = w.Lng
	l.Timestamp = w.Timestamp
	return nil
}

// Coordinates returns the raw coordinate for distance checks.
func (l *Location) Coordinates() (lat, lng float64, ok bool) {
	if l == nil {
		return 0, 0, false
	}
	return l.Lat, l.Lng, true
}

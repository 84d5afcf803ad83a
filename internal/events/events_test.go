package events

import "testing"

func TestDocTopic(t *testing.T) {
	for _, tc := range []struct {
		collection, id, want string
	}{
		{"guests", "abc123", "seatsync.doc.guests.abc123"},
		{"tables", "T9", "seatsync.doc.tables.T9"},
	} {
		if got := DocTopic(tc.collection, tc.id); got != tc.want {
			t.Errorf("DocTopic(%q, %q) = %q, want %q", tc.collection, tc.id, got, tc.want)
		}
	}
}

func TestCollectionTopic(t *testing.T) {
	if got := CollectionTopic("guests"); got != "seatsync.doc.guests.*" {
		t.Errorf("CollectionTopic(guests) = %q", got)
	}
}

func TestAllDocsTopic(t *testing.T) {
	if got := AllDocsTopic(); got != "seatsync.doc.>" {
		t.Errorf("AllDocsTopic() = %q", got)
	}
}

func TestMatchTopic(t *testing.T) {
	for _, tc := range []struct {
		pattern, topic string
		want           bool
	}{
		{"seatsync.doc.guests.g1", "seatsync.doc.guests.g1", true},
		{"seatsync.doc.guests.*", "seatsync.doc.guests.g1", true},
		{"seatsync.doc.guests.*", "seatsync.doc.tables.t1", false},
		{"seatsync.doc.>", "seatsync.doc.guests.g1", true},
		{"seatsync.doc.>", "seatsync.doc", false},
		{"seatsync.doc.guests.*", "seatsync.doc.guests.g1.extra", false},
		{"*.doc.guests.g1", "seatsync.doc.guests.g1", true},
	} {
		if got := MatchTopic(tc.pattern, tc.topic); got != tc.want {
			t.Errorf("MatchTopic(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
		}
	}
}

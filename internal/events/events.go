package events

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Topic layout: seatsync.doc.<collection>.<id>. Subscribers use NATS
// wildcards to watch a whole collection ("seatsync.doc.guests.*") or
// everything ("seatsync.doc.>").
const topicPrefix = "seatsync.doc"

// DocTopic returns the change topic for a single document.
func DocTopic(collection, id string) string {
	return fmt.Sprintf("%s.%s.%s", topicPrefix, collection, id)
}

// CollectionTopic returns the wildcard topic covering every document in
// a collection.
func CollectionTopic(collection string) string {
	return fmt.Sprintf("%s.%s.*", topicPrefix, collection)
}

// AllDocsTopic matches every document change event.
func AllDocsTopic() string {
	return topicPrefix + ".>"
}

// Change kinds.
const (
	ChangeSet    = "set"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// DocChange is the payload published for every document write.
type DocChange struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // set, update, delete
	At         time.Time `json:"at"`
}

// Publisher is the interface for emitting change events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// MatchTopic matches a dot-separated topic against a subscription
// pattern. "*" matches exactly one segment; ">" matches one or more
// remaining segments (NATS-style).
func MatchTopic(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")
	for i, pp := range patParts {
		if pp == ">" {
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}
	return len(patParts) == len(topParts)
}

// Package client provides a transport-agnostic interface for the
// seatsync service and an HTTP/JSON implementation that talks to the
// REST API.
package client

import (
	"context"

	"github.com/cocobologroup/seatsync/internal/docstore"
)

// DocsClient is the interface the seat CLI commands use to talk to the
// seatsync server. It is implemented by HTTPClient.
type DocsClient interface {
	// Document CRUD
	Create(ctx context.Context, collection string, fields map[string]any) (*docstore.Document, error)
	Get(ctx context.Context, collection, id string) (*docstore.Document, error)
	List(ctx context.Context, collection string) ([]docstore.Document, error)
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) (*docstore.Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) (*docstore.Document, error)
	Delete(ctx context.Context, collection, id string) error

	// Geo
	Nearby(ctx context.Context, collection string, lat, lng, radiusMeters float64) ([]docstore.Document, error)

	// Change stream
	Watch(ctx context.Context, topics []string) (<-chan StreamEvent, error)

	// Operations
	Backup(ctx context.Context) error
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// StreamEvent is a single event read from the server's SSE stream.
type StreamEvent struct {
	ID    string
	Topic string
	Data  []byte
}

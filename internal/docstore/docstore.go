// Package docstore defines the document-store contract the rest of the
// service is built on: schemaless documents addressed by collection name
// plus ID, merge/replace writes, field patches, geohash range queries,
// and change notifications delivered through the event bus.
package docstore

import (
	"context"
	"time"
)

// MaxIDsPerQuery is the store's limit on the number of document IDs a
// single GetMany call may address. Callers with more IDs must chunk.
const MaxIDsPerQuery = 10

// Document is a single stored record: a field map keyed by collection
// and ID. The ID lives in the key, never in Fields.
type Document struct {
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Fields     map[string]any `json:"fields"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Snapshot is the result of a single read. Exists is false when the
// document is absent; FromCache is true when the snapshot was served
// from a local cache rather than the store itself.
type Snapshot struct {
	Document
	Exists    bool
	FromCache bool
}

// Store is the persistence interface for documents.
type Store interface {
	// Get fetches one document. A missing document returns ErrNotFound.
	Get(ctx context.Context, collection, id string) (Snapshot, error)

	// GetAll returns every document in a collection.
	GetAll(ctx context.Context, collection string) ([]Document, error)

	// GetMany fetches up to MaxIDsPerQuery documents by ID. Missing IDs
	// are silently omitted from the result.
	GetMany(ctx context.Context, collection string, ids []string) ([]Document, error)

	// Set writes a document. With merge, existing fields not present in
	// fields are preserved; without, the document is replaced.
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error

	// Update patches the named top-level fields of an existing document.
	// A missing document returns ErrNotFound.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Deleting a missing document is a no-op.
	Delete(ctx context.Context, collection, id string) error

	// QueryRange returns documents whose value at the given field path
	// sorts within [start, end]. The field path must be one of the
	// store's indexed paths.
	QueryRange(ctx context.Context, collection, field, start, end string) ([]Document, error)

	// AllocateID returns a fresh document ID in the store's ID shape.
	AllocateID() string

	Close() error
}

// Collections returns the set of collection names a store knows about.
// Optional; the backup exporter uses it when available.
type Collections interface {
	Collections(ctx context.Context) ([]string, error)
}

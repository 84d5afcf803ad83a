// Package repo provides a generic typed repository over the document
// store: encode/decode between records and field maps, CRUD with
// store-assigned identities, live observation, and radius queries for
// location-bearing records.
package repo

import "time"

// Record is the trait a domain type needs to live in a collection: a
// resource name on the type and a document identity on the instance.
// An empty identity marks a transient record that has never been
// persisted; Upsert allocates one.
type Record interface {
	ResourceName() string
	DocumentID() string
	SetDocumentID(id string)
}

// Creatable is implemented by records carrying a store-assigned
// creation timestamp. The codec stamps the field on first encode and
// strips it from re-encodes, so a merge write can never clobber the
// stored value.
type Creatable interface {
	CreatedTimeKey() string
	CreatedTime() time.Time
}

// SearchNamer is implemented by records with a human name. The codec
// derives a denormalized lowercase field from it for case-insensitive
// search; the field is written on every encode and never read back.
type SearchNamer interface {
	SearchName() string
}

// Located is implemented by records that carry a coordinate and can be
// found by QueryByRadius.
type Located interface {
	Record
	Coordinates() (lat, lng float64, ok bool)
}

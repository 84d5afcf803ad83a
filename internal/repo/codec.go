package repo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cocobologroup/seatsync/internal/docstore"
)

// searchNameField is the denormalized lowercase full-name field written
// for case-insensitive search.
const searchNameField = "fullname_lowercased"

// Encode maps a record to its stored field map. The identity is never
// written as a field (it is the document key); the search-name and
// creation-timestamp fields get the special handling described on
// SearchNamer and Creatable.
func Encode(rec Record) (map[string]any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", rec.ResourceName(), err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", rec.ResourceName(), err)
	}
	delete(fields, "id")

	if sn, ok := rec.(SearchNamer); ok {
		if name := sn.SearchName(); name != "" {
			fields[searchNameField] = strings.ToLower(name)
		}
	}

	if c, ok := rec.(Creatable); ok {
		key := c.CreatedTimeKey()
		if c.CreatedTime().IsZero() {
			fields[key] = time.Now().UTC().Format(time.RFC3339Nano)
		} else {
			delete(fields, key)
		}
	}

	return fields, nil
}

// decodeInto fills a record from a document. Identity comes from the
// document key, never from field data. Failures wrap as DecodeError.
func decodeInto(rec Record, doc docstore.Document) error {
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return &docstore.DecodeError{Collection: doc.Collection, ID: doc.ID, Err: err}
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return &docstore.DecodeError{Collection: doc.Collection, ID: doc.ID, Err: err}
	}
	rec.SetDocumentID(doc.ID)
	return nil
}

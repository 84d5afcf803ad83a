package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cocobologroup/seatsync/internal/docstore"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	Collections   int       `json:"collections"`
	DocumentCount int       `json:"document_count"`
}

// record wraps a single JSONL document line.
type record struct {
	Type       string         `json:"type"`
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Fields     map[string]any `json:"fields"`
}

// ExportJSONL writes every document in every collection as JSONL to w,
// one header line followed by one line per document, ordered by
// collection then id. The store must implement docstore.Collections.
func ExportJSONL(ctx context.Context, s docstore.Store, w io.Writer) error {
	lister, ok := s.(docstore.Collections)
	if !ok {
		return fmt.Errorf("store %T cannot enumerate collections", s)
	}
	collections, err := lister.Collections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	var docs []docstore.Document
	for _, collection := range collections {
		batch, err := s.GetAll(ctx, collection)
		if err != nil {
			return fmt.Errorf("get all %s: %w", collection, err)
		}
		docs = append(docs, batch...)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       "1",
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		Collections:   len(collections),
		DocumentCount: len(docs),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, doc := range docs {
		if err := enc.Encode(record{
			Type:       "document",
			Collection: doc.Collection,
			ID:         doc.ID,
			CreatedAt:  doc.CreatedAt,
			UpdatedAt:  doc.UpdatedAt,
			Fields:     doc.Fields,
		}); err != nil {
			return fmt.Errorf("encode document %s/%s: %w", doc.Collection, doc.ID, err)
		}
	}
	return nil
}

package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cocobologroup/seatsync/internal/docstore"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanDocument scans a single row into a docstore.Document. The row
// must contain columns in the order defined by documentColumns.
func scanDocument(row scannable) (docstore.Document, error) {
	var doc docstore.Document
	var data []byte

	err := row.Scan(
		&doc.Collection,
		&doc.ID,
		&data,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return docstore.Document{}, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc.Fields); err != nil {
			return docstore.Document{}, fmt.Errorf("unmarshal document data: %w", err)
		}
	}
	if doc.Fields == nil {
		doc.Fields = map[string]any{}
	}
	return doc, nil
}

// scanDocuments drains a result set, closing it when done.
func scanDocuments(rows *sql.Rows, op string) ([]docstore.Document, error) {
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, &docstore.TransportError{Op: op, Err: err}
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &docstore.TransportError{Op: op, Err: err}
	}
	return out, nil
}

// jsonbBytes serializes a field map for a JSONB column; nil maps store
// as an empty object.
func jsonbBytes(fields map[string]any) ([]byte, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal document data: %w", err)
	}
	return data, nil
}

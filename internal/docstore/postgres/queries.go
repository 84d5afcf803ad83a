package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/cocobologroup/seatsync/internal/docstore"
)

// documentColumns is the column list used for SELECT statements on the
// documents table.
const documentColumns = `collection, id, data, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryFieldExprs whitelists the field paths range queries may order
// by, mapping each to its JSONB path expression. Anything else would
// let callers inject arbitrary SQL into the ORDER BY position.
var queryFieldExprs = map[string]string{
	"location.geohash":    `data#>>'{location,geohash}'`,
	"fullname_lowercased": `data->>'fullname_lowercased'`,
	"code":                `data->>'code'`,
}

func queryGet(ctx context.Context, db executor, collection, id string) (docstore.Snapshot, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE collection = $1 AND id = $2`,
		collection, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Snapshot{}, docstore.ErrNotFound
		}
		return docstore.Snapshot{}, &docstore.TransportError{Op: "get", Err: err}
	}
	return docstore.Snapshot{Document: doc, Exists: true}, nil
}

func queryGetAll(ctx context.Context, db executor, collection string) ([]docstore.Document, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE collection = $1 ORDER BY id`,
		collection)
	if err != nil {
		return nil, &docstore.TransportError{Op: "getall", Err: err}
	}
	return scanDocuments(rows, "getall")
}

func queryGetMany(ctx context.Context, db executor, collection string, ids []string) ([]docstore.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > docstore.MaxIDsPerQuery {
		return nil, fmt.Errorf("getmany: %d ids exceeds limit of %d", len(ids), docstore.MaxIDsPerQuery)
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE collection = $1 AND id = ANY($2) ORDER BY id`,
		collection, pq.Array(ids))
	if err != nil {
		return nil, &docstore.TransportError{Op: "getmany", Err: err}
	}
	return scanDocuments(rows, "getmany")
}

func querySet(ctx context.Context, db executor, collection, id string, fields map[string]any, merge bool) error {
	data, err := jsonbBytes(fields)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}

	// Merge concatenates the new fields over the stored document at the
	// top level; replace overwrites the whole document.
	update := `data = EXCLUDED.data`
	if merge {
		update = `data = documents.data || EXCLUDED.data`
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (collection, id)
		DO UPDATE SET `+update+`, updated_at = now()`,
		collection, id, data)
	if err != nil {
		return &docstore.TransportError{Op: "set", Err: err}
	}
	return nil
}

func queryUpdate(ctx context.Context, db executor, collection, id string, fields map[string]any) error {
	data, err := jsonbBytes(fields)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	res, err := db.ExecContext(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2`,
		collection, id, data)
	if err != nil {
		return &docstore.TransportError{Op: "update", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &docstore.TransportError{Op: "update", Err: err}
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func queryDelete(ctx context.Context, db executor, collection, id string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id)
	if err != nil {
		return &docstore.TransportError{Op: "delete", Err: err}
	}
	return nil
}

func queryRange(ctx context.Context, db executor, collection, field, start, end string) ([]docstore.Document, error) {
	expr, ok := queryFieldExprs[field]
	if !ok {
		return nil, fmt.Errorf("queryrange: unsupported query field %q", field)
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE collection = $1 AND `+expr+` >= $2 AND `+expr+` <= $3
		ORDER BY `+expr,
		collection, start, end)
	if err != nil {
		return nil, &docstore.TransportError{Op: "queryrange", Err: err}
	}
	return scanDocuments(rows, "queryrange")
}

func queryCollections(ctx context.Context, db executor) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, &docstore.TransportError{Op: "collections", Err: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, &docstore.TransportError{Op: "collections", Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &docstore.TransportError{Op: "collections", Err: err}
	}
	return out, nil
}

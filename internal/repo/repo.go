package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cocobologroup/seatsync/internal/docstore"
	"github.com/cocobologroup/seatsync/internal/events"
)

// decodeRetryLimit bounds the clear-cache-and-retry loop for decode
// failures on cached snapshots. Exactly one retry: a second failure
// means the stored document genuinely does not match the schema.
const decodeRetryLimit = 1

// clearable is satisfied by stores with a droppable local cache.
type clearable interface {
	Clear()
}

// Repository is a typed persistence facade over one collection.
// Instantiate with a pointer record type, e.g.
// repo.New(store, func() *model.Guest { return &model.Guest{} }).
type Repository[T Record] struct {
	store      docstore.Store
	sub        events.Subscriber
	watcher    *docstore.Watcher
	newRecord  func() T
	collection string
}

// New builds a Repository for the collection named by T's resource name.
func New[T Record](store docstore.Store, newRecord func() T) *Repository[T] {
	return &Repository[T]{
		store:      store,
		newRecord:  newRecord,
		collection: newRecord().ResourceName(),
	}
}

// WithEvents attaches the change-event bus, enabling Observe and
// ObserveMultiple.
func (r *Repository[T]) WithEvents(sub events.Subscriber) *Repository[T] {
	r.sub = sub
	r.watcher = docstore.NewWatcher(r.store, sub)
	return r
}

// Collection returns the collection this repository reads and writes.
func (r *Repository[T]) Collection() string { return r.collection }

// Upsert writes the record with merge semantics, allocating an identity
// when the record has none. Returns the record with identity populated.
func (r *Repository[T]) Upsert(ctx context.Context, rec T) (T, error) {
	return r.upsert(ctx, rec, true)
}

// UpsertReplace writes the record replacing the whole stored document.
func (r *Repository[T]) UpsertReplace(ctx context.Context, rec T) (T, error) {
	return r.upsert(ctx, rec, false)
}

func (r *Repository[T]) upsert(ctx context.Context, rec T, merge bool) (T, error) {
	var zero T
	fields, err := Encode(rec)
	if err != nil {
		return zero, err
	}

	id := rec.DocumentID()
	if id == "" {
		id = r.store.AllocateID()
		rec.SetDocumentID(id)
	}

	if err := r.store.Set(ctx, r.collection, id, fields, merge); err != nil {
		return zero, fmt.Errorf("upsert %s/%s: %w", r.collection, id, err)
	}
	return rec, nil
}

// UpdateFields patches individual fields on an existing document.
func (r *Repository[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return errors.New("update fields: record has no identity")
	}
	return r.store.Update(ctx, r.collection, id, fields)
}

// Delete removes a document.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, r.collection, id)
}

// Get fetches and decodes one record. A decode failure on a cached
// snapshot clears the cache and retries once; the document may have
// changed shape since it was cached. A decode failure on a fresh read
// is surfaced as DecodeError. NotFound and transport errors pass
// through untouched.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		snap, err := r.store.Get(ctx, r.collection, id)
		if err != nil {
			return zero, err
		}

		rec := r.newRecord()
		if err := decodeInto(rec, snap.Document); err != nil {
			if snap.FromCache && attempt < decodeRetryLimit {
				if c, ok := r.store.(clearable); ok {
					slog.Debug("cached snapshot failed to decode, clearing cache",
						"collection", r.collection, "id", id, "error", err)
					c.Clear()
					continue
				}
			}
			slog.Error("document failed to decode",
				"collection", r.collection, "id", id, "error", err)
			return zero, err
		}
		return rec, nil
	}
}

// GetAll fetches every record in the collection. Documents that fail to
// decode are logged and skipped; the rest are returned.
func (r *Repository[T]) GetAll(ctx context.Context) ([]T, error) {
	docs, err := r.store.GetAll(ctx, r.collection)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(docs), nil
}

// GetMultiple fetches the records for a set of ids, batching into
// chunks of the store's query-IN limit and fanning the chunks out
// concurrently. Result order follows id order within chunks but not
// across them; treat it as a set. Missing ids and undecodable documents
// are skipped.
func (r *Repository[T]) GetMultiple(ctx context.Context, ids []string) ([]T, error) {
	chunks := chunkIDs(ids, docstore.MaxIDsPerQuery)
	if len(chunks) == 0 {
		return nil, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		out      []T
		firstErr error
	)
	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			docs, err := r.store.GetMany(ctx, r.collection, chunk)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			out = append(out, r.decodeAll(docs)...)
		}(chunk)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (r *Repository[T]) decodeAll(docs []docstore.Document) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		rec := r.newRecord()
		if err := decodeInto(rec, doc); err != nil {
			slog.Warn("skipping undecodable document",
				"collection", r.collection, "id", doc.ID, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

// chunkIDs partitions ids into groups of at most size.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > 0 {
		n := size
		if len(ids) < n {
			n = len(ids)
		}
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}

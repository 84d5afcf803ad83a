// Package docstoretest provides an in-memory docstore.Store and event
// bus for tests that need store semantics without Postgres or NATS.
package docstoretest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cocobologroup/seatsync/internal/docstore"
	"github.com/cocobologroup/seatsync/internal/events"
	"github.com/cocobologroup/seatsync/internal/idgen"
)

// MemStore is an in-memory docstore.Store. Writes publish change events
// to the attached Bus so Watcher-based code paths work in tests.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string]docstore.Document // key: collection + "/" + id

	// Bus receives a DocChange for every write when non-nil.
	Bus *Bus

	// Call counters for assertions.
	GetCalls     int
	GetManyCalls int
	QueryCalls   int
	SetCalls     int
	UpdateCalls  int
	DeleteCalls  int

	// Err, when set, is returned by every read operation.
	Err error
}

var _ docstore.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]docstore.Document)}
}

func key(collection, id string) string { return collection + "/" + id }

// Seed inserts a document directly, bypassing counters and events.
func (m *MemStore) Seed(collection, id string, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.docs[key(collection, id)] = docstore.Document{
		Collection: collection,
		ID:         id,
		Fields:     cloneFields(fields),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (m *MemStore) Get(ctx context.Context, collection, id string) (docstore.Snapshot, error) {
	m.mu.Lock()
	m.GetCalls++
	err := m.Err
	doc, ok := m.docs[key(collection, id)]
	m.mu.Unlock()

	if err != nil {
		return docstore.Snapshot{}, err
	}
	if !ok {
		return docstore.Snapshot{}, docstore.ErrNotFound
	}
	doc.Fields = cloneFields(doc.Fields)
	return docstore.Snapshot{Document: doc, Exists: true}, nil
}

func (m *MemStore) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []docstore.Document
	for _, doc := range m.docs {
		if doc.Collection == collection {
			doc.Fields = cloneFields(doc.Fields)
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) GetMany(ctx context.Context, collection string, ids []string) ([]docstore.Document, error) {
	if len(ids) > docstore.MaxIDsPerQuery {
		return nil, fmt.Errorf("GetMany: %d ids exceeds limit of %d", len(ids), docstore.MaxIDsPerQuery)
	}
	m.mu.Lock()
	m.GetManyCalls++
	err := m.Err
	var out []docstore.Document
	for _, id := range ids {
		if doc, ok := m.docs[key(collection, id)]; ok {
			doc.Fields = cloneFields(doc.Fields)
			out = append(out, doc)
		}
	}
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MemStore) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	m.mu.Lock()
	m.SetCalls++
	k := key(collection, id)
	now := time.Now().UTC()
	existing, ok := m.docs[k]
	if ok && merge {
		merged := cloneFields(existing.Fields)
		for f, v := range fields {
			merged[f] = v
		}
		existing.Fields = merged
		existing.UpdatedAt = now
		m.docs[k] = existing
	} else {
		created := now
		if ok {
			created = existing.CreatedAt
		}
		m.docs[k] = docstore.Document{
			Collection: collection,
			ID:         id,
			Fields:     cloneFields(fields),
			CreatedAt:  created,
			UpdatedAt:  now,
		}
	}
	m.mu.Unlock()

	m.publish(collection, id, events.ChangeSet)
	return nil
}

func (m *MemStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	m.UpdateCalls++
	k := key(collection, id)
	doc, ok := m.docs[k]
	if !ok {
		m.mu.Unlock()
		return docstore.ErrNotFound
	}
	patched := cloneFields(doc.Fields)
	for f, v := range fields {
		patched[f] = v
	}
	doc.Fields = patched
	doc.UpdatedAt = time.Now().UTC()
	m.docs[k] = doc
	m.mu.Unlock()

	m.publish(collection, id, events.ChangeUpdate)
	return nil
}

func (m *MemStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	m.DeleteCalls++
	delete(m.docs, key(collection, id))
	m.mu.Unlock()

	m.publish(collection, id, events.ChangeDelete)
	return nil
}

func (m *MemStore) QueryRange(ctx context.Context, collection, field, start, end string) ([]docstore.Document, error) {
	m.mu.Lock()
	m.QueryCalls++
	err := m.Err
	var out []docstore.Document
	for _, doc := range m.docs {
		if doc.Collection != collection {
			continue
		}
		val, ok := fieldPath(doc.Fields, field)
		if !ok {
			continue
		}
		if val >= start && val <= end {
			doc.Fields = cloneFields(doc.Fields)
			out = append(out, doc)
		}
	}
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) AllocateID() string { return idgen.MustGenerate() }

func (m *MemStore) Collections(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, doc := range m.docs {
		if !seen[doc.Collection] {
			seen[doc.Collection] = true
			out = append(out, doc.Collection)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemStore) Close() error { return nil }

func (m *MemStore) publish(collection, id, kind string) {
	if m.Bus == nil {
		return
	}
	_ = m.Bus.Publish(context.Background(), events.DocTopic(collection, id), events.DocChange{
		Collection: collection,
		ID:         id,
		Kind:       kind,
		At:         time.Now().UTC(),
	})
}

// fieldPath resolves a dotted path ("location.geohash") to a string value.
func fieldPath(fields map[string]any, path string) (string, bool) {
	parts := strings.Split(path, ".")
	cur := any(fields)
	for _, part := range parts {
		fieldMap, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = fieldMap[part]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

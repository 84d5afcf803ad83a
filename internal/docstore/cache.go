package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cocobologroup/seatsync/internal/events"
)

// Cache is a read-through snapshot cache in front of a Store. Repeat
// reads of an unchanged document are served locally with
// Snapshot.FromCache set, which is what lets the repository distinguish
// a stale-cache decode failure (clear and retry once) from a genuine
// schema mismatch on a fresh read.
//
// Writes through the cache invalidate the affected entry; an optional
// bus subscription invalidates entries written by other processes.
type Cache struct {
	inner Store

	mu      sync.RWMutex
	entries map[cacheKey]Snapshot

	cancelSub func()
}

type cacheKey struct {
	collection string
	id         string
}

// Compile-time check that Cache implements Store.
var _ Store = (*Cache)(nil)

// NewCache wraps a store with a snapshot cache. When sub is non-nil the
// cache subscribes to document change events and invalidates entries as
// other writers touch them.
func NewCache(inner Store, sub events.Subscriber) (*Cache, error) {
	c := &Cache{
		inner:   inner,
		entries: make(map[cacheKey]Snapshot),
	}

	if sub != nil {
		ch, cancel, err := sub.Subscribe(events.AllDocsTopic())
		if err != nil {
			return nil, err
		}
		c.cancelSub = cancel
		go func() {
			for msg := range ch {
				var change events.DocChange
				if json.Unmarshal(msg, &change) != nil {
					continue
				}
				c.invalidate(change.Collection, change.ID)
			}
		}()
	}

	return c, nil
}

func (c *Cache) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	key := cacheKey{collection, id}

	c.mu.RLock()
	snap, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		snap.FromCache = true
		return snap, nil
	}

	snap, err := c.inner.Get(ctx, collection, id)
	if err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	c.entries[key] = snap
	c.mu.Unlock()
	return snap, nil
}

func (c *Cache) GetAll(ctx context.Context, collection string) ([]Document, error) {
	return c.inner.GetAll(ctx, collection)
}

func (c *Cache) GetMany(ctx context.Context, collection string, ids []string) ([]Document, error) {
	return c.inner.GetMany(ctx, collection, ids)
}

func (c *Cache) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	c.invalidate(collection, id)
	return c.inner.Set(ctx, collection, id, fields, merge)
}

func (c *Cache) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	c.invalidate(collection, id)
	return c.inner.Update(ctx, collection, id, fields)
}

func (c *Cache) Delete(ctx context.Context, collection, id string) error {
	c.invalidate(collection, id)
	return c.inner.Delete(ctx, collection, id)
}

func (c *Cache) QueryRange(ctx context.Context, collection, field, start, end string) ([]Document, error) {
	return c.inner.QueryRange(ctx, collection, field, start, end)
}

func (c *Cache) AllocateID() string { return c.inner.AllocateID() }

// Collections forwards to the inner store so the backup exporter still
// works through the cache.
func (c *Cache) Collections(ctx context.Context) ([]string, error) {
	lister, ok := c.inner.(Collections)
	if !ok {
		return nil, fmt.Errorf("store %T cannot enumerate collections", c.inner)
	}
	return lister.Collections(ctx)
}

// Clear drops every cached snapshot. This is the local-persistence
// clear used by the repository's one-shot decode retry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]Snapshot)
	c.mu.Unlock()
}

func (c *Cache) invalidate(collection, id string) {
	c.mu.Lock()
	delete(c.entries, cacheKey{collection, id})
	c.mu.Unlock()
}

func (c *Cache) Close() error {
	if c.cancelSub != nil {
		c.cancelSub()
	}
	return c.inner.Close()
}

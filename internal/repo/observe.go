package repo

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/cocobologroup/seatsync/internal/docstore"
	"github.com/cocobologroup/seatsync/internal/events"
)

// ErrNoEvents is returned by observation methods on a repository built
// without WithEvents.
var ErrNoEvents = errors.New("repository has no event bus; live observation unavailable")

// Observe delivers the live state of one record: the current value
// immediately, then a new value on every change. Any error — not-found,
// decode failure, transport — is delivered as the zero value (nil for
// pointer record types) rather than surfaced; consumers render "absent"
// and the cause is logged. Call cancel to unsubscribe and close the
// channel.
func (r *Repository[T]) Observe(ctx context.Context, id string) (<-chan T, func(), error) {
	if r.watcher == nil {
		return nil, nil, ErrNoEvents
	}
	snaps, cancel, err := r.watcher.Watch(ctx, r.collection, id)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan T, 8)
	go func() {
		defer close(out)
		for snap := range snaps {
			var rec T
			if snap.Exists {
				decoded := r.newRecord()
				if err := decodeInto(decoded, snap.Document); err != nil {
					slog.Debug("observed document failed to decode, delivering absent",
						"collection", r.collection, "id", id, "error", err)
				} else {
					rec = decoded
				}
			}
			select {
			case out <- rec:
			default:
				// Slow consumer: drop, the next change re-delivers.
			}
		}
	}()
	return out, cancel, nil
}

// WatchSnapshots exposes the raw snapshot stream for one document, for
// consumers that need to tell a missing document from an undecodable
// one; Observe collapses both into absent. Pair with Decode.
func (r *Repository[T]) WatchSnapshots(ctx context.Context, id string) (<-chan docstore.Snapshot, func(), error) {
	if r.watcher == nil {
		return nil, nil, ErrNoEvents
	}
	return r.watcher.Watch(ctx, r.collection, id)
}

// Decode materializes a typed record from a raw document.
func (r *Repository[T]) Decode(doc docstore.Document) (T, error) {
	rec := r.newRecord()
	if err := decodeInto(rec, doc); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

// ObserveMultiple delivers the live state of a set of records. The ids
// are partitioned into chunks of the store's query-IN limit; each chunk
// is fetched with one batched read and re-fetched when a change event
// touches one of its ids. Every emission carries the full merged set,
// sorted by id; there is no ordering guarantee across chunks, and ids
// that are missing or undecodable are simply absent from the set.
func (r *Repository[T]) ObserveMultiple(ctx context.Context, ids []string) (<-chan []T, func(), error) {
	if r.sub == nil {
		return nil, nil, ErrNoEvents
	}
	chunks := chunkIDs(ids, docstore.MaxIDsPerQuery)

	m := &multiObserver[T]{
		repo:    r,
		records: make(map[string]T),
		out:     make(chan []T, 4),
		done:    make(chan struct{}),
	}

	var subCancels []func()
	for _, chunk := range chunks {
		raw, cancelSub, err := r.sub.Subscribe(events.CollectionTopic(r.collection))
		if err != nil {
			for _, c := range subCancels {
				c()
			}
			return nil, nil, err
		}
		subCancels = append(subCancels, cancelSub)

		m.wg.Add(1)
		go m.run(ctx, chunk, raw)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(m.done)
			for _, c := range subCancels {
				c()
			}
			go func() {
				m.wg.Wait()
				close(m.out)
			}()
		})
	}
	return m.out, cancel, nil
}

// multiObserver merges per-chunk refreshes into one record set.
type multiObserver[T Record] struct {
	repo    *Repository[T]
	wg      sync.WaitGroup
	mu      sync.Mutex
	records map[string]T
	out     chan []T
	done    chan struct{}
}

func (m *multiObserver[T]) run(ctx context.Context, chunk []string, raw <-chan []byte) {
	defer m.wg.Done()

	inChunk := make(map[string]bool, len(chunk))
	for _, id := range chunk {
		inChunk[id] = true
	}

	m.refresh(ctx, chunk)

	for {
		select {
		case <-m.done:
			return
		case <-ctx.Done():
			return
		case data, ok := <-raw:
			if !ok {
				return
			}
			var change events.DocChange
			if err := json.Unmarshal(data, &change); err != nil {
				slog.Debug("ignoring malformed change event", "error", err)
				continue
			}
			if inChunk[change.ID] {
				m.refresh(ctx, chunk)
			}
		}
	}
}

// refresh re-fetches one chunk and emits the merged set.
func (m *multiObserver[T]) refresh(ctx context.Context, chunk []string) {
	docs, err := m.repo.store.GetMany(ctx, m.repo.collection, chunk)
	if err != nil {
		slog.Debug("chunk fetch failed, keeping previous records",
			"collection", m.repo.collection, "error", err)
		return
	}

	m.mu.Lock()
	for _, id := range chunk {
		delete(m.records, id)
	}
	for _, rec := range m.repo.decodeAll(docs) {
		m.records[rec.DocumentID()] = rec
	}
	merged := make([]T, 0, len(m.records))
	for _, rec := range m.records {
		merged = append(merged, rec)
	}
	m.mu.Unlock()

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].DocumentID() < merged[j].DocumentID()
	})

	select {
	case m.out <- merged:
	default:
	}
}

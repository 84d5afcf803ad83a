package docstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cocobologroup/seatsync/internal/events"
)

// Watcher turns the change-event bus into live document snapshots: a
// Watch emits the current snapshot immediately, then re-reads and
// re-emits whenever a change event for the document arrives. Snapshots
// are delivered in bus order; a slow consumer drops intermediate
// snapshots rather than blocking the bus.
type Watcher struct {
	store Store
	sub   events.Subscriber
}

// NewWatcher creates a Watcher reading through store and listening on sub.
func NewWatcher(store Store, sub events.Subscriber) *Watcher {
	return &Watcher{store: store, sub: sub}
}

// Watch subscribes to one document. Read errors are logged and emitted
// as a non-existing snapshot; the channel never carries an error. Call
// the returned cancel function to unsubscribe and close the channel.
func (w *Watcher) Watch(ctx context.Context, collection, id string) (<-chan Snapshot, func(), error) {
	raw, cancelSub, err := w.sub.Subscribe(events.DocTopic(collection, id))
	if err != nil {
		return nil, nil, err
	}

	out := make(chan Snapshot, 8)

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			cancelSub()
			close(done)
		})
	}

	go func() {
		defer close(out)

		// Initial snapshot before any change event.
		w.emit(ctx, out, collection, id)

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				cancel()
				return
			case _, ok := <-raw:
				if !ok {
					return
				}
				w.emit(ctx, out, collection, id)
			}
		}
	}()

	return out, cancel, nil
}

func (w *Watcher) emit(ctx context.Context, out chan<- Snapshot, collection, id string) {
	snap, err := w.store.Get(ctx, collection, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Debug("watch read failed", "collection", collection, "id", id, "error", err)
		}
		snap = Snapshot{Document: Document{Collection: collection, ID: id}}
	}
	select {
	case out <- snap:
	default:
		// Drop if the consumer is behind; the next event re-reads anyway.
	}
}

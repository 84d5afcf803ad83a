package docstoretest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cocobologroup/seatsync/internal/events"
)

// Bus is an in-process event bus implementing both events.Publisher and
// events.Subscriber with NATS-style topic matching ("*" matches one
// segment, ">" matches the rest).
type Bus struct {
	mu   sync.RWMutex
	subs map[*busSub]struct{}
}

type busSub struct {
	topic string
	ch    chan []byte
}

func NewBus() *Bus {
	return &Bus{subs: make(map[*busSub]struct{})}
}

func (b *Bus) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if events.MatchTopic(sub.topic, topic) {
			select {
			case sub.ch <- data:
			default:
			}
		}
	}
	return nil
}

func (b *Bus) Subscribe(topic string) (<-chan []byte, func(), error) {
	sub := &busSub{topic: topic, ch: make(chan []byte, 64)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, sub)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel, nil
}

func (b *Bus) Close() error { return nil }

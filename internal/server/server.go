// Package server exposes the document store over HTTP: CRUD on
// collections, radius search, a backup trigger, and a server-sent-event
// stream of document changes.
package server

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/cocobologroup/seatsync/internal/backup"
	"github.com/cocobologroup/seatsync/internal/docstore"
	"github.com/cocobologroup/seatsync/internal/events"
)

// Server holds the handler dependencies: the store, the SSE hub fed
// from the change bus, and the optional backup scheduler behind the
// manual trigger endpoint.
type Server struct {
	store  docstore.Store
	backup *backup.Scheduler
	sseHub *sseHub

	once       sync.Once
	cancelFeed func()
}

// New builds a Server. sub feeds the SSE stream; nil disables it.
// sched backs POST /v1/backup; nil returns 503 from that endpoint.
func New(store docstore.Store, sub events.Subscriber, sched *backup.Scheduler) (*Server, error) {
	s := &Server{
		store:  store,
		backup: sched,
		sseHub: newSSEHub(),
	}

	if sub != nil {
		raw, cancel, err := sub.Subscribe(events.AllDocsTopic())
		if err != nil {
			return nil, err
		}
		s.cancelFeed = cancel
		go s.feed(raw)
	}
	return s, nil
}

// Close stops the SSE feed.
func (s *Server) Close() {
	s.once.Do(func() {
		if s.cancelFeed != nil {
			s.cancelFeed()
		}
	})
}

// feed relays bus change events into the SSE hub, reconstructing the
// per-document topic from the payload.
func (s *Server) feed(raw <-chan []byte) {
	for data := range raw {
		var change events.DocChange
		if err := json.Unmarshal(data, &change); err != nil {
			slog.Debug("dropping malformed change event", "error", err)
			continue
		}
		s.sseHub.broadcast(events.DocTopic(change.Collection, change.ID), data)
	}
}

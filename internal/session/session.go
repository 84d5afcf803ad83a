// Package session materializes the domain user record for the auth
// provider's session stream: on sign-in it watches the user's document,
// creating it from the principal's profile on first sign-in, and tracks
// the authenticated/unauthenticated state the rest of the system reads.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cocobologroup/seatsync/internal/auth"
	"github.com/cocobologroup/seatsync/internal/docstore"
	"github.com/cocobologroup/seatsync/internal/model"
	"github.com/cocobologroup/seatsync/internal/repo"
)

// State names the session lifecycle phase.
type State string

const (
	// StateLaunching is the cold-start state before the first session
	// event resolves either way. It occurs exactly once per Manager.
	StateLaunching       State = "launching"
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// UserRecord is the repo record type a session materializes; both
// model.Guest and model.Server satisfy it.
type UserRecord interface {
	repo.Record
	EmailIsVerified() bool
	SetEmailVerified(v bool)
}

// Snapshot is the externally visible session state. User is the zero
// value except in StateAuthenticated.
type Snapshot[T UserRecord] struct {
	State State
	User  T
}

// Manager drives the session state machine for one user type.
type Manager[T UserRecord] struct {
	provider auth.Provider
	users    *repo.Repository[T]
	newUser  func(p auth.Principal, firstName, lastName string) T

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	snap          Snapshot[T]
	launched      bool
	cancelWatch   func()
	createdFor    map[string]bool
	updates       chan Snapshot[T]
	cancelSession func()
}

// New starts a Manager subscribed to the provider's session stream.
// newUser builds a fresh record from the principal's profile on first
// sign-in; firstName and lastName come from splitting the display name
// on its first space.
func New[T UserRecord](provider auth.Provider, users *repo.Repository[T],
	newUser func(p auth.Principal, firstName, lastName string) T) (*Manager[T], error) {

	sessions, cancelSession, err := provider.SessionChanges()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager[T]{
		provider:      provider,
		users:         users,
		newUser:       newUser,
		ctx:           ctx,
		cancel:        cancel,
		snap:          Snapshot[T]{State: StateLaunching},
		createdFor:    make(map[string]bool),
		updates:       make(chan Snapshot[T], 16),
		cancelSession: cancelSession,
	}

	m.wg.Add(1)
	go m.run(sessions)
	return m, nil
}

// State returns the current session snapshot.
func (m *Manager[T]) State() Snapshot[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Launching reports whether the first session event has resolved yet.
func (m *Manager[T]) Launching() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.launched
}

// Updates delivers a snapshot on every state transition. Slow consumers
// miss intermediate transitions, never the channel.
func (m *Manager[T]) Updates() <-chan Snapshot[T] {
	return m.updates
}

// Close tears down the session subscription and any document watch.
func (m *Manager[T]) Close() {
	m.cancelSession()
	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	if m.cancelWatch != nil {
		m.cancelWatch()
		m.cancelWatch = nil
	}
	m.mu.Unlock()
}

func (m *Manager[T]) run(sessions <-chan *auth.Principal) {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case p, ok := <-sessions:
			if !ok {
				return
			}
			if p == nil {
				m.signedOut()
			} else {
				m.signedIn(*p)
			}
		}
	}
}

func (m *Manager[T]) signedOut() {
	m.mu.Lock()
	if m.cancelWatch != nil {
		m.cancelWatch()
		m.cancelWatch = nil
	}
	m.mu.Unlock()

	var zero T
	m.setState(Snapshot[T]{State: StateUnauthenticated, User: zero}, true)
}

func (m *Manager[T]) signedIn(p auth.Principal) {
	m.mu.Lock()
	if m.cancelWatch != nil {
		m.cancelWatch()
		m.cancelWatch = nil
	}
	m.mu.Unlock()

	m.setState(Snapshot[T]{State: StateLoading}, false)

	snaps, cancelWatch, err := m.users.WatchSnapshots(m.ctx, p.ID)
	if err != nil {
		slog.Error("session user watch failed", "id", p.ID, "error", err)
		m.setState(Snapshot[T]{State: StateUnauthenticated}, true)
		return
	}

	m.mu.Lock()
	m.cancelWatch = cancelWatch
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for snap := range snaps {
			m.handleUserSnapshot(p, snap)
		}
	}()
}

func (m *Manager[T]) handleUserSnapshot(p auth.Principal, snap docstore.Snapshot) {
	if !snap.Exists {
		m.createUser(p)
		return
	}

	user, err := m.users.Decode(snap.Document)
	if err != nil {
		// Stored record incompatible with the schema: treat the user
		// as absent rather than crashing the session.
		slog.Error("session user record failed to decode", "id", p.ID, "error", err)
		m.setState(Snapshot[T]{State: StateUnauthenticated}, true)
		return
	}

	if p.EmailVerified && !user.EmailIsVerified() {
		// Eventually-consistent patch; not re-awaited.
		go func() {
			err := m.users.UpdateFields(m.ctx, p.ID, map[string]any{"isEmailVerified": true})
			if err != nil {
				slog.Warn("email-verified patch failed", "id", p.ID, "error", err)
			}
		}()
		user.SetEmailVerified(true)
	}

	m.setState(Snapshot[T]{State: StateAuthenticated, User: user}, true)
}

// createUser builds and upserts the user record on first sign-in. The
// write's own change event re-enters handleUserSnapshot with the
// document present. Guarded to run at most once per principal, so a
// failed or slow write cannot loop.
func (m *Manager[T]) createUser(p auth.Principal) {
	m.mu.Lock()
	if m.createdFor[p.ID] {
		m.mu.Unlock()
		return
	}
	m.createdFor[p.ID] = true
	m.mu.Unlock()

	first, last := model.SplitDisplayName(p.DisplayName)
	user := m.newUser(p, first, last)
	user.SetDocumentID(p.ID)

	if _, err := m.users.Upsert(m.ctx, user); err != nil {
		slog.Error("create user record failed", "id", p.ID, "error", err)
		m.setState(Snapshot[T]{State: StateUnauthenticated}, true)
	}
}

func (m *Manager[T]) setState(snap Snapshot[T], resolves bool) {
	m.mu.Lock()
	m.snap = snap
	if resolves {
		m.launched = true
	}
	m.mu.Unlock()

	select {
	case m.updates <- snap:
	default:
	}
}

// Package postgres implements the docstore.Store interface backed by
// PostgreSQL, storing each document as a JSONB row keyed by collection
// and id.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/cocobologroup/seatsync/internal/docstore"
	"github.com/cocobologroup/seatsync/internal/events"
	"github.com/cocobologroup/seatsync/internal/idgen"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements docstore.Store backed by a PostgreSQL database.
// Successful writes publish a change event for the document; publish
// failures are logged, never surfaced to the writer.
type Store struct {
	db  *sql.DB
	pub events.Publisher
}

// Compile-time check that Store implements docstore.Store.
var _ docstore.Store = (*Store)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
// Change events go to pub; pass events.NoopPublisher to disable them.
func New(databaseURL string, pub events.Publisher) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, pub: pub}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Snapshot, error) {
	return queryGet(ctx, s.db, collection, id)
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	return queryGetAll(ctx, s.db, collection)
}

func (s *Store) GetMany(ctx context.Context, collection string, ids []string) ([]docstore.Document, error) {
	return queryGetMany(ctx, s.db, collection, ids)
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	if err := querySet(ctx, s.db, collection, id, fields, merge); err != nil {
		return err
	}
	s.publish(ctx, collection, id, events.ChangeSet)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := queryUpdate(ctx, s.db, collection, id, fields); err != nil {
		return err
	}
	s.publish(ctx, collection, id, events.ChangeUpdate)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := queryDelete(ctx, s.db, collection, id); err != nil {
		return err
	}
	s.publish(ctx, collection, id, events.ChangeDelete)
	return nil
}

func (s *Store) QueryRange(ctx context.Context, collection, field, start, end string) ([]docstore.Document, error) {
	return queryRange(ctx, s.db, collection, field, start, end)
}

func (s *Store) AllocateID() string {
	return idgen.MustGenerate()
}

func (s *Store) Collections(ctx context.Context) ([]string, error) {
	return queryCollections(ctx, s.db)
}

func (s *Store) publish(ctx context.Context, collection, id, kind string) {
	if s.pub == nil {
		return
	}
	change := events.DocChange{
		Collection: collection,
		ID:         id,
		Kind:       kind,
		At:         time.Now().UTC(),
	}
	if err := s.pub.Publish(ctx, events.DocTopic(collection, id), change); err != nil {
		slog.Warn("publish change event failed",
			"collection", collection, "id", id, "kind", kind, "error", err)
	}
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements BlobStore on PostgreSQL with a single upsert
// table, one row per collection.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the snapshots table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS snapshots (
		   collection TEXT PRIMARY KEY,
		   data       BYTEA NOT NULL,
		   updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		 )`)
	if err != nil {
		return fmt.Errorf("ensure snapshots schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, collection string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO snapshots (collection, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (collection) DO UPDATE SET data = $2, updated_at = now()`,
		collection, data)
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", collection, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM snapshots WHERE collection = $1`, collection).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", collection, err)
	}
	return data, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

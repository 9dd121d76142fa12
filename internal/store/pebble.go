package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// PebbleStore implements BlobStore on PebbleDB, keyed by collection
// name. This is the default durable backend: snapshots are infrequent
// full overwrites, so every Put syncs the WAL.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens (or creates) the database directory.
func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Put(_ context.Context, collection string, data []byte) error {
	if err := s.db.Set([]byte(collection), data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", collection, err)
	}
	return nil
}

func (s *PebbleStore) Get(_ context.Context, collection string) ([]byte, error) {
	val, closer, err := s.db.Get([]byte(collection))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get %s: %w", collection, err)
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

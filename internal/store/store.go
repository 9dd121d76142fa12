// Package store defines the blob store the persistence layer writes
// collection snapshots to: one opaque blob per entity collection name.
// Implementations include Pebble (default durable backend), flat JSON
// files, PostgreSQL, Redis, and in-memory (for testing).
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a collection has never been
// written. Callers treat it as "first run", never as corruption.
var ErrNotFound = errors.New("store: collection not found")

// BlobStore persists one blob per collection name. Writes are full
// overwrites; there is no partial update and no cross-collection
// atomicity.
type BlobStore interface {
	// Put overwrites the blob for a collection.
	Put(ctx context.Context, collection string, data []byte) error

	// Get returns the blob for a collection, or ErrNotFound.
	Get(ctx context.Context, collection string) ([]byte, error)

	// Close releases backend resources.
	Close() error
}

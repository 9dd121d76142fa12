package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements BlobStore on Redis, one key per collection.
// Snapshots carry the authoritative state, so keys never expire.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func collectionKey(collection string) string {
	return fmt.Sprintf("bookstore:snapshot:%s", collection)
}

func (s *RedisStore) Put(ctx context.Context, collection string, data []byte) error {
	if err := s.rdb.Set(ctx, collectionKey(collection), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", collection, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, collection string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, collectionKey(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", collection, err)
	}
	return data, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

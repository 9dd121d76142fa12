package store

import (
	"context"
	"errors"
	"testing"
)

// backends that can run without external services.
func localBackends(t *testing.T) map[string]BlobStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	ps, err := NewPebbleStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create pebble store: %v", err)
	}
	return map[string]BlobStore{
		"memory": NewMemoryStore(),
		"file":   fs,
		"pebble": ps,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range localBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			if err := s.Put(ctx, "items", []byte(`[{"id":"B1"}]`)); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			got, err := s.Get(ctx, "items")
			if err != nil {
				t.Fatalf("get failed: %v", err)
			}
			if string(got) != `[{"id":"B1"}]` {
				t.Errorf("unexpected blob: %s", got)
			}
		})
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, s := range localBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			if err := s.Put(ctx, "config", []byte(`{"orderIdCounter":1000}`)); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			if err := s.Put(ctx, "config", []byte(`{"orderIdCounter":1007}`)); err != nil {
				t.Fatalf("second put failed: %v", err)
			}
			got, err := s.Get(ctx, "config")
			if err != nil {
				t.Fatalf("get failed: %v", err)
			}
			if string(got) != `{"orderIdCounter":1007}` {
				t.Errorf("expected overwrite, got %s", got)
			}
		})
	}
}

func TestGet_MissingCollection(t *testing.T) {
	ctx := context.Background()
	for name, s := range localBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			_, err := s.Get(ctx, "never-written")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestCollectionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	for name, s := range localBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			if err := s.Put(ctx, "items", []byte("a")); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			if err := s.Put(ctx, "orders", []byte("b")); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			got, err := s.Get(ctx, "items")
			if err != nil || string(got) != "a" {
				t.Errorf("items blob clobbered: %s, %v", got, err)
			}
		})
	}
}

func TestMemoryStore_CopiesBlobs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("original")
	if err := s.Put(ctx, "items", data); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	data[0] = 'X'

	got, err := s.Get(ctx, "items")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("store must not share caller buffers, got %s", got)
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	if err := s1.Put(ctx, "items", []byte("durable")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	s1.Close()

	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("failed to reopen file store: %v", err)
	}
	got, err := s2.Get(ctx, "items")
	if err != nil || string(got) != "durable" {
		t.Errorf("expected durable blob after reopen, got %s, %v", got, err)
	}
}

func TestPebbleStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("failed to create pebble store: %v", err)
	}
	if err := s1.Put(ctx, "orders", []byte("durable")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	s2, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("failed to reopen pebble store: %v", err)
	}
	defer s2.Close()
	got, err := s2.Get(ctx, "orders")
	if err != nil || string(got) != "durable" {
		t.Errorf("expected durable blob after reopen, got %s, %v", got, err)
	}
}

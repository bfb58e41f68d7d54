package kv

import (
	"context"
	"testing"

	"rpotraining/internal/adapters/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

// TestSQLiteStore_GetMissing tests that an absent key is reported without error.
func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	v, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || v != nil {
		t.Errorf("got (%q, %v), want (nil, false)", v, ok)
	}
}

// TestSQLiteStore_PutOverwrites tests wholesale overwrite semantics.
func TestSQLiteStore_PutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "k", []byte(`{"b":2}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(v) != `{"b":2}` {
		t.Errorf("value = %s, want {\"b\":2}", v)
	}
}

// TestSQLiteStore_KeysAreIndependent tests that keys do not interfere.
func TestSQLiteStore_KeysAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Put(ctx, "a", []byte("1"))
	s.Put(ctx, "b", []byte("2"))

	v, _, _ := s.Get(ctx, "a")
	if string(v) != "1" {
		t.Errorf("a = %s, want 1", v)
	}
}

// TestSQLiteStore_CancelledContext tests that a cancelled context surfaces an error.
func TestSQLiteStore_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Put(ctx, "k", []byte("v")); err == nil {
		t.Error("expected error from cancelled context")
	}
}

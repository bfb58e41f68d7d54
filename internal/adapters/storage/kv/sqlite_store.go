package kv

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rpotraining/internal/adapters/storage"
)

// SQLiteStore implements Store on the kv table.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db is a valid, migrated database connection
// POST: store is ready for use
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Get retrieves the value stored under key.
// PRE: key is non-empty
// POST: returns (value, true, nil), (nil, false, nil) when absent, or an error
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Put inserts or overwrites the value stored under key.
// PRE: key is non-empty
// POST: value is durable when Put returns nil
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, string(value), s.now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

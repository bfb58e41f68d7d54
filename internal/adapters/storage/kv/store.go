package kv

import "context"

// Store is a string-keyed blob persistence surface.
// Values are written wholesale; there is no field-level merge.
type Store interface {
	// Get returns the value and true, or nil and false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put overwrites the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
}

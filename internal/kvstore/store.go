// Package kvstore is the keyed JSON document store that backs coding exams,
// study groups and the service portals. Each key holds one JSON value,
// usually a list of records.
package kvstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("kvstore: key not found")
	ErrConflict = errors.New("kvstore: concurrent update conflict")
	ErrCorrupt  = errors.New("kvstore: stored value is not valid JSON")
)

// UpdateFunc receives the current value (nil when the key is absent) and
// returns the value to store. Returning a nil slice deletes the key.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is the persistence boundary for keyed JSON blobs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Update runs a read-modify-write of a single key atomically.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

package kvstore

import (
	"bytes"
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var defaultBucket = []byte("campus")

// BoltStore keeps every key in a single bbolt bucket.
type BoltStore struct {
	db     *bbolt.DB
	bucket []byte
}

// NewBoltStore ensures the bucket exists and returns the store.
func NewBoltStore(db *bbolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(defaultBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltStore{db: db, bucket: defaultBucket}, nil
}

func (s *BoltStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// bbolt values are only valid inside the transaction.
		out = bytes.Clone(v)
		return nil
	})
	return out, err
}

func (s *BoltStore) Put(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
}

func (s *BoltStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

func (s *BoltStore) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

// Update runs fn inside one bbolt write transaction; bbolt serialises writers
// so no other update can interleave.
func (s *BoltStore) Update(_ context.Context, key string, fn UpdateFunc) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var current []byte
		if v := b.Get([]byte(key)); v != nil {
			current = bytes.Clone(v)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return b.Delete([]byte(key))
		}
		return b.Put([]byte(key), next)
	})
}

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix    = "kv:"
	maxUpdateAttempts = 5
)

// RedisStore stores each key as a plain Redis string under a "kv:" namespace.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, redisKeyPrefix+key, value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+key).Err()
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, redisKeyPrefix+prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	return keys, nil
}

// Update uses WATCH/MULTI so a concurrent writer aborts the transaction; the
// read-modify-write is retried a few times before giving up with ErrConflict.
func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	fullKey := redisKeyPrefix + key

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, fullKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if errors.Is(err, redis.Nil) {
			current = nil
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, fullKey)
				return nil
			}
			pipe.Set(ctx, fullKey, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := s.rdb.Watch(ctx, txf, fullKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

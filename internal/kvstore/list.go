package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// LoadList reads the JSON array stored at key. A missing key is an empty list.
func LoadList[T any](ctx context.Context, s Store, key string) ([]T, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return decodeList[T](key, raw)
}

// SaveList overwrites key with items.
func SaveList[T any](ctx context.Context, s Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, raw)
}

// UpdateList applies fn to the list at key inside a single store update.
func UpdateList[T any](ctx context.Context, s Store, key string, fn func([]T) ([]T, error)) error {
	return s.Update(ctx, key, func(current []byte) ([]byte, error) {
		items := []T{}
		if current != nil {
			decoded, err := decodeList[T](key, current)
			if err != nil {
				return nil, err
			}
			items = decoded
		}

		next, err := fn(items)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []T{}
		}
		return json.Marshal(next)
	})
}

func decodeList[T any](key string, raw []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

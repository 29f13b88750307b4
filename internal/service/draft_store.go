package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

// ErrDraftNotFound is returned when the user has no draft for a flow.
var ErrDraftNotFound = errors.New("draft not found")

const finalizeLockTTL = 30 * time.Second

// DraftStore persists in-progress wizard state per user and flow.
type DraftStore interface {
	Load(ctx context.Context, flow string, userID int) (*wizard.State, error)
	Save(ctx context.Context, userID int, s *wizard.State) error
	Delete(ctx context.Context, flow string, userID int) error
	// Lock guards finalize. It fails with wizard.ErrInFlight when held.
	Lock(ctx context.Context, flow string, userID int) (release func(), err error)
	// Locked reports whether a finalize currently holds the lock.
	Locked(ctx context.Context, flow string, userID int) (bool, error)
}

// RedisDraftStore keeps drafts as JSON with a sliding TTL.
type RedisDraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDraftStore creates a new RedisDraftStore.
func NewRedisDraftStore(rdb *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{rdb: rdb, ttl: ttl}
}

func (s *RedisDraftStore) Load(ctx context.Context, flow string, userID int) (*wizard.State, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.WizardDraftKey(flow, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}

	var st wizard.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &st, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, userID int, st *wizard.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.rdb.Set(ctx, config.CacheKey.WizardDraftKey(st.Flow, userID), raw, s.ttl).Err()
}

func (s *RedisDraftStore) Delete(ctx context.Context, flow string, userID int) error {
	return s.rdb.Del(ctx, config.CacheKey.WizardDraftKey(flow, userID)).Err()
}

func (s *RedisDraftStore) Lock(ctx context.Context, flow string, userID int) (func(), error) {
	key := config.CacheKey.WizardFinalizeLockKey(flow, userID)
	ok, err := s.rdb.SetNX(ctx, key, time.Now().Unix(), finalizeLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire finalize lock: %w", err)
	}
	if !ok {
		return nil, wizard.ErrInFlight
	}

	return func() {
		// Released even if the request context was cancelled.
		s.rdb.Del(context.Background(), key)
	}, nil
}

func (s *RedisDraftStore) Locked(ctx context.Context, flow string, userID int) (bool, error) {
	n, err := s.rdb.Exists(ctx, config.CacheKey.WizardFinalizeLockKey(flow, userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check finalize lock: %w", err)
	}
	return n > 0, nil
}

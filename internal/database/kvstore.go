package database

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/kvstore"
)

// NewKVStore opens the keyed JSON store selected by cfg.KVDriver. The
// returned close func releases the bolt file; for Redis it is a no-op since
// the client is owned by the caller.
func NewKVStore(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) (kvstore.Store, func() error, error) {
	switch cfg.KVDriver {
	case config.KVDriverBolt, "":
		db, err := NewBoltDB(cfg.BoltPath, log)
		if err != nil {
			return nil, nil, err
		}
		store, err := kvstore.NewBoltStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil
	case config.KVDriverRedis:
		if rdb == nil {
			return nil, nil, fmt.Errorf("kv driver %q needs a redis client", cfg.KVDriver)
		}
		log.Info().Msg("Keyed store backed by Redis")
		return kvstore.NewRedisStore(rdb), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown kv driver %q", cfg.KVDriver)
	}
}

// Package storage puts uploaded files somewhere reachable by URL.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/techsynergy/campus-backend/internal/config"
)

// Backend persists an object under key and returns its public URL.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// New selects the backend named by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverLocal, "":
		return NewLocal(cfg.UploadDir), nil
	case config.StorageDriverB2:
		return NewB2(ctx, cfg.B2AccountID, cfg.B2AppKey, cfg.B2Bucket)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

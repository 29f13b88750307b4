package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/kurin/blazer/b2"
)

// B2 stores objects in a Backblaze B2 bucket.
type B2 struct {
	bucket *b2.Bucket
}

// NewB2 authorises against B2 and resolves the bucket.
func NewB2(ctx context.Context, accountID, appKey, bucketName string) (*B2, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, fmt.Errorf("create b2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("get bucket: %w", err)
	}

	return &B2{bucket: bucket}, nil
}

func (s *B2) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	obj := s.bucket.Object(key)
	w := obj.NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType}))

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}

	return fmt.Sprintf("%s/file/%s/%s", s.bucket.BaseURL(), s.bucket.Name(), key), nil
}

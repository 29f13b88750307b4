package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// Local writes files under a directory served at /uploads.
type Local struct {
	dir string
}

// NewLocal creates a Local backend rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

func (l *Local) Put(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	// Cleaning against "/" drops any leading "..", keeping dest under dir.
	clean := path.Clean("/" + key)
	dest := filepath.Join(l.dir, filepath.FromSlash(clean))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return "/uploads" + clean, nil
}

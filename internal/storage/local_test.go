package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techsynergy/campus-backend/internal/config"
)

func TestLocalPut(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir)

	url, err := l.Put(context.Background(), "faces/abc.jpg", strings.NewReader("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/faces/abc.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "faces", "abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestLocalPutKeepsInsideRoot(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir)

	url, err := l.Put(context.Background(), "../../etc/passwd", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/etc/passwd", url)
	assert.FileExists(t, filepath.Join(dir, "etc", "passwd"))
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), &config.Config{StorageDriver: "ftp"})
	assert.Error(t, err)
}

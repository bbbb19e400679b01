package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"car-marketplace/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Car Photo", "my_car_photo"},
		{"front<view>?", "frontview"},
		{"  spaced   out ", "spaced_out"},
		{"already-safe.name", "already-safe.name"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFileName(tt.in), "input %q", tt.in)
	}
}

func TestUniqueName(t *testing.T) {
	now := time.UnixMilli(1717200000000)

	name := uniqueName("Front View.JPG", now)
	assert.True(t, strings.HasPrefix(name, "1717200000000_front_view_"), name)
	assert.True(t, strings.HasSuffix(name, ".jpg"), name)
	assert.NotEqual(t, name, uniqueName("Front View.JPG", now))

	assert.Regexp(t, `^1717200000000_[0-9a-f]{8}\.png$`, uniqueName("###.png", now))
}

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStorage(dir, "uploads/", zap.NewNop())
	ctx := context.Background()

	stored, err := store.Save(ctx, "cars", "engine bay.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.URL, "/uploads/cars/"), stored.URL)
	assert.Equal(t, int64(9), stored.Size)
	assert.Equal(t, "engine bay.png", stored.OriginalName)

	onDisk := filepath.Join(dir, "cars", stored.FileName)
	content, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))

	require.NoError(t, store.Delete(ctx, stored.URL))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// deleting again is not an error
	assert.NoError(t, store.Delete(ctx, stored.URL))
}

func TestLocalStorage_RejectsEmptyFiles(t *testing.T) {
	store := NewLocalStorage(t.TempDir(), "/uploads", zap.NewNop())

	_, err := store.Save(context.Background(), "cars", "a.png", "image/png", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLocalStorage_ResolveStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStorage(dir, "/uploads", zap.NewNop())

	resolved, err := store.resolve("/uploads/../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "etc", "passwd"), resolved)

	resolved, err = store.resolve("https://cdn.example.com/photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), resolved)

	_, err = store.resolve("/uploads/")
	assert.Error(t, err)
}

func TestS3Storage_ObjectKey(t *testing.T) {
	store := &S3Storage{baseURL: "http://minio:9000/car-images"}

	key, ok := store.objectKey("http://minio:9000/car-images/cars/1_a.jpg")
	assert.True(t, ok)
	assert.Equal(t, "cars/1_a.jpg", key)

	_, ok = store.objectKey("/uploads/cars/1_a.jpg")
	assert.False(t, ok)
}

func TestNew_SelectsDriver(t *testing.T) {
	cfg := &config.Config{Upload: config.UploadConfig{Driver: "local", Dir: t.TempDir(), URLPath: "/uploads"}}

	store, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)

	cfg.Upload.Driver = "ftp"
	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

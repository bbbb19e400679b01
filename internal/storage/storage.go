package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"car-marketplace/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmptyFile is returned when there is nothing to store
var ErrEmptyFile = errors.New("no file content to store")

// AllowedImageTypes are the content types accepted for car images
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// StoredFile describes a file written to storage
type StoredFile struct {
	URL          string `json:"url"`
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType"`
}

// FileStorage persists uploaded files and resolves them by public URL
type FileStorage interface {
	Save(ctx context.Context, subDir, originalName, contentType string, data []byte) (*StoredFile, error)
	// Delete removes the file behind url. Deleting a missing file succeeds.
	Delete(ctx context.Context, url string) error
}

// New builds the storage backend selected by cfg.Upload.Driver
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (FileStorage, error) {
	switch cfg.Upload.Driver {
	case "", "local":
		return NewLocalStorage(cfg.Upload.Dir, cfg.Upload.URLPath, logger), nil
	case "s3":
		return NewS3Storage(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Upload.Driver)
	}
}

var (
	unsafeChars = regexp.MustCompile(`[^\w\s.\-]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// SanitizeFileName strips characters that are unsafe in file names and
// lower-cases the result
func SanitizeFileName(name string) string {
	name = unsafeChars.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(strings.TrimSpace(name), "_")
	return strings.ToLower(name)
}

// uniqueName returns <unix millis>_<sanitized base>_<random>.<ext>
func uniqueName(originalName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	base := SanitizeFileName(strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName)))
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	if base == "" {
		return fmt.Sprintf("%d_%s%s", now.UnixMilli(), suffix, ext)
	}
	return fmt.Sprintf("%d_%s_%s%s", now.UnixMilli(), base, suffix, ext)
}

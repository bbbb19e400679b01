package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LocalStorage writes files below a directory served at urlPath
type LocalStorage struct {
	dir     string
	urlPath string
	logger  *zap.Logger
	now     func() time.Time
}

// NewLocalStorage creates a LocalStorage rooted at dir
func NewLocalStorage(dir, urlPath string, logger *zap.Logger) *LocalStorage {
	if urlPath == "" {
		urlPath = "/uploads"
	}
	return &LocalStorage{
		dir:     dir,
		urlPath: "/" + strings.Trim(urlPath, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

// Dir is the root directory of stored files
func (s *LocalStorage) Dir() string {
	return s.dir
}

// URLPath is the URL prefix files are served under
func (s *LocalStorage) URLPath() string {
	return s.urlPath
}

// Save writes data to dir/subDir/<unique name>
func (s *LocalStorage) Save(_ context.Context, subDir, originalName, contentType string, data []byte) (*StoredFile, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	subDir = SanitizeFileName(subDir)
	target := filepath.Join(s.dir, subDir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	fileName := uniqueName(originalName, s.now())
	if err := os.WriteFile(filepath.Join(target, fileName), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	stored := &StoredFile{
		URL:          path.Join(s.urlPath, subDir, fileName),
		FileName:     fileName,
		OriginalName: originalName,
		Size:         int64(len(data)),
		ContentType:  contentType,
	}

	s.logger.Info("Stored file", zap.String("url", stored.URL), zap.Int64("size", stored.Size))
	return stored, nil
}

// Delete removes the file referenced by url
func (s *LocalStorage) Delete(_ context.Context, url string) error {
	filePath, err := s.resolve(url)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("File to delete does not exist", zap.String("path", filePath))
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.logger.Info("Deleted file", zap.String("url", url))
	return nil
}

// resolve maps a public URL to a path inside dir. URLs outside urlPath are
// looked up by base name.
func (s *LocalStorage) resolve(url string) (string, error) {
	prefix := s.urlPath + "/"
	var rel string
	if strings.HasPrefix(url, prefix) {
		rel = path.Clean("/" + strings.TrimPrefix(url, prefix))
	} else {
		rel = "/" + path.Base(url)
	}

	if rel == "/" || rel == "/." {
		return "", fmt.Errorf("invalid file url %q", url)
	}

	return filepath.Join(s.dir, filepath.FromSlash(rel)), nil
}

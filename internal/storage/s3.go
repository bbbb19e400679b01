package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"car-marketplace/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3Storage stores files in an S3 compatible bucket
type S3Storage struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
	now     func() time.Time
}

// NewS3Storage connects to the endpoint in cfg and makes sure the bucket exists
func NewS3Storage(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*S3Storage, error) {
	logger.Info("Initializing S3 storage",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
		zap.Bool("use_ssl", cfg.UseSSL),
	)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("Created bucket", zap.String("bucket", cfg.Bucket))
	}

	baseURL := strings.TrimRight(cfg.PublicURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s/%s", client.EndpointURL().String(), cfg.Bucket)
	}

	return &S3Storage{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Save uploads data as subDir/<unique name>
func (s *S3Storage) Save(ctx context.Context, subDir, originalName, contentType string, data []byte) (*StoredFile, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	fileName := uniqueName(originalName, s.now())
	objectKey := fileName
	if subDir = SanitizeFileName(subDir); subDir != "" {
		objectKey = subDir + "/" + fileName
	}

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"original-filename": originalName},
	})
	if err != nil {
		s.logger.Error("Failed to upload object", zap.String("key", objectKey), zap.Error(err))
		return nil, fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	s.logger.Info("Uploaded object",
		zap.String("key", info.Key),
		zap.String("etag", info.ETag),
		zap.Int64("size", info.Size),
	)

	return &StoredFile{
		URL:          s.baseURL + "/" + objectKey,
		FileName:     fileName,
		OriginalName: originalName,
		Size:         int64(len(data)),
		ContentType:  contentType,
	}, nil
}

// Delete removes the object behind url
func (s *S3Storage) Delete(ctx context.Context, url string) error {
	key, ok := s.objectKey(url)
	if !ok {
		s.logger.Warn("URL does not belong to this bucket", zap.String("url", url))
		return nil
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	s.logger.Info("Deleted object", zap.String("key", key))
	return nil
}

func (s *S3Storage) objectKey(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

package storage

import (
	"alcyxob/anyshare/internal/domain"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// gcsStorage implements ObjectStore on a Google Cloud Storage bucket.
// Signed URLs use V4 signing with the credentials the client was created with.
type gcsStorage struct {
	bucket *gcs.BucketHandle
	logger *slog.Logger
}

// NewGCSStorage creates a client from Application Default Credentials unless opts say otherwise.
func NewGCSStorage(ctx context.Context, bucketName string, logger *slog.Logger, opts ...option.ClientOption) (ObjectStore, error) {
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	logger.Info("gcs storage initialised", slog.String("bucket", bucketName))

	return &gcsStorage{
		bucket: client.Bucket(bucketName),
		logger: logger.With(slog.String("component", "gcs_storage")),
	}, nil
}

// Upload streams r into objectKey. A failed copy leaves no object behind.
func (s *gcsStorage) Upload(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error {
	// Close commits whatever was written; cancelling the writer's context is what abandons it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wc := s.bucket.Object(objectKey).NewWriter(ctx)
	if contentType != "" {
		wc.ContentType = contentType
	}

	if _, err := io.Copy(wc, r); err != nil {
		cancel()
		return fmt.Errorf("copy to gcs object %q: %w", objectKey, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("commit gcs object %q: %w", objectKey, err)
	}
	return nil
}

func (s *gcsStorage) Delete(ctx context.Context, objectKey string) (domain.DeleteResult, error) {
	err := s.bucket.Object(objectKey).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return domain.AlreadyAbsent, nil
	}
	if err != nil {
		return 0, fmt.Errorf("delete gcs object %q: %w", objectKey, err)
	}

	s.logger.Debug("object deleted", slog.String("key", objectKey))
	return domain.Deleted, nil
}

func (s *gcsStorage) SignedDownloadURL(_ context.Context, objectKey string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultSignedURLExpiry
	}

	url, err := s.bucket.SignedURL(objectKey, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expires),
	})
	if err != nil {
		return "", fmt.Errorf("sign gcs url %q: %w", objectKey, err)
	}
	return url, nil
}

func (s *gcsStorage) Ping(ctx context.Context) error {
	_, err := s.bucket.Attrs(ctx)
	return err
}

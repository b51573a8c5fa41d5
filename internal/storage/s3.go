package storage

import (
	"alcyxob/anyshare/internal/config"
	"alcyxob/anyshare/internal/domain"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3API is the subset of *s3.Client used by s3Storage.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Presigner is the subset of *s3.PresignClient used by s3Storage.
type S3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// s3Storage implements ObjectStore using an S3-compatible backend.
type s3Storage struct {
	client        S3API       // Regular client for PutObject / DeleteObject
	presignClient S3Presigner // Special client for generating presigned URLs
	bucketName    string
	logger        *slog.Logger
}

// NewS3Storage creates a new S3 storage service instance.
func NewS3Storage(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (ObjectStore, error) {
	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(cfg.Region)}
	// Static keys when configured, otherwise the default credential chain.
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config for s3: %w", err)
	}

	endpoint := endpointURL(cfg.Endpoint, cfg.UseSSL)
	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if endpoint != "" {
			// S3-compatible services (MinIO etc.) need path-style addressing.
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("s3 storage initialised",
		slog.String("endpoint", endpoint),
		slog.String("bucket", cfg.BucketName),
	)

	return NewS3StorageWithClients(s3Client, s3.NewPresignClient(s3Client), cfg.BucketName, logger), nil
}

// NewS3StorageWithClients wires an ObjectStore over already-built clients.
func NewS3StorageWithClients(client S3API, presigner S3Presigner, bucketName string, logger *slog.Logger) ObjectStore {
	return &s3Storage{
		client:        client,
		presignClient: presigner,
		bucketName:    bucketName,
		logger:        logger.With(slog.String("component", "s3_storage")),
	}
}

func (s *s3Storage) Upload(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
		Body:   r,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %q: %w", objectKey, err)
	}
	return nil
}

// Delete removes an object from the bucket.
// S3 answers DeleteObject with success for missing keys, so existence is checked first
// to report AlreadyAbsent. The check and delete are not atomic; a concurrent reaper
// may make both callers see Deleted, which is harmless.
func (s *s3Storage) Delete(ctx context.Context, objectKey string) (domain.DeleteResult, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isS3NotFound(err) {
			return domain.AlreadyAbsent, nil
		}
		return 0, fmt.Errorf("head object %q: %w", objectKey, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isS3NotFound(err) {
			return domain.AlreadyAbsent, nil
		}
		return 0, fmt.Errorf("delete object %q: %w", objectKey, err)
	}

	s.logger.Debug("object deleted", slog.String("key", objectKey))
	return domain.Deleted, nil
}

// SignedDownloadURL creates a temporary URL for downloading (GET).
func (s *s3Storage) SignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultSignedURLExpiry
	}

	presignParams := &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}

	req, err := s.presignClient.PresignGetObject(ctx, presignParams, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presign get %q: %w", objectKey, err)
	}
	return req.URL, nil
}

func (s *s3Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	return err
}

// endpointURL adds a scheme to a bare host:port endpoint; useSSL picks https.
func endpointURL(endpoint string, useSSL bool) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NotFound", "NoSuchKey":
		return true
	}
	return false
}

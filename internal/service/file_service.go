package service

import (
	"alcyxob/anyshare/internal/domain"
	"alcyxob/anyshare/internal/repository"
	"alcyxob/anyshare/internal/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults used when the corresponding option is zero.
const (
	DefaultTTL       = 10 * time.Minute
	DefaultSweepSize = 100
)

// Reap triggers, used as metric labels and in logs.
const (
	TriggerRead  = "read"
	TriggerSweep = "sweep"
)

// UploadInput is one file as received from a client.
type UploadInput struct {
	Body        io.Reader
	FileName    string
	FileSize    int64
	ContentType string
}

// FileService implements the expiring-object lifecycle: upload, resolve and reap.
type FileService interface {
	// Upload stores the bytes, then the record. Returns the new record.
	Upload(ctx context.Context, in UploadInput) (*domain.FileRecord, error)

	// Resolve applies the expiry policy to id and, if live, issues a short-lived signed URL.
	// Errors: ErrFileNotFound, ErrFileExpired, or an ErrUpstream-wrapped failure.
	Resolve(ctx context.Context, id string) (*domain.Download, error)

	// Lookup applies the same expiry policy as Resolve without signing a URL.
	Lookup(ctx context.Context, id string) (*domain.FileRecord, error)

	// ReapExpired deletes up to limit expired records and their blobs. Returns how many records
	// were actually removed; records whose delete failed are not counted.
	ReapExpired(ctx context.Context, limit int) (int, error)

	// TTL is the lifetime given to new uploads.
	TTL() time.Duration
}

// Options tune a FileService. Zero values fall back to defaults.
type Options struct {
	TTL          time.Duration
	SignedURLTTL time.Duration
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

type fileService struct {
	repo   repository.FileRepository
	store  storage.ObjectStore
	ttl    time.Duration
	urlTTL time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewFileService creates a new instance of fileService.
func NewFileService(repo repository.FileRepository, store storage.ObjectStore, opts Options, logger *slog.Logger) FileService {
	s := &fileService{
		repo:   repo,
		store:  store,
		ttl:    opts.TTL,
		urlTTL: opts.SignedURLTTL,
		now:    opts.Now,
		logger: logger.With(slog.String("component", "file_service")),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.urlTTL <= 0 {
		s.urlTTL = storage.DefaultSignedURLExpiry
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *fileService) TTL() time.Duration { return s.ttl }

// === Upload ===

func (s *fileService) Upload(ctx context.Context, in UploadInput) (*domain.FileRecord, error) {
	name := strings.TrimSpace(in.FileName)
	if in.Body == nil || name == "" {
		uploadsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: a file with a name is required", ErrInvalidUpload)
	}
	if in.FileSize < 0 {
		uploadsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: negative file size", ErrInvalidUpload)
	}

	now := s.now()
	objectKey := newObjectKey(name, now)

	// 1. Bytes first. Nothing is visible to readers if this fails.
	if err := s.store.Upload(ctx, objectKey, in.Body, in.FileSize, in.ContentType); err != nil {
		uploadsTotal.WithLabelValues("storage_error").Inc()
		return nil, upstream("upload object", err)
	}

	// 2. Metadata. On failure the blob is orphaned; no compensating delete is attempted.
	rec := &domain.FileRecord{
		ID:        uuid.NewString(),
		FilePath:  objectKey,
		FileName:  name,
		FileSize:  in.FileSize,
		ExpiresAt: now.Add(s.ttl).UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		uploadsTotal.WithLabelValues("metadata_error").Inc()
		orphanedBlobsTotal.WithLabelValues("insert_failed").Inc()
		s.logger.Warn("metadata insert failed, blob orphaned",
			slog.String("file_path", objectKey),
			slog.String("error", err.Error()),
		)
		return nil, upstream("insert record", err)
	}

	uploadsTotal.WithLabelValues("ok").Inc()
	uploadBytesTotal.Add(float64(in.FileSize))
	s.logger.Info("file uploaded",
		slog.String("file_id", rec.ID),
		slog.Int64("size", rec.FileSize),
		slog.Time("expires_at", rec.ExpiresAt),
	)
	return rec, nil
}

// newObjectKey derives a storage key from a random token, the upload time and the
// original extension. Uniqueness is probabilistic and not checked.
func newObjectKey(fileName string, now time.Time) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%d%s", token, now.UnixMilli(), sanitizeExt(path.Ext(fileName)))
}

// sanitizeExt keeps extensions like ".pdf" and drops anything that is not [A-Za-z0-9].
func sanitizeExt(ext string) string {
	if len(ext) < 2 || len(ext) > 16 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// === Resolve ===

func (s *fileService) Resolve(ctx context.Context, id string) (*domain.Download, error) {
	rec, err := s.lookup(ctx, id)
	if err != nil {
		resolvesTotal.WithLabelValues(KindOf(err).String()).Inc()
		return nil, err
	}

	url, err := s.store.SignedDownloadURL(ctx, rec.FilePath, s.urlTTL)
	if err != nil {
		resolvesTotal.WithLabelValues("upstream").Inc()
		return nil, upstream("sign url", err)
	}

	resolvesTotal.WithLabelValues("live").Inc()
	return &domain.Download{
		URL:       url,
		FileName:  rec.FileName,
		FileSize:  rec.FileSize,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func (s *fileService) Lookup(ctx context.Context, id string) (*domain.FileRecord, error) {
	return s.lookup(ctx, id)
}

// lookup loads id and enforces expiry. An expired record is reaped before returning
// ErrFileExpired, so the next read of the same id sees ErrFileNotFound.
// Metrics are left to the callers.
func (s *fileService) lookup(ctx context.Context, id string) (*domain.FileRecord, error) {
	// Handles are UUIDs; anything else was never issued.
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrFileNotFound
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, upstream("get record", err)
	}

	if domain.CheckExpiry(rec, s.now()) == domain.Expired {
		s.reap(ctx, rec, TriggerRead)
		return nil, ErrFileExpired
	}
	return rec, nil
}

// === Reaping ===

// reap deletes the blob, then the record. Both steps are best effort: failures are
// logged and counted but never change what the caller is told.
// The record is removed even if the blob delete failed, so the handle cannot be served again.
// Reports whether the record is gone.
func (s *fileService) reap(ctx context.Context, rec *domain.FileRecord, trigger string) bool {
	// Cleanup must finish even if the requesting client goes away.
	ctx = context.WithoutCancel(ctx)
	logger := s.logger.With(
		slog.String("file_id", rec.ID),
		slog.String("trigger", trigger),
	)

	blobResult, err := s.store.Delete(ctx, rec.FilePath)
	if err != nil {
		orphanedBlobsTotal.WithLabelValues("delete_failed").Inc()
		logger.Error("reap: blob delete failed",
			slog.String("file_path", rec.FilePath),
			slog.String("error", err.Error()),
		)
	}

	recResult, err := s.repo.Delete(ctx, rec.ID)
	if err != nil {
		reapsTotal.WithLabelValues(trigger, "error").Inc()
		logger.Error("reap: record delete failed", slog.String("error", err.Error()))
		return false
	}

	reapsTotal.WithLabelValues(trigger, recResult.String()).Inc()
	logger.Info("expired file reaped",
		slog.String("blob", blobResult.String()),
		slog.String("record", recResult.String()),
	)
	return true
}

func (s *fileService) ReapExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultSweepSize
	}

	records, err := s.repo.ListExpired(ctx, s.now(), limit)
	if err != nil {
		return 0, upstream("list expired", err)
	}

	reaped := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			return reaped, err
		}
		if s.reap(ctx, &records[i], TriggerSweep) {
			reaped++
		}
	}
	return reaped, nil
}

// ShareURL is the public link for a handle: {origin}/download/{id}.
func ShareURL(origin, id string) string {
	return strings.TrimRight(origin, "/") + "/download/" + id
}

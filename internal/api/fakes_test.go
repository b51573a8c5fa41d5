package api

import (
	"alcyxob/anyshare/internal/domain"
	"alcyxob/anyshare/internal/repository"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

type memRepo struct {
	mu      sync.Mutex
	records map[string]domain.FileRecord
	pingErr error
}

func newMemRepo() *memRepo { return &memRepo{records: map[string]domain.FileRecord{}} }

func (r *memRepo) Create(_ context.Context, rec *domain.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = *rec
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *memRepo) Delete(_ context.Context, id string) (domain.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return domain.AlreadyAbsent, nil
	}
	delete(r.records, id)
	return domain.Deleted, nil
}

func (r *memRepo) ListExpired(context.Context, time.Time, int) ([]domain.FileRecord, error) {
	return nil, nil
}

func (r *memRepo) Ping(context.Context) error { return r.pingErr }

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.failPut {
		return errors.New("bucket unavailable")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) (domain.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return domain.AlreadyAbsent, nil
	}
	delete(s.objects, key)
	return domain.Deleted, nil
}

func (s *memStore) SignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.example.com/" + key + "?X-Amz-Signature=test", nil
}

func (s *memStore) Ping(context.Context) error { return nil }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

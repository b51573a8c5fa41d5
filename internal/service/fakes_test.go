package service

import (
	"alcyxob/anyshare/internal/domain"
	"alcyxob/anyshare/internal/repository"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// fakeRepo is an in-memory repository.FileRepository with error injection.
type fakeRepo struct {
	mu        sync.Mutex
	records   map[string]domain.FileRecord
	createErr error
	getErr    error
	deleteErr error
	gets      int

	// failDelete makes Delete fail for the listed ids only.
	failDelete map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]domain.FileRecord{}}
}

func (r *fakeRepo) Create(_ context.Context, rec *domain.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.records[rec.ID]; ok {
		return repository.ErrDuplicate
	}
	r.records[rec.ID] = *rec
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	if err := r.failDelete[id]; err != nil {
		return 0, err
	}
	if _, ok := r.records[id]; !ok {
		return domain.AlreadyAbsent, nil
	}
	delete(r.records, id)
	return domain.Deleted, nil
}

func (r *fakeRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FileRecord
	for _, rec := range r.records {
		if !rec.ExpiresAt.After(now) && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) Ping(context.Context) error { return nil }

func (r *fakeRepo) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[id]
	return ok
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeStore is an in-memory storage.ObjectStore with error injection.
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	deleteErr error
	signErr   error
	signedTTL time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
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

func (s *fakeStore) Delete(ctx context.Context, key string) (domain.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	if _, ok := s.objects[key]; !ok {
		return domain.AlreadyAbsent, nil
	}
	delete(s.objects, key)
	return domain.Deleted, nil
}

func (s *fakeStore) SignedDownloadURL(_ context.Context, key string, expires time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signErr != nil {
		return "", s.signErr
	}
	s.signedTTL = expires
	return "https://objects.example.com/" + key + "?sig=test", nil
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

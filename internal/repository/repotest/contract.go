// Package repotest holds behaviour every repository.FileRepository backend must share.
package repotest

import (
	"alcyxob/anyshare/internal/domain"
	"alcyxob/anyshare/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewRecord builds a record expiring at expiresAt with a fresh id and path.
func NewRecord(name string, size int64, expiresAt time.Time) *domain.FileRecord {
	id := uuid.NewString()
	return &domain.FileRecord{
		ID:        id,
		FilePath:  id + "_test.bin",
		FileName:  name,
		FileSize:  size,
		ExpiresAt: expiresAt.UTC().Truncate(time.Millisecond),
	}
}

// RunFileRepository exercises repo against the FileRepository contract.
// Each subtest gets a fresh repository from newRepo.
func RunFileRepository(t *testing.T, newRepo func(t *testing.T) repository.FileRepository) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		rec := NewRecord("report.pdf", 10, now.Add(10*time.Minute))
		require.NoError(t, repo.Create(ctx, rec))

		got, err := repo.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.FilePath, got.FilePath)
		assert.Equal(t, "report.pdf", got.FileName)
		assert.Equal(t, int64(10), got.FileSize)
		assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt), "expiresAt %v != %v", got.ExpiresAt, rec.ExpiresAt)
	})

	t.Run("get unknown", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		repo := newRepo(t)
		rec := NewRecord("a.txt", 1, now.Add(time.Minute))
		require.NoError(t, repo.Create(ctx, rec))

		dup := *rec
		dup.FilePath = "other_path.txt"
		assert.ErrorIs(t, repo.Create(ctx, &dup), repository.ErrDuplicate)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		rec := NewRecord("a.txt", 1, now.Add(time.Minute))
		require.NoError(t, repo.Create(ctx, rec))

		res, err := repo.Delete(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Deleted, res)

		res, err = repo.Delete(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AlreadyAbsent, res)

		_, err = repo.GetByID(ctx, rec.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("list expired", func(t *testing.T) {
		repo := newRepo(t)
		old := NewRecord("old.txt", 1, now.Add(-time.Hour))
		stale := NewRecord("stale.txt", 1, now.Add(-time.Minute))
		fresh := NewRecord("fresh.txt", 1, now.Add(time.Hour))
		for _, rec := range []*domain.FileRecord{old, stale, fresh} {
			require.NoError(t, repo.Create(ctx, rec))
		}

		expired, err := repo.ListExpired(ctx, now, 10)
		require.NoError(t, err)
		ids := make([]string, 0, len(expired))
		for _, rec := range expired {
			ids = append(ids, rec.ID)
		}
		assert.ElementsMatch(t, []string{old.ID, stale.ID}, ids)

		limited, err := repo.ListExpired(ctx, now, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newRepo(t).Ping(ctx))
	})
}

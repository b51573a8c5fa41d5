package repository

import (
	"alcyxob/anyshare/internal/domain"
	"context"
	"time"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate id")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// FileRepository is the metadata store: one record per shared file, keyed by its public ID.
// Records are inserted once and never updated; they leave the store only through Delete.
type FileRepository interface {
	Create(ctx context.Context, rec *domain.FileRecord) error
	// GetByID returns ErrNotFound when no record has this id.
	GetByID(ctx context.Context, id string) (*domain.FileRecord, error)
	// Delete is idempotent: a missing record yields domain.AlreadyAbsent, not an error.
	Delete(ctx context.Context, id string) (domain.DeleteResult, error)
	// ListExpired returns up to limit records with ExpiresAt <= now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.FileRecord, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

package postgres

import (
	"alcyxob/anyshare/internal/domain"
	"alcyxob/anyshare/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const fileColumns = "id, file_path, file_name, file_size, expires_at"

type fileRepository struct {
	pool *pgxpool.Pool
}

// NewFileRepository returns a repository.FileRepository over pool.
func NewFileRepository(pool *pgxpool.Pool) repository.FileRepository {
	return &fileRepository{pool: pool}
}

func (r *fileRepository) Create(ctx context.Context, rec *domain.FileRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO files (`+fileColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.FilePath, rec.FileName, rec.FileSize, rec.ExpiresAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert file %s: %w", rec.ID, err)
	}
	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, id string) (*domain.FileRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id)

	rec, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}
	return rec, nil
}

func (r *fileRepository) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete file %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.AlreadyAbsent, nil
	}
	return domain.Deleted, nil
}

func (r *fileRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.FileRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+fileColumns+` FROM files WHERE expires_at <= $1 ORDER BY expires_at LIMIT $2`,
		now.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list expired files: %w", err)
	}
	defer rows.Close()

	var records []domain.FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired file: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *fileRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanFile(row pgx.Row) (*domain.FileRecord, error) {
	var rec domain.FileRecord
	if err := row.Scan(&rec.ID, &rec.FilePath, &rec.FileName, &rec.FileSize, &rec.ExpiresAt); err != nil {
		return nil, err
	}
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	return &rec, nil
}

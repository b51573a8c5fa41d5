// Package sqlite keeps file records in a local SQLite database.
// Intended for single-node deployments and development.
package sqlite

import (
	"alcyxob/anyshare/internal/domain"
	"alcyxob/anyshare/internal/repository"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// DB is a repository.FileRepository backed by SQLite.
type DB struct {
	db *sql.DB
}

// Open connects to dsn and creates the schema if it does not exist.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (s *DB) Close() error {
	return s.db.Close()
}

func (s *DB) Create(ctx context.Context, rec *domain.FileRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, file_path, file_name, file_size, expires_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.FilePath, rec.FileName, rec.FileSize, rec.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert file %s: %w", rec.ID, err)
	}
	return nil
}

func (s *DB) GetByID(ctx context.Context, id string) (*domain.FileRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_path, file_name, file_size, expires_at FROM files WHERE id = ?`, id)

	rec, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}
	return rec, nil
}

func (s *DB) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete file %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete file %s: %w", id, err)
	}
	if n == 0 {
		return domain.AlreadyAbsent, nil
	}
	return domain.Deleted, nil
}

func (s *DB) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_path, file_name, file_size, expires_at FROM files
		 WHERE expires_at <= ? ORDER BY expires_at LIMIT ?`,
		now.UnixMilli(), limit,
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

func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*domain.FileRecord, error) {
	var (
		rec       domain.FileRecord
		expiresMs int64
	)
	if err := row.Scan(&rec.ID, &rec.FilePath, &rec.FileName, &rec.FileSize, &expiresMs); err != nil {
		return nil, err
	}
	rec.ExpiresAt = time.UnixMilli(expiresMs).UTC()
	return &rec, nil
}

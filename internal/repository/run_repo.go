// Package repository provides data access for run history.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/collab-code-editor/backend/internal/model"
)

// RunRepository persists the audit record of completed executions.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run record.
func (r *RunRepository) Create(ctx context.Context, rec *model.RunRecord) error {
	query := `
		INSERT INTO runs (token, language, status, duration_ms, output, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.Token,
		rec.Language,
		rec.Status,
		rec.Duration,
		rec.Output,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run record: %w", err)
	}

	return nil
}

// GetByToken retrieves a run record by its run token.
func (r *RunRepository) GetByToken(ctx context.Context, token string) (*model.RunRecord, error) {
	query := `
		SELECT token, language, status, duration_ms, output, created_at
		FROM runs
		WHERE token = ?
	`

	rec := &model.RunRecord{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rec.Token,
		&rec.Language,
		&rec.Status,
		&rec.Duration,
		&rec.Output,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run record: %w", err)
	}

	return rec, nil
}

// List retrieves the most recent run records, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*model.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT token, language, status, duration_ms, output, created_at
		FROM runs
		ORDER BY created_at DESC, token DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list run records: %w", err)
	}
	defer rows.Close()

	var records []*model.RunRecord
	for rows.Next() {
		rec := &model.RunRecord{}
		err := rows.Scan(
			&rec.Token,
			&rec.Language,
			&rec.Status,
			&rec.Duration,
			&rec.Output,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run records: %w", err)
	}

	return records, nil
}

// CountByStatus returns the number of runs with the given status.
func (r *RunRepository) CountByStatus(ctx context.Context, status model.RunStatus) (int, error) {
	query := `SELECT COUNT(*) FROM runs WHERE status = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}

	return count, nil
}

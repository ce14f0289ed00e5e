package sqlite

import (
	"context"
	"database/sql"

	"github.com/docbrief/docbrief/internal/gateway/domain"
	"github.com/docbrief/docbrief/pkg/idx"
)

const defaultListLimit = 50

type usageRepo struct {
	db *sql.DB
}

const insertUsageQuery = `
INSERT INTO usage_records (id, username, operation, model, prompt_chars, completion_chars, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (r *usageRepo) Insert(ctx context.Context, rec domain.UsageRecord) error {
	_, err := r.db.ExecContext(ctx, insertUsageQuery,
		rec.ID.String(),
		rec.Username,
		string(rec.Operation),
		rec.Model,
		rec.PromptChars,
		rec.CompletionChars,
		rec.DurationMS,
		rec.CreatedAt,
	)
	return err
}

const listByUsernameQuery = `
SELECT id, username, operation, model, prompt_chars, completion_chars, duration_ms, created_at
FROM usage_records
WHERE username = ?
ORDER BY id DESC
LIMIT ?`

func (r *usageRepo) ListByUsername(ctx context.Context, username string, limit int) ([]domain.UsageRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, listByUsernameQuery, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsageRecords(rows)
}

const listAllQuery = `
SELECT id, username, operation, model, prompt_chars, completion_chars, duration_ms, created_at
FROM usage_records
ORDER BY id DESC
LIMIT ?`

func (r *usageRepo) ListAll(ctx context.Context, limit int) ([]domain.UsageRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, listAllQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsageRecords(rows)
}

func scanUsageRecords(rows *sql.Rows) ([]domain.UsageRecord, error) {
	out := []domain.UsageRecord{}
	for rows.Next() {
		var rec domain.UsageRecord
		var id, op string

		if err := rows.Scan(
			&id,
			&rec.Username,
			&op,
			&rec.Model,
			&rec.PromptChars,
			&rec.CompletionChars,
			&rec.DurationMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		rec.ID = idx.ID(id)
		rec.Operation = domain.Operation(op)
		out = append(out, rec)
	}
	return out, rows.Err()
}

package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/replyforge/replyforge/pkg/usage"
)

// PGStore is the PostgreSQL-backed generation Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PGStore on the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// RecordGeneration inserts the audit row and upsert-increments the usage
// period inside one transaction, so accounting and audit can never diverge.
func (s *PGStore) RecordGeneration(ctx context.Context, rec *Record) (*usage.Period, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("generation: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO generation_records (
			id, user_id, review_text, reply_text, language, tone, business_type,
			prompt_tokens, completion_tokens, estimated_cost, duration_ms,
			success, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.UserID, rec.ReviewText, rec.ReplyText, rec.Language, rec.Tone, rec.BusinessType,
		rec.PromptTokens, rec.CompletionTokens, rec.EstimatedCost, rec.Duration.Milliseconds(),
		rec.Success, rec.ErrorMessage, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("generation: insert record: %w", err)
	}

	month, year := usage.PeriodOf(rec.CreatedAt)
	period, err := usage.IncrementQ(ctx, tx, rec.UserID, month, year)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("generation: commit: %w", err)
	}
	return period, nil
}

func (s *PGStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, review_text, reply_text, language, tone, business_type,
			prompt_tokens, completion_tokens, estimated_cost, duration_ms,
			success, error_message, created_at
		FROM generation_records
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("generation: list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec        Record
			durationMs int64
		)
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ReviewText, &rec.ReplyText, &rec.Language, &rec.Tone, &rec.BusinessType,
			&rec.PromptTokens, &rec.CompletionTokens, &rec.EstimatedCost, &durationMs,
			&rec.Success, &rec.ErrorMessage, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("generation: scan record: %w", err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PGStore) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM generation_records WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("generation: count records: %w", err)
	}
	return count, nil
}

package usage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx query surface shared by pools and
// transactions, letting IncrementQ run standalone or inside a caller's tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore is the PostgreSQL-backed usage Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PGStore on the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) GetOrCreate(ctx context.Context, userID uuid.UUID, month, year int) (*Period, error) {
	// DO UPDATE with a no-op assignment makes RETURNING yield the existing
	// row on conflict; DO NOTHING would return no rows at all.
	var p Period
	err := s.pool.QueryRow(ctx, `
		INSERT INTO usage_periods (user_id, month, year, request_count, created_at, updated_at)
		VALUES ($1, $2, $3, 0, now(), now())
		ON CONFLICT (user_id, month, year)
		DO UPDATE SET request_count = usage_periods.request_count
		RETURNING user_id, month, year, request_count, created_at, updated_at`,
		userID, month, year,
	).Scan(&p.UserID, &p.Month, &p.Year, &p.RequestCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("usage: get or create period: %w", err)
	}
	return &p, nil
}

func (s *PGStore) Increment(ctx context.Context, userID uuid.UUID, month, year int) (*Period, error) {
	return IncrementQ(ctx, s.pool, userID, month, year)
}

// IncrementQ performs the atomic upsert-increment against q. It is exported
// so the generation store can pair it with the audit insert in one
// transaction.
func IncrementQ(ctx context.Context, q Querier, userID uuid.UUID, month, year int) (*Period, error) {
	var p Period
	err := q.QueryRow(ctx, `
		INSERT INTO usage_periods (user_id, month, year, request_count, created_at, updated_at)
		VALUES ($1, $2, $3, 1, now(), now())
		ON CONFLICT (user_id, month, year)
		DO UPDATE SET
			request_count = usage_periods.request_count + 1,
			updated_at = now()
		RETURNING user_id, month, year, request_count, created_at, updated_at`,
		userID, month, year,
	).Scan(&p.UserID, &p.Month, &p.Year, &p.RequestCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("usage: increment period: %w", err)
	}
	return &p, nil
}

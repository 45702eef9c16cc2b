package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/replyforge/replyforge/pkg/pg"
)

const templateColumns = `id, user_id, name, tone, language, body, created_at, updated_at`

// PGStore is the PostgreSQL-backed TemplateStore.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PGStore on the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, tpl *Template) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reply_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tpl.ID, tpl.UserID, tpl.Name, tpl.Tone, tpl.Language, tpl.Body,
		tpl.CreatedAt, tpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (s *PGStore) ByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	var tpl Template
	err := s.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM reply_templates WHERE id = $1`, id,
	).Scan(
		&tpl.ID, &tpl.UserID, &tpl.Name, &tpl.Tone, &tpl.Language, &tpl.Body,
		&tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query template: %w", err)
	}
	return &tpl, nil
}

func (s *PGStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Template, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+templateColumns+` FROM reply_templates WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var tpl Template
		if err := rows.Scan(
			&tpl.ID, &tpl.UserID, &tpl.Name, &tpl.Tone, &tpl.Language, &tpl.Body,
			&tpl.CreatedAt, &tpl.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, tpl *Template) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE reply_templates SET
			name = $2, tone = $3, language = $4, body = $5, updated_at = $6
		WHERE id = $1`,
		tpl.ID, tpl.Name, tpl.Tone, tpl.Language, tpl.Body, tpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reply_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

package profile

import (
	"context"

	"github.com/google/uuid"
)

// TemplateStore defines persistence for reply templates. Implementations
// return ErrTemplateNotFound when no record matches.
type TemplateStore interface {
	Create(ctx context.Context, tpl *Template) error
	ByID(ctx context.Context, id uuid.UUID) (*Template, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Template, error)
	Update(ctx context.Context, tpl *Template) error
	Delete(ctx context.Context, id uuid.UUID) error
}

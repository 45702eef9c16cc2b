package auth

import (
	"context"

	"github.com/google/uuid"
)

// UserStore defines the persistence operations required by authentication
// and billing reconciliation. Implementations return ErrUserNotFound when no
// record matches.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	ByID(ctx context.Context, id uuid.UUID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	// ByProviderCustomerID resolves a user from the billing provider's
	// customer reference, used by webhook reconciliation.
	ByProviderCustomerID(ctx context.Context, customerID string) (*User, error)
	Update(ctx context.Context, user *User) error
}

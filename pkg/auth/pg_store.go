package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/replyforge/replyforge/pkg/pg"
)

const userColumns = `id, email, password_hash, name, business_name, business_type,
	default_tone, default_language, plan_id, subscription_status, subscription_ends_at,
	monthly_quota, provider_customer_id, provider_sub_id, is_active, last_login_at,
	created_at, updated_at`

// PGStore is the PostgreSQL-backed UserStore.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PGStore on the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, user *User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.BusinessName, user.BusinessType,
		user.DefaultTone, user.DefaultLanguage, user.PlanID, user.SubscriptionStatus, user.SubscriptionEndsAt,
		user.MonthlyQuota, nullable(user.ProviderCustomerID), nullable(user.ProviderSubID), user.IsActive, user.LastLoginAt,
		user.CreatedAt, user.UpdatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return ErrEmailAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PGStore) ByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PGStore) ByEmail(ctx context.Context, email string) (*User, error) {
	return s.one(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *PGStore) ByProviderCustomerID(ctx context.Context, customerID string) (*User, error) {
	return s.one(ctx, `SELECT `+userColumns+` FROM users WHERE provider_customer_id = $1`, customerID)
}

func (s *PGStore) Update(ctx context.Context, user *User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET
			email = $2, password_hash = $3, name = $4, business_name = $5, business_type = $6,
			default_tone = $7, default_language = $8, plan_id = $9, subscription_status = $10,
			subscription_ends_at = $11, monthly_quota = $12, provider_customer_id = $13,
			provider_sub_id = $14, is_active = $15, last_login_at = $16, updated_at = $17
		WHERE id = $1`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.BusinessName, user.BusinessType,
		user.DefaultTone, user.DefaultLanguage, user.PlanID, user.SubscriptionStatus,
		user.SubscriptionEndsAt, user.MonthlyQuota, nullable(user.ProviderCustomerID),
		nullable(user.ProviderSubID), user.IsActive, user.LastLoginAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PGStore) one(ctx context.Context, query string, arg any) (*User, error) {
	var (
		u                  User
		providerCustomerID *string
		providerSubID      *string
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.BusinessName, &u.BusinessType,
		&u.DefaultTone, &u.DefaultLanguage, &u.PlanID, &u.SubscriptionStatus, &u.SubscriptionEndsAt,
		&u.MonthlyQuota, &providerCustomerID, &providerSubID, &u.IsActive, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if providerCustomerID != nil {
		u.ProviderCustomerID = *providerCustomerID
	}
	if providerSubID != nil {
		u.ProviderSubID = *providerSubID
	}
	return &u, nil
}

// nullable maps empty strings to NULL so the partial unique index on
// provider_customer_id ignores users without a billing relationship.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

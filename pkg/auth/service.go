package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/replyforge/replyforge/pkg/logger"
	"github.com/replyforge/replyforge/pkg/plan"
	"github.com/replyforge/replyforge/pkg/validator"
)

// Service handles registration and password authentication. New accounts
// start on the free tier with its monthly quota provisioned from the catalog.
type Service struct {
	store      UserStore
	catalog    *plan.Catalog
	bcryptCost int
	dummyHash  []byte
	log        *slog.Logger
	now        func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBcryptCost overrides the bcrypt cost, mainly to speed up tests.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates an authentication service.
func NewService(store UserStore, catalog *plan.Catalog, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		catalog:    catalog,
		bcryptCost: bcrypt.DefaultCost,
		log:        logger.NewDiscard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Compared against when the email is unknown, so both failure paths pay
	// one bcrypt compare at the configured cost.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("credentials-placeholder"), s.bcryptCost)
	return s
}

// Register creates a new account on the free tier.
func (s *Service) Register(ctx context.Context, email, password, name, businessName string) (*User, error) {
	email = normalizeEmail(email)

	if err := validator.Apply(
		validator.Required("email", email),
		validator.ValidEmail("email", email),
		validator.StrongPassword("password", password),
		validator.MaxLen("name", name, 100),
		validator.MaxLen("business_name", businessName, 150),
	); err != nil {
		return nil, err
	}

	if _, err := s.store.ByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	free := s.catalog.MustGet(plan.Free)
	now := s.now().UTC()
	user := &User{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       hash,
		Name:               strings.TrimSpace(name),
		BusinessName:       strings.TrimSpace(businessName),
		PlanID:             plan.Free,
		SubscriptionStatus: StatusNone,
		MonthlyQuota:       free.MonthlyQuota,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.InfoContext(ctx, "user registered",
		logger.UserID(user.ID.String()),
		logger.Component("auth"),
	)
	return user, nil
}

// Authenticate verifies email and password, stamps the last login and
// returns the user. Any failure collapses to ErrInvalidCredentials to
// prevent account enumeration.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)

	user, err := s.store.ByEmail(ctx, email)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	now := s.now().UTC()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := s.store.Update(ctx, user); err != nil {
		// Login stamping is best effort; the credential check already passed.
		s.log.ErrorContext(ctx, "failed to stamp last login",
			logger.UserID(user.ID.String()),
			logger.Error(err),
			logger.Component("auth"),
		)
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/logger"
	"github.com/replyforge/replyforge/pkg/plan"
)

// Config holds billing configuration shared across providers.
type Config struct {
	Provider      string `env:"BILLING_PROVIDER" envDefault:"stripe"`
	SuccessURL    string `env:"CHECKOUT_SUCCESS_URL,required"`
	CancelURL     string `env:"CHECKOUT_CANCEL_URL,required"`
	PriceRefsPath string `env:"PLAN_PRICE_REFS_PATH"`
}

// Service exposes the billing operations the HTTP layer calls: hosted
// checkout, webhook intake, subscription summary, cancel and reactivate.
type Service struct {
	users      auth.UserStore
	plans      *plan.Catalog
	provider   Provider
	reconciler *Reconciler
	config     Config
	log        *slog.Logger
	now        func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithServiceClock overrides the time source for deterministic tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a billing Service.
func NewService(users auth.UserStore, plans *plan.Catalog, provider Provider, config Config, opts ...ServiceOption) *Service {
	s := &Service{
		users:    users,
		plans:    plans,
		provider: provider,
		config:   config,
		log:      logger.NewDiscard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reconciler = NewReconciler(users, plans, WithLogger(s.log), WithClock(s.now))
	return s
}

// Checkout starts a hosted checkout session for the given paid plan. When
// the provider requires a customer object it is created and stored on the
// user before the session is opened.
func (s *Service) Checkout(ctx context.Context, user *auth.User, planID plan.ID) (*CheckoutSession, error) {
	target, err := s.plans.Get(planID)
	if err != nil {
		return nil, err
	}
	if !target.ID.IsPaid() || target.PriceRef == "" {
		return nil, ErrPlanNotPurchasable
	}

	if user.ProviderCustomerID == "" {
		if creator, ok := s.provider.(CustomerCreator); ok {
			customerID, err := creator.CreateCustomer(ctx, user.Email, user.ID.String())
			if err != nil {
				return nil, fmt.Errorf("billing: failed to create customer: %w", err)
			}
			user.ProviderCustomerID = customerID
			if err := s.users.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("billing: failed to store customer reference: %w", err)
			}
		}
	}

	session, err := s.provider.CreateCheckout(ctx, CheckoutRequest{
		PriceRef:   target.PriceRef,
		UserID:     user.ID.String(),
		CustomerID: user.ProviderCustomerID,
		Email:      user.Email,
		PlanID:     string(target.ID),
		SuccessURL: s.config.SuccessURL,
		CancelURL:  s.config.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checkout session created",
		logger.UserID(user.ID),
		logger.Plan(target.ID),
		logger.Component("billing"),
	)
	return session, nil
}

// HandleWebhook verifies and applies one inbound provider event. An
// ErrInvalidSignature return must be rejected without retry eligibility;
// any other error should surface as a server error so the provider
// redelivers.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.VerifyAndParse(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			s.log.WarnContext(ctx, "rejected webhook with invalid signature",
				logger.Component("billing"),
			)
		}
		return err
	}
	return s.reconciler.HandleEvent(ctx, ev)
}

// Summary is the subscription state reported to the user.
type Summary struct {
	Plan   plan.Plan
	Status auth.SubscriptionStatus
	EndsAt *time.Time
	Valid  bool
}

// Status summarizes the user's current subscription.
func (s *Service) Status(user *auth.User) Summary {
	current, err := s.plans.Get(user.PlanID)
	if err != nil {
		current = s.plans.MustGet(plan.Free)
	}
	return Summary{
		Plan:   current,
		Status: user.SubscriptionStatus,
		EndsAt: user.SubscriptionEndsAt,
		Valid:  user.HasValidSubscription(s.now()),
	}
}

// Cancel schedules the user's subscription to end at period end and records
// the intent locally. Access continues until the stored expiry.
func (s *Service) Cancel(ctx context.Context, user *auth.User) error {
	if user.ProviderSubID == "" {
		return ErrNoSubscription
	}
	manager, ok := s.provider.(SubscriptionManager)
	if !ok {
		return ErrNotSupported
	}

	if err := manager.Cancel(ctx, user.ProviderSubID); err != nil {
		return err
	}

	user.SubscriptionStatus = auth.StatusCancelled
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("billing: failed to record cancellation: %w", err)
	}

	s.log.InfoContext(ctx, "subscription cancellation scheduled",
		logger.UserID(user.ID),
		logger.Component("billing"),
	)
	return nil
}

// Reactivate clears a pending cancellation before the period ends.
func (s *Service) Reactivate(ctx context.Context, user *auth.User) error {
	if user.ProviderSubID == "" {
		return ErrNoSubscription
	}
	manager, ok := s.provider.(SubscriptionManager)
	if !ok {
		return ErrNotSupported
	}

	if err := manager.Reactivate(ctx, user.ProviderSubID); err != nil {
		return err
	}

	user.SubscriptionStatus = auth.StatusActive
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("billing: failed to record reactivation: %w", err)
	}

	s.log.InfoContext(ctx, "subscription reactivated",
		logger.UserID(user.ID),
		logger.Component("billing"),
	)
	return nil
}

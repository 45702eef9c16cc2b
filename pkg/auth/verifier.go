package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/replyforge/replyforge/pkg/jwt"
)

// Verifier resolves a bearer credential to an account. It must run before
// any entitlement check; it has no side effects of its own.
type Verifier struct {
	tokens   *jwt.Service
	store    UserStore
	issuer   string
	tokenTTL time.Duration
	now      func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithTokenTTL sets the lifetime of issued access tokens.
func WithTokenTTL(ttl time.Duration) VerifierOption {
	return func(v *Verifier) { v.tokenTTL = ttl }
}

// WithVerifierClock overrides the time source for deterministic tests.
func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier creates a Verifier backed by the given token service and store.
func NewVerifier(tokens *jwt.Service, store UserStore, issuer string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		tokens:   tokens,
		store:    store,
		issuer:   issuer,
		tokenTTL: 24 * time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IssueToken creates a signed access token for the user.
func (v *Verifier) IssueToken(user *User) (string, error) {
	now := v.now()
	return v.tokens.Generate(jwt.Claims{
		Subject:   user.ID.String(),
		Issuer:    v.issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(v.tokenTTL).Unix(),
	})
}

// Verify validates the credential and resolves its subject to a user.
// Returns ErrUnauthenticated for a missing, malformed or expired token,
// ErrUserNotFound when the subject no longer exists, and ErrAccountInactive
// for deactivated accounts.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*User, error) {
	if tokenString == "" {
		return nil, ErrUnauthenticated
	}

	var claims jwt.Claims
	if err := v.tokens.Parse(tokenString, &claims); err != nil {
		return nil, errors.Join(ErrUnauthenticated, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Join(ErrUnauthenticated, err)
	}

	user, err := v.store.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return user, nil
}

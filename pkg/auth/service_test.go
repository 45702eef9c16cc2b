package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/plan"
	"github.com/replyforge/replyforge/pkg/validator"
)

func newAuthService(store auth.UserStore) *auth.Service {
	return auth.NewService(store, plan.DefaultCatalog(), auth.WithBcryptCost(bcrypt.MinCost))
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("provisions free tier", func(t *testing.T) {
		t.Parallel()

		store := auth.NewMemoryStore()
		svc := newAuthService(store)

		user, err := svc.Register(context.Background(), "Owner@Example.COM", "s3curePass", "Dana", "Beans & Co")
		require.NoError(t, err)

		assert.Equal(t, "owner@example.com", user.Email, "email normalized")
		assert.Equal(t, plan.Free, user.PlanID)
		assert.Equal(t, auth.StatusNone, user.SubscriptionStatus)
		assert.Equal(t, int64(10), user.MonthlyQuota)
		assert.True(t, user.IsActive)
		assert.Nil(t, user.SubscriptionEndsAt)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()

		store := auth.NewMemoryStore()
		svc := newAuthService(store)

		_, err := svc.Register(context.Background(), "dup@example.com", "s3curePass", "", "")
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), "DUP@example.com", "s3curePass", "", "")
		require.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
	})

	t.Run("rejects weak password", func(t *testing.T) {
		t.Parallel()

		svc := newAuthService(auth.NewMemoryStore())
		_, err := svc.Register(context.Background(), "weak@example.com", "short", "", "")

		var fields validator.ValidationErrors
		require.ErrorAs(t, err, &fields)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	register := func(t *testing.T) (*auth.Service, auth.UserStore) {
		t.Helper()
		store := auth.NewMemoryStore()
		svc := newAuthService(store)
		_, err := svc.Register(context.Background(), "login@example.com", "s3curePass", "Dana", "")
		require.NoError(t, err)
		return svc, store
	}

	t.Run("success stamps last login", func(t *testing.T) {
		t.Parallel()

		svc, _ := register(t)
		user, err := svc.Authenticate(context.Background(), "login@example.com", "s3curePass")
		require.NoError(t, err)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("wrong password collapses to invalid credentials", func(t *testing.T) {
		t.Parallel()

		svc, _ := register(t)
		_, err := svc.Authenticate(context.Background(), "login@example.com", "wrongPass1")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email collapses to invalid credentials", func(t *testing.T) {
		t.Parallel()

		svc, _ := register(t)
		_, err := svc.Authenticate(context.Background(), "ghost@example.com", "s3curePass")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("inactive account is forbidden", func(t *testing.T) {
		t.Parallel()

		svc, store := register(t)
		user, err := store.ByEmail(context.Background(), "login@example.com")
		require.NoError(t, err)
		user.IsActive = false
		require.NoError(t, store.Update(context.Background(), user))

		_, err = svc.Authenticate(context.Background(), "login@example.com", "s3curePass")
		require.ErrorIs(t, err, auth.ErrAccountInactive)
	})
}

package billing_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/billing"
	"github.com/replyforge/replyforge/pkg/plan"
)

type fakeProvider struct {
	checkout    *billing.CheckoutSession
	checkoutReq billing.CheckoutRequest
	event       *billing.WebhookEvent
	parseErr    error

	customers int
	cancels   []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CreateCheckout(_ context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	f.checkoutReq = req
	return f.checkout, nil
}

func (f *fakeProvider) VerifyAndParse(context.Context, []byte, string) (*billing.WebhookEvent, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

func (f *fakeProvider) CreateCustomer(context.Context, string, string) (string, error) {
	f.customers++
	return "cus_new", nil
}

func (f *fakeProvider) Cancel(_ context.Context, subID string) error {
	f.cancels = append(f.cancels, subID)
	return nil
}

func (f *fakeProvider) Reactivate(_ context.Context, subID string) error {
	f.cancels = append(f.cancels, "reactivate:"+subID)
	return nil
}

func refCatalog(t *testing.T) *plan.Catalog {
	t.Helper()
	return plan.DefaultCatalog()
}

func newService(t *testing.T, users auth.UserStore, provider billing.Provider) *billing.Service {
	t.Helper()
	return billing.NewService(users, refCatalog(t), provider, billing.Config{
		SuccessURL: "https://app.example.com/billing/success",
		CancelURL:  "https://app.example.com/billing/cancel",
	})
}

// pricedCatalog loads a catalog with provider price refs for the paid
// tiers, the way deployments configure them.
func pricedCatalog(t *testing.T) *plan.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`plans:
  starter:
    price_ref: price_starter
  pro:
    price_ref: price_pro
  enterprise:
    price_ref: price_ent
`), 0o600))

	catalog, err := plan.DefaultCatalog().ApplyPriceRefs(path)
	require.NoError(t, err)
	return catalog
}

func TestService_CheckoutCreatesCustomer(t *testing.T) {
	t.Parallel()

	users := auth.NewMemoryStore()
	user := seedUser(t, users)
	provider := &fakeProvider{checkout: &billing.CheckoutSession{URL: "https://pay.example.com/cs_1", SessionID: "cs_1"}}

	svc := billing.NewService(users, pricedCatalog(t), provider, billing.Config{
		SuccessURL: "https://app.example.com/ok",
		CancelURL:  "https://app.example.com/no",
	})

	session, err := svc.Checkout(context.Background(), user, plan.Pro)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_1", session.URL)

	assert.Equal(t, 1, provider.customers, "customer created on first purchase")
	assert.Equal(t, "price_pro", provider.checkoutReq.PriceRef)
	assert.Equal(t, user.ID.String(), provider.checkoutReq.UserID)
	assert.Equal(t, "cus_new", provider.checkoutReq.CustomerID)

	got, err := users.ByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_new", got.ProviderCustomerID)

	// Second checkout reuses the stored customer.
	_, err = svc.Checkout(context.Background(), got, plan.Starter)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.customers)
}

func TestService_CheckoutRejectsUnpurchasable(t *testing.T) {
	t.Parallel()

	users := auth.NewMemoryStore()
	user := seedUser(t, users)
	svc := newService(t, users, &fakeProvider{})

	// Default catalog carries no provider price refs.
	_, err := svc.Checkout(context.Background(), user, plan.Pro)
	require.ErrorIs(t, err, billing.ErrPlanNotPurchasable)

	_, err = svc.Checkout(context.Background(), user, plan.ID("platinum"))
	require.Error(t, err)

	_, err = svc.Checkout(context.Background(), user, plan.Free)
	require.ErrorIs(t, err, billing.ErrPlanNotPurchasable)
}

func TestService_WebhookInvalidSignatureNoMutation(t *testing.T) {
	t.Parallel()

	users := auth.NewMemoryStore()
	user := seedUser(t, users)
	before, err := users.ByID(context.Background(), user.ID)
	require.NoError(t, err)

	provider := &fakeProvider{parseErr: billing.ErrInvalidSignature}
	svc := newService(t, users, provider)

	err = svc.HandleWebhook(context.Background(), []byte(`{}`), "bad-sig")
	require.ErrorIs(t, err, billing.ErrInvalidSignature)

	after, err := users.ByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PlanID, after.PlanID)
	assert.Equal(t, before.SubscriptionStatus, after.SubscriptionStatus)
}

func TestService_WebhookAppliesEvent(t *testing.T) {
	t.Parallel()

	users := auth.NewMemoryStore()
	user := seedUser(t, users)
	provider := &fakeProvider{event: &billing.WebhookEvent{
		Type:           billing.EventCheckoutCompleted,
		CorrelationID:  user.ID.String(),
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		PlanID:         plan.Starter,
		PeriodEnd:      time.Now().AddDate(0, 1, 0),
	}}
	svc := newService(t, users, provider)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))

	got, err := users.ByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Starter, got.PlanID)
	assert.Equal(t, auth.StatusActive, got.SubscriptionStatus)
}

func TestService_CancelAndReactivate(t *testing.T) {
	t.Parallel()

	users := auth.NewMemoryStore()
	user := seedUser(t, users)
	provider := &fakeProvider{}
	svc := newService(t, users, provider)

	// No subscription on file yet.
	require.ErrorIs(t, svc.Cancel(context.Background(), user), billing.ErrNoSubscription)

	user.ProviderSubID = "sub_42"
	user.SubscriptionStatus = auth.StatusActive
	require.NoError(t, users.Update(context.Background(), user))

	require.NoError(t, svc.Cancel(context.Background(), user))
	assert.Equal(t, []string{"sub_42"}, provider.cancels)

	got, err := users.ByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusCancelled, got.SubscriptionStatus)

	require.NoError(t, svc.Reactivate(context.Background(), got))
	got, err = users.ByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusActive, got.SubscriptionStatus)
}

func TestService_Status(t *testing.T) {
	t.Parallel()

	users := auth.NewMemoryStore()
	user := seedUser(t, users)
	svc := newService(t, users, &fakeProvider{})

	summary := svc.Status(user)
	assert.Equal(t, plan.Free, summary.Plan.ID)
	assert.True(t, summary.Valid, "free tier is always valid")
}

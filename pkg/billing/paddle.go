package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider for Paddle. Paddle subscriptions embed
// our user ID in transaction custom data instead of a client reference
// field, and report billing periods as RFC3339 strings in the event body.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	config   PaddleConfig
}

// NewPaddleProvider creates a Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}
	if config.WebhookSecret == "" {
		return nil, errors.New("paddle webhook secret is required")
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
		config:   config,
	}, nil
}

func (p *PaddleProvider) Name() string { return "paddle" }

// CreateCheckout creates a Paddle transaction with a hosted checkout URL.
func (p *PaddleProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceRef == "" {
		return nil, errors.New("price reference is required")
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceRef,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"user_id": req.UserID,
			"plan_id": req.PlanID,
		},
	}
	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return nil, errors.New("no checkout URL returned from paddle")
	}

	return &CheckoutSession{
		URL:       *transaction.Checkout.URL,
		SessionID: transaction.ID,
		// Paddle checkout links expire after 24 hours.
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// VerifyAndParse validates the Paddle-Signature header and normalizes the
// event.
func (p *PaddleProvider) VerifyAndParse(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	// The Paddle SDK verifies signatures against an http.Request, not a raw
	// body, so reconstruct one.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var paddleEvent struct {
		EventID   string         `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	ev := &WebhookEvent{
		Type:          mapPaddleEventType(paddleEvent.EventType),
		ProviderEvent: paddleEvent.EventType,
		Raw:           paddleEvent.Data,
	}

	data := paddleEvent.Data
	if customData, ok := data["custom_data"].(map[string]any); ok {
		ev.CorrelationID, _ = customData["user_id"].(string)
	}
	if customerID, ok := data["customer_id"].(string); ok {
		ev.CustomerID = customerID
	}
	ev.Status, _ = data["status"].(string)

	if strings.HasPrefix(paddleEvent.EventType, "subscription.") {
		if id, ok := data["id"].(string); ok {
			ev.SubscriptionID = id
		}
		ev.PriceRef = paddleItemPriceRef(data, "price")
		ev.PeriodEnd = paddlePeriodEnd(data)
		// A scheduled cancel is Paddle's cancel-at-period-end.
		if change, ok := data["scheduled_change"].(map[string]any); ok {
			action, _ := change["action"].(string)
			ev.CancelAtPeriodEnd = action == "cancel"
		}
	}

	if strings.HasPrefix(paddleEvent.EventType, "transaction.") {
		if subID, ok := data["subscription_id"].(string); ok {
			ev.SubscriptionID = subID
		}
		ev.PriceRef = paddleItemPriceRef(data, "price_id")
		if ev.PeriodEnd.IsZero() {
			ev.PeriodEnd = paddlePeriodEnd(data)
		}
	}

	return ev, nil
}

func mapPaddleEventType(paddleEvent string) EventType {
	switch paddleEvent {
	case "transaction.completed":
		return EventCheckoutCompleted
	case "transaction.payment_succeeded", "subscription.resumed":
		return EventPaymentSucceeded
	case "transaction.payment_failed", "subscription.past_due":
		return EventPaymentFailed
	case "subscription.created", "subscription.updated":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionDeleted
	default:
		return EventType(paddleEvent)
	}
}

// paddleItemPriceRef digs the price identifier out of the first line item.
// Subscription events nest it as items[0].price.id, transaction events as
// items[0].price_id.
func paddleItemPriceRef(data map[string]any, key string) string {
	items, ok := data["items"].([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	item, ok := items[0].(map[string]any)
	if !ok {
		return ""
	}
	if key == "price" {
		if price, ok := item["price"].(map[string]any); ok {
			id, _ := price["id"].(string)
			return id
		}
		return ""
	}
	id, _ := item[key].(string)
	return id
}

func paddlePeriodEnd(data map[string]any) time.Time {
	period, ok := data["current_billing_period"].(map[string]any)
	if !ok {
		return time.Time{}
	}
	endsAt, ok := period["ends_at"].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

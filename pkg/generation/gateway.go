package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/replyforge/replyforge/pkg/logger"
	"github.com/replyforge/replyforge/pkg/usage"
)

// Pricing holds the provider-published per-token rates used for cost
// estimates, expressed in USD per token.
type Pricing struct {
	InputPerToken  float64 `env:"OPENAI_PRICE_PER_INPUT_TOKEN" envDefault:"0.00000015"`
	OutputPerToken float64 `env:"OPENAI_PRICE_PER_OUTPUT_TOKEN" envDefault:"0.0000006"`
}

// Reply is the user-facing outcome of one generation call.
type Reply struct {
	Text             string
	Fallback         bool
	PromptTokens     int
	CompletionTokens int
	EstimatedCost    float64
	Usage            *usage.Period
}

// Gateway orchestrates a single generation call: prompt construction,
// provider invocation, cost estimation, fallback on provider failure, and
// the paired usage/audit write.
//
// Provider failures never propagate to the caller on this path: the user
// receives a canned reply, the failure is recorded as success:false in the
// audit trail, and the call still counts against quota because a request
// slot was consumed.
type Gateway struct {
	provider Provider
	store    Store
	pricing  Pricing
	log      *slog.Logger
	now      func() time.Time
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(log *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.log = log }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

// NewGateway creates a Gateway.
func NewGateway(provider Provider, store Store, pricing Pricing, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider: provider,
		store:    store,
		pricing:  pricing,
		log:      logger.NewDiscard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a reply for the review and records the call.
func (g *Gateway) Generate(ctx context.Context, userID uuid.UUID, req GenerateRequest) (*Reply, error) {
	if strings.TrimSpace(req.ReviewText) == "" {
		return nil, ErrEmptyReview
	}
	req = req.withDefaults()

	started := g.now()
	result, provErr := g.provider.Complete(ctx, CompletionRequest{
		Messages:         buildPrompt(req),
		MaxTokens:        maxReplyTokens,
		Temperature:      samplingTemperature,
		PresencePenalty:  samplingPresencePenalty,
		FrequencyPenalty: samplingFrequencyPenalty,
	})
	elapsed := g.now().Sub(started)

	// A cancelled caller must not be charged for a provider call that never
	// completed.
	if provErr != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("generation: request cancelled: %w", ctx.Err())
	}

	rec := &Record{
		ID:           uuid.New(),
		UserID:       userID,
		ReviewText:   truncate(req.ReviewText),
		Language:     req.Language,
		Tone:         req.Tone,
		BusinessType: req.BusinessType,
		Duration:     elapsed,
		CreatedAt:    started.UTC(),
	}

	reply := &Reply{}
	if provErr != nil {
		reply.Text = fallbackReply(req.Language, req.Tone)
		reply.Fallback = true
		rec.ReplyText = truncate(reply.Text)
		rec.Success = false
		rec.ErrorMessage = provErr.Error()

		g.log.WarnContext(ctx, "completion provider failed, serving fallback reply",
			logger.UserID(userID.String()),
			logger.Error(provErr),
			logger.Component("generation"),
		)
	} else {
		reply.Text = result.Text
		reply.PromptTokens = result.PromptTokens
		reply.CompletionTokens = result.CompletionTokens
		reply.EstimatedCost = g.estimateCost(result.PromptTokens, result.CompletionTokens)

		rec.ReplyText = truncate(result.Text)
		rec.PromptTokens = result.PromptTokens
		rec.CompletionTokens = result.CompletionTokens
		rec.EstimatedCost = reply.EstimatedCost
		rec.Success = true
	}

	period, err := g.store.RecordGeneration(ctx, rec)
	if err != nil {
		// The user already has their reply; losing the accounting write is
		// an operational incident, not a user-facing failure.
		g.log.ErrorContext(ctx, "failed to record generation, accounting data lost",
			logger.UserID(userID.String()),
			logger.Error(err),
			logger.Component("generation"),
		)
		return reply, nil
	}
	reply.Usage = period

	return reply, nil
}

func (g *Gateway) estimateCost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)*g.pricing.InputPerToken +
		float64(completionTokens)*g.pricing.OutputPerToken
}

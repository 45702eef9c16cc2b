package generation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/generation"
	"github.com/replyforge/replyforge/pkg/usage"
)

type stubProvider struct {
	result *generation.CompletionResult
	err    error
	gotReq generation.CompletionRequest
	calls  int
}

func (s *stubProvider) Complete(_ context.Context, req generation.CompletionRequest) (*generation.CompletionResult, error) {
	s.gotReq = req
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type failingStore struct{}

func (failingStore) RecordGeneration(context.Context, *generation.Record) (*usage.Period, error) {
	return nil, errors.New("db down")
}

func (failingStore) ListByUser(context.Context, uuid.UUID, int, int) ([]generation.Record, error) {
	return nil, nil
}

func (failingStore) CountByUser(context.Context, uuid.UUID) (int64, error) { return 0, nil }

var pricing = generation.Pricing{InputPerToken: 0.001, OutputPerToken: 0.002}

func TestGateway_Generate(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{result: &generation.CompletionResult{
		Text:             "Thank you for your kind words!",
		PromptTokens:     100,
		CompletionTokens: 50,
	}}
	periods := usage.NewMemoryStore()
	store := generation.NewMemoryStore(periods)
	gw := generation.NewGateway(provider, store, pricing)
	userID := uuid.New()

	reply, err := gw.Generate(context.Background(), userID, generation.GenerateRequest{
		ReviewText: "Loved the food.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Thank you for your kind words!", reply.Text)
	assert.False(t, reply.Fallback)
	assert.Equal(t, 100, reply.PromptTokens)
	assert.Equal(t, 50, reply.CompletionTokens)
	assert.InDelta(t, 0.2, reply.EstimatedCost, 1e-9)

	require.NotNil(t, reply.Usage)
	assert.Equal(t, int64(1), reply.Usage.RequestCount)

	records, err := store.ListByUser(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Success)
	assert.Empty(t, records[0].ErrorMessage)

	// Fixed sampling policy.
	assert.InDelta(t, 0.7, provider.gotReq.Temperature, 1e-9)
	assert.InDelta(t, 0.1, provider.gotReq.PresencePenalty, 1e-9)
	assert.InDelta(t, 0.2, provider.gotReq.FrequencyPenalty, 1e-9)
	assert.Equal(t, 300, provider.gotReq.MaxTokens)
}

// A provider failure degrades to a canned reply, is audited as a failure,
// and still consumes a quota slot.
func TestGateway_FallbackOnProviderFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{err: generation.ErrProviderUnavailable}
	periods := usage.NewMemoryStore()
	store := generation.NewMemoryStore(periods)
	gw := generation.NewGateway(provider, store, pricing)
	userID := uuid.New()

	reply, err := gw.Generate(context.Background(), userID, generation.GenerateRequest{
		ReviewText: "Terrible experience.",
		Tone:       "apologetic",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, reply.Text)
	assert.True(t, reply.Fallback)
	assert.Zero(t, reply.PromptTokens)
	assert.Zero(t, reply.EstimatedCost)

	require.NotNil(t, reply.Usage)
	assert.Equal(t, int64(1), reply.Usage.RequestCount, "failed call still counts against quota")

	records, err := store.ListByUser(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
	assert.NotEmpty(t, records[0].ErrorMessage)
	assert.Zero(t, records[0].EstimatedCost)
}

func TestGateway_EmptyReview(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}
	store := generation.NewMemoryStore(usage.NewMemoryStore())
	gw := generation.NewGateway(provider, store, pricing)

	_, err := gw.Generate(context.Background(), uuid.New(), generation.GenerateRequest{})
	require.ErrorIs(t, err, generation.ErrEmptyReview)
	assert.Zero(t, provider.calls)
}

// A caller that aborted before the provider finished is not charged.
func TestGateway_CancelledCaller(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	provider := &stubProvider{err: context.Canceled}
	periods := usage.NewMemoryStore()
	store := generation.NewMemoryStore(periods)
	gw := generation.NewGateway(provider, store, pricing)
	userID := uuid.New()

	cancel()
	_, err := gw.Generate(ctx, userID, generation.GenerateRequest{ReviewText: "hi"})
	require.Error(t, err)

	count, err := store.CountByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// Losing the accounting write after a successful completion is logged, not
// surfaced: the user keeps their reply.
func TestGateway_AuditWriteFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{result: &generation.CompletionResult{Text: "ok", PromptTokens: 1, CompletionTokens: 1}}
	gw := generation.NewGateway(provider, failingStore{}, pricing,
		generation.WithClock(func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) }))

	reply, err := gw.Generate(context.Background(), uuid.New(), generation.GenerateRequest{ReviewText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)
	assert.Nil(t, reply.Usage)
}

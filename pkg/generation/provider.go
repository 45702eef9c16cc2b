package generation

import "context"

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the normalized request to a completion provider.
type CompletionRequest struct {
	Messages         []Message
	MaxTokens        int
	Temperature      float64
	PresencePenalty  float64
	FrequencyPenalty float64
}

// CompletionResult carries the generated text and the provider-reported
// token counts used for cost estimation.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Provider is the external completion service. Implementations must return
// one of the typed provider errors on failure so callers can distinguish
// quota pressure from transport problems.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

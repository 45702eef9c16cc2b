package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultOpenAIModel balances reply quality against per-token cost.
	DefaultOpenAIModel = "gpt-4o-mini"

	openAIChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

	defaultTimeout = 30 * time.Second
)

// OpenAIConfig configures the OpenAI completion provider.
type OpenAIConfig struct {
	APIKey string `env:"OPENAI_API_KEY,required"`
	Model  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string `env:"OPENAI_BASE_URL"`

	// HTTPClient allows custom transport configuration.
	// Default: http.Client with a 30s timeout.
	HTTPClient *http.Client
}

// OpenAIProvider implements Provider against OpenAI's chat completions API.
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIProvider creates an OpenAI completion provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIChatCompletionsURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &OpenAIProvider{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

type openAIRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens,omitempty"`
	Temperature      float64   `json:"temperature"`
	PresencePenalty  float64   `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64   `json:"frequency_penalty,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete calls the chat completions endpoint and maps provider failures to
// the typed sentinel errors.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	body, err := json.Marshal(openAIRequest{
		Model:            p.model,
		Messages:         req.Messages,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
	})
	if err != nil {
		return nil, fmt.Errorf("generation: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("generation: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.classifyError(resp.StatusCode, respBody)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.Join(ErrProviderUnavailable, errors.New("empty choices in response"))
	}

	return &CompletionResult{
		Text:             parsed.Choices[0].Message.Content,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}

func (p *OpenAIProvider) classifyError(status int, body []byte) error {
	var apiErr openAIError
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case apiErr.Error.Code == "insufficient_quota" || apiErr.Error.Type == "insufficient_quota":
		return fmt.Errorf("%w: %s", ErrProviderQuota, apiErr.Error.Message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrProviderRateLimited, apiErr.Error.Message)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, status, apiErr.Error.Message)
	}
}

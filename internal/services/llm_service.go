package services

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultLLMModel is the completion model used when none is configured
	DefaultLLMModel = "gpt-4o-mini"

	// DefaultLLMTimeout bounds every completion call so a stuck LLM request
	// degrades instead of hanging the pipeline
	DefaultLLMTimeout = 60 * time.Second
)

// CompletionClient issues a single prompt/response completion call against
// a hosted LLM service.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMConfig holds configuration for the hosted LLM client
type LLMConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional; set for OpenAI-compatible local servers (e.g. LM Studio)
	Timeout time.Duration
}

// LLMService implements CompletionClient using the OpenAI chat completions API
type LLMService struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewLLMService creates a new LLM client. An API key is required unless a
// BaseURL for a local OpenAI-compatible server is provided.
func NewLLMService(config LLMConfig) (*LLMService, error) {
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("LLM API key not set")
	}
	if config.Model == "" {
		config.Model = DefaultLLMModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultLLMTimeout
	}

	opts := []option.RequestOption{}
	if config.APIKey != "" {
		opts = append(opts, option.WithAPIKey(config.APIKey))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &LLMService{
		client:  openai.NewClient(opts...),
		model:   config.Model,
		timeout: config.Timeout,
	}, nil
}

// Complete sends the prompt and returns the generated text
func (s *LLMService) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

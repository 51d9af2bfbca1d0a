package services

import (
	"context"
	"fmt"
	"strings"

	appconfig "stonk-news/config"
	"stonk-news/observability"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/otel/attribute"
)

// openaiClient defines the interface for OpenAI API calls (for testing)
type openaiClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// openaiClientWrapper wraps the openai.Client to implement our interface
type openaiClientWrapper struct {
	client openai.Client
}

func (w *openaiClientWrapper) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return w.client.Chat.Completions.New(ctx, params)
}

// OpenAIService generates stock analyses through the OpenAI chat completions API.
// The key belongs to the browser session, so a client is built per call.
type OpenAIService struct {
	newClient           func(apiKey string) openaiClient
	model               string
	reasoningEffort     string
	maxCompletionTokens int
}

// NewOpenAIService creates a new OpenAIService instance
func NewOpenAIService(cfg *appconfig.Config) *OpenAIService {
	baseURL := cfg.OpenAI.BaseURL
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &OpenAIService{
		newClient: func(apiKey string) openaiClient {
			opts := []option.RequestOption{
				option.WithAPIKey(apiKey),
				option.WithMaxRetries(0),
			}
			if baseURL != "" {
				opts = append(opts, option.WithBaseURL(baseURL))
			}
			return &openaiClientWrapper{client: openai.NewClient(opts...)}
		},
		model:               cfg.OpenAI.Model,
		reasoningEffort:     cfg.OpenAI.ReasoningEffort,
		maxCompletionTokens: cfg.OpenAI.MaxCompletionTokens,
	}
}

// newOpenAIServiceWithClient creates an OpenAIService with a custom client (for testing)
func newOpenAIServiceWithClient(client openaiClient, model, reasoningEffort string, maxCompletionTokens int) *OpenAIService {
	return &OpenAIService{
		newClient:           func(string) openaiClient { return client },
		model:               model,
		reasoningEffort:     reasoningEffort,
		maxCompletionTokens: maxCompletionTokens,
	}
}

// Generate sends the prompt as a single user message and returns the first choice's text.
// A completion with empty content yields "" and a nil error.
func (s *OpenAIService) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	ctx, span := observability.StartSpan(ctx, "openai.generate", attribute.String("model", s.model))
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerOpenAI, "generate")
	timer := metrics.NewTimer()

	client := s.newClient(apiKey)
	result, err := WithCircuitBreaker(ctx, BreakerOpenAI, func() (string, error) {
		params := openai.ChatCompletionNewParams{
			Model:               shared.ChatModel(s.model),
			MaxCompletionTokens: openai.Int(int64(s.maxCompletionTokens)),
			N:                   openai.Int(1),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
		}
		if s.reasoningEffort != "" {
			params.ReasoningEffort = shared.ReasoningEffort(s.reasoningEffort)
		}

		completion, err := client.CreateChatCompletion(ctx, params)
		if err != nil {
			return "", fmt.Errorf("failed to invoke OpenAI: %w", err)
		}

		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("empty response from OpenAI")
		}

		return completion.Choices[0].Message.Content, nil
	})

	timer.ObserveExternalAPI(BreakerOpenAI, "generate")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerOpenAI, "generate", categorizeAPIError(err))
	}
	observability.EndSpan(span, err)
	return result, err
}

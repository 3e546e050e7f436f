package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient implements Client against the OpenAI chat completion API.
type OpenAIClient struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(apiKey, baseURL string) OpenAIOption {
	return func(c *OpenAIClient) {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		c.api = openai.NewClientWithConfig(cfg)
	}
}

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(c *OpenAIClient) { c.timeout = d }
}

// NewOpenAIClient creates a Client backed by the OpenAI API.
func NewOpenAIClient(apiKey, defaultModel string, logger *zap.Logger, opts ...OpenAIOption) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &OpenAIClient{
		api:     openai.NewClient(apiKey),
		model:   defaultModel,
		timeout: 30 * time.Second,
		logger:  logger.With(zap.String("component", "llm_openai")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		c.logger.Warn("completion failed",
			zap.String("model", model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty choice list")
	}

	c.logger.Debug("completion ok",
		zap.String("model", model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/windoze95/reme-voice/internal/logger"
	"go.uber.org/zap"
)

// OpenAIChatProvider implements ChatProvider against any OpenAI-compatible
// chat-completions server (OpenAI, LM Studio, Ollama).
type OpenAIChatProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIChatProvider creates a provider. An empty baseURL keeps the
// OpenAI default.
func NewOpenAIChatProvider(baseURL, apiKey, model string) *OpenAIChatProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIChatProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Name identifies the provider in logs and metrics.
func (p *OpenAIChatProvider) Name() string { return "openai" }

// Ping lists models to check that the server is up.
func (p *OpenAIChatProvider) Ping(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("chat server unreachable: %w", err)
	}
	return nil
}

// Complete sends the request and returns the first choice.
func (p *OpenAIChatProvider) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	creq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if len(req.Tools) > 0 {
		creq.Tools = toOpenAITools(req.Tools)
		creq.ToolChoice = "auto"
	}

	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		resp, err := p.client.CreateChatCompletion(ctx, creq)
		if err == nil {
			if len(resp.Choices) == 0 {
				return nil, ErrEmptyResponse
			}
			return fromOpenAIChoice(resp.Choices[0]), nil
		}

		lastErr = err
		shouldRetry, waitTime := classifyOpenAIError(err)
		if !shouldRetry {
			return nil, fmt.Errorf("chat completion error: %w", err)
		}

		logger.Get().Warn("chat completion error, retrying",
			zap.Error(err),
			zap.Int("attempt", i+1),
		)

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitTime * time.Duration(i+1)):
			}
		}
	}

	return nil, fmt.Errorf("chat completion: exhausted %d retries: %w", maxRetries, lastErr)
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		cm := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, cm)
	}
	return out
}

func toOpenAITools(defs []ToolDefinition) []openai.Tool {
	tools := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return tools
}

func fromOpenAIChoice(c openai.ChatCompletionChoice) *ChatResponse {
	resp := &ChatResponse{
		Content:      c.Message.Content,
		FinishReason: FinishReason(c.FinishReason),
	}
	for _, tc := range c.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return resp
}

// classifyOpenAIError determines whether an OpenAI API error is retryable.
func classifyOpenAIError(err error) (shouldRetry bool, waitTime time.Duration) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return true, 2 * time.Second
		case 500, 502, 503:
			return true, 2 * time.Second
		default:
			return false, 0
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case 429, 500, 502, 503:
			return true, 2 * time.Second
		}
	}
	return false, 0
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/windoze95/reme-voice/internal/logger"
	"go.uber.org/zap"
)

// AnthropicChatProvider implements ChatProvider using Claude tool use.
type AnthropicChatProvider struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicChatProvider creates a provider for the given model.
func NewAnthropicChatProvider(apiKey, model string) *AnthropicChatProvider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicChatProvider{
		client: client,
		model:  anthropic.Model(model),
	}
}

// Name identifies the provider in logs and metrics.
func (p *AnthropicChatProvider) Name() string { return "anthropic" }

// Complete maps the request onto the Messages API. Tool results that follow
// one another are sent together in a single user turn, as Claude requires.
func (p *AnthropicChatProvider) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	system, msgs := messagesToAnthropicParams(req.Messages)

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Messages:    msgs,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toAnthropicTools(req.Tools)
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}

	msg, err := p.createMessageWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}
	return fromAnthropicMessage(msg)
}

func toAnthropicTools(defs []ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		schema := anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: d.Parameters["properties"],
		}
		if req, ok := d.Parameters["required"].([]string); ok {
			schema.Required = req
		}
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: schema,
			},
		})
	}
	return tools
}

// messagesToAnthropicParams converts our Message slice into Claude message params.
// System messages are separated out as they use a different field in the API.
func messagesToAnthropicParams(msgs []Message) (string, []anthropic.MessageParam) {
	var systemPrompt string
	var params []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(pendingResults) > 0 {
			params = append(params, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, m := range msgs {
		if m.Role != RoleTool {
			flushResults()
		}
		switch m.Role {
		case RoleSystem:
			if systemPrompt != "" {
				systemPrompt += "\n\n"
			}
			systemPrompt += m.Content
		case RoleUser:
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, toolInput(tc.Arguments), tc.Name))
			}
			if len(blocks) > 0 {
				params = append(params, anthropic.NewAssistantMessage(blocks...))
			}
		case RoleTool:
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
		}
	}
	flushResults()
	return systemPrompt, params
}

// toolInput echoes the model's own arguments back. Malformed JSON is sent
// as an empty object so the request stays valid.
func toolInput(args string) json.RawMessage {
	if strings.TrimSpace(args) == "" || !json.Valid([]byte(args)) {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(args)
}

func fromAnthropicMessage(msg *anthropic.Message) (*ChatResponse, error) {
	if msg == nil || len(msg.Content) == 0 {
		return nil, ErrEmptyResponse
	}
	resp := &ChatResponse{}
	var text strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	resp.Content = text.String()

	switch msg.StopReason {
	case anthropic.StopReasonToolUse:
		resp.FinishReason = FinishToolCalls
	case anthropic.StopReasonMaxTokens:
		resp.FinishReason = FinishLength
	default:
		resp.FinishReason = FinishStop
	}
	return resp, nil
}

// createMessageWithRetry wraps the Claude API call with linear backoff.
func (p *AnthropicChatProvider) createMessageWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	const maxRetries = 5
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		resp, err := p.client.Messages.New(ctx, params)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		shouldRetry, waitTime := classifyAnthropicError(err)
		if !shouldRetry {
			return nil, fmt.Errorf("claude API error: %w", err)
		}

		logger.Get().Warn("claude API error, retrying",
			zap.Error(err),
			zap.Int("attempt", i+1),
		)

		backoff := waitTime * time.Duration(i+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("claude API: exhausted %d retries: %w", maxRetries, lastErr)
}

// classifyAnthropicError determines whether to retry and the base wait duration.
func classifyAnthropicError(err error) (shouldRetry bool, waitTime time.Duration) {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return true, 2 * time.Second
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return true, 2 * time.Second
		default:
			return false, 0
		}
	}
	return false, 0
}

package ai

import (
	"context"
	"errors"
)

// Message roles understood by every ChatProvider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("LLM returned an empty response")

// ChatProvider is a chat-completion endpoint with optional tool calling.
type ChatProvider interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Name() string
}

// HealthChecker is implemented by providers that can cheaply probe their
// backend.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// SpeechProvider handles speech-to-text (Whisper).
type SpeechProvider interface {
	TranscribeAudio(ctx context.Context, audioData []byte, format string) (string, error)
}

// Message is one entry of a conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a function invocation requested by the model. Arguments is
// the raw JSON string as produced by the model; it may be malformed.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition declares a callable function. Parameters is a JSON schema
// object ({"type":"object","properties":{...},"required":[...]}).
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// FinishReason tells why the model stopped generating.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
	FinishLength    FinishReason = "length"
)

// ChatRequest is a single completion call.
type ChatRequest struct {
	Messages    []Message
	Tools       []ToolDefinition
	Temperature float64
	MaxTokens   int
}

// ChatResponse is the first choice of a completion.
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason FinishReason
}

// WantsTools reports whether the response must enter the tool loop.
// Anything other than a tool_calls finish with at least one call is a final
// answer.
func (r *ChatResponse) WantsTools() bool {
	return r.FinishReason == FinishToolCalls && len(r.ToolCalls) > 0
}

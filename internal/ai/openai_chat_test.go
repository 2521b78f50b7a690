package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newChatServer(t *testing.T, handler func(body map[string]interface{}) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		status, resp := handler(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIChatProvider_ToolCallsResponse(t *testing.T) {
	srv := newChatServer(t, func(body map[string]interface{}) (int, string) {
		if body["tool_choice"] != "auto" {
			t.Errorf("tool_choice = %v, want auto", body["tool_choice"])
		}
		tools, _ := body["tools"].([]interface{})
		if len(tools) != 1 {
			t.Errorf("len(tools) = %d, want 1", len(tools))
		}
		if body["max_tokens"] != float64(800) {
			t.Errorf("max_tokens = %v, want 800", body["max_tokens"])
		}
		return http.StatusOK, `{
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "searchRecipes", "arguments": "{\"query\":\"pollo\"}"}
					}]
				}
			}]
		}`
	})

	p := NewOpenAIChatProvider(srv.URL+"/v1", "test-key", "local-model")
	resp, err := p.Complete(context.Background(), ChatRequest{
		Messages:    []Message{{Role: RoleUser, Content: "busca recetas de pollo"}},
		Tools:       []ToolDefinition{{Name: "searchRecipes", Parameters: map[string]interface{}{"type": "object"}}},
		Temperature: 0.7,
		MaxTokens:   800,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !resp.WantsTools() {
		t.Fatal("expected response to request tools")
	}
	if resp.ToolCalls[0].Name != "searchRecipes" || resp.ToolCalls[0].ID != "call_1" {
		t.Errorf("tool call = %+v", resp.ToolCalls[0])
	}
	if resp.ToolCalls[0].Arguments != `{"query":"pollo"}` {
		t.Errorf("arguments = %q", resp.ToolCalls[0].Arguments)
	}
}

func TestOpenAIChatProvider_FinalAnswer(t *testing.T) {
	srv := newChatServer(t, func(body map[string]interface{}) (int, string) {
		if _, ok := body["tools"]; ok {
			t.Error("tools should be omitted when none are declared")
		}
		msgs, _ := body["messages"].([]interface{})
		if len(msgs) != 3 {
			t.Errorf("len(messages) = %d, want 3", len(msgs))
		}
		last, _ := msgs[2].(map[string]interface{})
		if last["role"] != "tool" || last["tool_call_id"] != "call_1" {
			t.Errorf("last message = %v, want tool result for call_1", last)
		}
		return http.StatusOK, `{"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Tienes 3 tomates."}}]}`
	})

	p := NewOpenAIChatProvider(srv.URL+"/v1", "test-key", "local-model")
	resp, err := p.Complete(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: RoleUser, Content: "cuántos tomates tengo"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "searchInventoryByName", Arguments: `{}`}}},
			{Role: RoleTool, ToolCallID: "call_1", Content: `{"success":true}`},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.WantsTools() {
		t.Error("stop response should not request tools")
	}
	if resp.Content != "Tienes 3 tomates." {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestOpenAIChatProvider_NoChoices(t *testing.T) {
	srv := newChatServer(t, func(map[string]interface{}) (int, string) {
		return http.StatusOK, `{"choices":[]}`
	})
	p := NewOpenAIChatProvider(srv.URL+"/v1", "k", "m")
	_, err := p.Complete(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hola"}}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestOpenAIChatProvider_BadRequestNotRetried(t *testing.T) {
	calls := 0
	srv := newChatServer(t, func(map[string]interface{}) (int, string) {
		calls++
		return http.StatusBadRequest, `{"error":{"message":"bad","type":"invalid_request_error"}}`
	})
	p := NewOpenAIChatProvider(srv.URL+"/v1", "k", "m")
	if _, err := p.Complete(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hola"}}}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestClassifyOpenAIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, true},
		{"server error", &openai.APIError{HTTPStatusCode: 503}, true},
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401}, false},
		{"plain error", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry, _ := classifyOpenAIError(tt.err)
			if retry != tt.retry {
				t.Errorf("retry = %v, want %v", retry, tt.retry)
			}
		})
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/service"
	"github.com/windoze95/reme-voice/internal/testutil"
	"github.com/windoze95/reme-voice/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupVoiceRouter wires a VoiceHandler over a mock chat provider and a
// running hub.
func setupVoiceRouter(t *testing.T, mockChat *testutil.MockChatProvider) (*gin.Engine, *ws.Hub) {
	t.Helper()
	cfg := &config.Config{
		EnvVars: config.EnvVars{
			VoiceTransport:  config.TransportBrowser,
			ClassifierMode:  config.ClassifierHeuristic,
			FunctionBackend: config.BackendClient,
			MaxToolRounds:   3,
			MaxHistory:      20,
		},
	}
	svc := service.NewVoiceService(cfg, mockChat, nil, nil, nil)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	handler := NewVoiceHandler(svc, hub)
	r := gin.New()
	r.GET("/", handler.Index)
	r.GET("/health", handler.Health)
	r.GET("/v1/status", handler.Status)
	r.POST("/v1/command", handler.ProcessCommand)
	r.POST("/v1/context", handler.UpdateContext)
	return r, hub
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeCommand(t *testing.T, w *httptest.ResponseRecorder) CommandResponse {
	t.Helper()
	var resp CommandResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v. body: %s", err, w.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	r, _ := setupVoiceRouter(t, &testutil.MockChatProvider{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
}

func TestIndex_ListsEndpoints(t *testing.T) {
	r, _ := setupVoiceRouter(t, &testutil.MockChatProvider{})

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	endpoints, ok := body["endpoints"].(map[string]interface{})
	if !ok {
		t.Fatal("response should contain 'endpoints'")
	}
	if endpoints["process_command"] != "/v1/command" {
		t.Errorf("process_command = %v", endpoints["process_command"])
	}
}

func TestStatus_ReportsConfiguration(t *testing.T) {
	mockChat := &testutil.MockChatProvider{
		PingFunc: func(ctx context.Context) error { return errors.New("connection refused") },
	}
	r, _ := setupVoiceRouter(t, mockChat)

	req := httptest.NewRequest("GET", "/v1/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["transport"] != "browser" {
		t.Errorf("transport = %v, want browser", body["transport"])
	}
	if body["classifier"] != "heuristic" {
		t.Errorf("classifier = %v, want heuristic", body["classifier"])
	}
	if body["provider"] != "mock" {
		t.Errorf("provider = %v, want mock", body["provider"])
	}
	if body["connectedClients"] != float64(0) {
		t.Errorf("connectedClients = %v, want 0", body["connectedClients"])
	}
	if body["llmReachable"] != false {
		t.Errorf("llmReachable = %v, want false", body["llmReachable"])
	}
}

func TestProcessCommand_Navigation(t *testing.T) {
	mockChat := &testutil.MockChatProvider{}
	r, _ := setupVoiceRouter(t, mockChat)

	w := postJSON(r, "/v1/command", `{"text":"abre recetas"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	resp := decodeCommand(t, w)
	if !resp.Success || resp.Intent != "navigation" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Data["route"] != "/recipes" {
		t.Errorf("route = %v, want /recipes", resp.Data["route"])
	}
	if resp.ResponseText != "Navegando a Recetas" {
		t.Errorf("responseText = %q", resp.ResponseText)
	}
	if n := len(mockChat.Requests()); n != 0 {
		t.Errorf("navigation should not reach the model, got %d requests", n)
	}
}

func TestProcessCommand_Question(t *testing.T) {
	mockChat := &testutil.MockChatProvider{
		CompleteFunc: testutil.ScriptedChat(testutil.AnswerResponse("La albahaca es una hierba aromática.")),
	}
	r, _ := setupVoiceRouter(t, mockChat)

	w := postJSON(r, "/v1/command", `{"text":"qué es la albahaca"}`)

	resp := decodeCommand(t, w)
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Intent != "general_question" {
		t.Errorf("intent = %q, want general_question", resp.Intent)
	}
	if resp.ResponseText != "La albahaca es una hierba aromática." {
		t.Errorf("responseText = %q", resp.ResponseText)
	}
}

func TestProcessCommand_RemoteFailure(t *testing.T) {
	mockChat := &testutil.MockChatProvider{
		CompleteFunc: func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	r, _ := setupVoiceRouter(t, mockChat)

	w := postJSON(r, "/v1/command", `{"text":"qué es la albahaca"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	resp := decodeCommand(t, w)
	if resp.Success {
		t.Fatal("expected failure")
	}
	if resp.ErrorType != "remote_service_failure" {
		t.Errorf("errorType = %q, want remote_service_failure", resp.ErrorType)
	}
	if resp.Error == "" || resp.ResponseText != resp.Error {
		t.Errorf("error text should be the user-facing message, got %+v", resp)
	}
}

func TestProcessCommand_Rejections(t *testing.T) {
	r, _ := setupVoiceRouter(t, &testutil.MockChatProvider{})

	tests := []struct {
		name      string
		body      string
		errorType string
	}{
		{"invalid body", `{"text":`, "bad_request"},
		{"empty text", `{"text":"   "}`, "empty_command"},
		{"wake word required", `{"text":"abre recetas","skipWakeWord":false}`, "wake_word_missing"},
		{"wake word only", `{"text":"rem-e","skipWakeWord":false}`, "empty_command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/v1/command", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if resp := decodeCommand(t, w); resp.ErrorType != tt.errorType {
				t.Errorf("errorType = %q, want %q", resp.ErrorType, tt.errorType)
			}
		})
	}
}

func TestProcessCommand_WakeWordGating(t *testing.T) {
	r, _ := setupVoiceRouter(t, &testutil.MockChatProvider{})

	w := postJSON(r, "/v1/command", `{"text":"Rem-E abre inventario","skipWakeWord":false}`)

	resp := decodeCommand(t, w)
	if !resp.Success || resp.Data["route"] != "/inventory" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestProcessCommand_PublishesToConversation(t *testing.T) {
	r, hub := setupVoiceRouter(t, &testutil.MockChatProvider{})
	client := &ws.Client{Hub: hub, Send: make(chan []byte, 8), RoomID: "conv-1"}
	hub.Join(client)

	w := postJSON(r, "/v1/command", `{"text":"abre historial","context":{"conversationId":"conv-1"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	select {
	case data := <-client.Send:
		var msg ws.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to decode broadcast: %v", err)
		}
		if msg.Type != ws.MsgTypeNavigation {
			t.Errorf("broadcast type = %q, want %q", msg.Type, ws.MsgTypeNavigation)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestUpdateContext(t *testing.T) {
	r, _ := setupVoiceRouter(t, &testutil.MockChatProvider{})

	w := postJSON(r, "/v1/context", `{"context":{"currentPage":"/cook","inRecipeGuide":true,"recipeGuide":{"recipeName":"Tortilla","currentStep":2,"totalSteps":5}}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var body struct {
		Success bool `json:"success"`
		Context struct {
			CurrentPage   string `json:"currentPage"`
			InRecipeGuide bool   `json:"inRecipeGuide"`
		} `json:"context"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if !body.Success || body.Context.CurrentPage != "/cook" || !body.Context.InRecipeGuide {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestUpdateContext_InvalidBody(t *testing.T) {
	r, _ := setupVoiceRouter(t, &testutil.MockChatProvider{})

	w := postJSON(r, "/v1/context", `not json`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

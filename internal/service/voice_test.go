package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/testutil"
	"github.com/windoze95/reme-voice/internal/tools"
	"github.com/windoze95/reme-voice/internal/voice"
)

func newTestVoiceService(chat ai.ChatProvider) *VoiceService {
	cfg := &config.Config{
		EnvVars: config.EnvVars{
			ClassifierMode:  config.ClassifierHeuristic,
			FunctionBackend: config.BackendClient,
			MaxToolRounds:   3,
			MaxHistory:      20,
		},
	}
	return NewVoiceService(cfg, chat, nil, nil, nil)
}

func boolPtr(b bool) *bool { return &b }

func TestProcessCommand_Navigation(t *testing.T) {
	svc := newTestVoiceService(&testutil.MockChatProvider{})

	res, err := svc.ProcessCommand(context.Background(), CommandRequest{Text: "Abre el inventario"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Intent != voice.IntentNavigation {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Data["route"] != "/inventory" {
		t.Errorf("route = %v, want /inventory", res.Data["route"])
	}
	if res.ResponseText != "Navegando a Inventario" {
		t.Errorf("responseText = %q", res.ResponseText)
	}
	if res.ConversationID != voice.DefaultConversationID {
		t.Errorf("conversationID = %q, want %q", res.ConversationID, voice.DefaultConversationID)
	}
}

func TestProcessCommand_NavigatingTemplate(t *testing.T) {
	svc := newTestVoiceService(&testutil.MockChatProvider{})
	svc.Cfg.Prompts = &config.Prompts{}
	svc.Cfg.Prompts.Voice.Phrases.Navigating = "Vamos a {{.DisplayName}} ({{.Path}})"

	res, err := svc.ProcessCommand(context.Background(), CommandRequest{Text: "abre recetas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ResponseText != "Vamos a Recetas (/recipes)" {
		t.Errorf("responseText = %q", res.ResponseText)
	}
}

func TestProcessCommand_CookingInGuide(t *testing.T) {
	mockChat := &testutil.MockChatProvider{}
	svc := newTestVoiceService(mockChat)
	inGuide := true

	res, err := svc.ProcessCommand(context.Background(), CommandRequest{
		Text: "pon un temporizador de 5 minutos",
		Context: &voice.ContextPatch{
			InRecipeGuide: &inGuide,
			Guide:         &voice.RecipeGuide{RecipeName: "Tortilla", StepIndex: 1, TotalSteps: 4},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Intent != voice.IntentCookingControl {
		t.Fatalf("intent = %v, want cooking_control", res.Intent)
	}
	if res.Data["command"] != voice.CookingTimer || res.Data["seconds"] != 300 {
		t.Errorf("unexpected data: %+v", res.Data)
	}
	if res.ResponseText != "Ejecutando comando: timer" {
		t.Errorf("responseText = %q", res.ResponseText)
	}
	if n := len(mockChat.Requests()); n != 0 {
		t.Errorf("cooking control should not reach the model, got %d requests", n)
	}
}

func TestProcessCommand_WakeWord(t *testing.T) {
	svc := newTestVoiceService(&testutil.MockChatProvider{})

	tests := []struct {
		name    string
		text    string
		wantErr error
		command string
	}{
		{"missing", "abre recetas", ErrWakeWordMissing, ""},
		{"only wake word", "Remy", ErrEmptyCommand, ""},
		{"extracted", "Oye Remy, abre recetas", nil, "abre recetas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ProcessCommand(context.Background(), CommandRequest{
				Text:         tt.text,
				SkipWakeWord: boolPtr(false),
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && res.Command != tt.command {
				t.Errorf("command = %q, want %q", res.Command, tt.command)
			}
		})
	}
}

func TestProcessCommand_EmptyCommand(t *testing.T) {
	svc := newTestVoiceService(&testutil.MockChatProvider{})

	if _, err := svc.ProcessCommand(context.Background(), CommandRequest{Text: "  \n "}); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("err = %v, want ErrEmptyCommand", err)
	}
}

func TestProcessCommand_Answer(t *testing.T) {
	mockChat := &testutil.MockChatProvider{
		CompleteFunc: testutil.ScriptedChat(testutil.AnswerResponse("Hierve el agua con sal.")),
	}
	svc := newTestVoiceService(mockChat)

	res, err := svc.ProcessCommand(context.Background(), CommandRequest{Text: "cómo cocino pasta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.ResponseText != "Hierve el agua con sal." {
		t.Errorf("unexpected result: %+v", res)
	}

	history := svc.Conversations.Messages(voice.DefaultConversationID)
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Role != ai.RoleUser || history[1].Role != ai.RoleAssistant {
		t.Errorf("unexpected history roles: %s, %s", history[0].Role, history[1].Role)
	}
}

func TestProcessCommand_RemoteFailure(t *testing.T) {
	mockChat := &testutil.MockChatProvider{
		CompleteFunc: func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := newTestVoiceService(mockChat)

	res, err := svc.ProcessCommand(context.Background(), CommandRequest{Text: "qué es el comino"})
	if err != nil {
		t.Fatalf("pipeline failures are results, not errors: %v", err)
	}
	if res.Success || res.Err == nil {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Err.Kind != voice.KindRemoteServiceFailure {
		t.Errorf("kind = %v, want remote_service_failure", res.Err.Kind)
	}
	if res.ResponseText != res.Err.Message {
		t.Errorf("responseText = %q, want the error message", res.ResponseText)
	}
}

func TestUpdateContext_Merges(t *testing.T) {
	svc := newTestVoiceService(&testutil.MockChatProvider{})
	page := "/inventory"
	conv := "kitchen"

	svc.UpdateContext(voice.ContextPatch{CurrentPage: &page})
	vc := svc.UpdateContext(voice.ContextPatch{ConversationID: &conv})

	if vc.CurrentPage != "/inventory" {
		t.Errorf("currentPage = %q, want /inventory", vc.CurrentPage)
	}
	if vc.ConversationKey() != "kitchen" {
		t.Errorf("conversation = %q, want kitchen", vc.ConversationKey())
	}

	res, err := svc.ProcessCommand(context.Background(), CommandRequest{Text: "abre ajustes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ConversationID != "kitchen" {
		t.Errorf("commands should use the updated context, got %q", res.ConversationID)
	}
}

func TestLLMReachable(t *testing.T) {
	up := newTestVoiceService(&testutil.MockChatProvider{})
	if !up.LLMReachable(context.Background()) {
		t.Error("expected reachable provider")
	}

	down := newTestVoiceService(&testutil.MockChatProvider{
		PingFunc: func(ctx context.Context) error { return errors.New("timeout") },
	})
	if down.LLMReachable(context.Background()) {
		t.Error("expected unreachable provider")
	}
}

func TestCatalog_FallsBackToClient(t *testing.T) {
	svc := newTestVoiceService(&testutil.MockChatProvider{})

	c := svc.Catalog(nil)
	if len(c.Definitions()) == 0 {
		t.Error("catalog should expose function definitions")
	}
}

// answeringClient is a client executor whose browser answers every request
// with result.
func answeringClient(t *testing.T, result string) (*tools.ClientExecutor, func() []tools.FunctionRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []tools.FunctionRequest
		exec *tools.ClientExecutor
	)
	exec = tools.NewClientExecutor(tools.RequesterFunc(func(ctx context.Context, req tools.FunctionRequest) error {
		mu.Lock()
		reqs = append(reqs, req)
		mu.Unlock()
		go exec.Resolve(req.RequestID, json.RawMessage(result))
		return nil
	}), time.Second)
	return exec, func() []tools.FunctionRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]tools.FunctionRequest(nil), reqs...)
	}
}

func inventoryLookup() *ai.ChatResponse {
	return testutil.ToolCallResponse(ai.ToolCall{
		ID:        "call_1",
		Name:      "searchInventoryByName",
		Arguments: `{"ingredientName":"tomate"}`,
	})
}

func TestProcessCommand_RunsFunctionsOnAttachedClient(t *testing.T) {
	mockChat := &testutil.MockChatProvider{
		CompleteFunc: testutil.ScriptedChat(inventoryLookup(), testutil.AnswerResponse("Tienes 3 tomates.")),
	}
	svc := newTestVoiceService(mockChat)
	exec, requests := answeringClient(t, `{"success":true,"data":{"items":[{"name":"tomate","quantity":3}],"totalItems":1}}`)
	detach := svc.AttachClient(voice.DefaultConversationID, exec)
	defer detach()

	res, err := svc.ProcessCommand(context.Background(), CommandRequest{Text: "cuántos tomates tengo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.ResponseText != "Tienes 3 tomates." {
		t.Fatalf("unexpected result: %+v", res)
	}

	reqs := requests()
	if len(reqs) != 1 || reqs[0].FunctionName != "searchInventoryByName" {
		t.Fatalf("expected one searchInventoryByName request, got %+v", reqs)
	}
	if reqs[0].Args["ingredientName"] != "tomate" {
		t.Errorf("args = %v", reqs[0].Args)
	}

	calls := mockChat.Requests()
	if len(calls) != 2 {
		t.Fatalf("expected 2 model requests, got %d", len(calls))
	}
	msgs := calls[1].Messages
	last := msgs[len(msgs)-1]
	if last.Role != ai.RoleTool || !strings.Contains(last.Content, `"success":true`) || !strings.Contains(last.Content, "tomate") {
		t.Errorf("model should see the client's result, got %+v", last)
	}
}

func TestProcessCommand_NoClientFailsFunctions(t *testing.T) {
	mockChat := &testutil.MockChatProvider{
		CompleteFunc: testutil.ScriptedChat(inventoryLookup(), testutil.AnswerResponse("Tienes 3 tomates.")),
	}
	svc := newTestVoiceService(mockChat)

	res, err := svc.ProcessCommand(context.Background(), CommandRequest{Text: "cuántos tomates tengo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Err == nil {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Err.Kind != voice.KindFunctionExecutionFailure {
		t.Errorf("kind = %v, want function_execution_failure", res.Err.Kind)
	}
	if n := len(mockChat.Requests()); n != 1 {
		t.Errorf("the turn should stop after the failed function, got %d model requests", n)
	}
}

func TestAttachClient_FollowsConversation(t *testing.T) {
	svc := newTestVoiceService(&testutil.MockChatProvider{})
	first, _ := answeringClient(t, `{"success":true}`)
	second, _ := answeringClient(t, `{"success":true}`)

	if svc.clients.latest("kitchen") != nil {
		t.Fatal("no client should be attached yet")
	}

	detachFirst := svc.AttachClient("kitchen", first)
	detachSecond := svc.AttachClient("kitchen", second)
	if svc.clients.latest("kitchen") != second {
		t.Error("the most recent session should serve the conversation")
	}
	if svc.clients.latest("other") != nil {
		t.Error("conversations must be independent")
	}

	detachSecond()
	detachSecond()
	if svc.clients.latest("kitchen") != first {
		t.Error("detaching should fall back to the earlier session")
	}
	detachFirst()
	if svc.clients.latest("kitchen") != nil {
		t.Error("expected no client after detaching all")
	}
}

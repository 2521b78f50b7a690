package voice

import (
	"context"
	"fmt"
	"strings"

	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/config"
)

// AgentRequest is one call to the conversational agent.
type AgentRequest struct {
	Intent  Intent
	Context VoiceContext
	History []ai.Message
}

// AgentTurn is what the agent answered: either a final text or a set of
// function calls to run before asking again.
type AgentTurn struct {
	Text      string
	ToolCalls []ai.ToolCall
}

// WantsTools reports whether the turn requests function calls.
func (t *AgentTurn) WantsTools() bool {
	return len(t.ToolCalls) > 0
}

// Message returns the assistant message to store in the conversation.
func (t *AgentTurn) Message() ai.Message {
	return ai.Message{Role: ai.RoleAssistant, Content: t.Text, ToolCalls: t.ToolCalls}
}

// Agent talks to the chat model with the Rem-E system prompt, the intent
// block and the serialized voice context.
type Agent struct {
	provider    ai.ChatProvider
	prompts     config.VoicePrompts
	tools       []ai.ToolDefinition
	temperature float64
	maxTokens   int
}

// NewAgent creates an agent offering tools to the model.
func NewAgent(provider ai.ChatProvider, prompts config.VoicePrompts, tools []ai.ToolDefinition, temperature float64, maxTokens int) *Agent {
	return &Agent{
		provider:    provider,
		prompts:     prompts,
		tools:       tools,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Provider returns the name of the chat provider.
func (a *Agent) Provider() string {
	return a.provider.Name()
}

// Send sends the system message followed by the history. Only a tool_calls
// finish reason yields function calls; anything else is a final answer.
func (a *Agent) Send(ctx context.Context, req AgentRequest) (*AgentTurn, error) {
	system, err := a.systemMessage(req.Intent, req.Context)
	if err != nil {
		return nil, err
	}

	msgs := make([]ai.Message, 0, len(req.History)+1)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: system})
	msgs = append(msgs, req.History...)

	resp, err := a.provider.Complete(ctx, ai.ChatRequest{
		Messages:    msgs,
		Tools:       a.tools,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", a.provider.Name(), err)
	}

	if resp.WantsTools() {
		return &AgentTurn{Text: resp.Content, ToolCalls: resp.ToolCalls}, nil
	}
	return &AgentTurn{Text: strings.TrimSpace(resp.Content)}, nil
}

func (a *Agent) systemMessage(intent Intent, vc VoiceContext) (string, error) {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.prompts.System))

	if block := strings.TrimSpace(intentPrompt(a.prompts.Intents, intent).Instruction); block != "" {
		b.WriteString("\n\n")
		b.WriteString(block)
	}

	tmpl := a.prompts.Context.Page
	if vc.InRecipeGuide {
		tmpl = a.prompts.Context.Guide
	}
	if tmpl != "" {
		rendered, err := config.RenderPrompt(tmpl, contextData(vc))
		if err != nil {
			return "", fmt.Errorf("render context block: %w", err)
		}
		if rendered = strings.TrimSpace(rendered); rendered != "" {
			b.WriteString("\n\n")
			b.WriteString(rendered)
		}
	}
	return b.String(), nil
}

// contextData exposes the voice context to the context templates. Steps
// are numbered from one.
func contextData(vc VoiceContext) map[string]interface{} {
	g := vc.Guide
	return map[string]interface{}{
		"Page":            vc.CurrentPage,
		"InRecipeGuide":   vc.InRecipeGuide,
		"InventoryHints":  vc.InventoryHints,
		"RecipeID":        g.RecipeID,
		"RecipeName":      g.RecipeName,
		"Step":            g.StepIndex + 1,
		"TotalSteps":      g.TotalSteps,
		"Instruction":     g.Instruction,
		"Ingredients":     g.Ingredients,
		"Tip":             g.Tip,
		"Warning":         g.Warning,
		"DurationSeconds": g.DurationSeconds,
		"DurationMinutes": g.DurationSeconds / 60,
	}
}

func intentPrompt(p config.IntentPrompts, i Intent) config.IntentPrompt {
	switch i {
	case IntentNavigation:
		return p.Navigation
	case IntentInventoryAction:
		return p.InventoryAction
	case IntentApplianceAction:
		return p.ApplianceAction
	case IntentRecipeSearch:
		return p.RecipeSearch
	case IntentCookingControl:
		return p.CookingControl
	default:
		return p.GeneralQuestion
	}
}

package voice

import (
	"context"
	"strings"

	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/logger"
	"go.uber.org/zap"
)

// Classifier assigns one Intent to an utterance. Implementations never
// fail: anything they cannot decide is a general question.
type Classifier interface {
	Classify(ctx context.Context, utterance string, vc VoiceContext) Intent
}

// Keyword tables for HeuristicClassifier, folded (no accents).
var (
	navigationVerbs = foldAll(
		"ve a", "ir a", "vamos a", "abre", "abrir", "muestra", "mostrar", "muéstrame",
		"llévame", "lleva", "navega", "regresa", "volver", "vuelve", "entra",
		"quiero ir", "quiero ver", "enséñame", "página de", "sección de", "cambia a",
	)
	dataActionWords = foldAll(
		"tengo", "tenemos", "hay", "queda", "quedan", "agrega", "agregar", "añade",
		"añadir", "quita", "quitar", "elimina", "eliminar", "borra", "saca", "busca",
		"buscar", "encuentra", "encontrar", "dame", "dime", "lista", "compré", "gasté",
		"usé", "falta", "faltan", "necesito", "revisa", "cuánto", "cuánta", "cuántos",
		"cuántas", "registra",
	)
	questionWords = foldAll(
		"qué", "cómo", "dónde", "cuál", "cuáles", "cuándo", "quién", "por qué",
		"puedo", "podría", "debería", "sabes",
	)
	applianceNouns = foldAll(
		"horno", "estufa", "microondas", "licuadora", "batidora", "freidora",
		"olla", "sartén", "cafetera", "tostadora", "procesador", "parrilla",
		"vaporera", "electrodoméstico", "electrodomésticos", "utensilio",
		"utensilios", "aparato", "aparatos",
	)
	recipeWords = foldAll(
		"receta", "recetas", "cocinar", "preparar", "platillo", "platillos",
		"cocino", "preparo", "desayuno", "comida", "cena", "postre",
	)
	inventoryWords = foldAll(
		"inventario", "despensa", "alacena", "refri", "refrigerador", "nevera",
		"congelador", "freezer", "ingrediente", "ingredientes", "caduca",
		"caducan", "vence", "vencen", "tengo", "tenemos", "hay", "queda",
		"quedan", "agrega", "agregar", "añade", "añadir", "quita", "quitar",
		"elimina", "eliminar", "saca", "compré", "gasté", "usé", "falta", "faltan",
	)
)

// HeuristicClassifier classifies with ordered keyword rules.
type HeuristicClassifier struct {
	resolver *NavigationResolver
}

// NewHeuristicClassifier builds a classifier that uses resolver for the
// navigation lookups.
func NewHeuristicClassifier(resolver *NavigationResolver) *HeuristicClassifier {
	return &HeuristicClassifier{resolver: resolver}
}

// Classify applies, in order: in-guide cooking commands, unless a "go
// back" names a section; data actions on
// appliances, recipes or inventory (these beat navigation); questions
// without a navigation verb; navigation verbs naming a section; short
// utterances naming a section. Everything else is a general question.
func (c *HeuristicClassifier) Classify(_ context.Context, utterance string, vc VoiceContext) Intent {
	pt := newPhraseText(utterance)
	if pt.wordCount() == 0 {
		return IntentGeneralQuestion
	}

	if vc.InRecipeGuide {
		if cc, ok := DetectCookingCommand(utterance); ok && !c.leavesGuide(cc, utterance) {
			return IntentCookingControl
		}
	}

	isAction := pt.hasAny(dataActionWords)
	isQuestion := pt.hasAny(questionWords) || strings.ContainsAny(utterance, "?¿")
	if isAction || isQuestion {
		switch {
		case pt.hasAny(applianceNouns):
			return IntentApplianceAction
		case pt.hasAny(recipeWords):
			return IntentRecipeSearch
		case pt.hasAny(inventoryWords):
			return IntentInventoryAction
		}
	}

	hasNavVerb := pt.hasAny(navigationVerbs)
	if isQuestion && !hasNavVerb {
		return IntentGeneralQuestion
	}
	if _, ok := c.resolver.Resolve(utterance); ok {
		if hasNavVerb || pt.wordCount() <= 4 {
			return IntentNavigation
		}
	}
	return IntentGeneralQuestion
}

// leavesGuide reports a "previous" keyword that is really a navigation
// verb, as in "vuelve al inicio": the utterance names a section.
func (c *HeuristicClassifier) leavesGuide(cc CookingControl, utterance string) bool {
	if cc.Command != CookingPrevious {
		return false
	}
	_, ok := c.resolver.Resolve(utterance)
	return ok
}

// RemoteClassifier asks the chat model for one intent label.
type RemoteClassifier struct {
	provider    ai.ChatProvider
	prompt      config.PromptPair
	temperature float64
	maxTokens   int
}

// NewRemoteClassifier builds a classifier over provider. temperature
// should be near zero.
func NewRemoteClassifier(provider ai.ChatProvider, prompt config.PromptPair, temperature float64, maxTokens int) *RemoteClassifier {
	return &RemoteClassifier{
		provider:    provider,
		prompt:      prompt,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Classify returns the first label found in the upper-cased reply, or a
// general question on any failure.
func (c *RemoteClassifier) Classify(ctx context.Context, utterance string, vc VoiceContext) Intent {
	data := map[string]interface{}{
		"Utterance":     utterance,
		"Page":          vc.CurrentPage,
		"InRecipeGuide": vc.InRecipeGuide,
		"RecipeName":    vc.Guide.RecipeName,
	}
	system, err := config.RenderPrompt(c.prompt.System, data)
	if err != nil {
		logger.Get().Error("failed to render classifier prompt", zap.Error(err))
		return IntentGeneralQuestion
	}
	user := utterance
	if c.prompt.User != "" {
		if user, err = config.RenderPrompt(c.prompt.User, data); err != nil {
			logger.Get().Error("failed to render classifier user prompt", zap.Error(err))
			return IntentGeneralQuestion
		}
	}

	resp, err := c.provider.Complete(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: system},
			{Role: ai.RoleUser, Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		logger.Get().Warn("remote intent classification failed",
			zap.String("provider", c.provider.Name()),
			zap.Error(err),
		)
		return IntentGeneralQuestion
	}
	return ParseIntentLabel(resp.Content)
}

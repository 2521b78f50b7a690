package voice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/observe"
	"github.com/windoze95/reme-voice/internal/tools"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// DefaultMaxToolRounds caps the function-calling rounds of one utterance.
const DefaultMaxToolRounds = 5

// ErrToolRoundsExceeded is returned when the model keeps requesting
// functions past the round cap.
var ErrToolRoundsExceeded = errors.New("too many function-calling rounds")

// OutcomeKind says which effect an utterance produced.
type OutcomeKind int

const (
	OutcomeAnswer OutcomeKind = iota
	OutcomeNavigation
	OutcomeCooking
	OutcomeFailed
)

// Outcome is the result of handling one utterance.
type Outcome struct {
	Kind    OutcomeKind
	Intent  Intent
	Route   *Route
	Cooking *CookingControl
	Answer  string
	// FollowUp is set when the answer asks the user something.
	FollowUp bool
	Err      *VoiceError
}

// DispatcherDeps are the collaborators of a Dispatcher.
type DispatcherDeps struct {
	Classifier    Classifier
	Resolver      *NavigationResolver
	Agent         *Agent
	Executor      tools.Executor
	Conversations *ConversationStore
	Prompts       config.VoicePrompts
	MaxToolRounds int
	Metrics       *observe.Metrics
}

// Dispatcher turns an utterance into an Outcome: classification, the
// navigation and cooking fast paths, and the agent with its function loop.
type Dispatcher struct {
	DispatcherDeps
}

// NewDispatcher creates a dispatcher. A zero MaxToolRounds uses the default.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	if deps.MaxToolRounds <= 0 {
		deps.MaxToolRounds = DefaultMaxToolRounds
	}
	if deps.Resolver == nil {
		deps.Resolver = NewNavigationResolver()
	}
	if deps.Conversations == nil {
		deps.Conversations = NewConversationStore(DefaultMaxHistory)
	}
	return &Dispatcher{DispatcherDeps: deps}
}

// Handle runs one utterance. progress receives the intermediate statuses.
// It never panics outward and never returns a nil-kind outcome.
func (d *Dispatcher) Handle(ctx context.Context, utterance string, vc VoiceContext, progress func(Status)) Outcome {
	if progress == nil {
		progress = func(Status) {}
	}
	ctx, span := observe.StartSpan(ctx, "voice.utterance")
	defer span.End()

	intent := d.Classifier.Classify(ctx, utterance, vc)
	d.Metrics.RecordUtterance(ctx, intent.String())
	span.SetAttributes(
		attribute.String("intent", intent.String()),
		attribute.String("conversation_id", vc.ConversationKey()),
	)

	switch intent {
	case IntentNavigation:
		if route, ok := d.Resolver.Resolve(utterance); ok {
			progress(StatusProcessing)
			return Outcome{Kind: OutcomeNavigation, Intent: intent, Route: route}
		}
		intent = IntentGeneralQuestion
	case IntentCookingControl:
		if vc.InRecipeGuide {
			if cc, ok := DetectCookingCommand(utterance); ok {
				progress(StatusProcessing)
				return Outcome{Kind: OutcomeCooking, Intent: intent, Cooking: &cc}
			}
		}
		intent = IntentGeneralQuestion
	}

	out := d.converse(ctx, intent, utterance, vc, progress)
	if out.Err != nil {
		span.SetStatus(codes.Error, out.Err.Message)
		d.Metrics.RecordVoiceError(ctx, out.Err.Kind.String())
	}
	return out
}

func (d *Dispatcher) converse(ctx context.Context, intent Intent, utterance string, vc VoiceContext, progress func(Status)) Outcome {
	log := logger.Get().With(zap.String("conversation_id", vc.ConversationKey()), zap.Stringer("intent", intent))
	progress(StatusThinking)

	key := vc.ConversationKey()
	d.Conversations.Append(key, ai.Message{Role: ai.RoleUser, Content: utterance})

	var results []tools.Result
	var route *Route
	for round := 0; ; round++ {
		start := time.Now()
		turn, err := d.Agent.Send(ctx, AgentRequest{
			Intent:  intent,
			Context: vc,
			History: d.Conversations.Messages(key),
		})
		d.Metrics.RecordLLM(ctx, d.Agent.Provider(), time.Since(start), err)
		if err != nil {
			log.Error("agent request failed", zap.Int("round", round), zap.Error(err))
			return failed(intent, NewVoiceError(KindRemoteServiceFailure, err))
		}

		if !turn.WantsTools() {
			answer := d.finalAnswer(intent, turn.Text, results)
			d.Conversations.Append(key, ai.Message{Role: ai.RoleAssistant, Content: answer})
			return Outcome{
				Kind:     OutcomeAnswer,
				Intent:   intent,
				Answer:   answer,
				Route:    route,
				FollowUp: AsksFollowUp(answer),
			}
		}

		if round >= d.MaxToolRounds {
			log.Warn("function-calling round cap reached", zap.Int("max_rounds", d.MaxToolRounds))
			return failed(intent, NewVoiceError(KindFunctionExecutionFailure, ErrToolRoundsExceeded))
		}

		progress(StatusExecutingFunction)
		d.Conversations.Append(key, turn.Message())
		var hardErr error
		for _, call := range turn.ToolCalls {
			var res tools.Result
			if hardErr != nil {
				res = tools.Fail("no ejecutada")
			} else {
				res = d.Executor.Execute(ctx, call)
				hardErr = res.Err()
				d.Metrics.RecordToolCall(ctx, call.Name, toolStatus(res))
				log.Debug("function executed",
					zap.String("function", call.Name),
					zap.Bool("success", res.Success),
				)
			}
			d.Conversations.Append(key, ai.Message{
				Role:       ai.RoleTool,
				Content:    res.JSON(),
				ToolCallID: call.ID,
				Name:       call.Name,
			})
			results = append(results, res)
			if path, ok := res.Route(); ok {
				route = &Route{Path: path}
			}
		}
		if hardErr != nil {
			log.Error("function execution failed", zap.Error(hardErr))
			return failed(intent, NewVoiceError(KindFunctionExecutionFailure, hardErr))
		}
		progress(StatusThinking)
	}
}

// finalAnswer applies the intent's empty fallback: when every function
// the turn ran succeeded without finding anything, the answer is the
// configured phrase verbatim.
func (d *Dispatcher) finalAnswer(intent Intent, text string, results []tools.Result) string {
	fallback := strings.TrimSpace(intentPrompt(d.Prompts.Intents, intent).EmptyFallback)
	if fallback != "" && len(results) > 0 && allEmpty(results) {
		return fallback
	}
	if text == "" {
		return d.Prompts.Phrases.EmptyAnswer
	}
	return text
}

func allEmpty(results []tools.Result) bool {
	for _, r := range results {
		if !r.IsEmpty() {
			return false
		}
	}
	return true
}

func toolStatus(r tools.Result) string {
	switch {
	case r.Err() != nil:
		return "error"
	case !r.Success:
		return "failed"
	case r.IsEmpty():
		return "empty"
	}
	return "ok"
}

func failed(intent Intent, err *VoiceError) Outcome {
	return Outcome{Kind: OutcomeFailed, Intent: intent, Err: err}
}

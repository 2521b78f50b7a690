package service

import (
	"context"
	"errors"

	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/observe"
	"github.com/windoze95/reme-voice/internal/tools"
	"github.com/windoze95/reme-voice/internal/voice"
	"go.uber.org/zap"
)

// Errors returned by ProcessCommand before anything is dispatched.
var (
	ErrWakeWordMissing = errors.New("wake word not detected")
	ErrEmptyCommand    = errors.New("command is empty")
)

// VoiceService wires the voice pipeline. It is shared by every session and
// the REST handlers; each session gets its own router and dispatcher over
// the shared conversation store.
type VoiceService struct {
	Cfg            *config.Config
	ChatProvider   ai.ChatProvider
	SpeechProvider ai.SpeechProvider
	Store          *tools.Store
	Metrics        *observe.Metrics

	Detector      *voice.WakeWordDetector
	Resolver      *voice.NavigationResolver
	Classifier    voice.Classifier
	Conversations *voice.ConversationStore

	restContext    *voice.ContextStore
	restDispatcher *voice.Dispatcher
	clients        *clientRegistry
}

// NewVoiceService creates a new VoiceService. store may be nil, in which
// case data functions are executed by the connected client.
func NewVoiceService(cfg *config.Config, chat ai.ChatProvider, speech ai.SpeechProvider, store *tools.Store, metrics *observe.Metrics) *VoiceService {
	env := cfg.EnvVars
	resolver := voice.NewNavigationResolver()

	var classifier voice.Classifier = voice.NewHeuristicClassifier(resolver)
	if env.ClassifierMode == config.ClassifierRemote && cfg.Prompts != nil {
		classifier = voice.NewRemoteClassifier(chat, cfg.Prompts.Voice.Classifier, env.ClassifierTemperature, env.ClassifierMaxTokens)
	}

	s := &VoiceService{
		Cfg:            cfg,
		ChatProvider:   chat,
		SpeechProvider: speech,
		Store:          store,
		Metrics:        metrics,
		Detector:       voice.NewWakeWordDetector(env.WakeWords),
		Resolver:       resolver,
		Classifier:     classifier,
		Conversations:  voice.NewConversationStore(env.MaxHistory),
		restContext:    voice.NewContextStore(),
		clients:        newClientRegistry(),
	}
	s.restDispatcher = s.NewDispatcher(s.restExecutor())
	return s
}

func (s *VoiceService) prompts() config.VoicePrompts {
	if s.Cfg.Prompts == nil {
		return config.VoicePrompts{}
	}
	return s.Cfg.Prompts.Voice
}

// Catalog returns the function catalog for one session. With a database
// store every function runs locally; otherwise data functions go to
// fallback, the session's client executor.
func (s *VoiceService) Catalog(fallback tools.Executor) *tools.Catalog {
	c := tools.NewCatalog()
	if s.Store != nil {
		s.Store.Register(c)
		return c
	}
	if fallback != nil {
		return c.WithFallback(fallback)
	}
	return c
}

// NewDispatcher builds a dispatcher whose data functions fall back to
// fallback when no store is configured.
func (s *VoiceService) NewDispatcher(fallback tools.Executor) *voice.Dispatcher {
	env := s.Cfg.EnvVars
	catalog := s.Catalog(fallback)
	prompts := s.prompts()
	return voice.NewDispatcher(voice.DispatcherDeps{
		Classifier:    s.Classifier,
		Resolver:      s.Resolver,
		Agent:         voice.NewAgent(s.ChatProvider, prompts, catalog.Definitions(), env.AgentTemperature, env.AgentMaxTokens),
		Executor:      catalog,
		Conversations: s.Conversations,
		Prompts:       prompts,
		MaxToolRounds: env.MaxToolRounds,
		Metrics:       s.Metrics,
	})
}

// NewRouter builds the router of one voice session.
func (s *VoiceService) NewRouter(src voice.TranscriptionSource, sink voice.Sink, contexts *voice.ContextStore, fallback tools.Executor, log *zap.Logger) *voice.Router {
	env := s.Cfg.EnvVars
	return voice.NewRouter(voice.RouterDeps{
		Source:   src,
		Sink:     sink,
		Detector: s.Detector,
		Handler:  s.NewDispatcher(fallback),
		Context:  contexts,
		Metrics:  s.Metrics,
		Logger:   log,
	}, voice.RouterConfig{
		WakeTimeout:      env.WakeTimeout,
		FollowUpTimeout:  env.FollowUpTimeout,
		NavigationDelay:  env.NavigationDelay,
		ReconnectBackoff: env.ReconnectBackoff,
	})
}

// CommandRequest is a text command sent over REST.
type CommandRequest struct {
	Text    string
	Context *voice.ContextPatch
	// SkipWakeWord defaults to true when nil.
	SkipWakeWord *bool
}

// CommandResult is the outcome of a REST command.
type CommandResult struct {
	Success      bool
	Intent       voice.Intent
	Data         map[string]interface{}
	ResponseText string
	Err          *voice.VoiceError
	FollowUp     bool

	// Command is the text that was dispatched, after wake-word extraction.
	Command        string
	ConversationID string
	Outcome        voice.Outcome
}

// ProcessCommand runs one text command through the pipeline against the
// shared REST context, as if it had been spoken. Data functions run on the
// most recent voice session attached to the command's conversation.
func (s *VoiceService) ProcessCommand(ctx context.Context, req CommandRequest) (*CommandResult, error) {
	if req.Context != nil {
		s.restContext.Update(*req.Context)
	}

	text := voice.NormalizeUtterance(req.Text)
	if req.SkipWakeWord != nil && !*req.SkipWakeWord {
		if !s.Detector.Detect(text) {
			return nil, ErrWakeWordMissing
		}
		text = s.Detector.ExtractCommand(text)
	}
	if text == "" {
		return nil, ErrEmptyCommand
	}

	vc := s.restContext.Current()
	logger.Get().Info("processing text command",
		zap.String("conversation_id", vc.ConversationKey()),
		zap.String("command", text),
	)
	ctx = withConversation(ctx, vc.ConversationKey())
	out := s.restDispatcher.Handle(ctx, text, vc, nil)

	res := &CommandResult{
		Success:        out.Kind != voice.OutcomeFailed,
		Intent:         out.Intent,
		FollowUp:       out.FollowUp,
		Command:        text,
		ConversationID: vc.ConversationKey(),
		Outcome:        out,
	}
	switch out.Kind {
	case voice.OutcomeNavigation:
		res.Data = map[string]interface{}{"route": out.Route.Path, "displayName": out.Route.DisplayName}
		res.ResponseText = navigatingText(s.prompts().Phrases.Navigating, *out.Route)
	case voice.OutcomeCooking:
		res.Data = map[string]interface{}{"command": out.Cooking.Command}
		if out.Cooking.Seconds > 0 {
			res.Data["seconds"] = out.Cooking.Seconds
		}
		res.ResponseText = "Ejecutando comando: " + string(out.Cooking.Command)
	case voice.OutcomeFailed:
		res.Err = out.Err
		res.ResponseText = out.Err.Message
	default:
		res.ResponseText = out.Answer
		if out.Route != nil {
			res.Data = map[string]interface{}{"route": out.Route.Path}
		}
	}
	return res, nil
}

func navigatingText(tmpl string, route voice.Route) string {
	if tmpl == "" {
		return "Navegando a " + route.DisplayName
	}
	text, err := config.RenderPrompt(tmpl, map[string]interface{}{
		"Path":        route.Path,
		"DisplayName": route.DisplayName,
	})
	if err != nil {
		return "Navegando a " + route.DisplayName
	}
	return text
}

// UpdateContext applies a patch to the shared REST context.
func (s *VoiceService) UpdateContext(p voice.ContextPatch) voice.VoiceContext {
	s.restContext.Update(p)
	return s.restContext.Current()
}

// LLMReachable reports whether the chat provider answers a health probe.
// Providers without a probe are assumed reachable.
func (s *VoiceService) LLMReachable(ctx context.Context) bool {
	hc, ok := s.ChatProvider.(ai.HealthChecker)
	if !ok {
		return true
	}
	if err := hc.Ping(ctx); err != nil {
		logger.Get().Debug("LLM health probe failed", zap.Error(err))
		return false
	}
	return true
}

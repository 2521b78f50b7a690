package voice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/observe"
	"go.uber.org/zap"
)

// Router timing defaults.
const (
	DefaultWakeTimeout      = 8 * time.Second
	DefaultFollowUpTimeout  = 15 * time.Second
	DefaultNavigationDelay  = 1500 * time.Millisecond
	DefaultReconnectBackoff = 3 * time.Second
)

// UtteranceHandler runs one extracted command. *Dispatcher implements it.
type UtteranceHandler interface {
	Handle(ctx context.Context, utterance string, vc VoiceContext, progress func(Status)) Outcome
}

// RouterConfig holds the router timings. Zero values use the defaults.
type RouterConfig struct {
	WakeTimeout      time.Duration
	FollowUpTimeout  time.Duration
	NavigationDelay  time.Duration
	ReconnectBackoff time.Duration
}

func (c *RouterConfig) setDefaults() {
	if c.WakeTimeout <= 0 {
		c.WakeTimeout = DefaultWakeTimeout
	}
	if c.FollowUpTimeout <= 0 {
		c.FollowUpTimeout = DefaultFollowUpTimeout
	}
	if c.NavigationDelay <= 0 {
		c.NavigationDelay = DefaultNavigationDelay
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = DefaultReconnectBackoff
	}
}

// RouterDeps are the collaborators of a Router.
type RouterDeps struct {
	Source   TranscriptionSource
	Sink     Sink
	Detector *WakeWordDetector
	Handler  UtteranceHandler
	Context  *ContextStore
	Metrics  *observe.Metrics
	Logger   *zap.Logger
}

type timerKind int

const (
	timerWake timerKind = iota
	timerFollowUp
	timerDisplay
	timerReconnect
	numTimers
)

// Messages of the router inbox. Only the loop goroutine reads them.
type (
	connectMsg    struct{}
	disconnectMsg struct{ done chan struct{} }
	dismissMsg    struct{}
	sourceMsg     struct {
		session uint64
		ev      SourceEvent
	}
	progressMsg struct {
		gen    uint64
		status Status
	}
	resultMsg struct {
		gen     uint64
		command string
		out     Outcome
	}
	timerMsg struct {
		kind  timerKind
		token uint64
	}
)

// Router is the pipeline state machine. Every input (control calls,
// source events, dispatch results and timers) is a message on one inbox
// consumed by Run, so state is only touched by the loop goroutine.
type Router struct {
	deps RouterDeps
	cfg  RouterConfig
	log  *zap.Logger

	inbox   chan interface{}
	stopped chan struct{}

	snapMu   sync.RWMutex
	snapStat Status
	snapLast string

	// Loop-owned state.
	runCtx      context.Context
	status      Status
	lastCommand string
	connected   bool
	session     uint64
	srcCancel   context.CancelFunc
	gen         uint64
	inFlight    bool
	workCancel  context.CancelFunc
	pending     string
	hasPending  bool
	armed       bool
	followUp    bool
	shownErr    *VoiceError
	timerTokens [numTimers]uint64
	timers      [numTimers]*time.Timer
}

// NewRouter creates a router in the Disconnected status. Run must be
// started before the control methods are used.
func NewRouter(deps RouterDeps, cfg RouterConfig) *Router {
	cfg.setDefaults()
	if deps.Sink == nil {
		deps.Sink = NopSink{}
	}
	if deps.Detector == nil {
		deps.Detector = NewWakeWordDetector(nil)
	}
	if deps.Context == nil {
		deps.Context = NewContextStore()
	}
	log := deps.Logger
	if log == nil {
		log = logger.Get()
	}
	return &Router{
		deps:    deps,
		cfg:     cfg,
		log:     log,
		inbox:   make(chan interface{}, 64),
		stopped: make(chan struct{}),
		status:  StatusDisconnected,
	}
}

// Run consumes the inbox until ctx is done. It stops the source and
// cancels any in-flight work on exit.
func (r *Router) Run(ctx context.Context) {
	r.runCtx = ctx
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			r.teardown()
			return
		case msg := <-r.inbox:
			r.handle(msg)
		}
	}
}

// Connect starts listening. It also retries after an error.
func (r *Router) Connect() { r.post(connectMsg{}) }

// Disconnect stops the source, abandons in-flight work and returns once
// the router is Disconnected.
func (r *Router) Disconnect() {
	done := make(chan struct{})
	r.post(disconnectMsg{done: done})
	select {
	case <-done:
	case <-r.stopped:
	}
}

// DismissError clears the displayed error.
func (r *Router) DismissError() { r.post(dismissMsg{}) }

// Status returns the current pipeline status.
func (r *Router) Status() Status {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.snapStat
}

// LastCommand returns the last dispatched command.
func (r *Router) LastCommand() string {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.snapLast
}

func (r *Router) post(msg interface{}) {
	select {
	case r.inbox <- msg:
	case <-r.stopped:
	}
}

func (r *Router) handle(msg interface{}) {
	switch m := msg.(type) {
	case connectMsg:
		r.onConnect()
	case disconnectMsg:
		r.teardown()
		close(m.done)
	case dismissMsg:
		r.onDismiss()
	case sourceMsg:
		if m.session != r.session || !r.connected {
			return
		}
		r.onSourceEvent(m.ev)
	case progressMsg:
		if m.gen != r.gen || !r.inFlight {
			return
		}
		r.setStatus(m.status)
	case resultMsg:
		if m.gen != r.gen || !r.inFlight {
			r.log.Debug("dropping stale result", zap.String("command", m.command))
			return
		}
		r.onResult(m.command, m.out)
	case timerMsg:
		if m.token != r.timerTokens[m.kind] {
			return
		}
		r.onTimer(m.kind)
	}
}

func (r *Router) onConnect() {
	if r.connected && r.status != StatusError {
		return
	}
	r.connected = true
	r.clearError()
	r.startSource()
}

// teardown moves to Disconnected from any state.
func (r *Router) teardown() {
	r.connected = false
	r.stopSource()
	r.abandonWork()
	r.hasPending = false
	r.armed = false
	for k := timerKind(0); k < numTimers; k++ {
		r.cancelTimer(k)
	}
	r.setFollowUp(false)
	r.clearError()
	r.setStatus(StatusDisconnected)
}

func (r *Router) onDismiss() {
	if r.shownErr == nil {
		return
	}
	terminal := r.shownErr.Kind.Terminal()
	r.clearError()
	if terminal && r.status == StatusError {
		r.setStatus(StatusDisconnected)
	}
}

func (r *Router) startSource() {
	r.stopSource()
	if r.deps.Source.Capability() == CapabilityUnavailable {
		r.fatal(NewVoiceError(KindCapabilityUnsupported, nil))
		return
	}
	// A restart during an utterance keeps the status the user sees.
	if !r.busy() && !r.armed {
		r.setStatus(StatusConnecting)
	}

	ctx, cancel := context.WithCancel(r.runCtx)
	events, err := r.deps.Source.Start(ctx)
	if err != nil {
		cancel()
		switch {
		case errors.Is(err, ErrPermissionDenied):
			r.fatal(NewVoiceError(KindPermissionDenied, err))
		case errors.Is(err, ErrCapabilityUnsupported):
			r.fatal(NewVoiceError(KindCapabilityUnsupported, err))
		default:
			r.transportFailure(err)
		}
		return
	}
	r.srcCancel = cancel

	session := r.session
	go func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					r.post(sourceMsg{session: session, ev: SourceEvent{Kind: SourceEnd}})
					return
				}
				r.post(sourceMsg{session: session, ev: ev})
			case <-ctx.Done():
				return
			}
		}
	}()
}

// stopSource ends the current source session. Events still queued from it
// are dropped by the session check.
func (r *Router) stopSource() {
	r.session++
	if r.srcCancel != nil {
		r.srcCancel()
		r.srcCancel = nil
		r.deps.Source.Stop()
	}
}

func (r *Router) abandonWork() {
	r.gen++
	r.inFlight = false
	if r.workCancel != nil {
		r.workCancel()
		r.workCancel = nil
	}
}

func (r *Router) onSourceEvent(ev SourceEvent) {
	switch ev.Kind {
	case SourceReady:
		if r.status == StatusConnecting {
			r.setStatus(StatusListening)
		}
	case SourceSegment:
		if r.status == StatusConnecting {
			r.setStatus(StatusListening)
		}
		if !ev.Segment.IsFinal {
			r.deps.Sink.Partial(ev.Segment.Text)
			return
		}
		r.onFinal(NormalizeUtterance(ev.Segment.Text))
	case SourceError:
		r.onSourceError(ev)
	case SourceEnd:
		// The recognizer stops on its own after silence; keep listening.
		r.log.Debug("transcription session ended, restarting")
		r.startSource()
	}
}

func (r *Router) onSourceError(ev SourceEvent) {
	r.log.Debug("transcription source error", zap.String("code", ev.Code), zap.String("detail", ev.Detail))
	cause := errors.New(ev.Code)
	if ev.Detail != "" {
		cause = errors.New(ev.Code + ": " + ev.Detail)
	}

	switch ev.Code {
	case CodeNoSpeech:
	case CodeAborted:
		r.teardown()
	case CodeNotAllowed, CodeServiceNotAllowed:
		r.fatal(NewVoiceError(KindPermissionDenied, cause))
	case CodeAudioCapture, CodeLanguageNotSupported:
		r.fatal(NewVoiceError(KindCapabilityUnsupported, cause))
	case CodeNetwork:
		r.transportFailure(cause)
	case CodeTranscriptionFailed:
		r.showError(NewVoiceError(KindRemoteServiceFailure, cause))
	default:
		r.fatal(NewVoiceError(KindUnknown, cause))
	}
}

func (r *Router) busy() bool {
	return r.inFlight || r.status == StatusProcessing
}

func (r *Router) onFinal(text string) {
	if text == "" {
		return
	}
	detected := r.deps.Detector.Detect(text)

	if r.busy() {
		if detected {
			r.pending, r.hasPending = text, true
			r.log.Debug("buffered override while busy", zap.String("text", text))
		}
		return
	}

	command := text
	switch {
	case r.armed || r.followUp:
		if detected {
			r.deps.Sink.WakeWordDetected()
			command = r.deps.Detector.ExtractCommand(text)
		}
	case detected:
		r.deps.Sink.WakeWordDetected()
		command = r.deps.Detector.ExtractCommand(text)
	default:
		return
	}

	if command == "" {
		r.arm()
		return
	}
	r.disarm()
	r.dispatch(command)
}

func (r *Router) arm() {
	r.armed = true
	r.setStatus(StatusWakeArmed)
	r.startTimer(timerWake, r.cfg.WakeTimeout)
}

func (r *Router) disarm() {
	r.armed = false
	r.cancelTimer(timerWake)
}

func (r *Router) dispatch(command string) {
	r.gen++
	gen := r.gen
	r.inFlight = true
	r.lastCommand = command
	r.cancelTimer(timerFollowUp)
	if r.shownErr != nil && r.shownErr.Kind.Transient() {
		r.clearError()
	}
	r.publish()

	ctx, cancel := context.WithCancel(r.runCtx)
	r.workCancel = cancel
	vc := r.deps.Context.Current()

	r.log.Info("dispatching voice command", zap.String("command", command), zap.Uint64("generation", gen))
	go func() {
		out := r.deps.Handler.Handle(ctx, command, vc, func(s Status) {
			r.post(progressMsg{gen: gen, status: s})
		})
		r.post(resultMsg{gen: gen, command: command, out: out})
	}()
}

func (r *Router) onResult(command string, out Outcome) {
	r.inFlight = false
	if r.workCancel != nil {
		r.workCancel()
		r.workCancel = nil
	}

	switch out.Kind {
	case OutcomeNavigation:
		r.setFollowUp(false)
		r.setStatus(StatusProcessing)
		r.deps.Sink.Navigate(*out.Route, command)
		r.startTimer(timerDisplay, r.cfg.NavigationDelay)
		return
	case OutcomeCooking:
		r.setFollowUp(false)
		r.setStatus(StatusProcessing)
		r.deps.Sink.CookingControl(*out.Cooking)
		r.startTimer(timerDisplay, r.cfg.NavigationDelay)
		return
	case OutcomeFailed:
		r.setFollowUp(false)
		if out.Err == nil {
			out.Err = NewVoiceError(KindUnknown, nil)
		}
		r.showError(out.Err)
	default:
		r.deps.Sink.Answer(command, out.Answer)
		if out.Route != nil {
			r.deps.Sink.Navigate(*out.Route, command)
		}
		r.setFollowUp(out.FollowUp)
		if out.FollowUp {
			r.startTimer(timerFollowUp, r.cfg.FollowUpTimeout)
		}
	}
	r.backToListening()
}

// backToListening ends the utterance cycle and replays a buffered override.
func (r *Router) backToListening() {
	r.setStatus(StatusListening)
	if r.hasPending {
		text := r.pending
		r.pending, r.hasPending = "", false
		r.onFinal(text)
	}
}

func (r *Router) onTimer(kind timerKind) {
	r.timers[kind] = nil
	switch kind {
	case timerWake:
		if r.armed {
			r.armed = false
			r.setStatus(StatusListening)
		}
	case timerFollowUp:
		r.setFollowUp(false)
	case timerDisplay:
		if r.status == StatusProcessing && !r.inFlight {
			r.backToListening()
		}
	case timerReconnect:
		if r.connected && r.status == StatusError {
			r.clearError()
			r.startSource()
		}
	}
}

func (r *Router) startTimer(kind timerKind, d time.Duration) {
	r.cancelTimer(kind)
	token := r.timerTokens[kind]
	r.timers[kind] = time.AfterFunc(d, func() {
		r.post(timerMsg{kind: kind, token: token})
	})
}

func (r *Router) cancelTimer(kind timerKind) {
	r.timerTokens[kind]++
	if t := r.timers[kind]; t != nil {
		t.Stop()
		r.timers[kind] = nil
	}
}

func (r *Router) setFollowUp(active bool) {
	if r.followUp == active {
		return
	}
	r.followUp = active
	if !active {
		r.cancelTimer(timerFollowUp)
	}
	r.deps.Sink.ConversationActive(active)
}

// fatal shows a terminal error. Only an explicit Connect leaves it.
func (r *Router) fatal(err *VoiceError) {
	r.log.Warn("voice pipeline stopped", zap.Stringer("kind", err.Kind), zap.Error(err))
	r.connected = false
	r.stopSource()
	r.abandonWork()
	r.disarm()
	r.setFollowUp(false)
	r.showError(err)
	r.setStatus(StatusError)
}

// transportFailure shows the error and schedules a reconnect.
func (r *Router) transportFailure(cause error) {
	r.log.Warn("voice transport failed, reconnecting",
		zap.Duration("backoff", r.cfg.ReconnectBackoff),
		zap.Error(cause),
	)
	r.stopSource()
	r.abandonWork()
	r.hasPending = false
	r.disarm()
	r.showError(NewVoiceError(KindTransportFailure, cause))
	r.setStatus(StatusError)
	r.startTimer(timerReconnect, r.cfg.ReconnectBackoff)
}

func (r *Router) showError(err *VoiceError) {
	r.shownErr = err
	r.deps.Metrics.RecordVoiceError(r.runCtx, err.Kind.String())
	r.deps.Sink.Error(err)
}

func (r *Router) clearError() {
	if r.shownErr == nil {
		return
	}
	r.shownErr = nil
	r.deps.Sink.ErrorCleared()
}

func (r *Router) setStatus(s Status) {
	if s == r.status {
		return
	}
	r.log.Debug("status transition", zap.Stringer("from", r.status), zap.Stringer("to", s))
	r.status = s
	r.deps.Metrics.RecordStatus(r.runCtx, s.String())
	r.publish()
	r.deps.Sink.StatusChanged(s, r.lastCommand)
}

func (r *Router) publish() {
	r.snapMu.Lock()
	r.snapStat = r.status
	r.snapLast = r.lastCommand
	r.snapMu.Unlock()
}

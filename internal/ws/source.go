package ws

import (
	"context"
	"sync"

	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/voice"
	"go.uber.org/zap"
)

const sourceBuffer = 32

// eventStream is the per-session event channel shared by both sources.
// Events delivered while no session is open are dropped.
type eventStream struct {
	mu     sync.Mutex
	events chan voice.SourceEvent
}

func (s *eventStream) open() <-chan voice.SourceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(chan voice.SourceEvent, sourceBuffer)
	return s.events
}

// close ends the session. The channel is left to the garbage collector; the
// router stops reading it when it cancels the session context.
func (s *eventStream) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasOpen := s.events != nil
	s.events = nil
	return wasOpen
}

func (s *eventStream) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events != nil
}

func (s *eventStream) deliver(ev voice.SourceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
		logger.Get().Warn("transcription event dropped, router not keeping up")
	}
}

// BrowserSource relays the browser's speech recognition. Start and Stop
// are forwarded as start_recognition and stop_recognition; the browser's
// transcript, error and end messages come back through the session.
type BrowserSource struct {
	eventStream
	send func(msgType string, payload interface{}) bool

	capMu     sync.Mutex
	supported bool
}

// NewBrowserSource creates a source that talks to the browser through send.
func NewBrowserSource(send func(msgType string, payload interface{}) bool) *BrowserSource {
	return &BrowserSource{send: send, supported: true}
}

// SetSupported records what the browser reported in hello.
func (s *BrowserSource) SetSupported(ok bool) {
	s.capMu.Lock()
	defer s.capMu.Unlock()
	s.supported = ok
}

func (s *BrowserSource) Capability() voice.Capability {
	s.capMu.Lock()
	defer s.capMu.Unlock()
	if !s.supported {
		return voice.CapabilityUnavailable
	}
	return voice.CapabilityAvailable
}

func (s *BrowserSource) Start(ctx context.Context) (<-chan voice.SourceEvent, error) {
	events := s.open()
	if !s.send(MsgTypeStartRecognition, nil) {
		s.close()
		return nil, errClientGone
	}
	return events, nil
}

func (s *BrowserSource) Stop() {
	if s.close() {
		s.send(MsgTypeStopRecognition, nil)
	}
}

// Ready reports that the browser recognizer is capturing.
func (s *BrowserSource) Ready() {
	s.deliver(voice.SourceEvent{Kind: voice.SourceReady})
}

// Transcript forwards a recognizer segment.
func (s *BrowserSource) Transcript(text string, final bool) {
	s.deliver(voice.SourceEvent{Kind: voice.SourceSegment, Segment: voice.Segment{Text: text, IsFinal: final}})
}

// Fail forwards a recognizer error code.
func (s *BrowserSource) Fail(code, detail string) {
	s.deliver(voice.SourceEvent{Kind: voice.SourceError, Code: code, Detail: detail})
}

// End reports that the recognizer session ended on its own.
func (s *BrowserSource) End() {
	s.deliver(voice.SourceEvent{Kind: voice.SourceEnd})
}

// WhisperSource transcribes recorded utterances with a SpeechProvider.
// The browser records while the source is started and posts each utterance
// as audio_utterance.
type WhisperSource struct {
	eventStream
	speech ai.SpeechProvider
	send   func(msgType string, payload interface{}) bool
}

// NewWhisperSource creates a source transcribing with speech.
func NewWhisperSource(speech ai.SpeechProvider, send func(msgType string, payload interface{}) bool) *WhisperSource {
	return &WhisperSource{speech: speech, send: send}
}

func (s *WhisperSource) Capability() voice.Capability {
	if s.speech == nil {
		return voice.CapabilityUnavailable
	}
	return voice.CapabilityAvailable
}

func (s *WhisperSource) Start(ctx context.Context) (<-chan voice.SourceEvent, error) {
	events := s.open()
	if !s.send(MsgTypeStartRecognition, nil) {
		s.close()
		return nil, errClientGone
	}
	s.deliver(voice.SourceEvent{Kind: voice.SourceReady})
	return events, nil
}

func (s *WhisperSource) Stop() {
	if s.close() {
		s.send(MsgTypeStopRecognition, nil)
	}
}

// Transcribe turns one utterance into a final segment. Audio received
// while stopped is ignored.
func (s *WhisperSource) Transcribe(ctx context.Context, audio []byte, format string) {
	if !s.active() {
		return
	}
	text, err := s.speech.TranscribeAudio(ctx, audio, format)
	if err != nil {
		logger.Get().Warn("utterance transcription failed", zap.Error(err))
		s.deliver(voice.SourceEvent{Kind: voice.SourceError, Code: voice.CodeTranscriptionFailed, Detail: err.Error()})
		return
	}
	s.deliver(voice.SourceEvent{Kind: voice.SourceSegment, Segment: voice.Segment{Text: text, IsFinal: true}})
}

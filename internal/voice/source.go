package voice

import "context"

// Capability tells whether a transcription source can run on this client.
type Capability int

const (
	CapabilityAvailable Capability = iota
	CapabilityUnavailable
)

// SourceEventKind is the kind of a SourceEvent.
type SourceEventKind int

const (
	// SourceReady: the source is capturing.
	SourceReady SourceEventKind = iota
	// SourceSegment carries a partial or final transcript segment.
	SourceSegment
	// SourceError carries an error code.
	SourceError
	// SourceEnd: the session ended. A closed channel means the same.
	SourceEnd
)

// Error codes reported by transcription sources. They follow the browser
// speech-recognition error names.
const (
	CodeNoSpeech             = "no-speech"
	CodeAborted              = "aborted"
	CodeNotAllowed           = "not-allowed"
	CodeServiceNotAllowed    = "service-not-allowed"
	CodeAudioCapture         = "audio-capture"
	CodeLanguageNotSupported = "language-not-supported"
	CodeNetwork              = "network"
	CodeTranscriptionFailed  = "transcription-failed"
)

// Segment is a piece of transcript. Only final segments are acted on.
type Segment struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

// SourceEvent is one event of a transcription session.
type SourceEvent struct {
	Kind    SourceEventKind
	Segment Segment
	Code    string
	Detail  string
}

// TranscriptionSource produces transcript segments. Each Start begins a new
// session whose events arrive on the returned channel until Stop is called
// or ctx is canceled. Start returns ErrPermissionDenied or
// ErrCapabilityUnsupported for failures no retry can fix.
type TranscriptionSource interface {
	Capability() Capability
	Start(ctx context.Context) (<-chan SourceEvent, error)
	Stop()
}

package ws

import (
	"encoding/json"

	"github.com/windoze95/reme-voice/internal/voice"
)

// Message types sent by the browser.
const (
	MsgTypeHello            = "hello"             // Capabilities and conversation id
	MsgTypeStart            = "start"             // Start listening
	MsgTypeStop             = "stop"              // Stop listening
	MsgTypeSpeechStarted    = "speech_started"    // Recognizer is capturing
	MsgTypeTranscript       = "transcript"        // Partial or final transcript
	MsgTypeSpeechError      = "speech_error"      // Recognizer error code
	MsgTypeSpeechEnded      = "speech_ended"      // Recognizer session ended
	MsgTypeAudioUtterance   = "audio_utterance"   // Recorded utterance for Whisper
	MsgTypeUpdateContext    = "update_context"    // Voice context patch
	MsgTypeFunctionResponse = "function_response" // Result of a function request
	MsgTypeDismissError     = "dismiss_error"     // User closed the error banner
	MsgTypePing             = "ping"
)

// Message types sent by the server.
const (
	MsgTypeConnected          = "connected"
	MsgTypeStatus             = "status"
	MsgTypeStartRecognition   = "start_recognition"
	MsgTypeStopRecognition    = "stop_recognition"
	MsgTypePartial            = "partial"
	MsgTypeWakeWordDetected   = "wake_word_detected"
	MsgTypeNavigation         = "navigation"
	MsgTypeCookingControl     = "cooking_control"
	MsgTypeLLMResponse        = "llm_response"
	MsgTypeConversationActive = "conversation_active"
	MsgTypeFunctionRequest    = "function_request"
	MsgTypeError              = "error"
	MsgTypeErrorCleared       = "error_cleared"
	MsgTypePong               = "pong"
)

// WSMessage is the envelope for all messages sent over the voice WebSocket.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HelloPayload is the first message of a browser session.
type HelloPayload struct {
	SpeechSupported bool   `json:"speechSupported"`
	ConversationID  string `json:"conversationId,omitempty"`
}

// TranscriptPayload carries a recognizer segment.
type TranscriptPayload struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

// SpeechErrorPayload carries a recognizer error. Error is the browser's
// error code (no-speech, not-allowed, network...).
type SpeechErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AudioUtterancePayload carries one recorded utterance.
type AudioUtterancePayload struct {
	Audio  []byte `json:"audio"` // base64-encoded
	Format string `json:"format,omitempty"`
}

// UpdateContextPayload carries a voice context patch.
type UpdateContextPayload struct {
	Context voice.ContextPatch `json:"context"`
}

// FunctionResponsePayload answers a tools.FunctionRequest.
type FunctionResponsePayload struct {
	RequestID string          `json:"requestId"`
	Result    json.RawMessage `json:"result"`
}

// ConnectedPayload confirms a successful connection.
type ConnectedPayload struct {
	SessionID      string `json:"sessionId"`
	ConversationID string `json:"conversationId"`
	Transport      string `json:"transport"`
}

// StatusPayload reports the pipeline status.
type StatusPayload struct {
	Status      voice.Status `json:"status"`
	LastCommand string       `json:"lastCommand,omitempty"`
}

// PartialPayload is an interim transcript echoed for display.
type PartialPayload struct {
	Text string `json:"text"`
}

// NavigationPayload asks the UI to change route.
type NavigationPayload struct {
	Route       string `json:"route"`
	DisplayName string `json:"displayName,omitempty"`
	Command     string `json:"command,omitempty"`
}

// LLMResponsePayload carries an assistant answer.
type LLMResponsePayload struct {
	Question string `json:"question,omitempty"`
	Response string `json:"response"`
}

// ConversationActivePayload reports the continuous-conversation window.
type ConversationActivePayload struct {
	Active bool `json:"active"`
}

// ErrorPayload carries an error to the client. Kind is empty for protocol
// errors.
type ErrorPayload struct {
	Kind       string `json:"kind,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

package ws

import (
	"github.com/windoze95/reme-voice/internal/voice"
)

// sessionSink turns router effects into protocol messages for one client.
type sessionSink struct {
	send func(msgType string, payload interface{}) bool
}

func (s sessionSink) StatusChanged(status voice.Status, lastCommand string) {
	s.send(MsgTypeStatus, StatusPayload{Status: status, LastCommand: lastCommand})
}

func (s sessionSink) Partial(text string) {
	s.send(MsgTypePartial, PartialPayload{Text: text})
}

func (s sessionSink) WakeWordDetected() {
	s.send(MsgTypeWakeWordDetected, nil)
}

func (s sessionSink) Navigate(route voice.Route, command string) {
	s.send(MsgTypeNavigation, NavigationPayload{
		Route:       route.Path,
		DisplayName: route.DisplayName,
		Command:     command,
	})
}

func (s sessionSink) CookingControl(cc voice.CookingControl) {
	s.send(MsgTypeCookingControl, cc)
}

func (s sessionSink) Answer(question, answer string) {
	s.send(MsgTypeLLMResponse, LLMResponsePayload{Question: question, Response: answer})
}

func (s sessionSink) ConversationActive(active bool) {
	s.send(MsgTypeConversationActive, ConversationActivePayload{Active: active})
}

func (s sessionSink) Error(err *voice.VoiceError) {
	s.send(MsgTypeError, errorPayload(err))
}

func (s sessionSink) ErrorCleared() {
	s.send(MsgTypeErrorCleared, nil)
}

func errorPayload(err *voice.VoiceError) ErrorPayload {
	return ErrorPayload{
		Kind:       err.Kind.String(),
		Message:    err.Message,
		Suggestion: err.Suggestion,
	}
}

// PublishOutcome mirrors the effects of a text command to the voice clients
// of roomID.
func (h *Hub) PublishOutcome(roomID, command string, out voice.Outcome) {
	sink := sessionSink{send: func(msgType string, payload interface{}) bool {
		h.Publish(roomID, msgType, payload)
		return true
	}}
	switch out.Kind {
	case voice.OutcomeNavigation:
		sink.Navigate(*out.Route, command)
	case voice.OutcomeCooking:
		sink.CookingControl(*out.Cooking)
	case voice.OutcomeFailed:
		if out.Err != nil {
			sink.Error(out.Err)
		}
	default:
		sink.Answer(command, out.Answer)
		if out.Route != nil {
			sink.Navigate(*out.Route, command)
		}
	}
}

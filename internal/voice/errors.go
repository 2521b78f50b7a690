package voice

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies a VoiceError.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindCapabilityUnsupported
	KindPermissionDenied
	KindTransportFailure
	KindRemoteServiceFailure
	KindFunctionExecutionFailure
)

var kindNames = map[ErrorKind]string{
	KindUnknown:                  "unknown",
	KindCapabilityUnsupported:    "capability_unsupported",
	KindPermissionDenied:         "permission_denied",
	KindTransportFailure:         "transport_failure",
	KindRemoteServiceFailure:     "remote_service_failure",
	KindFunctionExecutionFailure: "function_execution_failure",
}

func (k ErrorKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// MarshalJSON encodes the kind as its wire name.
func (k ErrorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Terminal kinds need an explicit connect from the user.
func (k ErrorKind) Terminal() bool {
	return k == KindCapabilityUnsupported || k == KindPermissionDenied || k == KindUnknown
}

// Transient kinds are shown as a banner while the pipeline keeps listening.
func (k ErrorKind) Transient() bool {
	return k == KindRemoteServiceFailure || k == KindFunctionExecutionFailure
}

// Errors a TranscriptionSource returns from Start.
var (
	ErrPermissionDenied      = errors.New("microphone permission denied")
	ErrCapabilityUnsupported = errors.New("speech recognition not supported")
)

// VoiceError is the user-facing error of the pipeline.
type VoiceError struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion"`
	cause      error
}

func (e *VoiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *VoiceError) Unwrap() error { return e.cause }

// NewVoiceError builds an error of the given kind with its default message
// and suggestion.
func NewVoiceError(kind ErrorKind, cause error) *VoiceError {
	e := &VoiceError{Kind: kind, cause: cause}
	switch kind {
	case KindCapabilityUnsupported:
		e.Message = "Tu navegador no soporta reconocimiento de voz."
		e.Suggestion = "Usa Chrome o Edge en una versión reciente."
	case KindPermissionDenied:
		e.Message = "No tengo permiso para usar el micrófono."
		e.Suggestion = "Permite el acceso al micrófono en la configuración del navegador y vuelve a intentarlo."
	case KindTransportFailure:
		e.Message = "Se perdió la conexión de voz."
		e.Suggestion = "Reintentando en unos segundos. Revisa tu conexión a internet."
	case KindRemoteServiceFailure:
		e.Message = "No pude comunicarme con el asistente."
		e.Suggestion = "Verifica que el servidor del modelo esté encendido e inténtalo de nuevo."
	case KindFunctionExecutionFailure:
		e.Message = "No pude completar la acción solicitada."
		e.Suggestion = "Inténtalo de nuevo o hazlo desde la pantalla correspondiente."
	default:
		e.Kind = KindUnknown
		e.Message = "Ocurrió un error inesperado con el reconocimiento de voz."
		e.Suggestion = "Pulsa el micrófono para volver a intentarlo."
	}
	return e
}

// AsVoiceError returns err as a VoiceError, wrapping it as kind when it is
// not one already.
func AsVoiceError(err error, kind ErrorKind) *VoiceError {
	var ve *VoiceError
	if errors.As(err, &ve) {
		return ve
	}
	return NewVoiceError(kind, err)
}

// Package voice implements the Rem-E voice intent pipeline: wake-word
// gating, intent classification, navigation resolution, the conversational
// agent with its function-calling loop, and the router that drives the
// pipeline status.
package voice

import (
	"encoding/json"
	"fmt"
)

// Status is the single pipeline status value of a Router.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusListening
	StatusWakeArmed
	StatusThinking
	StatusExecutingFunction
	StatusProcessing
	StatusError
)

var statusNames = [...]string{
	StatusDisconnected:      "disconnected",
	StatusConnecting:        "connecting",
	StatusListening:         "listening",
	StatusWakeArmed:         "wake_armed",
	StatusThinking:          "thinking",
	StatusExecutingFunction: "executing_function",
	StatusProcessing:        "processing",
	StatusError:             "error",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalJSON encodes the status as its wire name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Busy reports whether an utterance is being worked on.
func (s Status) Busy() bool {
	return s == StatusThinking || s == StatusExecutingFunction || s == StatusProcessing
}

package voice

// Sink receives the effects of a Router. Calls come from the router loop
// one at a time and must not block.
type Sink interface {
	StatusChanged(status Status, lastCommand string)
	Partial(text string)
	WakeWordDetected()
	Navigate(route Route, command string)
	CookingControl(cc CookingControl)
	Answer(question, answer string)
	ConversationActive(active bool)
	Error(err *VoiceError)
	ErrorCleared()
}

// NopSink discards every effect.
type NopSink struct{}

func (NopSink) StatusChanged(Status, string)  {}
func (NopSink) Partial(string)                {}
func (NopSink) WakeWordDetected()             {}
func (NopSink) Navigate(Route, string)        {}
func (NopSink) CookingControl(CookingControl) {}
func (NopSink) Answer(string, string)         {}
func (NopSink) ConversationActive(bool)       {}
func (NopSink) Error(*VoiceError)             {}
func (NopSink) ErrorCleared()                 {}

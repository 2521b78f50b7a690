package voice

import (
	"encoding/json"
	"strings"
)

// Intent is the closed set of actions an utterance can request.
type Intent int

const (
	IntentGeneralQuestion Intent = iota
	IntentNavigation
	IntentInventoryAction
	IntentApplianceAction
	IntentRecipeSearch
	IntentCookingControl
)

// intentLabels is also the substring search order used for remote labels.
// INVENTORY_ACTION and friends come before NAVIGATION so a label like
// "INVENTORY_ACTION (not NAVIGATION)" resolves to the action.
var intentLabels = []struct {
	intent Intent
	label  string
}{
	{IntentInventoryAction, "INVENTORY_ACTION"},
	{IntentApplianceAction, "APPLIANCE_ACTION"},
	{IntentRecipeSearch, "RECIPE_SEARCH"},
	{IntentCookingControl, "COOKING_CONTROL"},
	{IntentNavigation, "NAVIGATION"},
	{IntentGeneralQuestion, "GENERAL_QUESTION"},
}

// Label returns the upper-case token used on the wire and by the remote
// classifier.
func (i Intent) Label() string {
	for _, l := range intentLabels {
		if l.intent == i {
			return l.label
		}
	}
	return "GENERAL_QUESTION"
}

func (i Intent) String() string { return strings.ToLower(i.Label()) }

// MarshalJSON encodes the intent as its label.
func (i Intent) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Label())
}

// UnmarshalJSON accepts any string and maps it through ParseIntentLabel.
func (i *Intent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*i = ParseIntentLabel(s)
	return nil
}

// ParseIntentLabel upper-cases raw and returns the first known label it
// contains. Anything unrecognized is a general question.
func ParseIntentLabel(raw string) Intent {
	up := strings.ToUpper(raw)
	for _, l := range intentLabels {
		if strings.Contains(up, l.label) {
			return l.intent
		}
	}
	return IntentGeneralQuestion
}

// Intents lists every member of the closed set.
func Intents() []Intent {
	out := make([]Intent, 0, len(intentLabels))
	for _, l := range intentLabels {
		out = append(out, l.intent)
	}
	return out
}

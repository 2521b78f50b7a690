package voice

import "strings"

var followUpPhrases = foldAll(
	"dónde", "cuántos", "cuántas", "cuál", "cuáles", "qué tipo", "qué ubicación",
)

// AsksFollowUp reports whether an answer asks the user something, which
// opens the continuous-conversation window.
func AsksFollowUp(answer string) bool {
	if strings.ContainsAny(answer, "¿?") {
		return true
	}
	return newPhraseText(answer).hasAny(followUpPhrases)
}

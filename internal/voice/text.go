package voice

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeUtterance lowercases and collapses whitespace. Accents are kept
// so the text can be shown back to the user.
func NormalizeUtterance(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// fold lowercases and strips diacritics so "cuántos" matches "cuantos".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// phraseText is folded text reduced to space separated words, padded so
// whole-word phrases can be found with a plain substring test.
type phraseText struct {
	padded string
	words  []string
}

func newPhraseText(s string) phraseText {
	words := strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return phraseText{padded: " " + strings.Join(words, " ") + " ", words: words}
}

func (p phraseText) has(phrase string) bool {
	return strings.Contains(p.padded, " "+phrase+" ")
}

func (p phraseText) hasAny(phrases []string) bool {
	for _, ph := range phrases {
		if p.has(ph) {
			return true
		}
	}
	return false
}

func (p phraseText) wordCount() int { return len(p.words) }

// foldAll folds a keyword table once at init.
func foldAll(in ...string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.Join(newPhraseText(s).words, " ")
	}
	return out
}

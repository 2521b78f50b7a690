package voice

import (
	"strings"
)

// DefaultWakeWords are the spellings speech recognizers produce for "Rem-E".
var DefaultWakeWords = []string{"rem-e", "remy", "remi", "reme"}

const commandTrimSet = " \t\n,.:;!¡?¿-"

// WakeWordDetector finds the assistant's name in a transcript. Matching is
// a case-insensitive exact substring test against a fixed variant list.
type WakeWordDetector struct {
	variants []string
}

// NewWakeWordDetector builds a detector. Empty variants are ignored; an
// empty list falls back to DefaultWakeWords.
func NewWakeWordDetector(variants []string) *WakeWordDetector {
	var vs []string
	for _, v := range variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			vs = append(vs, v)
		}
	}
	if len(vs) == 0 {
		vs = append(vs, DefaultWakeWords...)
	}
	return &WakeWordDetector{variants: vs}
}

// Variants returns the configured spellings.
func (d *WakeWordDetector) Variants() []string {
	return append([]string(nil), d.variants...)
}

// Detect reports whether text contains any variant.
func (d *WakeWordDetector) Detect(text string) bool {
	_, _, ok := d.find(strings.ToLower(text))
	return ok
}

// ExtractCommand returns what follows the first variant in text, trimmed.
// Text without a variant is returned unchanged.
func (d *WakeWordDetector) ExtractCommand(text string) string {
	lower := strings.ToLower(text)
	start, length, ok := d.find(lower)
	if !ok {
		return text
	}
	// Byte offsets from lower only map onto text when lowering kept the
	// length.
	base := text
	if len(lower) != len(text) {
		base = lower
	}
	return strings.Trim(base[start+length:], commandTrimSet)
}

// find returns the earliest match in already-lowercased text; at equal
// positions the longer variant wins.
func (d *WakeWordDetector) find(lower string) (start, length int, ok bool) {
	start = -1
	for _, v := range d.variants {
		i := strings.Index(lower, v)
		if i < 0 {
			continue
		}
		if start < 0 || i < start || (i == start && len(v) > length) {
			start, length = i, len(v)
		}
	}
	return start, length, start >= 0
}

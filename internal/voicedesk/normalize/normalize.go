// Package normalize cleans raw utterances before they reach the NLU engine.
//
// Users dictating credentials tend to spell them out letter by letter
// ("p a s s 1" or "p.a.s.s.1"), which the NLU engine cannot match against
// its entities.  Unspell collapses each spelled run back into a single
// token while leaving ordinary words untouched.  The voice platform also
// sometimes prepends the skill's wake phrase to the captured slot value;
// StripWakePhrase removes it before normalization.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// spelledRun matches a run of at least two single characters each followed by
// a space or period, optionally capturing a final bare character at the end
// of the utterance ("p a s s 1").  The run must start at the beginning of the
// string or after whitespace so the tail of a normal word never qualifies.
var spelledRun = regexp.MustCompile(`(^|\s)((\S[\s.]){2,})(\S$)?`)

// Unspell collapses every spelled-out run in s into a single token, removing
// the spaces and periods that separated the characters.  Utterances without a
// spelled run are returned unchanged apart from surrounding whitespace.
// Unspell is pure and idempotent.
func Unspell(s string) string {
	out := spelledRun.ReplaceAllStringFunc(s, func(m string) string {
		var b strings.Builder
		for _, r := range m {
			if unicode.IsSpace(r) || r == '.' {
				continue
			}
			b.WriteRune(r)
		}
		return " " + b.String() + " "
	})
	return strings.TrimSpace(out)
}

// StripWakePhrase removes phrase from the start of s, case-insensitively,
// and trims surrounding whitespace.  When s does not start with phrase the
// input is returned trimmed but otherwise unchanged.
func StripWakePhrase(s, phrase string) string {
	if phrase != "" && len(s) >= len(phrase) && strings.EqualFold(s[:len(phrase)], phrase) {
		s = s[len(phrase):]
	}
	return strings.TrimSpace(s)
}

// Clean applies the full normalization sequence used for slot-derived input:
// wake-phrase stripping followed by unspelling.
func Clean(s, wakePhrase string) string {
	return Unspell(StripWakePhrase(s, wakePhrase))
}

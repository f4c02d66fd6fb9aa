// Package moderation censors blacklisted words in message content before
// it reaches persistence, so the stored, pushed, and confirmed copies of a
// record always agree.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator matches censored words with an Aho-Corasick automaton built
// once at startup. Matching is case-insensitive; the original casing and
// length of the message are preserved, matched spans are overwritten with
// the replacement rune.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

func NewModerator(censoredWords []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, len(censoredWords))
	for i, word := range censoredWords {
		patterns[i] = lowered([]rune(word))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor replaces every matched span with the replacement rune.
func (m *Moderator) Censor(content string) string {
	runes := []rune(content)
	spans := m.matcher.MultiPatternSearch(lowered(runes), false)
	if len(spans) == 0 {
		return content
	}

	for _, span := range spans {
		end := span.Pos + len(span.Word)
		if span.Pos < 0 || end > len(runes) {
			continue
		}
		for i := span.Pos; i < end; i++ {
			runes[i] = m.replacement
		}
	}
	return string(runes)
}

func lowered(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = unicode.ToLower(r)
	}
	return out
}

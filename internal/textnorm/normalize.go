// Package textnorm canonicalizes free-text fields from heterogeneous
// providers so they can be compared during duplicate resolution.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// minKeywordLen is the minimum token length (exclusive) for a token to
// count as a keyword.
const minKeywordLen = 3

// stopwords are discarded during keyword extraction: articles, prepositions
// and generic event-marketing words that carry no discriminating signal.
// Tuning constant, not a contract detail.
var stopwords = map[string]struct{}{
	// English
	"this": {}, "that": {}, "with": {}, "from": {}, "into": {},
	"tour": {}, "live": {}, "show": {}, "night": {}, "party": {},
	"event": {}, "free": {}, "tickets": {},
	// Spanish
	"este": {}, "esta": {}, "para": {}, "desde": {}, "entre": {},
	"hasta": {}, "sobre": {}, "gira": {}, "noche": {}, "fiesta": {},
	"evento": {}, "gratis": {}, "entradas": {},
}

// Normalize canonicalizes free text: lowercase, strip diacritical marks,
// drop every character outside [a-z0-9 ], collapse whitespace runs, trim.
// Deterministic and total; empty in, empty out.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lower := strings.ToLower(text)

	// NFD decomposition separates base characters from combining marks,
	// so "Colón" and "Colon" normalize to the same string.
	decomposed := norm.NFD.String(lower)

	var b strings.Builder
	b.Grow(len(decomposed))
	lastSpace := true // leading whitespace is trimmed
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark, dropped
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || isSeparatorPunct(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			// punctuation and symbols are removed without leaving a gap
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// isSeparatorPunct reports whether a punctuation rune acts as a word
// separator ("rock/pop", "jazz-fusion") rather than an infix to collapse.
func isSeparatorPunct(r rune) bool {
	switch r {
	case '-', '/', '|', '\\', '_', '+', '&':
		return true
	}
	return false
}

// Keywords extracts the significant token set from a title: tokens of the
// normalized text longer than minKeywordLen runes, minus stopwords and
// purely numeric tokens (years and edition numbers restate the date, they
// do not identify the event). Returns an empty set for empty input.
func Keywords(title string) map[string]struct{} {
	normalized := Normalize(title)
	if normalized == "" {
		return map[string]struct{}{}
	}

	keywords := make(map[string]struct{})
	for _, token := range strings.Fields(normalized) {
		if len([]rune(token)) <= minKeywordLen {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		if isNumeric(token) {
			continue
		}
		keywords[token] = struct{}{}
	}
	return keywords
}

// isNumeric reports whether the token consists solely of digits.
func isNumeric(token string) bool {
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Package tokenizer splits document text into words and raw query strings
// into query tokens. Words are kept verbatim: no case folding, stemming, or
// stop-word removal is applied.
package tokenizer

import (
	"strings"
	"unicode"
)

// Words breaks text on every rune that is neither a letter nor a digit.
// Duplicates and order are preserved.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Query splits a raw query into tokens. Brackets always form their own
// token, so "(cat OR dog)" yields "(", "cat", "OR", "dog", ")". Operator
// keywords pass through untouched; any other token is reduced to its word
// characters the same way Words does, so query atoms match indexed words.
// An atom that breaks into several words, such as "dog's", becomes the
// bracketed conjunction "( dog AND s )".
func Query(text string) []string {
	tokens := make([]string, 0, 8)
	var sb strings.Builder
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		words := Words(sb.String())
		sb.Reset()
		if len(words) <= 1 {
			tokens = append(tokens, words...)
			return
		}
		tokens = append(tokens, "(")
		for i, w := range words {
			if i > 0 {
				tokens = append(tokens, "AND")
			}
			tokens = append(tokens, w)
		}
		tokens = append(tokens, ")")
	}
	for _, field := range strings.Fields(text) {
		switch field {
		case "AND", "OR", "ANDNOT":
			tokens = append(tokens, field)
			continue
		}
		for _, r := range field {
			if r == '(' || r == ')' {
				flush()
				tokens = append(tokens, string(r))
				continue
			}
			sb.WriteRune(r)
		}
		flush()
	}
	return tokens
}

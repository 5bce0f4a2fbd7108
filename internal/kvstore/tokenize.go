package kvstore

import (
	"unicode"
)

// tokenize lowercases s and splits it on any non-alphanumeric run, discarding
// empty tokens. Shared by the inverted index, full-text search, and the
// bag-of-words embedding so all three agree on what a "token" is.
func tokenize(s string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur = append(cur, unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// tokenSet returns the distinct tokens of s as a set.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range tokenize(s) {
		set[t] = struct{}{}
	}
	return set
}

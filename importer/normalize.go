package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle canonicalizes free text for comparison: Unicode NFKC,
// lowercase, punctuation and symbol runes replaced by spaces, whitespace
// collapsed, trimmed. Total function; never fails on any input.
func NormalizeTitle(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize splits text into a set of unique non-empty tokens after
// normalization. Order is irrelevant; set semantics deduplicate.
func Tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(NormalizeTitle(s)) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

package match

import (
	"strings"
	"unicode"
)

// Normalize folds an identifier for comparison: separators are dropped and
// the result is lower case, so "FirstName", "first_name" and "first-name"
// are equal.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(Tokenize(s), ""))
}

// Tokenize splits an identifier on separators and case changes. An acronym
// stays one token: "HTTPServer" gives "HTTP" and "Server".
func Tokenize(s string) []string {
	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && startsToken(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]

	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return true
	}

	// last capital of an acronym followed by a word
	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

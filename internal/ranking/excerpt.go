package ranking

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultExcerptChars is the default excerpt window in characters.
const DefaultExcerptChars = 400

// Excerpt returns a window of windowChars characters around the earliest
// case-insensitive occurrence of any query token in text. One third of the
// window precedes the match. Without a match the leading window is returned.
// The result is trimmed and never splits a multi-byte character.
func Excerpt(text string, queryTokens []string, windowChars int) string {
	if windowChars <= 0 {
		windowChars = DefaultExcerptChars
	}

	runes := []rune(text)
	offset := firstMatch(runes, queryTokens)
	if offset < 0 {
		return strings.TrimSpace(string(runes[:min(windowChars, len(runes))]))
	}

	start := max(0, offset-windowChars/3)
	end := min(len(runes), start+windowChars)
	return strings.TrimSpace(string(runes[start:end]))
}

// firstMatch returns the rune offset of the earliest token occurrence, or -1.
func firstMatch(runes []rune, tokens []string) int {
	if len(tokens) == 0 || len(runes) == 0 {
		return -1
	}

	// Lowercasing rune by rune keeps offsets aligned with the original text.
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}
	haystack := string(lowered)

	best := -1
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		i := strings.Index(haystack, strings.ToLower(tok))
		if i < 0 {
			continue
		}
		at := utf8.RuneCountInString(haystack[:i])
		if best < 0 || at < best {
			best = at
		}
	}
	return best
}

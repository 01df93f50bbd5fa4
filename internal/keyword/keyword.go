// Package keyword folds Vietnamese text for accent-insensitive product search.
// Folded text is only used for matching, never stored or displayed.
package keyword

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ is a distinct letter rather than d plus a combining mark, so NFD leaves it alone.
var letterFolds = strings.NewReplacer("đ", "d")

// Normalize lowercases s and strips its diacritics: "Cá Cảnh" becomes "ca canh".
// Spacing and characters without marks are kept as they are.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = letterFolds.Replace(strings.ToLower(s))

	// transformers carry state, so build the chain per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Matcher tests product names against one normalized search keyword
type Matcher struct {
	keyword string
}

// NewMatcher normalizes the keyword once for repeated Match calls
func NewMatcher(keyword string) Matcher {
	return Matcher{keyword: Normalize(keyword)}
}

// Keyword returns the normalized keyword
func (m Matcher) Keyword() string {
	return m.keyword
}

// Match reports whether the normalized name contains the keyword or the keyword
// contains the name. The second direction lets "cá betta halfmoon" find "Cá Betta".
func (m Matcher) Match(name string) bool {
	normalized := Normalize(name)
	return strings.Contains(normalized, m.keyword) || strings.Contains(m.keyword, normalized)
}

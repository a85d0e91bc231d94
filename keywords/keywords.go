// Package keywords turns a post title into tag-ready words.
package keywords

import (
	"regexp"
	"strings"
)

// stopWords are dropped from the output. Matching is exact on the lowercased token.
var stopWords = map[string]struct{}{
	"is": {}, "and": {}, "but": {}, "or": {}, "the": {}, "a": {}, "an": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {},
	"about": {}, "as": {}, "of": {},
}

// wordPattern matches maximal runs of letters, digits and underscore in any script.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Extract lowercases the title, splits it into words and removes stop words.
// Order and duplicates are preserved.
func Extract(title string) []string {
	words := wordPattern.FindAllString(strings.ToLower(title), -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// IsStopWord reports whether w (already lowercased) is filtered by Extract.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// internal/parser/plural.go
package parser

import "strings"

// Pluralize returns the mechanical English plural of word. It is a heuristic
// for alias generation, not a linguistics library: irregular nouns come out
// wrong and that is acceptable, since a bad alias merely never matches.
func Pluralize(word string) string {
	w := strings.TrimSpace(word)
	if w == "" {
		return ""
	}
	lower := strings.ToLower(w)

	switch {
	case strings.HasSuffix(lower, "s"),
		strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"),
		strings.HasSuffix(lower, "sh"):
		return w + "es"
	case strings.HasSuffix(lower, "y") && len(lower) >= 2 && !isVowel(lower[len(lower)-2]):
		return w[:len(w)-1] + "ies"
	case strings.HasSuffix(lower, "fe"):
		return w[:len(w)-2] + "ves"
	case strings.HasSuffix(lower, "f"):
		return w[:len(w)-1] + "ves"
	default:
		return w + "s"
	}
}

// Plurals returns the plural form of each word, in order, skipping words
// whose plural came out empty or identical to the input.
func Plurals(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		p := Pluralize(w)
		if p != "" && !strings.EqualFold(p, w) {
			out = append(out, p)
		}
	}
	return out
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// Package keyword parses space-separated keyword filters.
package keyword

import "strings"

// special holds characters with meaning in LIKE patterns or filter syntax.
const special = ",.()*%\\_"

// Sanitize strips filter-significant characters from a single word.
func Sanitize(word string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(special, r) {
			return -1
		}
		return r
	}, word)
}

// Parse splits s on whitespace and sanitizes every word.
// Words that become empty after sanitizing are dropped.
func Parse(s string) []string {
	fields := strings.Fields(s)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := Sanitize(f); w != "" {
			words = append(words, w)
		}
	}
	return words
}

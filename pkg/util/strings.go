package util

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and collapses every run of non alphanumeric characters into a single underscore
func Slugify(s string) string {
	var builder strings.Builder
	lastUnderscore := true

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			builder.WriteRune('_')
			lastUnderscore = true
		}
	}

	return strings.TrimSuffix(builder.String(), "_")
}

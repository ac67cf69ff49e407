// Package sanitizer normalizes free-text input before validation and storage.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses any run of whitespace into a
// single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeSubject(subject string) string {
	normalized := TrimAndNormalize(subject)
	return strings.ToLower(normalized)
}

// NormalizeComment keeps line breaks (reviews are multi-line) but strips
// control characters and trims the ends.
func NormalizeComment(comment string) string {
	comment = strings.TrimSpace(comment)

	var result strings.Builder
	for _, r := range comment {
		if r == '\n' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

package utils

import (
	"strings"
	"unicode"
)

// IsSeparator checks if a rune separates words inside a tag
func IsSeparator(r rune) bool {
	return r == ' ' || r == '_' || r == '-' || r == '.' || r == '/'
}

// HasPrefixIgnoreCase checks if string has prefix case-insensitively
func HasPrefixIgnoreCase(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

// IsValidColor reports whether s is usable as a CSS colour value: non-empty,
// with no characters that would escape the style attribute it is placed in.
func IsValidColor(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == '"' || r == '<' || r == '>' || r == ';' || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

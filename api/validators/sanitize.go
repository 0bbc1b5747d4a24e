package validators

import (
	"strings"
	"unicode"
)

// SanitizeString drops control characters, trims surrounding whitespace and
// caps the result at maxLen bytes without splitting a rune.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	cleaned = strings.TrimSpace(cleaned)
	if maxLen <= 0 || len(cleaned) <= maxLen {
		return cleaned
	}
	cut := maxLen
	for cut > 0 && !isRuneStart(cleaned[cut]) {
		cut--
	}
	return cleaned[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

package validators

import (
	"net/http"
	"strings"
)

const maxSearchLen = 200

// SanitizeString trims input and truncates it to maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	if runes := []rune(trimmed); len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return trimmed
}

// SearchTerm reads the q parameter used by every list endpoint.
func SearchTerm(r *http.Request) string {
	return SanitizeString(r.URL.Query().Get("q"), maxSearchLen)
}

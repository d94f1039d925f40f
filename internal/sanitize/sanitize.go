package sanitize

import (
	"regexp"
)

var (
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
	eventHandlerPattern = regexp.MustCompile(`(?i)on\w+=\s*["']?[^"']*["']?`)
	scriptURLPattern    = regexp.MustCompile(`(?i)(href|src|data)=\s*["']?javascript:[^"']*["']?`)
)

// Input strips markup, inline event handlers and javascript: attributes
// from user input, then truncates it to maxRunes. maxRunes <= 0 disables
// truncation.
func Input(s string, maxRunes int) string {
	if s == "" {
		return s
	}

	cleaned := htmlTagPattern.ReplaceAllString(s, "")
	cleaned = eventHandlerPattern.ReplaceAllString(cleaned, "")
	cleaned = scriptURLPattern.ReplaceAllString(cleaned, "")

	return Truncate(cleaned, maxRunes)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

package utils

import "unicode/utf8"

// Truncate shortens s to at most n runes and appends an ellipsis when it cut
// anything. Multi-byte text (Urdu summaries) is never split mid-character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

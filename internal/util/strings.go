package util

import "strings"

// NormalizeKey lowercases and trims a string so configuration keys and
// provider names compare consistently however the user typed them.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

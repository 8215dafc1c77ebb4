package utils

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

// Truncate shortens s to at most n runes for log and summary output.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

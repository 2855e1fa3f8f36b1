// Package utils holds small helpers shared by the transport and CLI layers.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// valid integer. Whitespace is not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// DayIndex parses a 1-based challenge day in [1, maxDay]. It reports false
// for anything else.
func DayIndex(s string, maxDay int) (int, bool) {
	d := AtoiDefault(s, 0)
	if d < 1 || d > maxDay {
		return 0, false
	}
	return d, true
}

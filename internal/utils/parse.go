// Package utils provides small parsing helpers shared by the transport
// layers. Nothing here knows about rooms or messages.
package utils

import "strconv"

// AtoiDefault converts s with strconv.Atoi, returning def when s is empty or
// not a valid int.
//
//	utils.AtoiDefault("42", 0) // 42
//	utils.AtoiDefault("x", 5)  // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParseID parses a positive decimal identifier such as a room or user id.
// Zero, negatives, signs, and anything that overflows uint report false.
func ParseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, strconv.IntSize)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

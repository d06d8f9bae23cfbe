package utils

import (
	"math"
	"strconv"
	"strings"
)

// ToFloat parses a numeric cell. Surrounding whitespace is ignored.
// It returns false for empty or non-numeric input.
func ToFloat(val string) (float64, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatFloat renders a float with the fewest digits that round-trip,
// so 170 stays "170" and 122.5 stays "122.5".
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsFlagSet reports whether a flag cell carries a value other than empty or zero.
// "0", "0.0" and "" are unset; anything else ("1", "Y", "true") is set.
func IsFlagSet(val string) bool {
	s := strings.TrimSpace(val)
	if s == "" {
		return false
	}
	if f, ok := ToFloat(s); ok {
		return f != 0
	}
	return true
}

package common

import (
	"strconv"
	"strings"
)

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// FormatRate renders a per-100k rate for popups and cards, with an em
// dash for unknown figures.
func FormatRate(rate *float64) string {
	if rate == nil {
		return "—"
	}
	return strconv.FormatFloat(*rate, 'f', -1, 64)
}

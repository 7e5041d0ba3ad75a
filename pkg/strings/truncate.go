// Package strings holds small text helpers shared by log and table output.
package strings

import (
	"strings"
)

const (
	// DefaultLogChunkLen bounds streamed output echoed into debug logs.
	DefaultLogChunkLen = 120

	// DefaultCellLen bounds a single table cell.
	DefaultCellLen = 60

	// MinTruncateLen leaves room for one character plus "...".
	MinTruncateLen = 4
)

// SingleLine collapses all whitespace runs in s into single spaces and
// truncates the result to maxLen runes, marking truncation with "...".
// maxLen values below MinTruncateLen are raised to it.
func SingleLine(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

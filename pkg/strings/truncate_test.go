package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingleLine(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short", input: "hello", maxLen: 10, want: "hello"},
		{name: "exact", input: "hello", maxLen: 5, want: "hello"},
		{name: "truncated", input: "hello world", maxLen: 8, want: "hello..."},
		{name: "newlines collapsed", input: "line one\nline two\n", maxLen: 40, want: "line one line two"},
		{name: "tabs and runs", input: "a\t\t b   c", maxLen: 40, want: "a b c"},
		{name: "unicode", input: "héllo wörld", maxLen: 7, want: "héll..."},
		{name: "tiny max clamped", input: "abcdef", maxLen: 1, want: "a..."},
		{name: "empty", input: "", maxLen: 10, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SingleLine(tt.input, tt.maxLen))
		})
	}
}

package testutils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingT captures assertion failures instead of failing the running test
type recordingT struct {
	errors []string
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestTextAsserter_DefaultOptions(t *testing.T) {
	opts := NewTextAsserter(t).Options()

	assert.True(t, opts.IgnoreTrailingWhitespace)
	assert.False(t, opts.IgnoreEmptyLines)
	assert.True(t, opts.StripANSI)
	assert.False(t, opts.ColorDiff)
}

func TestTextAsserter_Assert(t *testing.T) {
	tests := []struct {
		name     string
		opts     []TextOption
		actual   string
		expected string
		match    bool
	}{
		{
			name:     "identical text",
			actual:   "Device found: ESP32, Address: AA:BB\n",
			expected: "Device found: ESP32, Address: AA:BB\n",
			match:    true,
		},
		{
			name:     "trailing whitespace ignored by default",
			actual:   "Service: 180f   \n",
			expected: "Service: 180f\n",
			match:    true,
		},
		{
			name:     "color escapes stripped by default",
			actual:   "\x1b[1;32mESP32\x1b[0m",
			expected: "ESP32",
			match:    true,
		},
		{
			name:     "color escapes kept when stripping disabled",
			opts:     []TextOption{WithStripANSI(false)},
			actual:   "\x1b[1;32mESP32\x1b[0m",
			expected: "ESP32",
			match:    false,
		},
		{
			name:     "empty lines matter by default",
			actual:   "a\n\nb",
			expected: "a\nb",
			match:    false,
		},
		{
			name:     "empty lines dropped on request",
			opts:     []TextOption{WithIgnoreEmptyLines(true)},
			actual:   "a\n\n\nb",
			expected: "a\nb",
			match:    true,
		},
		{
			name:     "different content",
			actual:   "Address: AA:BB",
			expected: "Address: CC:DD",
			match:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingT{}
			ok := NewTextAsserter(rec).WithOptions(tt.opts...).Assert(tt.actual, tt.expected)

			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Empty(t, rec.errors)
			} else {
				assert.Len(t, rec.errors, 1)
				assert.Contains(t, rec.errors[0], "unified diff")
			}
		})
	}
}

func TestTextAsserter_DiffShowsChangedLines(t *testing.T) {
	diff := NewTextAsserter(t).Diff("one\nthree\n", "one\ntwo\n")

	assert.Contains(t, diff, "-two")
	assert.Contains(t, diff, "+three")
	assert.NotContains(t, diff, "\x1b[")
}

func TestTextAsserter_ColorDiff(t *testing.T) {
	diff := NewTextAsserter(t).WithOptions(WithColorDiff(true)).Diff("b\n", "a\n")

	assert.Contains(t, diff, "\x1b[")
}

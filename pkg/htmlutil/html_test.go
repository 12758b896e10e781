package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "Hello world",
			expected: "Hello world",
		},
		{
			name:     "allowed formatting kept",
			input:    "<p><strong>Bold</strong> and <em>italic</em></p>",
			expected: "<p><strong>Bold</strong> and <em>italic</em></p>",
		},
		{
			name:     "script dropped with contents",
			input:    `<p>ok</p><script>alert("x")</script>`,
			expected: "<p>ok</p>",
		},
		{
			name:     "event handlers stripped",
			input:    `<p onclick="steal()">text</p>`,
			expected: "<p>text</p>",
		},
		{
			name:     "javascript href removed",
			input:    `<a href="javascript:alert(1)">click</a>`,
			expected: "<a>click</a>",
		},
		{
			name:     "http href kept",
			input:    `<a href="https://example.com">link</a>`,
			expected: `<a href="https://example.com">link</a>`,
		},
		{
			name:     "unknown wrapper unwrapped",
			input:    "<section><p>inside</p></section>",
			expected: "<p>inside</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestStripTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "simple paragraph",
			input:    "<p>Hello world</p>",
			expected: "Hello world",
		},
		{
			name:     "multiple paragraphs become lines",
			input:    "<p>First paragraph</p><p>Second paragraph</p>",
			expected: "First paragraph\nSecond paragraph",
		},
		{
			name:     "nested tags flattened",
			input:    "<p><strong>Bold</strong> and <em>italic</em></p>",
			expected: "Bold and italic",
		},
		{
			name:     "script contents dropped",
			input:    "<p>before</p><script>var x = 1;</script><p>after</p>",
			expected: "before\nafter",
		},
		{
			name:     "whitespace collapsed",
			input:    "<p>too   many    spaces</p>",
			expected: "too many spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, StripTags(tt.input))
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short text", Summarize("<p>short text</p>", 200))

	long := "<p>The quick brown fox jumps over the lazy dog again and again</p>"
	got := Summarize(long, 20)
	assert.LessOrEqual(t, len([]rune(got)), 21)
	assert.Equal(t, "The quick brown fox…", got)
}

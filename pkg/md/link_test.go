package md

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/a", "https://example.com/a"},
		{"  https://example.com/a  ", "https://example.com/a"},
		{"https://bücher.example/a", "https://xn--bcher-kva.example/a"},
		{"https://example.com/a b", "https://example.com/a%20b"},
		{"/relative/path", "/relative/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLink(tt.input))
		})
	}
}

func TestValidateLink(t *testing.T) {
	tests := []struct {
		href string
		ok   bool
	}{
		{"https://example.com", true},
		{"/relative", true},
		{"mailto:a@b.com", true},
		{"data:image/png;base64,AAAA", true},
		{"javascript:alert(1)", false},
		{"JavaScript:alert(1)", false},
		{" vbscript:msgbox", false},
		{"file:///etc/passwd", false},
		{"data:text/html,<b>x</b>", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.ok, ValidateLink(tt.href))
		})
	}
}

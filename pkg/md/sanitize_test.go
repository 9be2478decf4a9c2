package md

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer(t *testing.T) {
	s := NewSanitizer([]string{
		"span.mention",
		"span.hashtag-*",
		"aside.quote",
		"aside.no-group",
		"aside[data-username]",
		"details[open]",
		"a[target=_blank]",
		"not a pattern!",
	})

	tests := []struct {
		name       string
		input      string
		contains   []string
		notContain []string
	}{
		{
			name:     "declared class kept",
			input:    `<span class="mention">@a</span>`,
			contains: []string{`<span class="mention">@a</span>`},
		},
		{
			name:       "undeclared class dropped",
			input:      `<span class="evil">x</span>`,
			contains:   []string{"x"},
			notContain: []string{"evil"},
		},
		{
			name:     "class prefix",
			input:    `<span class="hashtag-raw">#a</span>`,
			contains: []string{`class="hashtag-raw"`},
		},
		{
			name:     "several declared classes",
			input:    `<aside class="quote no-group" data-username="bob"></aside>`,
			contains: []string{`class="quote no-group"`, `data-username="bob"`},
		},
		{
			name:       "script removed",
			input:      `<p>hi<script>alert(1)</script></p>`,
			contains:   []string{"<p>hi</p>"},
			notContain: []string{"script", "alert"},
		},
		{
			name:     "attribute with value",
			input:    `<a href="https://example.com" target="_blank">x</a>`,
			contains: []string{`target="_blank"`},
		},
		{
			name:       "attribute with another value",
			input:      `<a href="https://example.com" target="_top">x</a>`,
			notContain: []string{"target"},
		},
		{
			name:     "bare attribute",
			input:    `<details open="">x</details>`,
			contains: []string{"<details open"},
		},
		{
			name:       "event handler removed",
			input:      `<span class="mention" onclick="alert(1)">x</span>`,
			notContain: []string{"onclick"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.Sanitize(tt.input)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.notContain {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestSanitizer_DataAttributes(t *testing.T) {
	without := NewSanitizer([]string{"div.d-wrap"})
	assert.NotContains(t, without.Sanitize(`<div class="d-wrap" data-wrap="toc"></div>`), "data-wrap")

	with := NewSanitizer([]string{"div.d-wrap", "div[data-*]"})
	assert.Contains(t, with.Sanitize(`<div class="d-wrap" data-wrap="toc"></div>`), `data-wrap="toc"`)
}

func TestCook_SanitizedFeatures(t *testing.T) {
	c := New(DefaultOptions())

	html := c.Cook(`[quote="bob, post:1, topic:2"]hello[/quote]`)
	assert.Contains(t, html, `<aside class="quote no-group" data-username="bob" data-post="1" data-topic="2">`)
	assert.Contains(t, html, `<div class="title">`)

	html = c.Cook("[wrap=toc]\n[/wrap]")
	assert.Contains(t, html, `<div class="d-wrap" data-wrap="toc">`)

	html = c.Cook(`<span class="bbcode-b" style="color:red">x</span>`)
	assert.Contains(t, html, `class="bbcode-b"`)
}

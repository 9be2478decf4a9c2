package md

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCooker builds a cooker with the built-in features and sanitizing
// turned off, so tests see the renderer output.
func newTestCooker(mod func(o *Options)) *Cooker {
	opts := DefaultOptions()
	opts.Sanitize = false
	if mod != nil {
		mod(&opts)
	}
	return New(opts)
}

func tokenTypes(tokens []*Token) []string {
	types := make([]string, len(tokens))
	for i, t := range tokens {
		types[i] = t.Type
	}
	return types
}

func firstInline(tokens []*Token) *Token {
	for _, t := range tokens {
		if t.Type == "inline" {
			return t
		}
	}
	return nil
}

func TestScenario_Quote(t *testing.T) {
	c := newTestCooker(nil)
	src := `[quote="bob, post:1"]hello[/quote]`

	tokens := c.Tokens(src)
	require.Equal(t, []string{
		"bbcode_open", "quote_header_open", "inline", "quote_header_close", "bbcode_open",
		"paragraph_open", "inline", "paragraph_close",
		"bbcode_close", "bbcode_close",
	}, tokenTypes(tokens))

	aside := tokens[0]
	assert.Equal(t, "aside", aside.Tag)
	assert.True(t, aside.HasClass("quote"))
	user, _ := aside.AttrGet("data-username")
	assert.Equal(t, "bob", user)
	post, _ := aside.AttrGet("data-post")
	assert.Equal(t, "1", post)
	assert.Equal(t, "hello", tokens[6].Content)

	expected := `<aside class="quote no-group" data-username="bob" data-post="1">` + "\n" +
		`<div class="title"> bob:</div>` + "\n" +
		"<blockquote>\n<p>hello</p>\n</blockquote>\n</aside>\n"
	assert.Equal(t, expected, c.Render(tokens))
}

func TestScenario_CodeBlock(t *testing.T) {
	c := newTestCooker(nil)
	tokens := c.Tokens("[code]\ndef foo():\n  pass\n[/code]")

	require.Len(t, tokens, 1)
	assert.Equal(t, "fence", tokens[0].Type)
	assert.Equal(t, "def foo():\n  pass\n", tokens[0].Content)
	assert.Equal(t, "<pre><code class=\"lang-auto\">def foo():\n  pass\n</code></pre>\n", c.Render(tokens))
}

func TestScenario_Mention(t *testing.T) {
	c := newTestCooker(nil)
	inline := firstInline(c.Tokens("Hello @alice how are you"))
	require.NotNil(t, inline)

	require.Equal(t, []string{"text", "mention_open", "text", "mention_close", "text"}, tokenTypes(inline.Children))
	assert.Equal(t, "Hello ", inline.Children[0].Content)
	assert.Equal(t, "@alice", inline.Children[2].Content)
	assert.Equal(t, " how are you", inline.Children[4].Content)
	assert.True(t, inline.Children[1].HasClass("mention"))
}

func TestScenario_HashtagMiss(t *testing.T) {
	c := newTestCooker(func(o *Options) {
		o.HashtagLookup = func(string, int, []string) *HashtagResult { return nil }
	})
	html := c.Cook("see #general-channel")
	assert.Equal(t, `<p>see <span class="hashtag-raw">#general-channel</span></p>`+"\n", html)
	assert.NotContains(t, html, "<a")
}

func TestScenario_Typographer(t *testing.T) {
	c := newTestCooker(func(o *Options) { o.Typographer = true })
	inline := firstInline(c.Tokens("My (tm) product"))
	require.NotNil(t, inline)
	assert.Equal(t, "My ™ product", TextOf(inline.Children))
}

func TestUnmatchedTagIsLiteral(t *testing.T) {
	c := New(DefaultOptions())
	assert.Equal(t, "<p>[foo]bar</p>\n", c.Cook("[foo]bar"))
}

func TestMalformedInputTerminates(t *testing.T) {
	c := newTestCooker(nil)
	src := strings.Repeat("[a=", 10000)

	done := make(chan string, 1)
	go func() { done <- c.Cook(src) }()

	select {
	case out := <-done:
		assert.Contains(t, out, "[a=[a=")
	case <-time.After(20 * time.Second):
		t.Fatal("cooking repeated [a= did not finish")
	}
}

func TestMalformedBBCodeTerminates(t *testing.T) {
	c := newTestCooker(nil)
	inputs := []string{
		strings.Repeat("[quote=", 5000),
		strings.Repeat("[b]", 5000),
		strings.Repeat("[/b]", 5000),
		strings.Repeat("[url=", 5000),
		strings.Repeat("[quote]\n", 300),
	}
	for _, src := range inputs {
		out := c.Cook(src)
		assert.NotEmpty(t, out)
	}
}

func TestUnclosedBlockTagsRenderInLinearTime(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"open lines", strings.Repeat("[quote]\n", 4000)},
		{"open and text lines", strings.Repeat("[quote]\nx\n", 4000)},
		{"nested with one close", strings.Repeat("[quote]\n", 4000) + "[/quote]\n"},
		{"mixed tags", strings.Repeat("[quote]\n[details]\n[wrap=x]\n", 1500)},
	}

	c := newTestCooker(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			out := c.Cook(tt.src)
			assert.NotEmpty(t, out)
			assert.Less(t, time.Since(start), 2*time.Second)
		})
	}
}

func TestNestingBalance(t *testing.T) {
	inputs := []string{
		`[quote="bob, post:1"]hello[/quote]`,
		"[quote]\n# Title\n\n[details=\"More\"]\n* a\n* b\n[/details]\n[/quote]",
		"[wrap=toc]\n[/wrap]",
		"[ul]\n[li]a[/li]\n[/ul]",
		"[b][i]x[/b][/i] and [url=https://example.com]y[/url]",
		"> [quote]\n> nested\n> [/quote]",
		"| a | b |\n|---|:-:|\n| 1 | 2 |",
		"Hello @alice and #tag",
	}
	c := newTestCooker(func(o *Options) {
		o.HashtagLookup = func(slug string, _ int, _ []string) *HashtagResult {
			return &HashtagResult{Type: "tag", Slug: slug, ID: "1", URL: "/tag/" + slug, Text: slug}
		}
	})

	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			tokens := c.Tokens(src)
			assert.Zero(t, NestingSum(tokens))
			assert.True(t, Balanced(tokens))
			for _, tk := range tokens {
				if tk.Type == "inline" {
					assert.Zero(t, NestingSum(tk.Children), tk.Content)
					assert.True(t, Balanced(tk.Children), tk.Content)
				}
			}
		})
	}
}

func TestTextPostProcessIsLossless(t *testing.T) {
	c := newTestCooker(func(o *Options) {
		o.HashtagLookup = func(string, int, []string) *HashtagResult { return nil }
	})
	inputs := []string{
		"Hello @alice how are you",
		"@a @b @c",
		"see #one and #two, then @x.",
		"mail me@example.org or @bob",
		"nothing to see",
	}
	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			inline := firstInline(c.Tokens(src))
			require.NotNil(t, inline)
			assert.Equal(t, src, TextOf(inline.Children))
		})
	}
}

func TestCooker_CoreRules(t *testing.T) {
	c := newTestCooker(nil)
	assert.Equal(t, []string{"text_join", "anchor", "text-post-process"}, c.CoreRules())

	c = newTestCooker(func(o *Options) {
		o.Typographer = true
		o.WatchedWordsReplace = map[string]WatchedWord{"bad": {Replacement: "good"}}
	})
	assert.Equal(t, []string{"text_join", "anchor", "custom-typographer", "text-post-process", "watched-words"}, c.CoreRules())
}

func TestCooker_DisabledFeature(t *testing.T) {
	c := newTestCooker(func(o *Options) {
		o.Features = map[string]bool{"mentions": false}
	})
	assert.Equal(t, "<p>Hello @alice</p>\n", c.Cook("Hello @alice"))
	assert.NotContains(t, c.AllowList(), "span.mention")
	assert.NotContains(t, c.CoreRules(), "text-post-process")
	assert.False(t, c.Options().Features["mentions"])
	assert.True(t, c.Options().Features["quotes"])
}

func TestCooker_CustomFeature(t *testing.T) {
	var seen *Options
	spoiler := Feature{
		Name: "spoiler",
		Setup: func(h *Helper) {
			h.RegisterOptions(func(o *Options) { o.DefaultCodeLang = "text" })
			h.AllowList("span.spoiler")
			h.RegisterPlugin(func(md *Markdown) {
				seen = h.GetOptions()
				md.InlineBBCode.Push(BBCodeRule{Tag: "spoiler", Wrap: ParseWrap("span.spoiler")})
			})
		},
	}

	c := New(Options{}, spoiler)
	require.NotNil(t, seen)
	assert.Equal(t, "text", seen.DefaultCodeLang)
	assert.Equal(t, []string{"span.spoiler"}, c.AllowList())
	assert.Equal(t, `<p>a <span class="spoiler">b</span></p>`+"\n", c.Cook("a [spoiler]b[/spoiler]"))
}

func TestCooker_OptionsAreCopied(t *testing.T) {
	opts := DefaultOptions()
	opts.Sanitize = false
	c := New(opts)

	opts.HashtagTypesInPriorityOrder[0] = "changed"
	opts.Typographer = true

	got := c.Options()
	assert.Equal(t, "category", got.HashtagTypesInPriorityOrder[0])
	assert.False(t, got.Typographer)
}

func TestCooker_Sanitize(t *testing.T) {
	c := New(DefaultOptions())
	html := c.Cook("Hello @alice <script>alert(1)</script>")
	assert.Contains(t, html, `<span class="mention">@alice</span>`)
	assert.NotContains(t, html, "<script")
}

func TestCooker_ConcurrentCook(t *testing.T) {
	c := New(DefaultOptions())
	src := "# Title\n\nHello @alice\n\n```ruby\nputs 1\n```\n\n[quote=\"bob\"]\nhi\n[/quote]"
	want := c.Cook(src)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Cook(src)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestCooker_SoftBreaks(t *testing.T) {
	assert.Equal(t, "<p>a<br>\nb</p>\n", newTestCooker(nil).Cook("a\nb"))

	c := newTestCooker(func(o *Options) { o.TraditionalLinebreaks = true })
	assert.Equal(t, "<p>a\nb</p>\n", c.Cook("a\nb"))
}

func TestCooker_Markdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "emphasis",
			input:    "*a* **b** ~~c~~",
			expected: "<p><em>a</em> <strong>b</strong> <s>c</s></p>\n",
		},
		{
			name:     "link",
			input:    `[x](https://example.com "T")`,
			expected: `<p><a href="https://example.com" title="T">x</a></p>` + "\n",
		},
		{
			name:     "dangerous link drops the anchor",
			input:    "[x](javascript:alert(1))",
			expected: "<p>x</p>\n",
		},
		{
			name:     "bullet list",
			input:    "* a\n* b",
			expected: "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n",
		},
		{
			name:     "code span",
			input:    "use `go test`",
			expected: "<p>use <code>go test</code></p>\n",
		},
		{
			name:     "escaped text",
			input:    `a < b & c \*`,
			expected: "<p>a &lt; b &amp; c *</p>\n",
		},
		{
			name:     "thematic break",
			input:    "---",
			expected: "<hr>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, newTestCooker(nil).Cook(tt.input))
		})
	}
}

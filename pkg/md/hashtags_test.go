package md

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentionPattern(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		unicode bool
		want    []string
	}{
		{"single", "hi @alice", false, []string{"alice"}},
		{"dotted", "cc @a.b-c_d", false, []string{"a.b-c_d"}},
		{"trailing dot dropped", "thanks @bob.", false, []string{"bob"}},
		{"one character", "@x", false, []string{"x"}},
		{"unicode off", "@ñandú", false, nil},
		{"unicode on", "@ñandú", true, []string{"ñandú"}},
		{"email is not a mention", "me@example.org", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCooker(func(o *Options) { o.UnicodeUsernames = tt.unicode })
			inline := firstInline(c.Tokens(tt.input))
			require.NotNil(t, inline)

			var got []string
			for i, child := range inline.Children {
				if child.Type == "mention_open" {
					got = append(got, inline.Children[i+1].Content[1:])
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func testLookup(hits map[string]*HashtagResult, calls *[][]string) HashtagLookup {
	return func(slug string, _ int, types []string) *HashtagResult {
		if calls != nil {
			*calls = append(*calls, append([]string{slug}, types...))
		}
		return hits[slug]
	}
}

func TestHashtags_Resolved(t *testing.T) {
	hits := map[string]*HashtagResult{
		"dev": {Type: "category", Slug: "dev", ID: "4", URL: "/c/dev/4", Text: "Development", Icon: "folder", StyleType: "icon"},
		"fun": {Type: "tag", Slug: "fun", ID: "9", URL: "/tag/fun", Emoji: "tada", StyleType: "emoji"},
	}
	c := newTestCooker(func(o *Options) { o.HashtagLookup = testLookup(hits, nil) })

	html := c.Cook("see #dev")
	assert.Equal(t, `<p>see <a class="hashtag-cooked" href="/c/dev/4" data-type="category" data-slug="dev" data-id="4" data-icon="folder">`+
		`<span class="hashtag-icon-placeholder"></span><span>Development</span></a></p>`+"\n", html)

	html = c.Cook("#fun")
	assert.Contains(t, html, `data-emoji="tada"`)
	assert.Contains(t, html, "<span>fun</span>")
}

func TestHashtags_URLChecked(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"javascript", "javascript:alert(1)", `<span class="hashtag-raw">#dev</span>`},
		{"mixed case scheme", " JavaScript:alert(1)", `<span class="hashtag-raw">#dev</span>`},
		{"vbscript", "vbscript:msgbox", `<span class="hashtag-raw">#dev</span>`},
		{"space escaped", "/c/my dev/4", `href="/c/my%20dev/4"`},
		{"idn host", "https://bücher.example/c/dev", `href="https://xn--bcher-kva.example/c/dev"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := &HashtagResult{Type: "category", Slug: "dev", ID: "4", URL: tt.url}
			c := newTestCooker(func(o *Options) {
				o.HashtagLookup = testLookup(map[string]*HashtagResult{"dev": hit}, nil)
			})

			html := c.Cook("#dev")
			assert.Contains(t, html, tt.want)
			assert.NotContains(t, html, "script:")
			assert.Equal(t, tt.url, hit.URL)
		})
	}
}

func TestHashtags_TypeSuffix(t *testing.T) {
	var calls [][]string
	c := newTestCooker(func(o *Options) {
		o.HashtagLookup = testLookup(nil, &calls)
		o.HashtagTypesInPriorityOrder = []string{"category", "tag"}
	})

	c.Tokens("#dev::tag and #ops")
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"dev", "tag", "category"}, calls[0])
	assert.Equal(t, []string{"ops", "category", "tag"}, calls[1])
}

func TestHashtags_NotInstalledWithoutLookup(t *testing.T) {
	c := newTestCooker(nil)
	assert.Equal(t, "<p>see #dev</p>\n", c.Cook("see #dev"))
}

func TestHashtags_Boundaries(t *testing.T) {
	var calls [][]string
	c := newTestCooker(func(o *Options) { o.HashtagLookup = testLookup(nil, &calls) })

	c.Tokens("a#b and `#code` and [#link](/x)")
	assert.Empty(t, calls)
}

func TestHashtagTypes(t *testing.T) {
	order := []string{"category", "tag", "channel"}
	assert.Equal(t, order, hashtagTypes(order, ""))
	assert.Equal(t, []string{"channel", "category", "tag"}, hashtagTypes(order, "::channel"))
	assert.Equal(t, []string{"user", "category", "tag", "channel"}, hashtagTypes(order, "::user"))
}

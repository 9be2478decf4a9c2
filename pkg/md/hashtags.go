package md

import (
	"strings"

	"github.com/dlclark/regexp2"
)

var hashtagRegexp = regexp2.MustCompile(`#([\p{L}\p{M}\p{N}_-]+)(::[\p{L}\p{N}_-]+)?`, regexp2.None)

// Hashtags resolves #slug through Options.HashtagLookup. Unresolved
// hashtags keep their text inside span.hashtag-raw.
func Hashtags() Feature {
	return Feature{
		Name: "hashtags",
		Setup: func(h *Helper) {
			h.AllowList(
				"a.hashtag-cooked",
				"a[data-type]",
				"a[data-slug]",
				"a[data-id]",
				"a[data-icon]",
				"a[data-emoji]",
				"span.hashtag-raw",
				"span.hashtag-icon-placeholder",
			)
			h.RegisterPlugin(func(md *Markdown) {
				if md.Options.HashtagLookup == nil {
					return
				}
				md.TextPostProcess.Push(TextPostProcessRule{
					Name:     "hashtag-autocomplete",
					Pattern:  hashtagRegexp,
					Boundary: true,
					OnMatch:  addHashtag,
				})
			})
		},
	}
}

// hashtagTypes puts the "::type" suffix type first.
func hashtagTypes(order []string, suffix string) []string {
	typ := strings.TrimPrefix(suffix, "::")
	if typ == "" {
		return order
	}
	types := []string{typ}
	for _, t := range order {
		if t != typ {
			types = append(types, t)
		}
	}
	return types
}

func addHashtag(s *State, m *regexp2.Match) (Match, bool) {
	raw := m.String()
	slug := m.GroupByNumber(1).String()
	types := hashtagTypes(s.Options.HashtagTypesInPriorityOrder, m.GroupByNumber(2).String())

	var result *HashtagResult
	if lookup := s.Options.HashtagLookup; lookup != nil {
		result = safeHashtag(lookup(slug, s.Options.UserID, types))
	}

	return Match{
		Index: m.Index,
		Text:  raw,
		Build: func(out *State) {
			if result == nil {
				span := out.Push("span_open", "span", NestingOpen)
				span.AttrSet("class", "hashtag-raw")
				out.Push("text", "", NestingSelf).Content = raw
				out.Push("span_close", "span", NestingClose)
				return
			}

			link := out.Push("link_open", "a", NestingOpen)
			link.AttrSet("class", "hashtag-cooked")
			link.AttrSet("href", result.URL)
			link.AttrSet("data-type", result.Type)
			link.AttrSet("data-slug", result.Slug)
			link.AttrSet("data-id", result.ID)
			switch {
			case result.StyleType == "emoji" && result.Emoji != "":
				link.AttrSet("data-emoji", result.Emoji)
			case result.Icon != "":
				link.AttrSet("data-icon", result.Icon)
			}

			icon := out.Push("span_open", "span", NestingOpen)
			icon.AttrSet("class", "hashtag-icon-placeholder")
			out.Push("span_close", "span", NestingClose)

			text := result.Text
			if text == "" {
				text = result.Slug
			}
			out.Push("span_open", "span", NestingOpen)
			out.Push("text", "", NestingSelf).Content = text
			out.Push("span_close", "span", NestingClose)

			out.Push("link_close", "a", NestingClose)
		},
	}, true
}

// safeHashtag returns a copy of r with a normalized URL, or nil when the URL
// is not safe to link to. The hashtag then stays raw.
func safeHashtag(r *HashtagResult) *HashtagResult {
	if r == nil {
		return nil
	}
	href := NormalizeLink(r.URL)
	if !ValidateLink(href) {
		return nil
	}
	out := *r
	out.URL = href
	return &out
}

// features.go defines the built-in features.
package md

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// BuiltinFeatures returns every built-in feature in installation order.
// Adding a feature = adding one entry here.
func BuiltinFeatures() []Feature {
	return []Feature{
		Quotes(),
		Details(),
		BBCodeBlockFeature(),
		BBCodeInlineFeature(),
		WrapFeature(),
		Code(),
		Anchor(),
		Typographer(),
		Mentions(),
		Hashtags(),
		WatchedWords(),
	}
}

// Anchor gives top level headings an anchor link.
func Anchor() Feature {
	return Feature{
		Name: "anchor",
		Setup: func(h *Helper) {
			h.AllowList("a.anchor", "a[name]")
			h.RegisterPlugin(func(md *Markdown) {
				md.Core.Push("anchor", PriorityAnchor, anchorRule)
			})
		},
	}
}

// Typographer installs the typographic replacements when Options.Typographer is set.
func Typographer() Feature {
	return Feature{
		Name: "custom-typographer-replacements",
		Setup: func(h *Helper) {
			h.RegisterPlugin(func(md *Markdown) {
				if !md.Options.Typographer {
					return
				}
				md.Core.Push("custom-typographer", PriorityTypographer, typographerRule)
			})
		},
	}
}

// Code declares the markup of fenced code.
func Code() Feature {
	return Feature{
		Name: "code",
		Setup: func(h *Helper) {
			h.AllowList(
				"pre[data-code-*]",
				"code.lang-*",
				"span."+highlightClassPrefix+"*",
			)
		},
	}
}

// Quotes handles [quote="user, post:1, topic:2"].
func Quotes() Feature {
	return Feature{
		Name: "quotes",
		Setup: func(h *Helper) {
			h.AllowList(
				"aside.quote",
				"aside.no-group",
				"aside[data-username]",
				"aside[data-post]",
				"aside[data-topic]",
				"aside[data-full]",
				"div.title",
				"blockquote",
			)
			h.RegisterPlugin(func(md *Markdown) {
				md.BlockBBCode.Push(BBCodeRule{
					Tag:    "quote",
					Before: quoteBefore,
					After: func(s *State, _ *Token, _ string) {
						s.Push("bbcode_close", "blockquote", NestingClose)
						s.Push("bbcode_close", "aside", NestingClose)
					},
				})
			})
		},
	}
}

// QuoteInfo is the attribution of a quote.
type QuoteInfo struct {
	Username    string
	DisplayName string
	Post        int
	Topic       int
	Full        bool
}

// ParseQuoteInfo parses the default attribute of [quote=...]:
// "name, post:1, topic:2, full:true, username:name".
func ParseQuoteInfo(s string) QuoteInfo {
	var q QuoteInfo
	if strings.TrimSpace(s) == "" {
		return q
	}
	parts := quoteSplitRegexp.Split(s, -1)
	q.Username = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		switch {
		case strings.HasPrefix(p, "post:"):
			q.Post, _ = strconv.Atoi(strings.TrimSpace(p[len("post:"):]))
		case strings.HasPrefix(p, "topic:"):
			q.Topic, _ = strconv.Atoi(strings.TrimSpace(p[len("topic:"):]))
		case quoteFullRegexp.MatchString(p):
			q.Full = true
		case strings.HasPrefix(p, "username:"):
			q.DisplayName = q.Username
			q.Username = strings.TrimSpace(p[len("username:"):])
		}
	}
	return q
}

var (
	quoteSplitRegexp = regexp.MustCompile(`,\s*`)
	quoteFullRegexp  = regexp.MustCompile(`^full:\s*true`)
)

func quoteBefore(s *State, info *Tag, _ string) {
	q := ParseQuoteInfo(info.Default())

	aside := s.Push("bbcode_open", "aside", NestingOpen)
	aside.AttrSet("class", "quote no-group")
	if q.Username != "" {
		aside.AttrSet("data-username", q.Username)
	}
	if q.Post > 0 {
		aside.AttrSet("data-post", strconv.Itoa(q.Post))
	}
	if q.Topic > 0 {
		aside.AttrSet("data-topic", strconv.Itoa(q.Topic))
	}
	if q.Full {
		aside.AttrSet("data-full", "true")
	}

	if q.Username != "" {
		name := q.Username
		if q.DisplayName != "" {
			name = q.DisplayName
		}
		title := s.Push("quote_header_open", "div", NestingOpen)
		title.AttrSet("class", "title")
		pushInlineText(s, " "+name+":")
		s.Push("quote_header_close", "div", NestingClose)
	}
	s.Push("bbcode_open", "blockquote", NestingOpen)
}

// pushInlineText pushes an inline token holding a single text child.
func pushInlineText(s *State, content string) {
	t := s.Push("inline", "", NestingSelf)
	t.Content = content
	child := NewToken("text", "", NestingSelf)
	child.Content = content
	t.Children = []*Token{child}
}

// Details handles [details="Summary"]...[/details].
func Details() Feature {
	return Feature{
		Name: "details",
		Setup: func(h *Helper) {
			h.AllowList("details", "details[open]", "summary")
			h.RegisterPlugin(func(md *Markdown) {
				md.BlockBBCode.Push(BBCodeRule{
					Tag: "details",
					Wrap: WrapBuilder(func(open *Token, info *Tag) bool {
						open.Tag = "details"
						if v, ok := info.Attr("open"); ok && v != "false" {
							open.AttrSet("open", "")
						}
						return true
					}),
					Before: func(s *State, info *Tag, _ string) {
						s.Push("bbcode_open", "summary", NestingOpen)
						pushInlineText(s, info.Default())
						s.Push("bbcode_close", "summary", NestingClose)
					},
				})
			})
		},
	}
}

// BBCodeBlockFeature handles [code] and the [ul]/[ol]/[li] list tags.
func BBCodeBlockFeature() Feature {
	return Feature{
		Name: "bbcode-block",
		Setup: func(h *Helper) {
			h.AllowList("ul", "ol", "li")
			h.RegisterPlugin(func(md *Markdown) {
				md.BlockBBCode.Push(BBCodeRule{
					Tag: "code",
					Replace: func(s *State, info *Tag, content string) bool {
						t := s.Push("fence", "code", NestingSelf)
						t.Content = content
						t.Info = strings.TrimSpace(info.Default())
						t.Markup = "[code]"
						return true
					},
				})
				for _, tag := range []string{"ul", "ol", "li"} {
					md.BlockBBCode.Push(BBCodeRule{Tag: tag, Wrap: ParseWrap(tag)})
				}
			})
		},
	}
}

var (
	sizeRegexp  = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	colorRegexp = regexp.MustCompile(`^(?:#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]+)$`)
)

// BBCodeInlineFeature handles the inline formatting, link and image tags.
func BBCodeInlineFeature() Feature {
	return Feature{
		Name: "bbcode-inline",
		Setup: func(h *Helper) {
			h.AllowList(
				"span.bbcode-b",
				"span.bbcode-i",
				"span.bbcode-u",
				"span.bbcode-s",
				"span[style]",
				"a[data-bbcode]",
			)
			h.RegisterPlugin(func(md *Markdown) {
				r := md.InlineBBCode
				for _, tag := range []string{"b", "i", "u", "s"} {
					r.Push(BBCodeRule{Tag: tag, Wrap: ParseWrap("span.bbcode-" + tag)})
				}
				r.Push(BBCodeRule{Tag: "size", Wrap: styleWrap(func(v string) (string, bool) {
					return "font-size:" + v + "%", sizeRegexp.MatchString(v)
				})})
				r.Push(BBCodeRule{Tag: "color", Wrap: styleWrap(func(v string) (string, bool) {
					return "color:" + v, colorRegexp.MatchString(v)
				})})
				r.Push(BBCodeRule{Tag: "url", Replace: urlReplace})
				r.Push(BBCodeRule{Tag: "email", Replace: emailReplace})
				r.Push(BBCodeRule{Tag: "img", Replace: imgReplace})
				r.Push(BBCodeRule{Tag: "code", Replace: func(s *State, _ *Tag, content string) bool {
					t := s.Push("code_inline", "code", NestingSelf)
					t.Content = content
					t.Markup = "[code]"
					return true
				}})
			})
		},
	}
}

// styleWrap builds span[style] from the default attribute. An invalid value
// rejects the tag.
func styleWrap(style func(v string) (string, bool)) WrapBuilder {
	return func(open *Token, info *Tag) bool {
		css, ok := style(strings.TrimSpace(info.Default()))
		if !ok {
			return false
		}
		open.Tag = "span"
		open.AttrSet("style", css)
		return true
	}
}

func pushLink(s *State, href, text string) bool {
	href = NormalizeLink(href)
	if href == "" || !ValidateLink(href) {
		return false
	}
	open := s.Push("link_open", "a", NestingOpen)
	open.AttrSet("href", href)
	open.AttrSet("data-bbcode", "true")
	s.Push("text", "", NestingSelf).Content = text
	s.Push("link_close", "a", NestingClose)
	return true
}

func urlReplace(s *State, info *Tag, content string) bool {
	href := strings.TrimSpace(info.Default())
	if href == "" {
		href = strings.TrimSpace(content)
	}
	return pushLink(s, href, content)
}

func emailReplace(s *State, info *Tag, content string) bool {
	addr := strings.TrimSpace(info.Default())
	if addr == "" {
		addr = strings.TrimSpace(content)
	}
	if !strings.Contains(addr, "@") {
		return false
	}
	return pushLink(s, "mailto:"+addr, content)
}

func imgReplace(s *State, _ *Tag, content string) bool {
	src := NormalizeLink(strings.TrimSpace(content))
	if src == "" || !ValidateLink(src) {
		return false
	}
	t := s.Push("image", "img", NestingSelf)
	t.AttrSet("src", src)
	t.AttrSet("alt", "")
	return true
}

var wrapAttrKey = regexp.MustCompile(`[^-\w]`)

// WrapFeature handles [wrap=name key=value]...[/wrap] as div.d-wrap, or span.d-wrap
// on one line. A wrap without a name is not a wrap.
func WrapFeature() Feature {
	return Feature{
		Name: "d-wrap",
		Setup: func(h *Helper) {
			h.AllowList("div.d-wrap", "span.d-wrap", "div[data-*]", "span[data-*]")
			h.RegisterPlugin(func(md *Markdown) {
				md.BlockBBCode.Push(BBCodeRule{Tag: "wrap", Wrap: wrapBuilder("div")})
				md.InlineBBCode.Push(BBCodeRule{Tag: "wrap", Wrap: wrapBuilder("span")})
			})
		},
	}
}

func wrapBuilder(tag string) WrapBuilder {
	return func(open *Token, info *Tag) bool {
		name := strings.TrimSpace(info.Default())
		if name == "" {
			return false
		}
		open.Tag = tag
		open.AttrSet("class", "d-wrap")
		open.AttrSet("data-wrap", name)

		keys := make([]string, 0, len(info.Attrs))
		for k := range info.Attrs {
			if k != "_default" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			key := strings.ToLower(wrapAttrKey.ReplaceAllString(k, ""))
			if key == "" || key == "wrap" {
				continue
			}
			open.AttrSet("data-"+key, info.Attrs[k])
		}
		return true
	}
}

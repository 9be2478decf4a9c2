package md

import "github.com/dlclark/regexp2"

var (
	mentionRegexp        = regexp2.MustCompile(`@([a-zA-Z0-9_][a-zA-Z0-9_.-]{0,58}[a-zA-Z0-9_]|[a-zA-Z0-9_])`, regexp2.None)
	unicodeMentionRegexp = regexp2.MustCompile(`@([\p{L}\p{M}\p{N}_][\p{L}\p{M}\p{N}_.-]{0,58}[\p{L}\p{M}\p{N}_]|[\p{L}\p{M}\p{N}_])`, regexp2.None)
)

// MentionPattern returns the username matcher for the options.
func MentionPattern(opts *Options) *regexp2.Regexp {
	if opts.UnicodeUsernames {
		return unicodeMentionRegexp
	}
	return mentionRegexp
}

// Mentions wraps @username in span.mention.
func Mentions() Feature {
	return Feature{
		Name: "mentions",
		Setup: func(h *Helper) {
			h.AllowList("span.mention")
			h.RegisterPlugin(func(md *Markdown) {
				md.TextPostProcess.Push(TextPostProcessRule{
					Name:     "mentions",
					Pattern:  MentionPattern(md.Options),
					Boundary: true,
					OnMatch:  addMention,
				})
			})
		},
	}
}

func addMention(s *State, m *regexp2.Match) (Match, bool) {
	username := m.GroupByNumber(1).String()
	return Match{
		Index: m.Index,
		Text:  m.String(),
		Build: func(out *State) {
			open := out.Push("mention_open", "span", NestingOpen)
			open.AttrSet("class", "mention")
			out.Push("text", "", NestingSelf).Content = "@" + username
			out.Push("mention_close", "span", NestingClose)
		},
	}, true
}

package md

import (
	"strings"

	"github.com/dlclark/regexp2"
)

var (
	rareRegexp       = regexp2.MustCompile(`\+-|\.\.|\?\?\?\?|!!!!|,,|--|-->|<--|<-->|->|<-|<->`, regexp2.None)
	scopedAbbrRegexp = regexp2.MustCompile(`\((tm|pa)\)`, regexp2.IgnoreCase)

	scopedAbbr = map[string]string{
		"tm": "™",
		"pa": "¶",
	}
)

type replacement struct {
	re   *regexp2.Regexp
	with string
}

// rareReplacements run in order on every matching text node.
var rareReplacements = []replacement{
	{regexp2.MustCompile(`\+-`, regexp2.None), "±"},
	{regexp2.MustCompile(`(^|\s)-{1,2}>(\s|$)`, regexp2.Multiline), " → "},
	{regexp2.MustCompile(`(^|\s)<-{1,2}(\s|$)`, regexp2.Multiline), " ← "},
	{regexp2.MustCompile(`(^|\s)<-{1,2}>(\s|$)`, regexp2.Multiline), " ↔ "},
	{regexp2.MustCompile(`\.{2,}`, regexp2.None), "…"},
	{regexp2.MustCompile(`([?!])…`, regexp2.None), "$1.."},
	{regexp2.MustCompile(`([?!]){4,}`, regexp2.None), "$1$1$1"},
	{regexp2.MustCompile(`,{2,}`, regexp2.None), ","},
	// em-dash
	{regexp2.MustCompile(`(^|[^-])---(?=[^-]|$)`, regexp2.Multiline), "$1—"},
	// en-dash
	{regexp2.MustCompile(`(^|\s)--(?=\s|$)`, regexp2.Multiline), "$1–"},
	{regexp2.MustCompile(`(^|[^-\s])--(?=[^-\s]|$)`, regexp2.Multiline), "$1–"},
}

func matches(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

// typographerRule applies the scoped abbreviations and rare replacements to
// text children of inline tokens. It does nothing unless Typographer is set.
func typographerRule(s *State) {
	if !s.Options.Typographer {
		return
	}
	for i := len(s.Tokens) - 1; i >= 0; i-- {
		t := s.Tokens[i]
		if t.Type != "inline" {
			continue
		}
		if matches(scopedAbbrRegexp, t.Content) {
			replaceText(t.Children, replaceScoped)
		}
		if matches(rareRegexp, t.Content) {
			replaceText(t.Children, replaceRare)
		}
	}
}

// replaceText walks children backward and rewrites text outside autolinks.
func replaceText(children []*Token, fn func(string) string) {
	insideAutolink := 0
	for i := len(children) - 1; i >= 0; i-- {
		t := children[i]
		if t.Type == "text" && insideAutolink == 0 {
			t.Content = fn(t.Content)
		}
		if t.Info == "auto" {
			switch t.Type {
			case "link_open":
				insideAutolink--
			case "link_close":
				insideAutolink++
			}
		}
	}
}

func replaceScoped(s string) string {
	out, err := scopedAbbrRegexp.ReplaceFunc(s, func(m regexp2.Match) string {
		return scopedAbbr[strings.ToLower(m.GroupByNumber(1).String())]
	}, -1, -1)
	if err != nil {
		return s
	}
	return out
}

func replaceRare(s string) string {
	if !matches(rareRegexp, s) {
		return s
	}
	for _, r := range rareReplacements {
		if out, err := r.re.Replace(s, r.with, -1, -1); err == nil {
			s = out
		}
	}
	return s
}

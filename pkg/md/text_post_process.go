// text_post_process.go rewrites text children of inline tokens after
// tokenization: mentions, hashtags and watched words all run through here.
package md

import (
	"regexp"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// maxMatches caps the matches collected for one text node.
const maxMatches = 100

// Match is one replacement found in a text node.
type Match struct {
	Index       int    // offset in runes
	Text        string // matched source text
	Replacement string // replacement text, URL when Link, markup when HTML
	Link        bool
	HTML        bool

	// Build, when set, pushes the replacement tokens itself.
	Build func(s *State)
}

func (m Match) end() int {
	return m.Index + utf8.RuneCountInString(m.Text)
}

// TextPostProcessRule finds matches of one kind.
type TextPostProcessRule struct {
	Name string

	// Word is a coarse test on the whole text; nil always scans.
	Word *regexp2.Regexp
	// Pattern is scanned for every match.
	Pattern *regexp2.Regexp
	// Boundary requires whitespace, punctuation or the text edge on both
	// sides of a match.
	Boundary bool

	// OnMatch turns a pattern match into a Match. Returning false drops it.
	OnMatch func(s *State, m *regexp2.Match) (Match, bool)
}

// TextPostProcessRuler holds the rules run together over each text node.
type TextPostProcessRuler struct {
	rules []TextPostProcessRule
}

// Push adds a rule.
func (r *TextPostProcessRuler) Push(rule TextPostProcessRule) {
	r.rules = append(r.rules, rule)
}

// Len returns the number of rules.
func (r *TextPostProcessRuler) Len() int {
	return len(r.rules)
}

// FindAll collects the matches of every rule in text, sorted by index.
// Overlapping matches are kept; the splice drops them.
func (r *TextPostProcessRuler) FindAll(s *State, text string) []Match {
	var found []Match
	runes := []rune(text)
	for _, rule := range r.rules {
		if len(found) >= maxMatches {
			break
		}
		if rule.Word != nil && !matches(rule.Word, text) {
			continue
		}
		m, err := rule.Pattern.FindStringMatch(text)
		for err == nil && m != nil && len(found) < maxMatches {
			if !rule.Boundary || allowedBoundary(runes, m.Index, m.Index+m.Length) {
				if match, ok := rule.OnMatch(s, m); ok {
					found = append(found, match)
				}
			}
			m, err = rule.Pattern.FindNextMatch(m)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Index < found[j].Index
	})
	return found
}

func allowedBoundary(runes []rune, start, end int) bool {
	if start > 0 && !isBoundaryRune(runes[start-1]) {
		return false
	}
	if end < len(runes) && !isBoundaryRune(runes[end]) {
		return false
	}
	return true
}

func isBoundaryRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r)
}

// splice rebuilds text around matches. Matches starting inside an earlier
// one are dropped. It returns nil when nothing matched.
func splice(s *State, text *Token, found []Match) []*Token {
	if len(found) == 0 {
		return nil
	}
	runes := []rune(text.Content)
	out := &State{Options: s.Options, Env: s.Env, level: text.Level}
	pos := 0
	for _, m := range found {
		if m.Index < pos {
			continue
		}
		if m.Index > pos {
			out.Push("text", "", NestingSelf).Content = string(runes[pos:m.Index])
		}
		switch {
		case m.Build != nil:
			m.Build(out)
		case m.Link:
			href := NormalizeLink(m.Replacement)
			if !ValidateLink(href) {
				out.Push("text", "", NestingSelf).Content = m.Text
				break
			}
			open := out.Push("link_open", "a", NestingOpen)
			open.AttrSet("href", href)
			open.Markup = "linkify"
			open.Info = "auto"
			out.Push("text", "", NestingSelf).Content = m.Text
			closeTok := out.Push("link_close", "a", NestingClose)
			closeTok.Markup = "linkify"
			closeTok.Info = "auto"
		case m.HTML:
			out.Push("html_inline", "", NestingSelf).Content = m.Replacement
		default:
			out.Push("text", "", NestingSelf).Content = m.Replacement
		}
		pos = m.end()
	}
	if pos < len(runes) {
		out.Push("text", "", NestingSelf).Content = string(runes[pos:])
	}
	return out.Tokens
}

var (
	htmlLinkOpenRegexp  = regexp.MustCompile(`(?i)^<a[>\s]`)
	htmlLinkCloseRegexp = regexp.MustCompile(`(?i)^</a\s*>`)
)

// applyTextPostProcess runs ruler over every text child of every inline
// token. Children are walked backward so splices do not move the tokens
// still to visit. Markdown links, HTML links and protected text are skipped.
// cache, when not nil, memoizes matches per text for this render.
func applyTextPostProcess(s *State, ruler *TextPostProcessRuler, cache map[string][]Match) {
	for _, block := range s.Tokens {
		if block.Type != "inline" {
			continue
		}
		markProtected(block.Children)

		children := block.Children
		htmlLinkLevel := 0
		for i := len(children) - 1; i >= 0; i-- {
			t := children[i]

			if t.Type == "link_close" {
				i = linkOpenBefore(children, i)
				continue
			}
			if t.Type == "html_inline" {
				if htmlLinkOpenRegexp.MatchString(t.Content) && htmlLinkLevel > 0 {
					htmlLinkLevel--
				}
				if htmlLinkCloseRegexp.MatchString(t.Content) {
					htmlLinkLevel++
				}
			}
			if htmlLinkLevel > 0 || t.Type != "text" || t.SkipReplace {
				continue
			}

			var found []Match
			if cache != nil {
				var ok bool
				if found, ok = cache[t.Content]; !ok {
					found = ruler.FindAll(s, t.Content)
					cache[t.Content] = found
				}
			} else {
				found = ruler.FindAll(s, t.Content)
			}
			if nodes := splice(s, t, found); nodes != nil {
				children = ReplaceAt(children, i, nodes)
			}
		}
		block.Children = children
	}
}

// linkOpenBefore returns the index of the link_open matching the link_close
// at i, or 0 when there is none.
func linkOpenBefore(children []*Token, i int) int {
	closeTok := children[i]
	for j := i - 1; j >= 0; j-- {
		if children[j].Type == "link_open" && children[j].Level == closeTok.Level {
			return j
		}
	}
	return 0
}

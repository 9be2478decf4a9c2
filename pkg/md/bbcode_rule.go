// bbcode_rule.go defines the per-tag rules used by the block and inline BBCode parsers.
package md

import "strings"

// BBCodeRule describes how one tag is turned into tokens.
//
// A rule either sets Replace, which owns the raw content, or any of
// Before, After and Wrap, which wrap the tokenized content.
type BBCodeRule struct {
	Tag string

	// Replace receives the raw content between the delimiters. Returning
	// false abandons the match and the text is parsed as if the tag were
	// not there.
	Replace func(s *State, info *Tag, content string) bool

	// Before receives the raw opening delimiter.
	Before func(s *State, info *Tag, raw string)

	// After receives the opening token of the wrapped region and the raw
	// closing delimiter.
	After func(s *State, open *Token, raw string)

	Wrap Wrap
}

// Wrap is either a WrapElement or a WrapBuilder.
type Wrap interface {
	isWrap()
}

// WrapElement wraps content in Tag with the given classes.
type WrapElement struct {
	Tag     string
	Classes []string
}

// WrapBuilder customises the opening wrap_bbcode token. Returning false
// abandons the match.
type WrapBuilder func(open *Token, info *Tag) bool

func (WrapElement) isWrap() {}
func (WrapBuilder) isWrap() {}

// ParseWrap turns "tag.class1.class2" into a WrapElement.
func ParseWrap(desc string) WrapElement {
	parts := strings.Split(desc, ".")
	w := WrapElement{Tag: parts[0]}
	for _, c := range parts[1:] {
		if c != "" {
			w.Classes = append(w.Classes, c)
		}
	}
	return w
}

// openWrapToken builds the opening token of a wrap. A builder returning false
// rejects the match.
func openWrapToken(w Wrap, info *Tag, typ string) (*Token, bool) {
	t := NewToken(typ, "div", NestingOpen)
	switch w := w.(type) {
	case WrapElement:
		t.Tag = w.Tag
		if len(w.Classes) > 0 {
			t.AttrSet("class", strings.Join(w.Classes, " "))
		}
	case WrapBuilder:
		if !w(t, info) {
			return nil, false
		}
	}
	return t, true
}

// BBCodeRuler maps tag names to rules. Block and inline parsing each own a ruler.
type BBCodeRuler struct {
	rules map[string]*BBCodeRule
	order []string
}

// NewBBCodeRuler creates an empty ruler.
func NewBBCodeRuler() *BBCodeRuler {
	return &BBCodeRuler{rules: map[string]*BBCodeRule{}}
}

// Push registers a rule. A later rule for the same tag replaces the earlier one.
func (r *BBCodeRuler) Push(rule BBCodeRule) {
	name := strings.ToLower(rule.Tag)
	rule.Tag = name
	if _, exists := r.rules[name]; !exists {
		r.order = append(r.order, name)
	}
	r.rules[name] = &rule
}

// Lookup returns the rule for a tag name, normalizing to lowercase.
func (r *BBCodeRuler) Lookup(name string) (*BBCodeRule, bool) {
	if r == nil {
		return nil, false
	}
	rule, ok := r.rules[strings.ToLower(name)]
	return rule, ok
}

// Tags returns the registered tag names in registration order.
func (r *BBCodeRuler) Tags() []string {
	return append([]string(nil), r.order...)
}

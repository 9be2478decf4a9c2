// tokens.go defines the token stream produced by the tokenizer and rewritten by rule passes.
package md

// Nesting is the structural role of a token in the stream.
type Nesting int

const (
	NestingClose Nesting = -1 // closes the most recent matching open
	NestingSelf  Nesting = 0  // self-contained (text, fence, image, ...)
	NestingOpen  Nesting = 1  // opens an element
)

// Attr is a single HTML attribute carried by a token.
type Attr struct {
	Name  string
	Value string
}

// Token is the unit of the cooked token stream.
type Token struct {
	Type     string  // heading_open, text, link_open, mention_open, fence, ...
	Tag      string  // HTML element hint ("a", "div", "")
	Nesting  Nesting // open, self or close
	Attrs    []Attr  // ordered, names unique
	Map      *[2]int // source line range [start, end) for block tokens
	Level    int     // nesting depth
	Content  string  // text payload
	Markup   string  // markup that produced the token ("```", "linkify", "[b]")
	Info     string  // fence info string, "auto" for autolinks
	Children []*Token
	Block    bool // block level token (rendered with trailing newline)
	Hidden   bool // paragraph of a tight list, not rendered

	// SkipReplace marks text that lies inside a mention or hashtag and must
	// not be rewritten by later text passes.
	SkipReplace bool
}

// NewToken creates a token with no attributes.
func NewToken(typ, tag string, nesting Nesting) *Token {
	return &Token{Type: typ, Tag: tag, Nesting: nesting}
}

// AttrIndex returns the index of the named attribute or -1.
func (t *Token) AttrIndex(name string) int {
	for i, a := range t.Attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// AttrGet returns the value of the named attribute and whether it is set.
func (t *Token) AttrGet(name string) (string, bool) {
	if i := t.AttrIndex(name); i >= 0 {
		return t.Attrs[i].Value, true
	}
	return "", false
}

// AttrSet sets an attribute, replacing an existing value so names stay unique.
func (t *Token) AttrSet(name, value string) {
	if i := t.AttrIndex(name); i >= 0 {
		t.Attrs[i].Value = value
		return
	}
	t.Attrs = append(t.Attrs, Attr{Name: name, Value: value})
}

// AttrJoin appends value to a space separated attribute such as class.
func (t *Token) AttrJoin(name, value string) {
	if i := t.AttrIndex(name); i >= 0 {
		if t.Attrs[i].Value == "" {
			t.Attrs[i].Value = value
		} else {
			t.Attrs[i].Value += " " + value
		}
		return
	}
	t.Attrs = append(t.Attrs, Attr{Name: name, Value: value})
}

// HasClass reports whether the class attribute contains the given class.
func (t *Token) HasClass(class string) bool {
	v, ok := t.AttrGet("class")
	if !ok {
		return false
	}
	start := -1
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ' ' {
			if start >= 0 && v[start:i] == class {
				return true
			}
			start = -1
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return false
}

// ReplaceAt replaces tokens[i] with nodes and returns the resulting slice.
// It is the only splice primitive used by rule passes.
func ReplaceAt(tokens []*Token, i int, nodes []*Token) []*Token {
	if i < 0 || i >= len(tokens) {
		return tokens
	}
	out := make([]*Token, 0, len(tokens)-1+len(nodes))
	out = append(out, tokens[:i]...)
	out = append(out, nodes...)
	out = append(out, tokens[i+1:]...)
	return out
}

// NestingSum returns the sum of the nesting values in tokens. A balanced
// subtree sums to zero.
func NestingSum(tokens []*Token) int {
	sum := 0
	for _, t := range tokens {
		sum += int(t.Nesting)
	}
	return sum
}

// Balanced reports whether every close in tokens matches the most recent
// unmatched open with the same tag.
func Balanced(tokens []*Token) bool {
	var stack []string
	for _, t := range tokens {
		switch t.Nesting {
		case NestingOpen:
			stack = append(stack, t.Tag)
		case NestingClose:
			if len(stack) == 0 || stack[len(stack)-1] != t.Tag {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

// TextOf concatenates the content of text-like tokens in a children slice.
func TextOf(tokens []*Token) string {
	var out []byte
	for _, t := range tokens {
		switch t.Type {
		case "text", "code_inline":
			out = append(out, t.Content...)
		case "softbreak", "hardbreak":
			out = append(out, '\n')
		case "image":
			out = append(out, TextOf(t.Children)...)
		}
	}
	return string(out)
}

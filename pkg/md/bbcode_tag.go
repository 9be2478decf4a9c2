// bbcode_tag.go parses a single [tag attr=val] or [/tag] delimiter.
package md

import (
	"regexp"
	"strings"
)

// maxTagLength bounds how far the parser looks for the end of one tag.
const maxTagLength = 2048

// Tag is the parse result of a BBCode delimiter.
type Tag struct {
	Name    string            // lowercase tag name
	Closing bool              // [/tag]
	Length  int               // bytes consumed, including brackets
	Attrs   map[string]string // _default holds the [tag=value] form
	Block   bool              // matched by the block rule
	Line    int               // source line of the opening delimiter (block rule only)
}

// Default returns the [tag=value] attribute.
func (t *Tag) Default() string {
	return t.Attrs["_default"]
}

// Attr returns a named attribute.
func (t *Tag) Attr(name string) (string, bool) {
	v, ok := t.Attrs[name]
	return v, ok
}

// quotationMarks are the accepted opening/closing pairs for attribute values.
var quotationMarks = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"“", "”"},
	{"‘", "’"},
	{"„", "“"},
	{"‚", "’"},
	{"«", "»"},
	{"‹", "›"},
}

var (
	closingTagRegexp = regexp.MustCompile(`^\[/(\w[-\w]*)\]`)
	legacyTagRegexp  = regexp.MustCompile(`(?i)^\[(quote|details)=`)
	attrRegexp       = buildAttrRegexp()
)

// buildAttrRegexp returns the key[=value] matcher. Group 1 is the key, group 2
// the "=value" part, groups 3.. one per quotation pair and the last group the
// unquoted value. It never matches a ']' outside of quotes.
func buildAttrRegexp() *regexp.Regexp {
	var alts []string
	openers := ""
	for _, q := range quotationMarks {
		open, close := regexp.QuoteMeta(q[0]), regexp.QuoteMeta(q[1])
		alts = append(alts, open+`([^`+close+`]*)`+close)
		openers += open
	}
	unquoted := `((?:[^\s\]` + openers + `][^\s\]]*)?)`
	return regexp.MustCompile(`^([-\w]+)(=(?:` + strings.Join(alts, "|") + `|` + unquoted + `))?`)
}

// ParseBBCodeTag parses a tag at src[start:max]. It returns nil when there is
// no valid tag at start. With multiline set, the rest of the line after the
// tag must be blank.
func ParseBBCodeTag(src string, start, max int, multiline bool) *Tag {
	if start < 0 || start >= max || max > len(src) || src[start] != '[' {
		return nil
	}

	end := max
	if end-start > maxTagLength {
		end = start + maxTagLength
	}
	text := src[start:end]

	var tag *Tag
	switch {
	case strings.HasPrefix(text, "[/"):
		m := closingTagRegexp.FindStringSubmatch(text)
		if m == nil {
			return nil
		}
		tag = &Tag{Name: strings.ToLower(m[1]), Closing: true, Length: len(m[0])}
	default:
		tag = parseLegacyTag(text)
		if tag == nil {
			tag = parseGeneralTag(text)
		}
		if tag == nil {
			return nil
		}
	}

	if multiline && !trailingSpaceOnly(src, start+tag.Length, max) {
		return nil
	}
	return tag
}

// tagName returns the lowercase name of the tag at the start of src without
// parsing attributes, so unknown tags are rejected cheaply.
func tagName(src string) string {
	i := 1
	if i < len(src) && src[i] == '/' {
		i++
	}
	start := i
	for i < len(src) && (isWordByte(src[i]) || (i > start && src[i] == '-')) {
		i++
	}
	return strings.ToLower(src[start:i])
}

// parseLegacyTag handles [quote=Author, post:1, topic:2] where the default
// value is not quoted and may contain spaces.
func parseLegacyTag(text string) *Tag {
	loc := legacyTagRegexp.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil
	}
	rest := text[loc[1]:]
	if rest == "" || startsWithQuotationMark(rest) {
		return nil
	}

	var value strings.Builder
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '\\':
			if i+1 < len(rest) && rest[i+1] == ']' {
				value.WriteByte(']')
				i++
				continue
			}
			value.WriteByte('\\')
		case '\n':
			return nil
		case ']':
			return &Tag{
				Name:   strings.ToLower(text[loc[2]:loc[3]]),
				Length: loc[1] + i + 1,
				Attrs:  map[string]string{"_default": value.String()},
			}
		default:
			value.WriteByte(rest[i])
		}
	}
	return nil
}

// parseGeneralTag handles [tag], [tag=value] and [tag key=value key2="v a l"].
// Any attribute it cannot parse rejects the whole tag.
func parseGeneralTag(text string) *Tag {
	tag := &Tag{Attrs: map[string]string{}}
	pos := 1

	for first := true; ; first = false {
		if !first {
			ws := leadingSpace(text[pos:])
			if ws == 0 {
				break
			}
			pos += ws
			if pos < len(text) && text[pos] == ']' {
				break
			}
		}

		loc := attrRegexp.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return nil
		}
		key := text[pos+loc[2] : pos+loc[3]]
		value, hasValue := attrValue(text[pos:], loc)

		if first {
			if !isWordByte(key[0]) {
				return nil
			}
			tag.Name = strings.ToLower(key)
			if hasValue {
				tag.Attrs["_default"] = value
			}
		} else if hasValue {
			tag.Attrs[key] = value
		} else {
			tag.Attrs[key] = "true"
		}
		pos += loc[1]
	}

	// ']' is not part of the attribute grammar, it is checked here.
	if pos >= len(text) || text[pos] != ']' {
		return nil
	}
	tag.Length = pos + 1
	return tag
}

// attrValue extracts the value of a key=value match.
func attrValue(s string, loc []int) (string, bool) {
	if loc[4] < 0 {
		return "", false
	}
	for g := 3; g*2+1 < len(loc); g++ {
		if loc[g*2] >= 0 {
			return s[loc[g*2]:loc[g*2+1]], true
		}
	}
	return "", true
}

func startsWithQuotationMark(s string) bool {
	for _, q := range quotationMarks {
		if strings.HasPrefix(s, q[0]) {
			return true
		}
	}
	return false
}

// trailingSpaceOnly reports whether src[start:max] is blank up to the end of the line.
func trailingSpaceOnly(src string, start, max int) bool {
	for i := start; i < max && i < len(src); i++ {
		switch src[i] {
		case '\n':
			return true
		case ' ', '\t', '\r', '\f', '\v':
		default:
			return false
		}
	}
	return true
}

func leadingSpace(s string) int {
	n := 0
	for n < len(s) && isSpaceByte(s[n]) {
		n++
	}
	return n
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

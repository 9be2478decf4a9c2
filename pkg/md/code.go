package md

import (
	"regexp"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark/util"
)

// CodeInfo is a parsed fence info string: `lang key=val, key2=val2`.
type CodeInfo struct {
	Tag        string
	Attributes []Attr
}

var (
	codeLangRegexp = regexp.MustCompile(`^[\w+-]*$`)
	attrKeyInvalid = regexp.MustCompile(`[^\w-]`)

	textCodeClasses = map[string]bool{"text": true, "pre": true, "plain": true}
)

// ParseCodeInfo parses a fence info string. It returns false when the
// string is empty or the language holds characters outside [\w+-]; callers
// then use the default language. Malformed attribute pairs are dropped.
func ParseCodeInfo(info string) (CodeInfo, bool) {
	info = strings.TrimSpace(info)
	if info == "" {
		return CodeInfo{}, false
	}

	tag, rest := info, ""
	if i := strings.IndexAny(info, " \t"); i >= 0 {
		tag, rest = info[:i], strings.TrimSpace(info[i+1:])
	}
	if !codeLangRegexp.MatchString(tag) {
		return CodeInfo{}, false
	}

	ci := CodeInfo{Tag: tag}
	if rest == "" {
		return ci, true
	}
	for _, term := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(term, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		ci.Attributes = append(ci.Attributes, Attr{Name: key, Value: value})
	}
	return ci, true
}

// renderFence writes <pre data-code-*><code class="lang-*">.
func renderFence(t *Token, opts *Options) string {
	info, ok := ParseCodeInfo(t.Info)
	tag := info.Tag
	if !ok || tag == "" {
		tag = opts.DefaultCodeLang
		info.Attributes = nil
	}
	if tag == "" {
		tag = "auto"
	}

	attrs := info.Attributes
	var class string
	switch {
	case textCodeClasses[tag]:
		class = "lang-nohighlight"
	case tag == "auto":
		class = "lang-auto"
	default:
		class = "lang-" + escapeString(tag)
		attrs = append([]Attr{{Name: "wrap", Value: tag}}, attrs...)
	}

	var b strings.Builder
	b.WriteString("<pre")
	seen := map[string]bool{}
	for _, a := range attrs {
		key := attrKeyInvalid.ReplaceAllString(a.Name, "")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		b.WriteString(" data-code-" + escapeString(key) + `="` + escapeString(a.Value) + `"`)
	}
	b.WriteString(`><code class="` + class + `">`)

	highlighted := false
	if opts.HighlightCode && !textCodeClasses[tag] && tag != "auto" {
		if lexer := getLexer(tag); lexer != nil {
			if out, err := highlight(lexer, t.Content); err == nil {
				b.WriteString(out)
				highlighted = true
			}
		}
	}
	if !highlighted {
		b.WriteString(escapeString(t.Content))
	}
	b.WriteString("</code></pre>\n")
	return b.String()
}

var (
	lexerMap = map[string]chroma.Lexer{}
	lexerMut sync.Mutex
)

func getLexer(lang string) chroma.Lexer {
	lexerMut.Lock()
	defer lexerMut.Unlock()

	if l, ok := lexerMap[lang]; ok {
		return l
	}
	l := lexers.Get(lang)
	if l != nil {
		l = chroma.Coalesce(l)
	}
	lexerMap[lang] = l
	return l
}

// highlightClassPrefix marks the spans of highlighted code, so the sanitizer
// can allow them without allowing every class on span.
const highlightClassPrefix = "hl-"

// highlight emits chroma tokens as spans carrying chroma's short class
// names, prefixed with highlightClassPrefix.
func highlight(lexer chroma.Lexer, code string) (string, error) {
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, tok := range it.Tokens() {
		value := escapeString(tok.Value)
		if class := tokenClass(tok.Type); class != "" {
			b.WriteString(`<span class="` + class + `">` + value + "</span>")
			continue
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

func tokenClass(tt chroma.TokenType) string {
	for _, t := range []chroma.TokenType{tt, tt.SubCategory(), tt.Category()} {
		if class, ok := chroma.StandardTypes[t]; ok && class != "" {
			return highlightClassPrefix + class
		}
	}
	return ""
}

func escapeString(s string) string {
	return string(util.EscapeHTML([]byte(s)))
}

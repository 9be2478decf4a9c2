// tokenize.go parses source with goldmark and flattens the AST into tokens.
package md

import (
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Parser priorities relative to goldmark's defaults: fenced code is 700,
// blockquote 800 and paragraph 1000; links are 200.
const (
	blockBBCodePriority  = 750
	inlineBBCodePriority = 150
	pairingPriority      = 100
)

// tokenizer is the base tokenizer: goldmark with the BBCode parsers added.
// It is built once per Cooker and is safe for concurrent use.
type tokenizer struct {
	parser parser.Parser
	opts   *Options
}

func newTokenizer(opts *Options, block, inline *BBCodeRuler) *tokenizer {
	gm := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
		),
		goldmark.WithParserOptions(
			parser.WithBlockParsers(
				util.Prioritized(&bbcodeBlockParser{ruler: block, opts: opts}, blockBBCodePriority),
			),
			parser.WithInlineParsers(
				util.Prioritized(&bbcodeInlineParser{ruler: inline, opts: opts}, inlineBBCodePriority),
			),
			parser.WithASTTransformers(
				util.Prioritized(bbcodePairing{}, pairingPriority),
			),
		),
	)
	return &tokenizer{parser: gm.Parser(), opts: opts}
}

// Tokenize returns the block token stream for src.
func (t *tokenizer) Tokenize(src []byte, env *Env) []*Token {
	pc := parser.NewContext()
	pc.Set(envKey, env)
	doc := t.parser.Parse(text.NewReader(src), parser.WithContext(pc))

	f := &flattener{
		src:        src,
		state:      newState(t.opts, env, true),
		lineStarts: lineStarts(src),
	}
	f.children(doc)
	return f.state.Tokens
}

type flattener struct {
	src        []byte
	state      *State
	lineStarts []int
}

func (f *flattener) children(parent ast.Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		f.block(c)
	}
}

func (f *flattener) block(n ast.Node) {
	s := f.state
	switch n := n.(type) {
	case *ast.Paragraph:
		f.paragraph(n, false)
	case *ast.TextBlock:
		f.paragraph(n, true)
	case *ast.Heading:
		tag := "h" + strconv.Itoa(n.Level)
		open := s.Push("heading_open", tag, NestingOpen)
		open.Markup = strings.Repeat("#", n.Level)
		open.Map = f.lineMap(n)
		f.inline(n)
		s.Push("heading_close", tag, NestingClose).Markup = open.Markup
	case *ast.ThematicBreak:
		s.Push("hr", "hr", NestingSelf).Markup = "---"
	case *ast.CodeBlock:
		t := s.Push("code_block", "code", NestingSelf)
		t.Content = f.lines(n)
		t.Map = f.lineMap(n)
	case *ast.FencedCodeBlock:
		t := s.Push("fence", "code", NestingSelf)
		t.Markup = "```"
		if n.Info != nil {
			t.Info = strings.TrimSpace(string(n.Info.Segment.Value(f.src)))
		}
		t.Content = f.lines(n)
		t.Map = f.lineMap(n)
	case *ast.HTMLBlock:
		t := s.Push("html_block", "", NestingSelf)
		t.Content = f.lines(n)
		if n.HasClosure() {
			t.Content += string(n.ClosureLine.Value(f.src))
		}
		t.Map = f.lineMap(n)
	case *ast.Blockquote:
		defer s.enter("blockquote")()
		s.Push("blockquote_open", "blockquote", NestingOpen).Markup = ">"
		f.children(n)
		s.Push("blockquote_close", "blockquote", NestingClose).Markup = ">"
	case *ast.List:
		f.list(n)
	case *ast.ListItem:
		s.Push("list_item_open", "li", NestingOpen)
		f.children(n)
		s.Push("list_item_close", "li", NestingClose)
	case *east.Table:
		f.table(n)
	case *BBCodeBlock:
		f.bbcodeBlock(n)
	default:
		f.children(n)
	}
}

func (f *flattener) paragraph(n ast.Node, hidden bool) {
	s := f.state
	open := s.Push("paragraph_open", "p", NestingOpen)
	open.Hidden = hidden
	open.Map = f.lineMap(n)
	f.inline(n)
	s.Push("paragraph_close", "p", NestingClose).Hidden = hidden
}

func (f *flattener) list(n *ast.List) {
	s := f.state
	defer s.enter("list")()

	typ, tag := "bullet_list", "ul"
	if n.IsOrdered() {
		typ, tag = "ordered_list", "ol"
	}
	open := s.Push(typ+"_open", tag, NestingOpen)
	open.Markup = string(n.Marker)
	if n.IsOrdered() && n.Start != 1 {
		open.AttrSet("start", strconv.Itoa(n.Start))
	}
	f.children(n)
	s.Push(typ+"_close", tag, NestingClose).Markup = open.Markup
}

func (f *flattener) table(n *east.Table) {
	s := f.state
	s.Push("table_open", "table", NestingOpen)
	inBody := false
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		cell := "td"
		switch row.(type) {
		case *east.TableHeader:
			cell = "th"
			s.Push("thead_open", "thead", NestingOpen)
		default:
			if !inBody {
				s.Push("tbody_open", "tbody", NestingOpen)
				inBody = true
			}
		}
		s.Push("tr_open", "tr", NestingOpen)
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			open := s.Push(cell+"_open", cell, NestingOpen)
			if tc, ok := c.(*east.TableCell); ok && tc.Alignment != east.AlignNone {
				open.AttrSet("style", "text-align:"+tc.Alignment.String())
			}
			f.inline(c)
			s.Push(cell+"_close", cell, NestingClose)
		}
		s.Push("tr_close", "tr", NestingClose)
		if cell == "th" {
			s.Push("thead_close", "thead", NestingClose)
		}
	}
	if inBody {
		s.Push("tbody_close", "tbody", NestingClose)
	}
	s.Push("table_close", "table", NestingClose)
}

// bbcodeBlock emits a matched block region. Everything that can reject the
// match ran at parse time, so emission cannot fail.
func (f *flattener) bbcodeBlock(n *BBCodeBlock) {
	s := f.state
	if n.Rule.Replace != nil {
		for _, t := range n.tokens {
			s.PushToken(t)
		}
		return
	}

	defer s.enter("bbcode")()

	var open *Token
	if n.open != nil {
		open = n.open
		open.Markup = n.RawOpen
		s.PushToken(open)
	}
	if n.Rule.Before != nil {
		n.Rule.Before(s, n.Info, n.RawOpen)
	}
	last := s.Last()

	f.children(n)

	if n.Rule.After != nil {
		n.Rule.After(s, last, n.RawClose)
	}
	if open != nil {
		s.Push("wrap_bbcode", open.Tag, NestingClose).Markup = n.RawClose
	}
}

// inline emits an inline token whose children are the inline content of n.
func (f *flattener) inline(n ast.Node) {
	t := NewToken("inline", "", NestingSelf)
	t.Content = strings.TrimSpace(f.lines(n))
	t.Map = f.lineMap(n)

	st := f.state.inline()
	f.inlineChildren(n, st)
	t.Children = st.Tokens
	f.state.PushToken(t)
}

func (f *flattener) inlineChildren(parent ast.Node, st *State) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		f.inlineNode(c, st)
	}
}

func (f *flattener) inlineNode(n ast.Node, st *State) {
	switch n := n.(type) {
	case *ast.Text:
		value := n.Segment.Value(f.src)
		if !n.IsRaw() {
			value = unescapeText(value)
		}
		if len(value) > 0 {
			st.Push("text", "", NestingSelf).Content = string(value)
		}
		switch {
		case n.HardLineBreak():
			st.Push("hardbreak", "br", NestingSelf)
		case n.SoftLineBreak():
			st.Push("softbreak", "br", NestingSelf)
		}
	case *ast.String:
		st.Push("text", "", NestingSelf).Content = string(n.Value)
	case *ast.CodeSpan:
		t := st.Push("code_inline", "code", NestingSelf)
		t.Markup = "`"
		t.Content = f.rawText(n)
	case *ast.Emphasis:
		typ, tag, markup := "em", "em", "*"
		if n.Level == 2 {
			typ, tag, markup = "strong", "strong", "**"
		}
		st.Push(typ+"_open", tag, NestingOpen).Markup = markup
		f.inlineChildren(n, st)
		st.Push(typ+"_close", tag, NestingClose).Markup = markup
	case *east.Strikethrough:
		st.Push("s_open", "s", NestingOpen).Markup = "~~"
		f.inlineChildren(n, st)
		st.Push("s_close", "s", NestingClose).Markup = "~~"
	case *ast.Link:
		href := NormalizeLink(string(n.Destination))
		if !ValidateLink(href) {
			f.inlineChildren(n, st)
			return
		}
		open := st.Push("link_open", "a", NestingOpen)
		open.AttrSet("href", href)
		if len(n.Title) > 0 {
			open.AttrSet("title", string(n.Title))
		}
		f.inlineChildren(n, st)
		st.Push("link_close", "a", NestingClose)
	case *ast.Image:
		src := NormalizeLink(string(n.Destination))
		if !ValidateLink(src) {
			f.inlineChildren(n, st)
			return
		}
		t := NewToken("image", "img", NestingSelf)
		t.AttrSet("src", src)
		t.AttrSet("alt", "")
		if len(n.Title) > 0 {
			t.AttrSet("title", string(n.Title))
		}
		alt := st.inline()
		f.inlineChildren(n, alt)
		t.Children = alt.Tokens
		t.Content = TextOf(alt.Tokens)
		st.PushToken(t)
	case *ast.AutoLink:
		f.autoLink(n, st)
	case *ast.RawHTML:
		var b strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(f.src))
		}
		st.Push("html_inline", "", NestingSelf).Content = b.String()
	case *bbcodeMarker:
		for _, t := range n.tokens {
			st.PushToken(t)
		}
	case *BBCodeInline:
		f.bbcodeInline(n, st)
	default:
		f.inlineChildren(n, st)
	}
}

func (f *flattener) autoLink(n *ast.AutoLink, st *State) {
	url := string(n.URL(f.src))
	label := string(n.Label(f.src))
	if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
		url = "mailto:" + url
	}
	href := NormalizeLink(url)
	if !ValidateLink(href) {
		st.Push("text", "", NestingSelf).Content = label
		return
	}
	open := st.Push("link_open", "a", NestingOpen)
	open.AttrSet("href", href)
	open.Markup = "autolink"
	open.Info = "auto"
	st.Push("text", "", NestingSelf).Content = label
	closeTok := st.Push("link_close", "a", NestingClose)
	closeTok.Markup = "autolink"
	closeTok.Info = "auto"
}

func (f *flattener) bbcodeInline(n *BBCodeInline, st *State) {
	open := n.open
	if open != nil {
		open.Markup = n.RawOpen
		st.PushToken(open)
	}
	if n.Rule.Before != nil {
		n.Rule.Before(st, n.Info, n.RawOpen)
	}
	last := st.Last()
	f.inlineChildren(n, st)
	if n.Rule.After != nil {
		n.Rule.After(st, last, n.RawClose)
	}
	if open != nil {
		st.Push("bbcode_close", open.Tag, NestingClose).Markup = n.RawClose
	}
}

// lines joins the raw line segments of a block node.
func (f *flattener) lines(n ast.Node) string {
	lines := n.Lines()
	if lines == nil {
		return ""
	}
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(f.src))
	}
	return b.String()
}

// rawText concatenates the raw source of the text children of n.
func (f *flattener) rawText(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(f.src))
		case *ast.String:
			b.Write(c.Value)
		}
	}
	return b.String()
}

// lineMap returns the [start, end) source line range of a block node.
func (f *flattener) lineMap(n ast.Node) *[2]int {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return nil
	}
	first, last := lines.At(0), lines.At(lines.Len()-1)
	return &[2]int{f.lineOf(first.Start), f.lineOf(last.Stop-1) + 1}
}

func (f *flattener) lineOf(offset int) int {
	return sort.SearchInts(f.lineStarts, offset+1) - 1
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// unescapeText resolves backslash escapes and character references the way
// goldmark's HTML writer does for non-raw text.
func unescapeText(v []byte) []byte {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	return util.ResolveEntityNames(v)
}

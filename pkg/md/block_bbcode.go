// block_bbcode.go implements [tag]...[/tag] regions spanning whole lines.
package md

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// blockMatch is a matched block BBCode region.
type blockMatch struct {
	Info     *Tag
	Rule     *BBCodeRule
	RawOpen  string
	RawClose string
	Inline   bool   // closed on the opening line
	Content  string // slice between the delimiters, or the joined body lines
	Lines    int    // lines consumed, opening and closing line included

	openEnd    int // offset of the content on the opening line (Inline only)
	closeStart int
	closeEnd   int // offset of the text following a same line close
}

// lineFunc returns line i (1-based, relative to the opening line) without
// its newline, or false past the end of the source.
type lineFunc func(i int) (string, bool)

// closeFunc locates the closing delimiter for open in the lines that follow
// it. It returns the close line index, its raw text and the body lines, or
// an empty close when the region is unclosed.
type closeFunc func(open *Tag) (int, string, []string)

// matchBlockBBCode matches a block region whose opening delimiter is on
// first. In silent mode only the opening tag and rule are checked. It returns
// nil when the lines do not form a region, in which case nothing may be
// emitted for them.
func matchBlockBBCode(ruler *BBCodeRuler, first string, lineAt lineFunc, silent bool) *blockMatch {
	return matchBlock(ruler, first, func(open *Tag) (int, string, []string) {
		return findBlockCloseTag(open, lineAt)
	}, silent)
}

func matchBlock(ruler *BBCodeRuler, first string, findClose closeFunc, silent bool) *blockMatch {
	pos := leadingSpace(first)
	if indentWidth(first[:pos]) >= 4 || pos >= len(first) || first[pos] != '[' {
		return nil
	}
	if _, ok := ruler.Lookup(tagName(first[pos:])); !ok {
		return nil
	}

	info := ParseBBCodeTag(first, pos, len(first), false)
	if info == nil || info.Closing {
		return nil
	}
	rule, ok := ruler.Lookup(info.Name)
	if !ok {
		return nil
	}
	info.Block = true

	if silent {
		return &blockMatch{Info: info, Rule: rule}
	}

	openEnd := pos + info.Length
	if closeStart, closeTag := findInlineCloseTag(first, info, openEnd); closeTag != nil {
		return &blockMatch{
			Info:       info,
			Rule:       rule,
			RawOpen:    first[pos:openEnd],
			RawClose:   first[closeStart : closeStart+closeTag.Length],
			Inline:     true,
			Content:    first[openEnd:closeStart],
			Lines:      1,
			openEnd:    openEnd,
			closeStart: closeStart,
			closeEnd:   closeStart + closeTag.Length,
		}
	}

	if !trailingSpaceOnly(first, openEnd, len(first)) {
		return nil
	}

	closeLine, closeTag, body := findClose(info)
	if closeTag == "" {
		return nil
	}
	content := ""
	if len(body) > 0 {
		content = strings.Join(body, "\n") + "\n"
	}
	return &blockMatch{
		Info:     info,
		Rule:     rule,
		RawOpen:  first[pos:openEnd],
		RawClose: closeTag,
		Content:  content,
		Lines:    closeLine + 1,
	}
}

// findInlineCloseTag scans line backward from its end for a closing tag for
// open. Each ']' starts a candidate that the nearest '[' before it must
// close exactly; a candidate that does not is a false start and the scan
// goes on. Text after the matched close is left to the caller.
func findInlineCloseTag(line string, open *Tag, start int) (int, *Tag) {
	end := -1
	for j := len(line) - 1; j >= start; j-- {
		switch line[j] {
		case ']':
			end = j + 1
		case '[':
			if end < 0 {
				continue
			}
			tag := ParseBBCodeTag(line, j, end, false)
			if tag != nil && tag.Closing && tag.Name == open.Name && j+tag.Length == end {
				return j, tag
			}
			end = -1
		}
	}
	return -1, nil
}

// findBlockCloseTag searches the following lines for the closing delimiter,
// skipping nested regions of the same tag. It returns the line index of the
// close, its raw text and the body lines in between. An unclosed region
// returns an empty close.
func findBlockCloseTag(open *Tag, lineAt lineFunc) (int, string, []string) {
	nesting := 0
	var body []string
	for i := 1; ; i++ {
		line, ok := lineAt(i)
		if !ok {
			return 0, "", nil
		}

		p := leadingSpace(line)
		if p < len(line) && line[p] == '[' && indentWidth(line[:p]) < 4 {
			if tag := ParseBBCodeTag(line, p, len(line), true); tag != nil && tag.Name == open.Name {
				if tag.Closing {
					if nesting == 0 {
						return i, line[p : p+tag.Length], body
					}
					nesting--
				} else {
					nesting++
				}
			}
		}
		body = append(body, line)
	}
}

// indentWidth returns the visual width of leading whitespace, tabs to 4.
func indentWidth(s string) int {
	w := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ':
			w++
		case '\t':
			w += 4 - w%4
		default:
			return w
		}
	}
	return w
}

// KindBBCodeBlock is the node kind of block BBCode regions.
var KindBBCodeBlock = ast.NewNodeKind("BBCodeBlock")

// BBCodeBlock is a matched block region in the goldmark AST. Replace rules
// have their tokens recorded at parse time; other rules wrap the children.
type BBCodeBlock struct {
	ast.BaseBlock
	Info     *Tag
	Rule     *BBCodeRule
	RawOpen  string
	RawClose string

	open      *Token // wrap_bbcode opening token, built at parse time
	tokens    []*Token
	remaining int
	trailing  ast.Node // paragraph for text after a same line close
}

// Kind implements ast.Node.Kind.
func (n *BBCodeBlock) Kind() ast.NodeKind {
	return KindBBCodeBlock
}

// Dump implements ast.Node.Dump.
func (n *BBCodeBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Tag": n.Info.Name}, nil)
}

// bbcodeBlockParser adapts matchBlockBBCode to goldmark's block parsing.
type bbcodeBlockParser struct {
	ruler *BBCodeRuler
	opts  *Options
}

func (b *bbcodeBlockParser) Trigger() []byte {
	return []byte{'['}
}

func (b *bbcodeBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	if line == nil {
		return nil, parser.NoChildren
	}
	src := reader.Source()
	first := trimNewline(string(line))

	m := matchBlock(b.ruler, first, indexedClose(envFrom(pc), src, segment.Start), false)
	if m == nil {
		return nil, parser.NoChildren
	}
	lineNo, _ := reader.Position()
	m.Info.Line = lineNo

	node := &BBCodeBlock{
		Info:      m.Info,
		Rule:      m.Rule,
		RawOpen:   m.RawOpen,
		RawClose:  m.RawClose,
		remaining: m.Lines - 1,
	}
	if m.Inline {
		node.trailing = inlineParagraph(first, segment, m.closeEnd, len(first))
	}

	if m.Rule.Replace != nil {
		st := newState(b.opts, envFrom(pc), true)
		if !m.Rule.Replace(st, m.Info, m.Content) {
			return nil, parser.NoChildren
		}
		node.tokens = st.Tokens
		reader.Advance(len(first))
		return node, parser.NoChildren
	}

	if m.Rule.Wrap != nil {
		open, ok := openWrapToken(m.Rule.Wrap, m.Info, "wrap_bbcode")
		if !ok {
			return nil, parser.NoChildren
		}
		node.open = open
	}

	if m.Inline {
		if para := inlineParagraph(first, segment, m.openEnd, m.closeStart); para != nil {
			node.AppendChild(node, para)
		}
		reader.Advance(len(first))
		return node, parser.NoChildren
	}

	reader.Advance(len(first))
	return node, parser.HasChildren
}

func (b *bbcodeBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*BBCodeBlock)
	if n.remaining <= 0 {
		return parser.Close
	}
	line, _ := reader.PeekLine()
	n.remaining--
	if n.remaining == 0 {
		// The closing line belongs to this block; nothing below it is absorbed.
		reader.Advance(len(trimNewline(string(line))))
		return parser.Close
	}
	if n.Rule.Replace != nil {
		reader.Advance(len(trimNewline(string(line))))
		return parser.Continue | parser.NoChildren
	}
	return parser.Continue | parser.HasChildren
}

func (b *bbcodeBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	n := node.(*BBCodeBlock)
	if parent := n.Parent(); n.trailing != nil && parent != nil {
		parent.InsertAfter(parent, n, n.trailing)
		n.trailing = nil
	}
}

func (b *bbcodeBlockParser) CanInterruptParagraph() bool {
	return true
}

func (b *bbcodeBlockParser) CanAcceptIndentedLine() bool {
	return false
}

// inlineParagraph builds the paragraph for [tag]content[/tag] on one line.
func inlineParagraph(first string, segment text.Segment, from, to int) ast.Node {
	for from < to && isSpaceByte(first[from]) {
		from++
	}
	for to > from && isSpaceByte(first[to-1]) {
		to--
	}
	if from >= to {
		return nil
	}
	base := segment.Start - segment.Padding
	para := ast.NewParagraph()
	para.Lines().Append(text.NewSegment(base+from, base+to))
	return para
}

// linePrefix returns the container markers preceding the reader position on
// the current source line, e.g. "> " inside a blockquote.
func linePrefix(src []byte, at int) string {
	lineStart := bytes.LastIndexByte(src[:at], '\n') + 1
	return string(src[lineStart:at])
}

// stripContainerPrefix removes the container markers of the opening line,
// e.g. "> ", from a following line.
func stripContainerPrefix(line, prefix string) string {
	if prefix == "" {
		return line
	}
	if strings.HasPrefix(line, prefix) {
		return line[len(prefix):]
	}
	if trimmed := strings.TrimRight(prefix, " \t"); trimmed != "" && strings.HasPrefix(line, trimmed) {
		return line[len(trimmed):]
	}
	if strings.TrimSpace(prefix) == "" {
		n := leadingSpace(line)
		if n > len(prefix) {
			n = len(prefix)
		}
		return line[n:]
	}
	return line
}

func trimNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

const closeIndexKey = "bbcode-block:close-index"

// closeIndex classifies every source line once per tag name and container
// prefix, so an opening line finds its close with a lookup instead of a
// rescan of the rest of the document.
type closeIndex struct {
	depth  []int         // opens minus closes on the lines before i
	closes map[int][]int // depth before a close line -> close line indices
}

// closeCache holds the close indexes of one source.
type closeCache struct {
	src     []byte
	starts  []int
	indexes map[string]*closeIndex
}

func (c *closeCache) line(i int, prefix string) string {
	end := len(c.src)
	if i+1 < len(c.starts) {
		end = c.starts[i+1] - 1
	}
	return stripContainerPrefix(trimNewline(string(c.src[c.starts[i]:end])), prefix)
}

func (c *closeCache) index(name, prefix string) *closeIndex {
	key := name + "\x00" + prefix
	if idx, ok := c.indexes[key]; ok {
		return idx
	}
	idx := &closeIndex{depth: make([]int, len(c.starts)+1), closes: map[int][]int{}}
	for i := range c.starts {
		d := idx.depth[i]
		line := c.line(i, prefix)
		p := leadingSpace(line)
		if p < len(line) && line[p] == '[' && indentWidth(line[:p]) < 4 {
			if tag := ParseBBCodeTag(line, p, len(line), true); tag != nil && tag.Name == name {
				if tag.Closing {
					idx.closes[d] = append(idx.closes[d], i)
					d--
				} else {
					d++
				}
			}
		}
		idx.depth[i+1] = d
	}
	c.indexes[key] = idx
	return idx
}

func closeCacheFor(env *Env, src []byte) *closeCache {
	if c, ok := env.Scratch[closeIndexKey].(*closeCache); ok &&
		len(c.src) == len(src) && (len(src) == 0 || &c.src[0] == &src[0]) {
		return c
	}
	c := &closeCache{src: src, starts: lineStarts(src), indexes: map[string]*closeIndex{}}
	env.Scratch[closeIndexKey] = c
	return c
}

// indexedClose finds the close for an opening line at offset at through the
// per-render close index. It agrees with findBlockCloseTag run over the
// following lines with the container prefix removed.
func indexedClose(env *Env, src []byte, at int) closeFunc {
	return func(open *Tag) (int, string, []string) {
		c := closeCacheFor(env, src)
		prefix := linePrefix(src, at)
		idx := c.index(open.Name, prefix)

		k := sort.SearchInts(c.starts, at+1) - 1
		if k+1 >= len(c.starts) {
			return 0, "", nil
		}
		// The first close after k at the depth seen on entering k+1 is the
		// one findBlockCloseTag reaches with zero nesting.
		list := idx.closes[idx.depth[k+1]]
		n := sort.SearchInts(list, k+1)
		if n == len(list) {
			return 0, "", nil
		}
		j := list[n]

		var body []string
		for i := k + 1; i < j; i++ {
			body = append(body, c.line(i, prefix))
		}
		closeLine := c.line(j, prefix)
		p := leadingSpace(closeLine)
		tag := ParseBBCodeTag(closeLine, p, len(closeLine), true)
		return j - k, closeLine[p : p+tag.Length], body
	}
}

// envKey carries the per-render Env through goldmark's parser context.
var envKey = parser.NewContextKey()

func envFrom(pc parser.Context) *Env {
	if v, ok := pc.Get(envKey).(*Env); ok {
		return v
	}
	return &Env{Scratch: map[string]any{}}
}

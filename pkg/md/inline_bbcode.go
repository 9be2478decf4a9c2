// inline_bbcode.go implements [tag]...[/tag] inside the inline content of one line.
package md

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	// KindBBCodeMarker is a delimiter waiting to be paired.
	KindBBCodeMarker = ast.NewNodeKind("BBCodeMarker")
	// KindBBCodeInline is a paired inline region.
	KindBBCodeInline = ast.NewNodeKind("BBCodeInline")
)

// bbcodeMarker is an opening or closing delimiter found by the inline
// parser. The pairing transformer turns pairs into BBCodeInline nodes and
// everything left over back into text.
type bbcodeMarker struct {
	ast.BaseInline
	Info    *Tag
	Rule    *BBCodeRule
	Segment text.Segment

	// tokens is set for replace rules, which are complete on their own.
	tokens []*Token
	open   *Token
	raw    string
}

func (n *bbcodeMarker) Kind() ast.NodeKind {
	return KindBBCodeMarker
}

func (n *bbcodeMarker) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Tag": n.Info.Name}, nil)
}

// BBCodeInline is a paired inline region wrapping its children.
type BBCodeInline struct {
	ast.BaseInline
	Info     *Tag
	Rule     *BBCodeRule
	RawOpen  string
	RawClose string

	open *Token
}

// Kind implements ast.Node.Kind.
func (n *BBCodeInline) Kind() ast.NodeKind {
	return KindBBCodeInline
}

// Dump implements ast.Node.Dump.
func (n *BBCodeInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Tag": n.Info.Name}, nil)
}

type bbcodeInlineParser struct {
	ruler *BBCodeRuler
	opts  *Options
}

func (b *bbcodeInlineParser) Trigger() []byte {
	return []byte{'['}
}

func (b *bbcodeInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, seg := block.PeekLine()
	if len(line) == 0 {
		return nil
	}
	src := string(line)
	if _, ok := b.ruler.Lookup(tagName(src)); !ok {
		return nil
	}

	info := ParseBBCodeTag(src, 0, len(src), false)
	if info == nil {
		return nil
	}
	rule, ok := b.ruler.Lookup(info.Name)
	if !ok {
		return nil
	}

	if info.Closing || rule.Replace == nil {
		marker := &bbcodeMarker{
			Info:    info,
			Rule:    rule,
			Segment: text.NewSegment(seg.Start, seg.Start+info.Length),
			raw:     src[:info.Length],
		}
		if !info.Closing && rule.Wrap != nil {
			open, ok := openWrapToken(rule.Wrap, info, "bbcode_open")
			if !ok {
				return nil
			}
			marker.open = open
		}
		block.Advance(info.Length)
		return marker
	}

	closeStart, closeLen := findReplaceClose(src, info)
	if closeStart < 0 {
		return nil
	}
	st := newState(b.opts, envFrom(pc), false)
	if !rule.Replace(st, info, src[info.Length:closeStart]) {
		return nil
	}
	end := closeStart + closeLen
	marker := &bbcodeMarker{
		Info:    info,
		Rule:    rule,
		Segment: text.NewSegment(seg.Start, seg.Start+end),
		tokens:  st.Tokens,
		raw:     src[:end],
	}
	block.Advance(end)
	return marker
}

// findReplaceClose finds the first [/name] after the opening delimiter,
// skipping nested tags of the same name.
func findReplaceClose(src string, open *Tag) (int, int) {
	nesting := 0
	for i := open.Length; i < len(src); i++ {
		if src[i] != '[' {
			continue
		}
		tag := ParseBBCodeTag(src, i, len(src), false)
		if tag == nil || tag.Name != open.Name {
			continue
		}
		if !tag.Closing {
			nesting++
			continue
		}
		if nesting == 0 {
			return i, tag.Length
		}
		nesting--
	}
	return -1, 0
}

// bbcodePairing pairs inline markers that share a parent. A closer pairs with
// the most recent unpaired opener of the same tag; openers skipped over and
// closers without an opener revert to text.
type bbcodePairing struct{}

func (bbcodePairing) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	pairChildren(doc)
}

func pairChildren(parent ast.Node) {
	var stack []*bbcodeMarker
	for c := parent.FirstChild(); c != nil; {
		next := c.NextSibling()

		m, ok := c.(*bbcodeMarker)
		switch {
		case !ok:
			if c.HasChildren() {
				pairChildren(c)
			}
		case m.Rule.Replace != nil && !m.Info.Closing:
			// replace rules are complete; nothing to pair
		case !m.Info.Closing:
			stack = append(stack, m)
		default:
			j := len(stack) - 1
			for j >= 0 && stack[j].Info.Name != m.Info.Name {
				j--
			}
			if j < 0 {
				revertMarker(m)
				break
			}
			for _, skipped := range stack[j+1:] {
				revertMarker(skipped)
			}
			wrapMarkers(parent, stack[j], m)
			stack = stack[:j]
		}
		c = next
	}
	for _, m := range stack {
		revertMarker(m)
	}
}

func wrapMarkers(parent ast.Node, open, close *bbcodeMarker) {
	region := &BBCodeInline{
		Info:     open.Info,
		Rule:     open.Rule,
		RawOpen:  open.raw,
		RawClose: close.raw,
		open:     open.open,
	}
	parent.InsertBefore(parent, open, region)
	for n := open.NextSibling(); n != nil && n != ast.Node(close); {
		next := n.NextSibling()
		parent.RemoveChild(parent, n)
		region.AppendChild(region, n)
		n = next
	}
	parent.RemoveChild(parent, open)
	parent.RemoveChild(parent, close)
}

func revertMarker(m *bbcodeMarker) {
	parent := m.Parent()
	if parent == nil {
		return
	}
	parent.ReplaceChild(parent, m, ast.NewTextSegment(m.Segment))
}

// render.go serializes a token stream to HTML.
package md

import "strings"

// RenderFunc renders tokens[idx].
type RenderFunc func(r *Renderer, tokens []*Token, idx int, opts *Options) string

// Renderer maps token types to render functions. Types without a rule are
// rendered as their tag with attributes.
type Renderer struct {
	rules map[string]RenderFunc
}

// NewRenderer returns a renderer with the default rules.
func NewRenderer() *Renderer {
	r := &Renderer{rules: map[string]RenderFunc{}}
	r.SetRule("text", func(_ *Renderer, tokens []*Token, idx int, _ *Options) string {
		return escapeString(tokens[idx].Content)
	})
	r.SetRule("code_inline", func(r *Renderer, tokens []*Token, idx int, _ *Options) string {
		return "<code" + RenderAttrs(tokens[idx]) + ">" + escapeString(tokens[idx].Content) + "</code>"
	})
	r.SetRule("code_block", func(r *Renderer, tokens []*Token, idx int, _ *Options) string {
		return "<pre" + RenderAttrs(tokens[idx]) + "><code>" + escapeString(tokens[idx].Content) + "</code></pre>\n"
	})
	r.SetRule("fence", func(_ *Renderer, tokens []*Token, idx int, opts *Options) string {
		return renderFence(tokens[idx], opts)
	})
	r.SetRule("image", func(r *Renderer, tokens []*Token, idx int, _ *Options) string {
		// alt is set on a copy; rendering leaves the stream untouched.
		img := *tokens[idx]
		img.Attrs = append([]Attr(nil), img.Attrs...)
		img.AttrSet("alt", r.renderInlineAsText(img.Children))
		return "<img" + RenderAttrs(&img) + ">"
	})
	r.SetRule("hardbreak", func(*Renderer, []*Token, int, *Options) string {
		return "<br>\n"
	})
	r.SetRule("softbreak", func(_ *Renderer, _ []*Token, _ int, opts *Options) string {
		if opts.TraditionalLinebreaks {
			return "\n"
		}
		return "<br>\n"
	})
	r.SetRule("html_block", func(_ *Renderer, tokens []*Token, idx int, _ *Options) string {
		return tokens[idx].Content
	})
	r.SetRule("html_inline", func(_ *Renderer, tokens []*Token, idx int, _ *Options) string {
		return tokens[idx].Content
	})
	return r
}

// SetRule replaces the render function of a token type.
func (r *Renderer) SetRule(typ string, fn RenderFunc) {
	r.rules[typ] = fn
}

// Render serializes a block token stream.
func (r *Renderer) Render(tokens []*Token, opts *Options) string {
	var b strings.Builder
	for i, t := range tokens {
		if t.Type == "inline" {
			b.WriteString(r.RenderInline(t.Children, opts))
			continue
		}
		b.WriteString(r.renderOne(tokens, i, opts))
	}
	return b.String()
}

// RenderInline serializes the children of an inline token.
func (r *Renderer) RenderInline(children []*Token, opts *Options) string {
	var b strings.Builder
	for i := range children {
		b.WriteString(r.renderOne(children, i, opts))
	}
	return b.String()
}

func (r *Renderer) renderOne(tokens []*Token, idx int, opts *Options) string {
	if fn, ok := r.rules[tokens[idx].Type]; ok {
		return fn(r, tokens, idx, opts)
	}
	return RenderToken(tokens, idx)
}

// RenderToken renders a token as its bare tag. Block tokens get a trailing
// newline unless the element is empty or holds inline content.
func RenderToken(tokens []*Token, idx int) string {
	t := tokens[idx]
	if t.Hidden || t.Tag == "" {
		return ""
	}

	var b strings.Builder
	if t.Block && t.Nesting != NestingClose && idx > 0 && tokens[idx-1].Hidden {
		b.WriteByte('\n')
	}
	if t.Nesting == NestingClose {
		b.WriteString("</")
	} else {
		b.WriteString("<")
	}
	b.WriteString(t.Tag)
	b.WriteString(RenderAttrs(t))

	needLf := false
	if t.Block {
		needLf = true
		if t.Nesting == NestingOpen && idx+1 < len(tokens) {
			next := tokens[idx+1]
			if next.Type == "inline" || next.Hidden || (next.Nesting == NestingClose && next.Tag == t.Tag) {
				needLf = false
			}
		}
	}
	if needLf {
		b.WriteString(">\n")
	} else {
		b.WriteString(">")
	}
	return b.String()
}

// RenderAttrs renders ` name="value"` for every attribute, escaped.
func RenderAttrs(t *Token) string {
	var b strings.Builder
	for _, a := range t.Attrs {
		b.WriteString(" ")
		b.WriteString(escapeString(a.Name))
		b.WriteString(`="`)
		b.WriteString(escapeString(a.Value))
		b.WriteString(`"`)
	}
	return b.String()
}

func (r *Renderer) renderInlineAsText(children []*Token) string {
	var b strings.Builder
	for _, t := range children {
		switch t.Type {
		case "text":
			b.WriteString(t.Content)
		case "image":
			b.WriteString(r.renderInlineAsText(t.Children))
		case "softbreak", "hardbreak":
			b.WriteString("\n")
		}
	}
	return b.String()
}

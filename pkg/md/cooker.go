// cooker.go assembles features into a pipeline and runs it.
package md

import (
	"fmt"
	"log"
	"sort"
	"sync"
)

// Feature is one named extension of the pipeline.
type Feature struct {
	Name  string
	Setup func(h *Helper)
}

// Markdown is what plugins install into. Plugins run once, while the Cooker
// is built; nothing here may change afterwards.
type Markdown struct {
	Options *Options

	BlockBBCode     *BBCodeRuler
	InlineBBCode    *BBCodeRuler
	Core            *CoreRuler
	TextPostProcess *TextPostProcessRuler
	Renderer        *Renderer
}

// Helper is handed to Feature.Setup.
type Helper struct {
	feature string
	c       *Cooker

	plugins   []func(md *Markdown)
	optionFns []func(opts *Options)
	allow     []string
}

// RegisterPlugin installs tokenizer, rule or renderer hooks. Plugins of a
// disabled feature are not run.
func (h *Helper) RegisterPlugin(fn func(md *Markdown)) {
	h.plugins = append(h.plugins, fn)
}

// RegisterOptions contributes to option derivation. Functions run in
// feature order before any plugin is installed.
func (h *Helper) RegisterOptions(fn func(opts *Options)) {
	h.optionFns = append(h.optionFns, fn)
}

// AllowList declares HTML the feature emits and the sanitizer must keep.
func (h *Helper) AllowList(patterns ...string) {
	h.allow = append(h.allow, patterns...)
}

// GetOptions returns the resolved options. Only plugins may rely on it being
// final.
func (h *Helper) GetOptions() *Options {
	return h.c.md.Options
}

// Warn records a configuration problem found while building the pipeline.
func (h *Helper) Warn(format string, args ...interface{}) {
	h.c.addWarning("%s: "+format, append([]interface{}{h.feature}, args...)...)
}

// Cooker turns post source into HTML. It is safe for concurrent use.
type Cooker struct {
	md        *Markdown
	tokenizer *tokenizer
	allowList []string
	warnings  []string

	sanitizerOnce sync.Once
	sanitizer     *Sanitizer
}

// New builds a Cooker. With no features, BuiltinFeatures are used.
// Options are copied; the caller may reuse them.
func New(opts Options, features ...Feature) *Cooker {
	if len(features) == 0 {
		features = BuiltinFeatures()
	}
	o := opts.clone()
	c := &Cooker{
		md: &Markdown{
			Options:         &o,
			BlockBBCode:     NewBBCodeRuler(),
			InlineBBCode:    NewBBCodeRuler(),
			Core:            &CoreRuler{},
			TextPostProcess: &TextPostProcessRuler{},
			Renderer:        NewRenderer(),
		},
	}

	helpers := make([]*Helper, 0, len(features))
	for _, f := range features {
		h := &Helper{feature: f.Name, c: c}
		if _, set := o.Features[f.Name]; !set {
			o.Features[f.Name] = true
		}
		f.Setup(h)
		helpers = append(helpers, h)
	}
	for _, h := range helpers {
		for _, fn := range h.optionFns {
			fn(c.md.Options)
		}
	}

	c.md.Core.Push("text_join", PriorityTextJoin, textJoin)
	for _, h := range helpers {
		if !c.md.Options.Features[h.feature] {
			continue
		}
		c.allowList = append(c.allowList, h.allow...)
		for _, fn := range h.plugins {
			fn(c.md)
		}
	}
	if c.md.TextPostProcess.Len() > 0 {
		ruler := c.md.TextPostProcess
		c.md.Core.Push("text-post-process", PriorityTextPostProcess, func(s *State) {
			applyTextPostProcess(s, ruler, nil)
		})
	}

	c.tokenizer = newTokenizer(c.md.Options, c.md.BlockBBCode, c.md.InlineBBCode)
	return c
}

// Options returns the resolved options.
func (c *Cooker) Options() Options {
	return c.md.Options.clone()
}

// Warnings returns the problems recorded while building the Cooker.
func (c *Cooker) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

// AllowList returns the patterns declared by the enabled features, sorted.
func (c *Cooker) AllowList() []string {
	list := append([]string(nil), c.allowList...)
	sort.Strings(list)
	return list
}

// CoreRules returns the core rule names in run order.
func (c *Cooker) CoreRules() []string {
	return c.md.Core.Names()
}

// Tokens tokenizes src and runs the core rules, returning the final stream.
func (c *Cooker) Tokens(src string) []*Token {
	env := &Env{Scratch: map[string]any{}}
	s := newState(c.md.Options, env, true)
	s.Tokens = c.tokenizer.Tokenize([]byte(src), env)
	c.md.Core.Run(s)
	return s.Tokens
}

// Render serializes a token stream, sanitizing when Options.Sanitize is set.
func (c *Cooker) Render(tokens []*Token) string {
	out := c.md.Renderer.Render(tokens, c.md.Options)
	if !c.md.Options.Sanitize {
		return out
	}
	return c.sanitizerFor().Sanitize(out)
}

// Cook renders src to an HTML fragment. Malformed input never fails; it
// degrades to escaped text.
func (c *Cooker) Cook(src string) string {
	return c.Render(c.Tokens(src))
}

func (c *Cooker) sanitizerFor() *Sanitizer {
	c.sanitizerOnce.Do(func() {
		c.sanitizer = NewSanitizer(c.allowList)
	})
	return c.sanitizer
}

// addWarning logs a warning and stores it on the Cooker.
func (c *Cooker) addWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.warnings = append(c.warnings, msg)
	log.Printf("WARN: "+format, args...)
}

// Package view provides output formatting for dmd commands.
package view

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/open-cli-collective/discourse-markdown/pkg/md"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatPlain Format = "plain"
)

// ValidFormats returns the accepted --output values.
func ValidFormats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatPlain)}
}

// ValidateFormat checks an --output value. Empty selects the default.
func ValidateFormat(format string) error {
	if format == "" {
		return nil
	}
	for _, f := range ValidFormats() {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %q: must be one of %s", format, strings.Join(ValidFormats(), ", "))
}

// Renderer renders data in a specific format.
type Renderer struct {
	format  Format
	writer  io.Writer
	noColor bool
}

// NewRenderer creates a new renderer with the specified format.
func NewRenderer(format Format, noColor bool) *Renderer {
	if noColor {
		color.NoColor = true
	}
	if format == "" {
		format = FormatTable
	}
	return &Renderer{
		format:  format,
		writer:  os.Stdout,
		noColor: noColor,
	}
}

// SetWriter sets the output writer.
func (r *Renderer) SetWriter(w io.Writer) {
	r.writer = w
}

// RenderTable renders rows under bold, aligned headers. Plain output is tab
// separated without headers. JSON callers use RenderJSON.
func (r *Renderer) RenderTable(headers []string, rows [][]string) {
	if r.format == FormatPlain {
		r.renderTableAsPlain(rows)
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < len(widths) && len(val) > widths[i] {
				widths[i] = len(val)
			}
		}
	}

	bold := color.New(color.Bold)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(r.writer, "  ")
		}
		bold.Fprint(r.writer, pad(h, widths[i], i == len(headers)-1))
	}
	fmt.Fprintln(r.writer)

	for _, row := range rows {
		for i, val := range row {
			if i > 0 {
				fmt.Fprint(r.writer, "  ")
			}
			last := i == len(row)-1
			if i < len(widths) {
				val = pad(val, widths[i], last)
			}
			fmt.Fprint(r.writer, val)
		}
		fmt.Fprintln(r.writer)
	}
}

func pad(s string, width int, last bool) string {
	if last || len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func (r *Renderer) renderTableAsPlain(rows [][]string) {
	for _, row := range rows {
		for i, val := range row {
			if i > 0 {
				fmt.Fprint(r.writer, "\t")
			}
			fmt.Fprint(r.writer, val)
		}
		fmt.Fprintln(r.writer)
	}
}

// RenderJSON renders an object as JSON. HTML is left unescaped so cooked
// output stays readable.
func (r *Renderer) RenderJSON(v interface{}) error {
	enc := json.NewEncoder(r.writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderText renders plain text.
func (r *Renderer) RenderText(text string) {
	fmt.Fprintln(r.writer, text)
}

// RenderKeyValue renders a bold key and its value on one line.
func (r *Renderer) RenderKeyValue(key, value string) {
	bold := color.New(color.Bold)
	bold.Fprintf(r.writer, "%s: ", key)
	fmt.Fprintln(r.writer, value)
}

// Success prints a success message.
func (r *Renderer) Success(msg string) {
	green := color.New(color.FgGreen)
	green.Fprintln(r.writer, "✓ "+msg)
}

// Warning prints a warning message.
func (r *Renderer) Warning(msg string) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintln(r.writer, "! "+msg)
}

// Error prints an error message.
func (r *Renderer) Error(msg string) {
	red := color.New(color.FgRed)
	red.Fprintln(r.writer, "✗ "+msg)
}

// TokenRow is one line of a token dump. Children of inline tokens follow
// their parent with Depth 1.
type TokenRow struct {
	Depth   int    `json:"depth"`
	Type    string `json:"type"`
	Tag     string `json:"tag,omitempty"`
	Nesting int    `json:"nesting"`
	Level   int    `json:"level"`
	Attrs   string `json:"attrs,omitempty"`
	Info    string `json:"info,omitempty"`
	Markup  string `json:"markup,omitempty"`
	Content string `json:"content,omitempty"`
}

// TokenRows flattens a token stream for display.
func TokenRows(tokens []*md.Token) []TokenRow {
	var rows []TokenRow
	for _, t := range tokens {
		rows = append(rows, tokenRow(t, 0))
		for _, c := range t.Children {
			rows = append(rows, tokenRow(c, 1))
		}
	}
	return rows
}

func tokenRow(t *md.Token, depth int) TokenRow {
	attrs := make([]string, len(t.Attrs))
	for i, a := range t.Attrs {
		attrs[i] = a.Name + "=" + strconv.Quote(a.Value)
	}
	return TokenRow{
		Depth:   depth,
		Type:    t.Type,
		Tag:     t.Tag,
		Nesting: int(t.Nesting),
		Level:   t.Level,
		Attrs:   strings.Join(attrs, " "),
		Info:    t.Info,
		Markup:  t.Markup,
		Content: t.Content,
	}
}

// RenderTokens dumps a token stream. The table form indents by level and
// colors opening and closing tokens.
func (r *Renderer) RenderTokens(tokens []*md.Token) error {
	rows := TokenRows(tokens)
	switch r.format {
	case FormatJSON:
		if rows == nil {
			rows = []TokenRow{}
		}
		return r.RenderJSON(rows)
	case FormatPlain:
		for _, row := range rows {
			fmt.Fprintf(r.writer, "%d\t%s\t%s\t%d\t%s\t%s\n",
				row.Depth, row.Type, row.Tag, row.Nesting, row.Attrs, strconv.Quote(row.Content))
		}
		return nil
	}

	opening := color.New(color.FgGreen)
	closing := color.New(color.FgRed)
	dim := color.New(color.Faint)
	for _, row := range rows {
		indent := strings.Repeat("  ", row.Level+row.Depth*2)
		fmt.Fprint(r.writer, indent)

		name := row.Type
		if row.Tag != "" {
			name += " <" + row.Tag + ">"
		}
		switch {
		case row.Nesting > 0:
			opening.Fprint(r.writer, name)
		case row.Nesting < 0:
			closing.Fprint(r.writer, name)
		default:
			fmt.Fprint(r.writer, name)
		}
		if row.Attrs != "" {
			dim.Fprint(r.writer, " "+row.Attrs)
		}
		if row.Info != "" {
			dim.Fprint(r.writer, " info="+strconv.Quote(row.Info))
		}
		if row.Content != "" && row.Type != "inline" {
			fmt.Fprint(r.writer, " "+strconv.Quote(Truncate(row.Content, 60)))
		}
		fmt.Fprintln(r.writer)
	}
	return nil
}

// Truncate truncates a string to the specified length.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

package md

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	quotePattern      = regexp.MustCompile(`(?s)<aside class="quote[^"]*"([^>]*)>\s*(?:<div class="title">.*?</div>\s*)?<blockquote>(.*?)</blockquote>\s*</aside>`)
	dataAttrPattern   = regexp.MustCompile(`data-(username|post|topic|full)="([^"]*)"`)
	hashtagPattern    = regexp.MustCompile(`(?s)<a class="hashtag-cooked"[^>]*data-slug="([^"]*)"[^>]*>.*?</a>`)
	hashtagRawPattern = regexp.MustCompile(`(?s)<span class="hashtag-raw">(.*?)</span>`)
	anchorPattern     = regexp.MustCompile(`<a name="[^"]*" class="anchor" href="#[^"]*"></a>`)
	codeLangPattern   = regexp.MustCompile(`<pre[^>]*><code class="lang-([\w-]+)">`)
	placeholderRegexp = regexp.MustCompile(`DMDPLACEHOLDER(\d+)X`)
)

// FromCooked converts cooked post HTML back to Discourse markdown. Quotes
// come back as [quote] tags and resolved hashtags as #slug.
func FromCooked(cooked string) (string, error) {
	if strings.TrimSpace(cooked) == "" {
		return "", nil
	}

	var literals []string
	hold := func(s string) string {
		literals = append(literals, s)
		return fmt.Sprintf("DMDPLACEHOLDER%dX", len(literals)-1)
	}

	cooked = anchorPattern.ReplaceAllString(cooked, "")
	cooked = hashtagPattern.ReplaceAllStringFunc(cooked, func(m string) string {
		slug := hashtagPattern.FindStringSubmatch(m)[1]
		return hold("#" + html.UnescapeString(slug))
	})
	cooked = hashtagRawPattern.ReplaceAllStringFunc(cooked, func(m string) string {
		return hold(html.UnescapeString(hashtagRawPattern.FindStringSubmatch(m)[1]))
	})
	cooked = codeLangPattern.ReplaceAllStringFunc(cooked, func(m string) string {
		lang := codeLangPattern.FindStringSubmatch(m)[1]
		if lang == "auto" || lang == "nohighlight" {
			return "<pre><code>"
		}
		return `<pre><code class="language-` + lang + `">`
	})
	cooked = uncookQuotes(cooked, hold)

	markdown, err := htmltomarkdown.ConvertString(cooked)
	if err != nil {
		return "", fmt.Errorf("converting cooked html: %w", err)
	}

	markdown = placeholderRegexp.ReplaceAllStringFunc(markdown, func(m string) string {
		var i int
		fmt.Sscanf(placeholderRegexp.FindStringSubmatch(m)[1], "%d", &i)
		if i < len(literals) {
			return literals[i]
		}
		return m
	})
	return strings.TrimSpace(markdown), nil
}

// uncookQuotes turns quote asides into [quote] paragraphs around the body.
// The last aside in the document never contains another one, so replacing
// from the end handles nesting.
func uncookQuotes(cooked string, hold func(string) string) string {
	end := len(cooked)
	for end > 0 {
		i := strings.LastIndex(cooked[:end], `<aside class="quote`)
		if i < 0 {
			break
		}
		loc := quotePattern.FindStringSubmatchIndex(cooked[i:])
		if loc == nil || loc[0] != 0 {
			end = i
			continue
		}
		attrs := cooked[i+loc[2] : i+loc[3]]
		body := cooked[i+loc[4] : i+loc[5]]
		repl := "<p>" + hold(quoteOpenTag(attrs)) + "</p>" + body + "<p>" + hold("[/quote]") + "</p>"
		cooked = cooked[:i] + repl + cooked[i+loc[1]:]
		end = i
	}
	return cooked
}

func quoteOpenTag(attrs string) string {
	var username, post, topic string
	full := false
	for _, m := range dataAttrPattern.FindAllStringSubmatch(attrs, -1) {
		v := html.UnescapeString(m[2])
		switch m[1] {
		case "username":
			username = v
		case "post":
			post = v
		case "topic":
			topic = v
		case "full":
			full = v == "true"
		}
	}
	if username == "" {
		return "[quote]"
	}
	parts := []string{username}
	if post != "" {
		parts = append(parts, "post:"+post)
	}
	if topic != "" {
		parts = append(parts, "topic:"+topic)
	}
	if full {
		parts = append(parts, "full:true")
	}
	return `[quote="` + strings.Join(parts, ", ") + `"]`
}

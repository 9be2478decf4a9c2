package md

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	slugSpaceRegexp   = regexp.MustCompile(`\s+`)
	slugInvalidRegexp = regexp.MustCompile(`[^\w-]`)
	slugHyphensRegexp = regexp.MustCompile(`-{2,}`)
)

// Slugify derives the anchor base of a heading: lowercased, whitespace runs
// become hyphens, characters outside [\w-] are dropped and repeated hyphens
// collapse. A slug not starting with a letter is prefixed with "h-"; an
// empty one becomes "h".
func Slugify(s string) string {
	slug := strings.ToLower(s)
	slug = slugSpaceRegexp.ReplaceAllString(slug, "-")
	slug = slugInvalidRegexp.ReplaceAllString(slug, "")
	slug = slugHyphensRegexp.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "h"
	}
	if c := slug[0]; !(c >= 'a' && c <= 'z') {
		slug = "h-" + slug
	}
	return slug
}

// headingSlug appends the running counter, and the post prefix when known.
func headingSlug(text string, counter, postID int) string {
	slug := Slugify(text) + "-" + strconv.Itoa(counter)
	if postID > 0 {
		slug = "p-" + strconv.Itoa(postID) + "-" + slug
	}
	return slug
}

// anchorRule gives top level headings an anchor link. Headings inside a
// blockquote or a quote aside are skipped.
func anchorRule(s *State) {
	quoted := 0
	for i, t := range s.Tokens {
		switch {
		case t.Type == "blockquote_open" || (t.Type == "bbcode_open" && t.Tag == "aside"):
			quoted++
		case t.Type == "blockquote_close" || (t.Type == "bbcode_close" && t.Tag == "aside"):
			quoted--
		case t.Type == "heading_open" && quoted == 0:
			if i+1 >= len(s.Tokens) || s.Tokens[i+1].Type != "inline" {
				continue
			}
			inline := s.Tokens[i+1]

			s.Env.HeadingID++
			slug := headingSlug(inline.Content, s.Env.HeadingID, s.Options.PostID)

			open := NewToken("link_open", "a", NestingOpen)
			open.AttrSet("name", slug)
			open.AttrSet("class", "anchor")
			open.AttrSet("href", "#"+slug)
			open.Level = 0
			closeTok := NewToken("link_close", "a", NestingClose)

			inline.Children = append([]*Token{open, closeTok}, inline.Children...)
		}
	}
}

package md

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/idna"
)

// NormalizeLink converts the host of an absolute URL to its ASCII form and
// percent-encodes characters that are not allowed in an href.
func NormalizeLink(raw string) string {
	s := strings.TrimSpace(raw)
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		if host := u.Hostname(); host != "" {
			if ascii, err := idna.ToASCII(host); err == nil && ascii != host {
				if i := strings.Index(s, host); i >= 0 {
					s = s[:i] + ascii + s[i+len(host):]
				}
			}
		}
	}
	return string(util.URLEscape([]byte(s), false))
}

// ValidateLink reports whether href is safe to emit. javascript:, vbscript:,
// file: and non-image data: URLs are rejected.
func ValidateLink(href string) bool {
	return !html.IsDangerousURL([]byte(strings.ToLower(strings.TrimSpace(href))))
}

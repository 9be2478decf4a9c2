package md

import (
	"regexp"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips HTML that no feature declared. It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

var allowPatternRegexp = regexp.MustCompile(`^([a-z][a-z0-9]*)(?:\.([-\w]*\*?)|\[([-\w]+\*?)(?:=([^\]]*))?\])?$`)

// NewSanitizer builds a UGC policy extended by allow-list patterns:
//
//	tag                  element
//	tag.class            class value on the element
//	tag.prefix-*         any class starting with prefix-
//	tag[attr]            attribute with any value
//	tag[attr=value]      attribute with exactly value
//	tag[data-*]          data attributes, also tag[data-prefix-*]
//
// Unrecognized patterns are ignored.
func NewSanitizer(allowList []string) *Sanitizer {
	p := bluemonday.UGCPolicy()

	classes := map[string][]string{}           // tag -> class alternatives
	values := map[string]map[string][]string{} // tag -> attr -> allowed values
	dataAttrs := false

	for _, pattern := range allowList {
		m := allowPatternRegexp.FindStringSubmatch(strings.TrimSpace(pattern))
		if m == nil {
			continue
		}
		tag, class, attr, value := m[1], m[2], m[3], m[4]
		p.AllowElements(tag)

		switch {
		case class != "":
			classes[tag] = append(classes[tag], classAlternative(class))
		case strings.HasPrefix(attr, "data-") && strings.HasSuffix(attr, "*"):
			dataAttrs = true
		case attr != "" && value != "":
			if values[tag] == nil {
				values[tag] = map[string][]string{}
			}
			values[tag][attr] = append(values[tag][attr], regexp.QuoteMeta(value))
		case attr != "":
			p.AllowAttrs(attr).OnElements(tag)
		}
	}

	for _, tag := range sortedKeys(classes) {
		alts := strings.Join(classes[tag], "|")
		re := regexp.MustCompile(`^(?:` + alts + `)(?:\s+(?:` + alts + `))*$`)
		p.AllowAttrs("class").Matching(re).OnElements(tag)
	}
	for tag, attrs := range values {
		for attr, vals := range attrs {
			re := regexp.MustCompile(`^(?:` + strings.Join(vals, "|") + `)$`)
			p.AllowAttrs(attr).Matching(re).OnElements(tag)
		}
	}
	if dataAttrs {
		p.AllowDataAttributes()
	}
	return &Sanitizer{policy: p}
}

func classAlternative(class string) string {
	if strings.HasSuffix(class, "*") {
		return regexp.QuoteMeta(strings.TrimSuffix(class, "*")) + `[-\w]*`
	}
	return regexp.QuoteMeta(class)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sanitize returns html with everything outside the policy removed.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}

// options.go defines the render option bag.
package md

// HashtagResult is what a hashtag lookup resolves a slug to.
type HashtagResult struct {
	Type      string `json:"type"`       // "category", "tag", "channel", ...
	Slug      string `json:"slug"`       // canonical slug
	ID        string `json:"id"`         // record id
	URL       string `json:"url"`        // relative URL of the record
	Text      string `json:"text"`       // display text
	Icon      string `json:"icon"`       // icon name when styled with an icon
	Emoji     string `json:"emoji"`      // emoji name when styled with an emoji
	StyleType string `json:"style_type"` // "icon", "emoji" or "square"
}

// HashtagLookup resolves a hashtag slug synchronously. It returns nil when the
// slug does not resolve.
type HashtagLookup func(slug string, userID int, typesInPriorityOrder []string) *HashtagResult

// WatchedWord is the action attached to a watched-word regexp.
type WatchedWord struct {
	Replacement   string `yaml:"replacement" json:"replacement"`
	CaseSensitive bool   `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty"`
	HTML          bool   `yaml:"html,omitempty" json:"html,omitempty"`
}

// Options configure one Cooker. They are read-only once the Cooker is built.
type Options struct {
	Previewing bool
	PostID     int // 0 when the post is not saved yet
	UserID     int

	HashtagLookup               HashtagLookup
	HashtagTypesInPriorityOrder []string

	UnicodeUsernames bool
	DefaultCodeLang  string

	// Keys are regular expressions; group 1, when present, is the watched word.
	WatchedWordsReplace map[string]WatchedWord
	WatchedWordsLink    map[string]WatchedWord

	Typographer bool
	// TraditionalLinebreaks renders soft line breaks as newlines instead of <br>.
	TraditionalLinebreaks bool

	HighlightCode bool // highlight fences server side with chroma
	Sanitize      bool // run the allow-list sanitizer after rendering

	// Features records which features are enabled; filled by RegisterOptions.
	Features map[string]bool
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		DefaultCodeLang:             "auto",
		HashtagTypesInPriorityOrder: []string{"category", "tag"},
		Sanitize:                    true,
	}
}

func (o Options) clone() Options {
	c := o
	c.HashtagTypesInPriorityOrder = append([]string(nil), o.HashtagTypesInPriorityOrder...)
	c.Features = make(map[string]bool, len(o.Features))
	for k, v := range o.Features {
		c.Features[k] = v
	}
	return c
}

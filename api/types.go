// Package api provides the Discourse REST API client used to resolve
// hashtags and fetch watched words at cook time.
package api

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Hashtag is one resolved hashtag as returned by /hashtags.json.
type Hashtag struct {
	ID          ID       `json:"id"`
	Type        string   `json:"type"`
	Slug        string   `json:"slug"`
	Ref         string   `json:"ref"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	RelativeURL string   `json:"relative_url"`
	Icon        string   `json:"icon,omitempty"`
	Emoji       string   `json:"emoji,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	StyleType   string   `json:"style_type,omitempty"`
}

// ID is a record id. Discourse sends numbers for most records and strings
// for some plugin types.
type ID string

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		*id = ID(unquoted)
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("invalid id %s", s)
	}
	*id = ID(s)
	return nil
}

// WatchedWordAction is what Discourse does with a watched word.
type WatchedWordAction string

const (
	ActionBlock   WatchedWordAction = "block"
	ActionCensor  WatchedWordAction = "censor"
	ActionRequire WatchedWordAction = "require_approval"
	ActionFlag    WatchedWordAction = "flag"
	ActionReplace WatchedWordAction = "replace"
	ActionTag     WatchedWordAction = "tag"
	ActionSilence WatchedWordAction = "silence"
	ActionLink    WatchedWordAction = "link"
)

// WatchedWord is an entry of the admin watched words list.
type WatchedWord struct {
	ID            int               `json:"id"`
	Word          string            `json:"word"`
	Regexp        string            `json:"regexp"`
	Replacement   string            `json:"replacement,omitempty"`
	Action        WatchedWordAction `json:"action"`
	CaseSensitive bool              `json:"case_sensitive"`
	HTML          bool              `json:"html,omitempty"`
}

// Pattern returns the expression to match: the server compiled regexp when
// present, otherwise the word as a literal with * as a wildcard.
func (w WatchedWord) Pattern() string {
	if w.Regexp != "" {
		return w.Regexp
	}
	parts := strings.Split(w.Word, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return `(?:\W|^)(` + strings.Join(parts, `\S*`) + `)(?=\W|$)`
}

// WatchedWordsResponse is the body of /admin/customize/watched_words.json.
type WatchedWordsResponse struct {
	Actions []WatchedWordAction `json:"actions"`
	Words   []WatchedWord       `json:"words"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	StatusCode int      `json:"-"`
	ErrorType  string   `json:"error_type,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

func (e *ErrorResponse) Error() string {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	if e.ErrorType != "" {
		return fmt.Sprintf("%s (status %d)", e.ErrorType, e.StatusCode)
	}
	return fmt.Sprintf("API error (status %d)", e.StatusCode)
}

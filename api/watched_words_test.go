package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListWatchedWords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/customize/watched_words.json", r.URL.Path)
		assert.Equal(t, "adminkey", r.Header.Get("Api-Key"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
  "actions": ["block", "censor", "replace", "link"],
  "words": [
    {"id": 1, "word": "bad", "regexp": "(?:\\W|^)(bad)(?=\\W|$)", "replacement": "good", "action": "replace", "case_sensitive": false},
    {"id": 2, "word": "docs", "replacement": "https://example.com/docs", "action": "link", "case_sensitive": true},
    {"id": 3, "word": "nope", "action": "block", "case_sensitive": false}
  ]
}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "adminkey", "system")
	result, err := client.ListWatchedWords(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Actions, 4)
	require.Len(t, result.Words, 3)

	replace := result.ByAction(ActionReplace)
	require.Len(t, replace, 1)
	assert.Equal(t, "good", replace[0].Replacement)
	assert.Equal(t, `(?:\W|^)(bad)(?=\W|$)`, replace[0].Pattern())

	link := result.ByAction(ActionLink)
	require.Len(t, link, 1)
	assert.True(t, link[0].CaseSensitive)

	assert.Empty(t, result.ByAction(ActionTag))
}

func TestWatchedWord_Pattern(t *testing.T) {
	tests := []struct {
		word    string
		input   string
		matched string
	}{
		{"a.b", "see a.b here", "a.b"},
		{"a.b", "see axb here", ""},
		{"cat*", "the catalog", "catalog"},
		{"c++", "I like c++ a lot", "c++"},
	}

	for _, tt := range tests {
		t.Run(tt.word+" in "+tt.input, func(t *testing.T) {
			re := regexp2.MustCompile(WatchedWord{Word: tt.word}.Pattern(), regexp2.None)
			m, err := re.FindStringMatch(tt.input)
			require.NoError(t, err)
			if tt.matched == "" {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.matched, m.GroupByNumber(1).String())
		})
	}
}

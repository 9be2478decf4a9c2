package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hashtagsBody = `{
  "category": [
    {"id": 4, "type": "category", "slug": "dev", "ref": "dev", "text": "Development",
     "relative_url": "/c/dev/4", "icon": "folder", "style_type": "icon", "colors": ["0088CC"]}
  ],
  "tag": [
    {"id": "fun", "type": "tag", "slug": "fun", "ref": "fun::tag", "text": "fun",
     "relative_url": "/tag/fun", "emoji": "tada", "style_type": "emoji"},
    {"id": 11, "type": "tag", "slug": "dev", "ref": "dev::tag", "text": "dev",
     "relative_url": "/tag/dev", "icon": "tag"}
  ]
}`

func TestClient_LookupHashtags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hashtags.json", r.URL.Path)
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, []string{"dev", "fun"}, r.URL.Query()["slugs[]"])
		assert.Equal(t, []string{"category", "tag"}, r.URL.Query()["order[]"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(hashtagsBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "system")
	result, err := client.LookupHashtags(context.Background(), []string{"dev", "fun"}, []string{"category", "tag"})
	require.NoError(t, err)

	require.Len(t, result["category"], 1)
	dev := result["category"][0]
	assert.Equal(t, ID("4"), dev.ID)
	assert.Equal(t, "Development", dev.Text)
	assert.Equal(t, "/c/dev/4", dev.RelativeURL)
	assert.Equal(t, []string{"0088CC"}, dev.Colors)

	require.Len(t, result["tag"], 2)
	assert.Equal(t, ID("fun"), result["tag"][0].ID)
}

func TestClient_LookupHashtags_NoSlugs(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", "key", "system")
	result, err := client.LookupHashtags(context.Background(), nil, []string{"category"})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestClient_LookupHashtags_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "system")
	_, err := client.LookupHashtags(context.Background(), []string{"dev"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse hashtags response")
}

func TestHashtagsResponse_Find(t *testing.T) {
	var result HashtagsResponse
	require.NoError(t, json.Unmarshal([]byte(hashtagsBody), &result))

	tests := []struct {
		name  string
		slug  string
		types []string
		want  string
	}{
		{"category first", "dev", []string{"category", "tag"}, "/c/dev/4"},
		{"tag first", "dev", []string{"tag", "category"}, "/tag/dev"},
		{"case insensitive", "DEV", []string{"category"}, "/c/dev/4"},
		{"by ref", "fun::tag", []string{"tag"}, "/tag/fun"},
		{"missing type", "fun", []string{"category"}, ""},
		{"missing slug", "ops", []string{"category", "tag"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := result.Find(tt.slug, tt.types)
			if tt.want == "" {
				assert.Nil(t, h)
				return
			}
			require.NotNil(t, h)
			assert.Equal(t, tt.want, h.RelativeURL)
		})
	}
}

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    ID
		wantErr bool
	}{
		{`12`, "12", false},
		{`"abc"`, "abc", false},
		{`null`, "", false},
		{`true`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

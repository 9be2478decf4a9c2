package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// HashtagsResponse groups resolved hashtags by type.
type HashtagsResponse map[string][]Hashtag

// Find returns the hashtag for slug, trying types in order. A slug may carry
// a ::type suffix naming the type to try first.
func (r HashtagsResponse) Find(slug string, types []string) *Hashtag {
	slug = strings.ToLower(slug)
	for _, typ := range types {
		for i, h := range r[typ] {
			if strings.ToLower(h.Slug) == slug || strings.ToLower(h.Ref) == slug {
				return &r[typ][i]
			}
		}
	}
	return nil
}

// LookupHashtags resolves slugs in one request. order lists the hashtag
// types in priority order; the server uses it to break slug conflicts.
func (c *Client) LookupHashtags(ctx context.Context, slugs, order []string) (HashtagsResponse, error) {
	if len(slugs) == 0 {
		return HashtagsResponse{}, nil
	}

	params := url.Values{}
	for _, slug := range slugs {
		params.Add("slugs[]", slug)
	}
	for _, typ := range order {
		params.Add("order[]", typ)
	}

	body, err := c.Get(ctx, "/hashtags.json?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var result HashtagsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse hashtags response: %w", err)
	}
	return result, nil
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// ListWatchedWords returns the site's watched words. It needs an admin API key.
func (c *Client) ListWatchedWords(ctx context.Context) (*WatchedWordsResponse, error) {
	body, err := c.Get(ctx, "/admin/customize/watched_words.json")
	if err != nil {
		return nil, err
	}

	var result WatchedWordsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse watched words response: %w", err)
	}
	return &result, nil
}

// ByAction returns the words with the given action.
func (r *WatchedWordsResponse) ByAction(action WatchedWordAction) []WatchedWord {
	var words []WatchedWord
	for _, w := range r.Words {
		if w.Action == action {
			words = append(words, w)
		}
	}
	return words
}

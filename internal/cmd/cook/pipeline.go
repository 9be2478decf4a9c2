package cook

import (
	"context"
	"fmt"
	"sort"

	"github.com/open-cli-collective/discourse-markdown/api"
	"github.com/open-cli-collective/discourse-markdown/internal/config"
	"github.com/open-cli-collective/discourse-markdown/pkg/md"
)

// remoteOptions say which lookups go to the Discourse site.
type remoteOptions struct {
	resolveHashtags bool
	watchedWords    bool
}

func (r remoteOptions) any() bool {
	return r.resolveHashtags || r.watchedWords
}

// buildOptions maps cfg onto render options and fills in what the site
// provides. src is needed to know which hashtags to resolve.
func buildOptions(ctx context.Context, cfg *config.Config, remote remoteOptions, src string) (md.Options, error) {
	opts := cfg.RenderOptions()
	if !remote.any() {
		return opts, nil
	}

	if err := cfg.ValidateRemote(); err != nil {
		return opts, fmt.Errorf("invalid config: %w (run 'dmd init' to configure)", err)
	}
	client := api.NewClient(cfg.URL, cfg.APIKey, cfg.APIUsername)

	if remote.watchedWords {
		resp, err := client.ListWatchedWords(ctx)
		if err != nil {
			return opts, fmt.Errorf("failed to fetch watched words: %w", err)
		}
		opts.WatchedWordsReplace = mergeWords(resp.ByAction(api.ActionReplace), opts.WatchedWordsReplace)
		opts.WatchedWordsLink = mergeWords(resp.ByAction(api.ActionLink), opts.WatchedWordsLink)
	}

	if remote.resolveHashtags {
		lookup, err := resolveHashtags(ctx, client, opts, src)
		if err != nil {
			return opts, fmt.Errorf("failed to resolve hashtags: %w", err)
		}
		opts.HashtagLookup = lookup
	}

	return opts, nil
}

// mergeWords keys remote words by pattern. Local entries win on conflict.
func mergeWords(remote []api.WatchedWord, local map[string]md.WatchedWord) map[string]md.WatchedWord {
	if len(remote) == 0 {
		return local
	}
	merged := make(map[string]md.WatchedWord, len(remote)+len(local))
	for _, w := range remote {
		merged[w.Pattern()] = md.WatchedWord{
			Replacement:   w.Replacement,
			CaseSensitive: w.CaseSensitive,
			HTML:          w.HTML,
		}
	}
	for expr, w := range local {
		merged[expr] = w
	}
	return merged
}

// resolveHashtags collects the slugs src uses with a recording pass, then
// resolves them in a single request. HashtagLookup is synchronous, so the
// network round trip cannot happen inside the render.
func resolveHashtags(ctx context.Context, client *api.Client, opts md.Options, src string) (md.HashtagLookup, error) {
	seen := map[string]bool{}
	recording := opts
	recording.WatchedWordsReplace = nil
	recording.WatchedWordsLink = nil
	recording.HashtagLookup = func(slug string, _ int, _ []string) *md.HashtagResult {
		seen[slug] = true
		return nil
	}
	md.New(recording).Tokens(src)

	slugs := make([]string, 0, len(seen))
	for slug := range seen {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	resp, err := client.LookupHashtags(ctx, slugs, opts.HashtagTypesInPriorityOrder)
	if err != nil {
		return nil, err
	}

	return func(slug string, _ int, types []string) *md.HashtagResult {
		h := resp.Find(slug, types)
		if h == nil {
			return nil
		}
		return &md.HashtagResult{
			Type:      h.Type,
			Slug:      h.Slug,
			ID:        string(h.ID),
			URL:       h.RelativeURL,
			Text:      h.Text,
			Icon:      h.Icon,
			Emoji:     h.Emoji,
			StyleType: h.StyleType,
		}
	}, nil
}

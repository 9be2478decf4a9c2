package md

import (
	"sort"

	"github.com/dlclark/regexp2"
)

const watchedWordsCacheKey = "watched-words"

// WatchedWords replaces or links configured words. It runs after mentions
// and hashtags so it never rewrites text they claimed.
func WatchedWords() Feature {
	return Feature{
		Name: "watched-words",
		Setup: func(h *Helper) {
			h.RegisterPlugin(func(md *Markdown) {
				ruler := &TextPostProcessRuler{}
				addWatchedWords(h, ruler, md.Options.WatchedWordsReplace, false)
				addWatchedWords(h, ruler, md.Options.WatchedWordsLink, true)
				if ruler.Len() == 0 {
					return
				}
				md.Core.Push("watched-words", PriorityWatchedWords, func(s *State) {
					applyTextPostProcess(s, ruler, watchedWordsCache(s.Env))
				})
			})
		},
	}
}

// addWatchedWords compiles one option map. Expressions are visited in sorted
// order so the rule order does not depend on map iteration. Invalid
// expressions are skipped with a warning.
func addWatchedWords(h *Helper, ruler *TextPostProcessRuler, words map[string]WatchedWord, link bool) {
	exprs := make([]string, 0, len(words))
	for expr := range words {
		exprs = append(exprs, expr)
	}
	sort.Strings(exprs)

	for _, expr := range exprs {
		word := words[expr]
		opt := regexp2.RegexOptions(regexp2.IgnoreCase)
		if word.CaseSensitive {
			opt = regexp2.None
		}
		re, err := regexp2.Compile(expr, opt)
		if err != nil {
			h.Warn("invalid watched word %q: %v", expr, err)
			continue
		}
		ruler.Push(TextPostProcessRule{
			Name:    "watched-words",
			Word:    re,
			Pattern: re,
			OnMatch: watchedWordMatch(word, link),
		})
	}
}

// watchedWordMatch reports group 1 when the expression has one; it holds the
// word without the surrounding boundary.
func watchedWordMatch(word WatchedWord, link bool) func(*State, *regexp2.Match) (Match, bool) {
	return func(s *State, m *regexp2.Match) (Match, bool) {
		index, text := m.Index, m.String()
		if g := m.GroupByNumber(1); g != nil && len(g.Captures) > 0 {
			index, text = g.Index, g.String()
		}
		if text == "" {
			return Match{}, false
		}
		return Match{
			Index:       index,
			Text:        text,
			Replacement: word.Replacement,
			Link:        link,
			HTML:        word.HTML && !link,
		}, true
	}
}

func watchedWordsCache(env *Env) map[string][]Match {
	if cache, ok := env.Scratch[watchedWordsCacheKey].(map[string][]Match); ok {
		return cache
	}
	cache := map[string][]Match{}
	env.Scratch[watchedWordsCacheKey] = cache
	return cache
}

// ruler.go runs the core passes over the finished token stream.
package md

import "sort"

// Core rule priorities. Lower runs first.
const (
	PriorityTextJoin        = 0
	PriorityAnchor          = 100
	PriorityTypographer     = 200
	PriorityTextPostProcess = 300
	PriorityWatchedWords    = 400
)

// CoreRule rewrites the block token stream held by the State.
type CoreRule struct {
	Name     string
	Priority int
	Fn       func(s *State)
}

// CoreRuler is an ordered chain of core rules.
type CoreRuler struct {
	rules []CoreRule
}

// Push registers a rule. Rules with equal priority keep registration order.
func (r *CoreRuler) Push(name string, priority int, fn func(s *State)) {
	r.rules = append(r.rules, CoreRule{Name: name, Priority: priority, Fn: fn})
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].Priority < r.rules[j].Priority
	})
}

// Names returns the rule names in run order.
func (r *CoreRuler) Names() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// Run applies every rule once, in order.
func (r *CoreRuler) Run(s *State) {
	for _, rule := range r.rules {
		rule.Fn(s)
	}
}

// textJoin merges adjacent text children. goldmark splits text at every
// character that may start an inline construct.
func textJoin(s *State) {
	for _, t := range s.Tokens {
		if t.Type != "inline" || len(t.Children) < 2 {
			continue
		}
		joined := t.Children[:1]
		for _, c := range t.Children[1:] {
			last := joined[len(joined)-1]
			if c.Type == "text" && last.Type == "text" && c.SkipReplace == last.SkipReplace {
				last.Content += c.Content
				continue
			}
			joined = append(joined, c)
		}
		t.Children = joined
	}
}

// state.go holds the per-render token writer handed to rules.
package md

// Env is per-render scratch space. It is never shared between renders.
type Env struct {
	HeadingID int            // last heading anchor number
	Scratch   map[string]any // free-form storage for rules
}

// State accumulates tokens for one block or one inline children list.
type State struct {
	Tokens  []*Token
	Options *Options
	Env     *Env

	level      int
	block      bool
	parentType string
}

func newState(opts *Options, env *Env, block bool) *State {
	return &State{Options: opts, Env: env, block: block}
}

// Push appends a new token, keeping Level consistent with Nesting.
func (s *State) Push(typ, tag string, nesting Nesting) *Token {
	t := NewToken(typ, tag, nesting)
	s.PushToken(t)
	return t
}

// PushToken appends a caller-built token, assigning its level.
func (s *State) PushToken(t *Token) {
	if t.Nesting == NestingClose {
		s.level--
	}
	t.Level = s.level
	if t.Nesting == NestingOpen {
		s.level++
	}
	t.Block = s.block
	s.Tokens = append(s.Tokens, t)
}

// Last returns the most recently pushed token or nil.
func (s *State) Last() *Token {
	if len(s.Tokens) == 0 {
		return nil
	}
	return s.Tokens[len(s.Tokens)-1]
}

// Level returns the current nesting depth.
func (s *State) Level() int {
	return s.level
}

// ParentType is the kind of container whose content is being emitted
// ("root", "blockquote", "bbcode", "list", ...).
func (s *State) ParentType() string {
	if s.parentType == "" {
		return "root"
	}
	return s.parentType
}

// enter sets the parent type and returns a func restoring the previous one.
// Callers defer it so the parent is restored on every return path.
func (s *State) enter(parentType string) func() {
	prev := s.parentType
	s.parentType = parentType
	return func() { s.parentType = prev }
}

// inline returns a state for the children of an inline token.
func (s *State) inline() *State {
	return &State{Options: s.Options, Env: s.Env, parentType: s.parentType}
}

package md

// ProtectionState is the position of the scan relative to mention and
// hashtag constructs. Text inside any state but ProtectionNone is protected
// from rewriting.
type ProtectionState int

const (
	ProtectionNone ProtectionState = iota
	ProtectionInMention
	ProtectionInHashtagLink
	ProtectionInHashtagSpan
	ProtectionInHashtagIconSpan
)

func (p ProtectionState) String() string {
	switch p {
	case ProtectionInMention:
		return "in-mention"
	case ProtectionInHashtagLink:
		return "in-hashtag-link"
	case ProtectionInHashtagSpan:
		return "in-hashtag-span"
	case ProtectionInHashtagIconSpan:
		return "in-hashtag-icon-span"
	default:
		return "none"
	}
}

type protectionEvent int

const (
	eventOther protectionEvent = iota
	eventMentionOpen
	eventMentionClose
	eventHashtagLinkOpen
	eventLinkClose
	eventIconSpanOpen
	eventHashtagSpanOpen // span.hashtag-raw or a plain span inside a hashtag link
	eventSpanClose
)

type protectionKey struct {
	from  ProtectionState
	event protectionEvent
}

// protectionTransitions is the complete transition table; pairs not listed
// keep the current state.
var protectionTransitions = map[protectionKey]ProtectionState{
	{ProtectionNone, eventMentionOpen}:       ProtectionInMention,
	{ProtectionInMention, eventMentionClose}: ProtectionNone,

	{ProtectionNone, eventHashtagLinkOpen}:          ProtectionInHashtagLink,
	{ProtectionInHashtagLink, eventIconSpanOpen}:    ProtectionInHashtagIconSpan,
	{ProtectionInHashtagIconSpan, eventSpanClose}:   ProtectionInHashtagLink,
	{ProtectionInHashtagLink, eventHashtagSpanOpen}: ProtectionInHashtagSpan,
	{ProtectionInHashtagLink, eventLinkClose}:       ProtectionNone,
	{ProtectionNone, eventHashtagSpanOpen}:          ProtectionInHashtagSpan,
	{ProtectionInHashtagSpan, eventSpanClose}:       ProtectionNone,
}

// ProtectionFSM tracks whether the current child token is inside a mention
// or hashtag. Feed it children in document order.
type ProtectionFSM struct {
	state ProtectionState
	// linked is set while a hashtag span sits inside a hashtag link, so
	// closing the span returns to the link.
	linked bool
}

// State returns the current state.
func (f *ProtectionFSM) State() ProtectionState {
	return f.state
}

// Step advances over t and reports whether t is protected.
func (f *ProtectionFSM) Step(t *Token) bool {
	ev := classify(t, f.state)
	from := f.state
	next, ok := protectionTransitions[protectionKey{from, ev}]
	if !ok {
		return f.state != ProtectionNone
	}

	switch {
	case from == ProtectionInHashtagLink && next == ProtectionInHashtagSpan:
		f.linked = true
	case from == ProtectionInHashtagSpan && next == ProtectionNone && f.linked:
		next = ProtectionInHashtagLink
		f.linked = false
	}
	f.state = next
	return true
}

func classify(t *Token, state ProtectionState) protectionEvent {
	switch t.Type {
	case "mention_open":
		return eventMentionOpen
	case "mention_close":
		return eventMentionClose
	case "link_open":
		if t.HasClass("hashtag-cooked") || t.HasClass("hashtag") {
			return eventHashtagLinkOpen
		}
	case "link_close":
		return eventLinkClose
	case "span_open":
		switch {
		case t.HasClass("hashtag-icon-placeholder"):
			return eventIconSpanOpen
		case t.HasClass("hashtag-raw"), state == ProtectionInHashtagLink:
			return eventHashtagSpanOpen
		}
	case "span_close":
		return eventSpanClose
	}
	return eventOther
}

// markProtected sets SkipReplace on every child inside a mention or hashtag.
func markProtected(children []*Token) {
	var fsm ProtectionFSM
	for _, t := range children {
		if fsm.Step(t) {
			t.SkipReplace = true
		}
	}
}

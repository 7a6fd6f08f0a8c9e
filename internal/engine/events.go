package engine

// EventKind discriminates turn-decision stream events.
type EventKind uint8

const (
	// EventStatus is a human-readable phase marker.
	EventStatus EventKind = iota
	// EventDebate is one faction's suggestion, or the arbiter's rationale.
	EventDebate
	// EventMove is the final chosen move; at most one per stream, always last.
	EventMove
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventDebate:
		return "debate"
	case EventMove:
		return "move"
	}
	return "unknown"
}

// Event is one step of a turn-decision stream.
type Event struct {
	Kind    EventKind `json:"-"`
	Type    string    `json:"type"`              // Kind as a string, for JSON consumers
	Faction string    `json:"faction,omitempty"` // Set on debate events
	Text    string    `json:"text"`
}

func statusEvent(text string) Event {
	return Event{Kind: EventStatus, Type: EventStatus.String(), Text: text}
}

func debateEvent(faction, text string) Event {
	return Event{Kind: EventDebate, Type: EventDebate.String(), Faction: faction, Text: text}
}

func moveEvent(san string) Event {
	return Event{Kind: EventMove, Type: EventMove.String(), Text: san}
}

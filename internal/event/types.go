package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeDebateStarted     = "debate.started"
	TypeThought           = "debate.thought"
	TypeTurn              = "debate.turn"
	TypeHistoryCompressed = "debate.compressed"
	TypeRoundCompleted    = "debate.round"
	TypeDebateConcluded   = "debate.concluded"
	TypeDebateFailed      = "debate.failed"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// DebateStartedEvent is emitted once, before the first turn.
type DebateStartedEvent struct {
	baseEvent
	DebateID string
	Topic    string
	Rounds   int // Number of rounds that will be played
}

// NewDebateStartedEvent creates a DebateStartedEvent.
func NewDebateStartedEvent(debateID, topic string, rounds int) DebateStartedEvent {
	return DebateStartedEvent{
		baseEvent: newBaseEvent(TypeDebateStarted),
		DebateID:  debateID,
		Topic:     topic,
		Rounds:    rounds,
	}
}

// ThoughtEvent carries one internal-monologue reply. It is never meant to be
// shown to the opponent.
type ThoughtEvent struct {
	baseEvent
	DebateID string
	Round    int
	Speaker  string
	Thought  string
}

// NewThoughtEvent creates a ThoughtEvent.
func NewThoughtEvent(debateID string, round int, speaker, thought string) ThoughtEvent {
	return ThoughtEvent{
		baseEvent: newBaseEvent(TypeThought),
		DebateID:  debateID,
		Round:     round,
		Speaker:   speaker,
		Thought:   thought,
	}
}

// TurnEvent is emitted after a debater speaks.
type TurnEvent struct {
	baseEvent
	DebateID string
	Round    int
	Speaker  string
	Options  []string // Candidate arguments the debater listed
	Choice   int      // 0-based index the debater picked
	Response string   // What the debater said
}

// NewTurnEvent creates a TurnEvent.
func NewTurnEvent(debateID string, round int, speaker string, options []string, choice int, response string) TurnEvent {
	return TurnEvent{
		baseEvent: newBaseEvent(TypeTurn),
		DebateID:  debateID,
		Round:     round,
		Speaker:   speaker,
		Options:   options,
		Choice:    choice,
		Response:  response,
	}
}

// ChosenOption returns the picked option, or "" when the index is outside
// Options.
func (e TurnEvent) ChosenOption() string {
	if e.Choice < 0 || e.Choice >= len(e.Options) {
		return ""
	}
	return e.Options[e.Choice]
}

// HistoryCompressedEvent is emitted when a debater's argument history is
// replaced by a summary.
type HistoryCompressedEvent struct {
	baseEvent
	DebateID string
	Round    int
	Speaker  string
	Entries  int // History length before compression
	Summary  string
}

// NewHistoryCompressedEvent creates a HistoryCompressedEvent.
func NewHistoryCompressedEvent(debateID string, round int, speaker string, entries int, summary string) HistoryCompressedEvent {
	return HistoryCompressedEvent{
		baseEvent: newBaseEvent(TypeHistoryCompressed),
		DebateID:  debateID,
		Round:     round,
		Speaker:   speaker,
		Entries:   entries,
		Summary:   summary,
	}
}

// RoundCompletedEvent is emitted after both debaters have spoken and the
// histories have been compressed.
type RoundCompletedEvent struct {
	baseEvent
	DebateID string
	Round    int // 1-based number of the round just finished
	Of       int // Total rounds
}

// NewRoundCompletedEvent creates a RoundCompletedEvent.
func NewRoundCompletedEvent(debateID string, round, of int) RoundCompletedEvent {
	return RoundCompletedEvent{
		baseEvent: newBaseEvent(TypeRoundCompleted),
		DebateID:  debateID,
		Round:     round,
		Of:        of,
	}
}

// DebateConcludedEvent carries both closing statements.
type DebateConcludedEvent struct {
	baseEvent
	DebateID string
	Topic    string
	ClosingA string
	ClosingB string
}

// NewDebateConcludedEvent creates a DebateConcludedEvent.
func NewDebateConcludedEvent(debateID, topic, closingA, closingB string) DebateConcludedEvent {
	return DebateConcludedEvent{
		baseEvent: newBaseEvent(TypeDebateConcluded),
		DebateID:  debateID,
		Topic:     topic,
		ClosingA:  closingA,
		ClosingB:  closingB,
	}
}

// DebateFailedEvent is emitted when the run aborts.
type DebateFailedEvent struct {
	baseEvent
	DebateID string
	Round    int
	Err      error
}

// NewDebateFailedEvent creates a DebateFailedEvent.
func NewDebateFailedEvent(debateID string, round int, err error) DebateFailedEvent {
	return DebateFailedEvent{
		baseEvent: newBaseEvent(TypeDebateFailed),
		DebateID:  debateID,
		Round:     round,
		Err:       err,
	}
}

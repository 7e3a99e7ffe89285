package debate

import (
	"context"
	"time"

	"github.com/Iron-Ham/monologue/internal/config"
	"github.com/Iron-Ham/monologue/internal/conversation"
)

// SessionStatus represents the current state of a debate session.
type SessionStatus string

const (
	// StatusPending indicates the debate has been created but no turn taken.
	StatusPending SessionStatus = "pending"

	// StatusActive indicates Run has started.
	StatusActive SessionStatus = "active"

	// StatusConcluded indicates both closing statements were given.
	StatusConcluded SessionStatus = "concluded"

	// StatusFailed indicates a step returned an error.
	StatusFailed SessionStatus = "failed"
)

// Side identifies one of the two debaters.
type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideB {
		return "B"
	}
	return "A"
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Participant is the part of a reasoner the debate drives.
// *reasoner.Reasoner satisfies it.
type Participant interface {
	Name() string
	AddMessage(role conversation.Role, content, name string)
	SetMessage(role conversation.Role, content, name string)
	InternalMonologue(ctx context.Context, thought string) (string, error)
	ExternalDialogue(ctx context.Context, thought string) (string, error)
	ParseResponseOptions(ctx context.Context) ([]string, error)
	Choose(ctx context.Context, options []string) (int, error)
}

// Debaters groups the three reasoners of a session.
type Debaters struct {
	A          Participant
	B          Participant
	Summarizer Participant
}

func (d Debaters) get(side Side) Participant {
	if side == SideB {
		return d.B
	}
	return d.A
}

// Config controls the shape of a debate.
type Config struct {
	// Rounds is the fixed number of rounds played. There is no early stop.
	Rounds int
	// CompressThreshold is the history length above which a history is
	// replaced by a summary after each round.
	CompressThreshold int
	// ThinkFirst makes debaters brainstorm and deliberate in their internal
	// monologue. Without it they get a fixed note instead, saving two
	// completions per turn.
	ThinkFirst bool
	// TurnDelay is the pause after each spoken turn.
	TurnDelay time.Duration
}

// DefaultConfig returns four rounds, compression above five entries, and
// thinking enabled.
func DefaultConfig() Config {
	return Config{
		Rounds:            4,
		CompressThreshold: 5,
		ThinkFirst:        true,
		TurnDelay:         500 * time.Millisecond,
	}
}

// ConfigFrom converts the debate section of the application config.
func ConfigFrom(c config.DebateConfig) Config {
	return Config{
		Rounds:            c.Rounds,
		CompressThreshold: c.CompressThreshold,
		ThinkFirst:        c.ThinkFirst,
		TurnDelay:         c.TurnDelay(),
	}
}

// State is the explicit record carried from round to round.
type State struct {
	Topic    string
	Round    int // Completed rounds
	HistoryA []string
	HistoryB []string
	Status   SessionStatus
}

// History returns the argument history of side.
func (s State) History(side Side) []string {
	if side == SideB {
		return s.HistoryB
	}
	return s.HistoryA
}

func (s *State) setHistory(side Side, history []string) {
	if side == SideB {
		s.HistoryB = history
	} else {
		s.HistoryA = history
	}
}

func (s State) clone() State {
	s.HistoryA = append([]string(nil), s.HistoryA...)
	s.HistoryB = append([]string(nil), s.HistoryB...)
	return s
}

// Conclusion is the result of a completed debate.
type Conclusion struct {
	DebateID string
	Topic    string
	Rounds   int
	ClosingA string
	ClosingB string
	HistoryA []string
	HistoryB []string
}

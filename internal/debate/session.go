package debate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/monologue/internal/conversation"
	"github.com/Iron-Ham/monologue/internal/errors"
	"github.com/Iron-Ham/monologue/internal/event"
	"github.com/Iron-Ham/monologue/internal/logging"
	"github.com/Iron-Ham/monologue/internal/reasoner"
	"github.com/Iron-Ham/monologue/internal/util"
)

// previewLen bounds the response excerpt logged with each turn.
const previewLen = 80

// Session manages one debate. All completions happen on the goroutine that
// calls Turn, Round or Run.
type Session struct {
	mu       sync.Mutex
	id       string
	config   Config
	debaters Debaters
	bus      *event.Bus
	logger   *logging.Logger
	state    State
	sleep    func(context.Context, time.Duration) error
}

// Option configures a Session.
type Option func(*Session)

// WithBus publishes progress events to bus.
func WithBus(bus *event.Bus) Option {
	return func(s *Session) { s.bus = bus }
}

// WithLogger sets the session logger. Entries are tagged with the debate ID.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithID overrides the generated debate ID.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// NewSession creates a pending debate on topic.
func NewSession(topic string, debaters Debaters, cfg Config, opts ...Option) (*Session, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, errors.NewValidationError("topic cannot be empty").WithField("topic")
	}
	if debaters.A == nil || debaters.B == nil || debaters.Summarizer == nil {
		return nil, errors.NewValidationError("debate needs two debaters and a summarizer").WithField("debaters")
	}
	if cfg.Rounds < 1 {
		return nil, errors.NewValidationError("rounds must be at least 1").
			WithField("rounds").WithValue(cfg.Rounds)
	}
	if cfg.CompressThreshold < 1 {
		return nil, errors.NewValidationError("compress threshold must be at least 1").
			WithField("compress_threshold").WithValue(cfg.CompressThreshold)
	}

	s := &Session{
		id:       generateDebateID(),
		config:   cfg,
		debaters: debaters,
		logger:   logging.NopLogger(),
		state:    State{Topic: topic, Status: StatusPending},
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithDebate(s.id)
	return s, nil
}

// ID returns the debate session identifier.
func (s *Session) ID() string {
	return s.id
}

// Topic returns the debate topic.
func (s *Session) Topic() string {
	return s.state.Topic
}

// Config returns the session's configuration.
func (s *Session) Config() Config {
	return s.config
}

// State returns a snapshot of the debate state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Status returns the current session status.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Status
}

// Run plays every round and then collects the closing statements. A
// session can be run once; any error leaves it failed.
func (s *Session) Run(ctx context.Context) (*Conclusion, error) {
	s.mu.Lock()
	if s.state.Status != StatusPending {
		status := s.state.Status
		s.mu.Unlock()
		return nil, errors.NewValidationError("debate already started").
			WithField("status").WithValue(status)
	}
	s.state.Status = StatusActive
	s.mu.Unlock()

	s.logger.Info("debate started", "topic", s.state.Topic, "rounds", s.config.Rounds)
	s.publish(event.NewDebateStartedEvent(s.id, s.state.Topic, s.config.Rounds))

	for s.completedRounds() < s.config.Rounds {
		if err := s.Round(ctx); err != nil {
			return nil, s.fail(err)
		}
	}

	conclusion, err := s.conclude(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	return conclusion, nil
}

// Round plays one turn for each side and compresses both histories.
func (s *Session) Round(ctx context.Context) error {
	for _, side := range []Side{SideA, SideB} {
		if _, err := s.Turn(ctx, side); err != nil {
			return err
		}
	}
	for _, side := range []Side{SideA, SideB} {
		if err := s.compress(ctx, side); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.state.Round++
	round := s.state.Round
	s.mu.Unlock()

	s.logger.WithRound(round).Info("round completed")
	s.publish(event.NewRoundCompletedEvent(s.id, round, s.config.Rounds))
	return nil
}

// Turn lets side brainstorm, choose and speak once. The spoken reply is
// appended to that side's history and returned.
func (s *Session) Turn(ctx context.Context, side Side) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p := s.debaters.get(side)
	text := sidePrompts[side]
	state := s.State()
	round := state.Round + 1
	speaker := s.speaker(side)
	logger := s.logger.WithParticipant(speaker).WithRound(round)

	p.SetMessage(conversation.RoleUser, recap(state.Topic, state.History(side), state.History(side.Opponent())), "")

	if err := s.deliberate(ctx, p, side, round, text.brainstorm, text.brainstormNote); err != nil {
		return "", errors.Wrapf(err, "%s brainstorm", speaker)
	}

	options, err := p.ParseResponseOptions(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "%s list options", speaker)
	}

	if err := s.deliberate(ctx, p, side, round, text.pick+strings.Join(options, "\n"), text.pickNote); err != nil {
		return "", errors.Wrapf(err, "%s pick option", speaker)
	}

	choice, err := p.Choose(ctx, options)
	if err != nil {
		return "", errors.Wrapf(err, "%s choose", speaker)
	}

	response, err := p.ExternalDialogue(ctx, speakPrompt)
	if err != nil {
		return "", errors.Wrapf(err, "%s speak", speaker)
	}

	s.mu.Lock()
	s.state.setHistory(side, append(s.state.History(side), response))
	s.mu.Unlock()

	logger.Info("turn spoken", "options", len(options), "choice", choice, "chars", len(response),
		"preview", util.Preview(response, previewLen))
	s.publish(event.NewTurnEvent(s.id, round, speaker, options, choice, response))

	if err := s.sleep(ctx, s.config.TurnDelay); err != nil {
		return "", err
	}
	p.AddMessage(conversation.RoleUser, lastAnswerNote+response, "")
	return response, nil
}

// deliberate thinks in the internal monologue, or only notes the intent
// when the session does not think first.
func (s *Session) deliberate(ctx context.Context, p Participant, side Side, round int, thought, note string) error {
	if !s.config.ThinkFirst {
		p.AddMessage(conversation.RoleAssistant, reasoner.MonologuePrefix+note, "")
		return nil
	}
	reply, err := p.InternalMonologue(ctx, thought)
	if err != nil {
		return err
	}
	s.publish(event.NewThoughtEvent(s.id, round, s.speaker(side), reply))
	return nil
}

// compress replaces side's history with one summary once it is longer than
// the threshold.
func (s *Session) compress(ctx context.Context, side Side) error {
	state := s.State()
	history := state.History(side)
	if len(history) <= s.config.CompressThreshold {
		return nil
	}

	summarizer := s.debaters.Summarizer
	summarizer.SetMessage(conversation.RoleUser, strings.Join(history, "\n"), "")
	summary, err := summarizer.ExternalDialogue(ctx, summarizePrompt)
	if err != nil {
		return errors.Wrapf(err, "summarize %s history", s.speaker(side))
	}

	s.mu.Lock()
	s.state.setHistory(side, []string{summary})
	s.mu.Unlock()

	s.logger.WithParticipant(s.speaker(side)).Info("history compressed", "entries", len(history))
	s.publish(event.NewHistoryCompressedEvent(s.id, state.Round+1, s.speaker(side), len(history), summary))
	return nil
}

// conclude collects the closing statements, A first so that B can answer it.
func (s *Session) conclude(ctx context.Context) (*Conclusion, error) {
	closingA, err := s.debaters.A.ExternalDialogue(ctx, closingPrompt)
	if err != nil {
		return nil, errors.Wrapf(err, "%s closing", s.speaker(SideA))
	}
	closingB, err := s.debaters.B.ExternalDialogue(ctx, closingPrompt+rebuttalSuffix+closingA)
	if err != nil {
		return nil, errors.Wrapf(err, "%s closing", s.speaker(SideB))
	}

	s.mu.Lock()
	s.state.Status = StatusConcluded
	state := s.state.clone()
	s.mu.Unlock()

	s.logger.Info("debate concluded", "rounds", state.Round)
	s.publish(event.NewDebateConcludedEvent(s.id, state.Topic, closingA, closingB))

	return &Conclusion{
		DebateID: s.id,
		Topic:    state.Topic,
		Rounds:   state.Round,
		ClosingA: closingA,
		ClosingB: closingB,
		HistoryA: state.HistoryA,
		HistoryB: state.HistoryB,
	}, nil
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.state.Status = StatusFailed
	round := s.state.Round + 1
	s.mu.Unlock()

	err = errors.Wrapf(err, "debate round %d", round)
	logger := s.logger.WithRound(round)
	if errors.GetSeverity(err) <= errors.SeverityWarning {
		logger.Warn("debate failed", "error", err.Error(), "retryable", errors.IsRetryable(err))
	} else {
		logger.Error("debate failed", "error", err.Error(), "retryable", errors.IsRetryable(err))
	}
	s.publish(event.NewDebateFailedEvent(s.id, round, err))
	return err
}

func (s *Session) completedRounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Round
}

func (s *Session) speaker(side Side) string {
	if name := s.debaters.get(side).Name(); name != "" {
		return name
	}
	if side == SideB {
		return NameDebaterB
	}
	return NameDebaterA
}

func (s *Session) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// generateDebateID returns "debate-" followed by eight random hex digits.
func generateDebateID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("debate-%08x", time.Now().UnixNano()&0xffffffff)
	}
	return "debate-" + hex.EncodeToString(b)
}

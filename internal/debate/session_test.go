package debate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/monologue/internal/conversation"
	"github.com/Iron-Ham/monologue/internal/errors"
	"github.com/Iron-Ham/monologue/internal/event"
	"github.com/Iron-Ham/monologue/internal/llm"
	"github.com/Iron-Ham/monologue/internal/logging"
	"github.com/Iron-Ham/monologue/internal/reasoner"
	"github.com/Iron-Ham/monologue/internal/testutil"
)

// fakeParticipant records every call as a short string.
type fakeParticipant struct {
	name    string
	calls   []string
	options []string
	choice  int
	spoken  int
	failOn  string
	err     error
}

func newFake(name string) *fakeParticipant {
	return &fakeParticipant{name: name, options: []string{"first", "second"}, choice: 1}
}

func (f *fakeParticipant) fail(step string) error {
	if f.failOn == step {
		return f.err
	}
	return nil
}

func (f *fakeParticipant) Name() string { return f.name }

func (f *fakeParticipant) AddMessage(role conversation.Role, content, _ string) {
	f.calls = append(f.calls, fmt.Sprintf("add %s: %s", role, content))
}

func (f *fakeParticipant) SetMessage(role conversation.Role, content, _ string) {
	f.calls = append(f.calls, fmt.Sprintf("set %s: %s", role, content))
}

func (f *fakeParticipant) InternalMonologue(_ context.Context, thought string) (string, error) {
	f.calls = append(f.calls, "think: "+thought)
	if err := f.fail("think"); err != nil {
		return "", err
	}
	return f.name + " thinks", nil
}

func (f *fakeParticipant) ExternalDialogue(_ context.Context, thought string) (string, error) {
	f.calls = append(f.calls, "speak: "+thought)
	if err := f.fail("speak"); err != nil {
		return "", err
	}
	f.spoken++
	return fmt.Sprintf("%s says %d", f.name, f.spoken), nil
}

func (f *fakeParticipant) ParseResponseOptions(context.Context) ([]string, error) {
	f.calls = append(f.calls, "options")
	if err := f.fail("options"); err != nil {
		return nil, err
	}
	return f.options, nil
}

func (f *fakeParticipant) Choose(_ context.Context, options []string) (int, error) {
	f.calls = append(f.calls, fmt.Sprintf("choose %d", len(options)))
	if err := f.fail("choose"); err != nil {
		return 0, err
	}
	return f.choice, nil
}

type fixture struct {
	a, b, summarizer *fakeParticipant
	bus              *event.Bus
	events           []event.Event
}

func newFixture(t *testing.T, cfg Config, opts ...Option) (*Session, *fixture) {
	t.Helper()
	f := &fixture{
		a:          newFake(NameDebaterA),
		b:          newFake(NameDebaterB),
		summarizer: newFake(NameSummarizer),
		bus:        event.NewBus(nil),
	}
	f.bus.SubscribeAll(func(e event.Event) { f.events = append(f.events, e) })

	opts = append([]Option{WithBus(f.bus), WithID("debate-test")}, opts...)
	sess, err := NewSession("Cats are better than dogs", Debaters{A: f.a, B: f.b, Summarizer: f.summarizer}, cfg, opts...)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return sess, f
}

func (f *fixture) count(eventType string) int {
	n := 0
	for _, e := range f.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TurnDelay = 0
	return cfg
}

func TestNewSession(t *testing.T) {
	sess, f := newFixture(t, testConfig())

	if sess.Status() != StatusPending {
		t.Errorf("Status() = %q, want %q", sess.Status(), StatusPending)
	}
	if sess.ID() != "debate-test" {
		t.Errorf("ID() = %q, want debate-test", sess.ID())
	}
	if sess.Topic() != "Cats are better than dogs" {
		t.Errorf("Topic() = %q", sess.Topic())
	}
	if len(f.events) != 0 {
		t.Errorf("no event should be published before Run, got %d", len(f.events))
	}
}

func TestNewSession_Validation(t *testing.T) {
	debaters := Debaters{A: newFake("a"), B: newFake("b"), Summarizer: newFake("s")}

	tests := []struct {
		name     string
		topic    string
		debaters Debaters
		mutate   func(*Config)
		field    string
	}{
		{"empty topic", "  ", debaters, nil, "topic"},
		{"missing summarizer", "t", Debaters{A: debaters.A, B: debaters.B}, nil, "debaters"},
		{"zero rounds", "t", debaters, func(c *Config) { c.Rounds = 0 }, "rounds"},
		{"zero threshold", "t", debaters, func(c *Config) { c.CompressThreshold = 0 }, "compress_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			_, err := NewSession(tt.topic, tt.debaters, cfg)
			var verr *errors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("NewSession() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestNewSession_GeneratesID(t *testing.T) {
	debaters := Debaters{A: newFake("a"), B: newFake("b"), Summarizer: newFake("s")}
	s1, _ := NewSession("t", debaters, testConfig())
	s2, _ := NewSession("t", debaters, testConfig())

	if !strings.HasPrefix(s1.ID(), "debate-") {
		t.Errorf("ID() = %q, want debate- prefix", s1.ID())
	}
	if s1.ID() == s2.ID() {
		t.Errorf("two sessions share ID %q", s1.ID())
	}
}

func TestTurn_ThinkFirst(t *testing.T) {
	sess, f := newFixture(t, testConfig())

	response, err := sess.Turn(context.Background(), SideA)
	if err != nil {
		t.Fatalf("Turn failed: %v", err)
	}
	if response != "debater-a says 1" {
		t.Errorf("response = %q", response)
	}

	want := []string{
		"set user: [Internal Monologue]: Topic of the debate is: Cats are better than dogs.",
		"think: " + sidePrompts[SideA].brainstorm,
		"options",
		"think: " + sidePrompts[SideA].pick + "first\nsecond",
		"choose 2",
		"speak: " + speakPrompt,
		"add user: [Internal Monologue] my last answer is: debater-a says 1",
	}
	if got := strings.Join(f.a.calls, "\n|"); got != strings.Join(want, "\n|") {
		t.Errorf("calls:\n%s\nwant:\n%s", got, strings.Join(want, "\n|"))
	}
	if len(f.b.calls) != 0 {
		t.Errorf("debater B should not be touched, got %v", f.b.calls)
	}

	state := sess.State()
	if len(state.HistoryA) != 1 || state.HistoryA[0] != response {
		t.Errorf("HistoryA = %v", state.HistoryA)
	}
	if f.count(event.TypeThought) != 2 {
		t.Errorf("thought events = %d, want 2", f.count(event.TypeThought))
	}

	var turn event.TurnEvent
	for _, e := range f.events {
		if te, ok := e.(event.TurnEvent); ok {
			turn = te
		}
	}
	if turn.Speaker != NameDebaterA || turn.Round != 1 || turn.ChosenOption() != "second" {
		t.Errorf("unexpected turn event: %+v", turn)
	}
}

func TestTurn_WithoutThinking(t *testing.T) {
	cfg := testConfig()
	cfg.ThinkFirst = false
	sess, f := newFixture(t, cfg)

	if _, err := sess.Turn(context.Background(), SideB); err != nil {
		t.Fatalf("Turn failed: %v", err)
	}

	if f.b.calls[1] != "add assistant: "+reasoner.MonologuePrefix+sidePrompts[SideB].brainstormNote {
		t.Errorf("calls[1] = %q", f.b.calls[1])
	}
	if f.b.calls[3] != "add assistant: "+reasoner.MonologuePrefix+sidePrompts[SideB].pickNote {
		t.Errorf("calls[3] = %q", f.b.calls[3])
	}
	for _, c := range f.b.calls {
		if strings.HasPrefix(c, "think:") {
			t.Errorf("unexpected monologue call %q", c)
		}
	}
	if f.count(event.TypeThought) != 0 {
		t.Errorf("thought events = %d, want 0", f.count(event.TypeThought))
	}
}

func TestTurn_RecapIncludesBothHistories(t *testing.T) {
	sess, f := newFixture(t, testConfig())
	ctx := context.Background()

	if _, err := sess.Turn(ctx, SideA); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Turn(ctx, SideB); err != nil {
		t.Fatal(err)
	}

	got := f.b.calls[0]
	want := "set user: " + recap("Cats are better than dogs", nil, []string{"debater-a says 1"})
	if got != want {
		t.Errorf("B recap = %q, want %q", got, want)
	}
	if !strings.Contains(got, "My previous arguments are .") {
		t.Errorf("B has no arguments yet, recap = %q", got)
	}
	if !strings.Contains(got, "My opponent's previous arguments are debater-a says 1.") {
		t.Errorf("recap lacks the opponent history: %q", got)
	}
}

func TestRound_Compression(t *testing.T) {
	cfg := testConfig()
	cfg.CompressThreshold = 1
	sess, f := newFixture(t, cfg)
	ctx := context.Background()

	if err := sess.Round(ctx); err != nil {
		t.Fatalf("Round 1 failed: %v", err)
	}
	if len(f.summarizer.calls) != 0 {
		t.Fatalf("one entry is not above the threshold, summarizer calls = %v", f.summarizer.calls)
	}

	if err := sess.Round(ctx); err != nil {
		t.Fatalf("Round 2 failed: %v", err)
	}

	wantSummarizer := []string{
		"set user: debater-a says 1\ndebater-a says 2",
		"speak: " + summarizePrompt,
		"set user: debater-b says 1\ndebater-b says 2",
		"speak: " + summarizePrompt,
	}
	if strings.Join(f.summarizer.calls, "|") != strings.Join(wantSummarizer, "|") {
		t.Errorf("summarizer calls = %q", f.summarizer.calls)
	}

	state := sess.State()
	if state.Round != 2 {
		t.Errorf("Round = %d, want 2", state.Round)
	}
	if len(state.HistoryA) != 1 || state.HistoryA[0] != "summarizer says 1" {
		t.Errorf("HistoryA = %v", state.HistoryA)
	}
	if len(state.HistoryB) != 1 || state.HistoryB[0] != "summarizer says 2" {
		t.Errorf("HistoryB = %v", state.HistoryB)
	}
	if f.count(event.TypeHistoryCompressed) != 2 {
		t.Errorf("compressed events = %d, want 2", f.count(event.TypeHistoryCompressed))
	}
	if f.count(event.TypeRoundCompleted) != 2 {
		t.Errorf("round events = %d, want 2", f.count(event.TypeRoundCompleted))
	}
}

func TestRun(t *testing.T) {
	sess, f := newFixture(t, testConfig())

	conclusion, err := sess.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sess.Status() != StatusConcluded {
		t.Errorf("Status() = %q, want %q", sess.Status(), StatusConcluded)
	}
	if conclusion.Rounds != 4 {
		t.Errorf("Rounds = %d, want 4", conclusion.Rounds)
	}
	if len(conclusion.HistoryA) != 4 || len(conclusion.HistoryB) != 4 {
		t.Errorf("four entries never exceed the default threshold: A=%d B=%d",
			len(conclusion.HistoryA), len(conclusion.HistoryB))
	}
	if conclusion.ClosingA != "debater-a says 5" {
		t.Errorf("ClosingA = %q", conclusion.ClosingA)
	}

	lastB := f.b.calls[len(f.b.calls)-1]
	if lastB != "speak: "+closingPrompt+rebuttalSuffix+conclusion.ClosingA {
		t.Errorf("B closing prompt = %q", lastB)
	}

	counts := map[string]int{
		event.TypeDebateStarted:   1,
		event.TypeTurn:            8,
		event.TypeThought:         16,
		event.TypeRoundCompleted:  4,
		event.TypeDebateConcluded: 1,
		event.TypeDebateFailed:    0,
	}
	for eventType, want := range counts {
		if got := f.count(eventType); got != want {
			t.Errorf("%s events = %d, want %d", eventType, got, want)
		}
	}
	if f.events[0].EventType() != event.TypeDebateStarted {
		t.Errorf("first event = %s", f.events[0].EventType())
	}
	if f.events[len(f.events)-1].EventType() != event.TypeDebateConcluded {
		t.Errorf("last event = %s", f.events[len(f.events)-1].EventType())
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	sess, _ := newFixture(t, testConfig())
	if _, err := sess.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Run(context.Background()); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("second Run() error = %v, want ErrInvalidInput", err)
	}
}

func TestRun_StepFailure(t *testing.T) {
	sess, f := newFixture(t, testConfig())
	f.b.failOn = "choose"
	f.b.err = errors.NewChoiceError(9, 2)

	_, err := sess.Run(context.Background())
	if !errors.Is(err, errors.ErrChoiceOutOfRange) {
		t.Fatalf("Run() error = %v, want ErrChoiceOutOfRange", err)
	}
	if !strings.Contains(err.Error(), "debate round 1") || !strings.Contains(err.Error(), "debater-b choose") {
		t.Errorf("error lacks context: %v", err)
	}
	if sess.Status() != StatusFailed {
		t.Errorf("Status() = %q, want %q", sess.Status(), StatusFailed)
	}
	if f.count(event.TypeDebateFailed) != 1 {
		t.Errorf("failed events = %d, want 1", f.count(event.TypeDebateFailed))
	}
	if f.count(event.TypeTurn) != 1 {
		t.Errorf("turn events = %d, want 1", f.count(event.TypeTurn))
	}
}

func TestRun_FailureLogLevelFollowsSeverity(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		level     string
		retryable bool
	}{
		{"timeout is a warning", errors.NewTimeoutError("chat completion", time.Second), "WARN", true},
		{"choice out of range is an error", errors.NewChoiceError(9, 2), "ERROR", false},
		{"plain error is an error", fmt.Errorf("boom"), "ERROR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			logger, err := logging.NewLogger(dir, "debug")
			if err != nil {
				t.Fatalf("NewLogger failed: %v", err)
			}
			defer logger.Close()

			sess, f := newFixture(t, testConfig(), WithLogger(logger))
			f.b.failOn = "choose"
			f.b.err = tt.err
			if _, err := sess.Run(context.Background()); err == nil {
				t.Fatal("Run() should fail")
			}

			entries := testutil.ReadJSONLines(t, filepath.Join(dir, logging.LogFileName))
			failed := testutil.FilterEntries(entries, "msg", "debate failed")
			if len(failed) != 1 {
				t.Fatalf("failure entries = %d, want 1", len(failed))
			}
			if failed[0]["level"] != tt.level {
				t.Errorf("level = %v, want %s", failed[0]["level"], tt.level)
			}
			if failed[0]["retryable"] != tt.retryable {
				t.Errorf("retryable = %v, want %v", failed[0]["retryable"], tt.retryable)
			}
			if failed[0]["round"] != float64(1) {
				t.Errorf("round = %v, want 1", failed[0]["round"])
			}

			spoken := testutil.FilterEntries(entries, "msg", "turn spoken")
			if len(spoken) != 1 {
				t.Fatalf("turn entries = %d, want 1", len(spoken))
			}
			if spoken[0]["preview"] != "debater-a says 1" {
				t.Errorf("preview = %v, want %q", spoken[0]["preview"], "debater-a says 1")
			}
		})
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	cfg := testConfig()
	cfg.TurnDelay = time.Hour
	sess, f := newFixture(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	f.bus.Subscribe(event.TypeTurn, func(event.Event) { cancel() })

	done := make(chan error, 1)
	go func() {
		_, err := sess.Run(ctx)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if len(f.b.calls) != 0 {
		t.Errorf("debater B should not run after cancellation, got %v", f.b.calls)
	}
}

func TestRun_WithReasoners(t *testing.T) {
	var calls atomic.Int32
	var summaryModelSeen atomic.Bool
	completer := llm.CompleterFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		n := calls.Add(1)
		if req.Model == "gpt-3.5-turbo" {
			summaryModelSeen.Store(true)
		}
		switch req.ForceFunction {
		case "store_response_options":
			return llm.FunctionResponse(req.ForceFunction, map[string]any{
				"responses": []any{"cost", "comfort"},
			}), nil
		case "choose":
			return llm.FunctionResponse(req.ForceFunction, map[string]any{"choice_index": 2}), nil
		default:
			return llm.TextResponse(fmt.Sprintf("reply %d", n)), nil
		}
	})

	cfg := testConfig()
	cfg.CompressThreshold = 2
	sess, err := NewSession("Remote work beats office work", Debaters{
		A:          NewDebaterA(completer),
		B:          NewDebaterB(completer),
		Summarizer: NewSummarizer(completer, reasoner.WithModel("gpt-3.5-turbo")),
	}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	conclusion, err := sess.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 8 turns of 5 completions, one compression per side after round 3,
	// and two closing statements.
	if got := calls.Load(); got != 44 {
		t.Errorf("completions = %d, want 44", got)
	}
	if !summaryModelSeen.Load() {
		t.Error("summarizer should use its own model")
	}
	if len(conclusion.HistoryA) != 2 || len(conclusion.HistoryB) != 2 {
		t.Errorf("histories = %v / %v, want two entries each", conclusion.HistoryA, conclusion.HistoryB)
	}
	if conclusion.ClosingA == "" || conclusion.ClosingB == "" {
		t.Error("closing statements should not be empty")
	}
}

func TestSide(t *testing.T) {
	if SideA.String() != "A" || SideB.String() != "B" {
		t.Errorf("String() = %s/%s", SideA, SideB)
	}
	if SideA.Opponent() != SideB || SideB.Opponent() != SideA {
		t.Error("Opponent() should swap sides")
	}
}

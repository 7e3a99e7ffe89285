package event

import (
	"errors"
	"testing"
	"time"
)

func TestEventTypes(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		event Event
		want  string
	}{
		{NewDebateStartedEvent("d", "topic", 4), "debate.started"},
		{NewThoughtEvent("d", 1, "debater-a", "hmm"), "debate.thought"},
		{NewTurnEvent("d", 1, "debater-a", []string{"x"}, 0, "said"), "debate.turn"},
		{NewHistoryCompressedEvent("d", 1, "debater-b", 6, "short"), "debate.compressed"},
		{NewRoundCompletedEvent("d", 1, 4), "debate.round"},
		{NewDebateConcludedEvent("d", "topic", "a", "b"), "debate.concluded"},
		{NewDebateFailedEvent("d", 2, boom), "debate.failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.event.EventType(); got != tt.want {
				t.Errorf("EventType() = %q, want %q", got, tt.want)
			}
			if time.Since(tt.event.Timestamp()) > time.Minute {
				t.Errorf("Timestamp() = %v, want roughly now", tt.event.Timestamp())
			}
		})
	}
}

func TestTurnEvent_ChosenOption(t *testing.T) {
	options := []string{"a", "b"}
	tests := []struct {
		choice int
		want   string
	}{
		{0, "a"},
		{1, "b"},
		{2, ""},
		{-1, ""},
	}

	for _, tt := range tests {
		e := NewTurnEvent("d", 1, "debater-a", options, tt.choice, "")
		if got := e.ChosenOption(); got != tt.want {
			t.Errorf("ChosenOption() with choice %d = %q, want %q", tt.choice, got, tt.want)
		}
	}
}

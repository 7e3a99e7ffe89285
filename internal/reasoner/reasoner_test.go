package reasoner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/monologue/internal/conversation"
	"github.com/Iron-Ham/monologue/internal/errors"
	"github.com/Iron-Ham/monologue/internal/llm"
	"github.com/Iron-Ham/monologue/internal/llm/llmtest"
)

func TestNew(t *testing.T) {
	t.Run("without system prompt", func(t *testing.T) {
		r := New(llmtest.NewScriptedCompleter())
		assert.Equal(t, 0, r.Len())
		assert.False(t, r.IsInternal())
		assert.Equal(t, DefaultModel, r.Model())
	})

	t.Run("with options", func(t *testing.T) {
		r := New(llmtest.NewScriptedCompleter(),
			WithSystemPrompt("You debate."),
			WithModel("gpt-3.5-turbo"),
			WithName("summarizer"),
		)
		msgs := r.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, conversation.RoleSystem, msgs[0].Role)
		assert.Equal(t, "You debate.", msgs[0].Content)
		assert.Equal(t, "gpt-3.5-turbo", r.Model())
		assert.Equal(t, "summarizer", r.Name())
	})

	t.Run("empty model keeps default", func(t *testing.T) {
		r := New(llmtest.NewScriptedCompleter(), WithModel(""))
		assert.Equal(t, DefaultModel, r.Model())
	})
}

func TestAddAndSetMessage(t *testing.T) {
	r := New(llmtest.NewScriptedCompleter(), WithSystemPrompt("sys"))

	r.AddMessage(conversation.RoleUser, "hello", "ignored")
	r.AddMessage(conversation.RoleFunction, "done", "choose")
	require.Equal(t, 3, r.Len())

	msgs := r.Messages()
	assert.Empty(t, msgs[1].Name, "name must be dropped for non-function roles")
	assert.Equal(t, "choose", msgs[2].Name)

	r.SetMessage(conversation.RoleUser, "recap", "")
	require.Equal(t, 1, r.Len())
	assert.Equal(t, "recap", r.Messages()[0].Content)
}

func TestEndToEndScenario(t *testing.T) {
	s := llmtest.NewScriptedCompleter().
		AddText("[Internal Monologue]: a deep thought").
		AddText("Hello, world.")
	r := New(s)

	thought, err := r.InternalMonologue(context.Background(), "think")
	require.NoError(t, err)
	assert.Equal(t, "a deep thought", thought)
	assert.True(t, r.IsInternal())

	reply, err := r.ExternalDialogue(context.Background(), "speak")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world.", reply)
	assert.False(t, r.IsInternal())

	want := []conversation.Message{
		{Role: conversation.RoleFunction, Content: "[Entered Internal Monologue]", Name: "enter_monologue"},
		{Role: conversation.RoleAssistant, Content: enterNote},
		{Role: conversation.RoleAssistant, Content: "[Internal Monologue]: think"},
		{Role: conversation.RoleAssistant, Content: "[Internal Monologue]: a deep thought"},
		{Role: conversation.RoleFunction, Content: "[Exited Internal Monologue]", Name: "exit_monologue"},
		{Role: conversation.RoleAssistant, Content: exitNote},
		{Role: conversation.RoleAssistant, Content: "[Internal Monologue]: speak"},
		{Role: conversation.RoleAssistant, Content: "Hello, world."},
	}
	assert.Equal(t, want, r.Messages())

	// Each call sees the whole log up to and including its own note.
	calls := s.Calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].Request.Messages, 3)
	assert.Len(t, calls[1].Request.Messages, 7)
	assert.Empty(t, calls[0].Request.Functions)
	assert.Empty(t, calls[0].Request.ForceFunction)
	assert.Equal(t, DefaultModel, calls[0].Request.Model)
}

func TestInternalMonologue_Markers(t *testing.T) {
	s := llmtest.NewScriptedCompleter().WithFallback(llmTextOK)
	r := New(s)
	ctx := context.Background()

	_, err := r.InternalMonologue(ctx, "first")
	require.NoError(t, err)
	// enter marker + note + thought + reply
	assert.Equal(t, 4, r.Len())

	_, err = r.InternalMonologue(ctx, "second")
	require.NoError(t, err)
	// thought + reply only
	assert.Equal(t, 6, r.Len())
	assert.Equal(t, 1, countFunction(r.Messages(), EnterMonologueFunction))
}

func TestExternalDialogue_Markers(t *testing.T) {
	ctx := context.Background()

	t.Run("from external mode adds no markers", func(t *testing.T) {
		r := New(llmtest.NewScriptedCompleter().WithFallback(llmTextOK))
		_, err := r.ExternalDialogue(ctx, "speak")
		require.NoError(t, err)
		assert.Equal(t, 2, r.Len())
		assert.Equal(t, 0, countFunction(r.Messages(), ExitMonologueFunction))
	})

	t.Run("from internal mode adds two markers once", func(t *testing.T) {
		r := New(llmtest.NewScriptedCompleter().WithFallback(llmTextOK))
		_, err := r.InternalMonologue(ctx, "think")
		require.NoError(t, err)
		before := r.Len()

		_, err = r.ExternalDialogue(ctx, "speak")
		require.NoError(t, err)
		// exit marker + note + speak note + reply
		assert.Equal(t, before+4, r.Len())

		_, err = r.ExternalDialogue(ctx, "again")
		require.NoError(t, err)
		assert.Equal(t, before+6, r.Len())
		assert.Equal(t, 1, countFunction(r.Messages(), ExitMonologueFunction))
	})
}

func TestInternalMonologue_StripsEveryEcho(t *testing.T) {
	s := llmtest.NewScriptedCompleter().
		AddText("[Internal Monologue]: one. [Internal Monologue]: two.")
	r := New(s)

	got, err := r.InternalMonologue(context.Background(), "think")
	require.NoError(t, err)
	assert.Equal(t, "one. two.", got)

	last := r.Messages()[r.Len()-1]
	assert.Equal(t, "[Internal Monologue]: one. two.", last.Content)
}

func TestCompletionFailure(t *testing.T) {
	boom := errors.New("connection reset")
	s := llmtest.NewScriptedCompleter().AddError(boom)
	r := New(s)

	_, err := r.ExternalDialogue(context.Background(), "speak")
	require.Error(t, err)

	var ce *errors.CompletionError
	require.True(t, errors.As(err, &ce), "got %T", err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, errors.ErrCompletionFailed)
	assert.Equal(t, DefaultModel, ce.Model)

	// The note appended before the call is kept.
	require.Equal(t, 1, r.Len())
	assert.Equal(t, "[Internal Monologue]: speak", r.Messages()[0].Content)
}

func TestCompletionFailure_KeepsTypedErrors(t *testing.T) {
	original := errors.NewCompletionError("chat completion", errors.New("503")).WithProvider("openai")
	r := New(llmtest.NewScriptedCompleter().AddError(original))

	_, err := r.InternalMonologue(context.Background(), "think")

	var ce *errors.CompletionError
	require.True(t, errors.As(err, &ce))
	assert.Same(t, original, ce)
}

func TestCompletionFailure_KeepsTimeouts(t *testing.T) {
	original := errors.NewTimeoutError("chat completion", 30*time.Second)
	r := New(llmtest.NewScriptedCompleter().AddError(original))

	_, err := r.ExternalDialogue(context.Background(), "speak")

	var ce *errors.CompletionError
	assert.False(t, errors.As(err, &ce), "a timeout should not be wrapped as a completion error")
	assert.True(t, errors.IsUserFacing(err))
	assert.Equal(t, errors.SeverityWarning, errors.GetSeverity(err))
}

func TestContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(llmtest.NewScriptedCompleter().AddText("unused"))
	_, err := r.ExternalDialogue(ctx, "speak")
	assert.ErrorIs(t, err, context.Canceled)
}

var llmTextOK = llm.TextResponse("ok")

func countFunction(msgs []conversation.Message, name string) int {
	n := 0
	for _, m := range msgs {
		if m.Role == conversation.RoleFunction && m.Name == name {
			n++
		}
	}
	return n
}

package reasoner

import (
	"context"
	"strings"
	"time"

	"github.com/Iron-Ham/monologue/internal/conversation"
	"github.com/Iron-Ham/monologue/internal/errors"
	"github.com/Iron-Ham/monologue/internal/llm"
	"github.com/Iron-Ham/monologue/internal/logging"
)

// MonologuePrefix marks entries that belong to the internal monologue.
const MonologuePrefix = "[Internal Monologue]: "

// Marker messages appended when the mode flips.
const (
	EnterMonologueFunction = "enter_monologue"
	ExitMonologueFunction  = "exit_monologue"

	enterMarker = "[Entered Internal Monologue]"
	exitMarker  = "[Exited Internal Monologue]"

	enterNote = MonologuePrefix + "I am now in the internal monologue state. " +
		"I won't be able to respond here, so I'll use this space to think, reflect, and plan."
	exitNote = MonologuePrefix + "I am now entering the external dialogue state. " +
		"Everything I say there will be seen."
)

// Reasoner owns one conversation and the internal/external mode flag.
type Reasoner struct {
	completer    llm.Completer
	log          *conversation.Log
	model        string
	name         string
	systemPrompt string
	strictChoice bool
	internal     bool
	logger       *logging.Logger
}

// New creates a Reasoner in external mode. With WithSystemPrompt the log
// starts with that system message; otherwise it starts empty.
func New(completer llm.Completer, opts ...Option) *Reasoner {
	r := &Reasoner{
		completer: completer,
		log:       conversation.NewLog(),
		model:     DefaultModel,
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.name != "" {
		r.logger = r.logger.WithParticipant(r.name)
	}
	if r.systemPrompt != "" {
		r.log.Add(conversation.RoleSystem, r.systemPrompt, "")
	}
	return r
}

// Name returns the label given with WithName.
func (r *Reasoner) Name() string { return r.name }

// Model returns the model identifier sent with each request.
func (r *Reasoner) Model() string { return r.model }

// IsInternal reports whether the reasoner is in the internal monologue.
func (r *Reasoner) IsInternal() bool { return r.internal }

// Messages returns a copy of the conversation.
func (r *Reasoner) Messages() []conversation.Message { return r.log.Messages() }

// Len returns the number of messages in the conversation.
func (r *Reasoner) Len() int { return r.log.Len() }

// AddMessage appends one message. name is kept only for RoleFunction.
func (r *Reasoner) AddMessage(role conversation.Role, content, name string) {
	r.log.Add(role, content, name)
}

// SetMessage replaces the entire conversation with one message. The mode
// flag is left as it is.
func (r *Reasoner) SetMessage(role conversation.Role, content, name string) {
	r.log.Set(role, content, name)
}

// InternalMonologue asks the model to think about thought without producing
// visible output. Entering the monologue from external mode first appends
// the enter marker and an explanatory note. Echoed monologue prefixes are
// stripped from the reply before it is recorded and returned.
func (r *Reasoner) InternalMonologue(ctx context.Context, thought string) (string, error) {
	if !r.internal {
		r.internal = true
		r.log.Add(conversation.RoleFunction, enterMarker, EnterMonologueFunction)
		r.log.Add(conversation.RoleAssistant, enterNote, "")
		r.logger.Debug("entered internal monologue")
	}
	r.log.Add(conversation.RoleAssistant, MonologuePrefix+thought, "")

	resp, err := r.complete(ctx, nil, "")
	if err != nil {
		return "", err
	}

	cleaned := strings.ReplaceAll(resp.Content, MonologuePrefix, "")
	r.log.Add(conversation.RoleAssistant, MonologuePrefix+cleaned, "")
	return cleaned, nil
}

// ExternalDialogue produces output meant for the other party. thought
// describes how to respond. Leaving the monologue first appends the exit
// marker and a note announcing that what follows is visible. The raw reply
// is recorded as an assistant message and returned.
func (r *Reasoner) ExternalDialogue(ctx context.Context, thought string) (string, error) {
	if r.internal {
		r.internal = false
		r.log.Add(conversation.RoleFunction, exitMarker, ExitMonologueFunction)
		r.log.Add(conversation.RoleAssistant, exitNote, "")
		r.logger.Debug("left internal monologue")
	}
	r.log.Add(conversation.RoleAssistant, MonologuePrefix+thought, "")

	resp, err := r.complete(ctx, nil, "")
	if err != nil {
		return "", err
	}

	r.log.Add(conversation.RoleAssistant, resp.Content, "")
	return resp.Content, nil
}

// complete sends the whole log. Failures come back as a CompletionError; the
// log keeps everything appended before the call.
func (r *Reasoner) complete(ctx context.Context, functions []llm.FunctionSchema, force string) (*llm.Response, error) {
	req := llm.Request{
		Model:         r.model,
		Messages:      r.log.Messages(),
		Functions:     functions,
		ForceFunction: force,
	}

	start := time.Now()
	resp, err := r.completer.Complete(ctx, req)
	elapsed := time.Since(start)

	if err == nil && resp == nil {
		err = errors.ErrEmptyCompletion
	}
	if err != nil {
		r.logger.Warn("completion failed",
			"model", r.model,
			"function", force,
			"error", err.Error(),
		)
		var ce *errors.CompletionError
		var te *errors.TimeoutError
		if errors.As(err, &ce) || errors.As(err, &te) || errors.IsExtractionError(err) {
			return nil, err
		}
		return nil, errors.NewCompletionError("complete", err).WithModel(r.model)
	}

	r.logger.Debug("completion",
		"model", r.model,
		"messages", len(req.Messages),
		"function", force,
		"role", string(resp.Role),
		"duration_ms", elapsed.Milliseconds(),
	)
	return resp, nil
}

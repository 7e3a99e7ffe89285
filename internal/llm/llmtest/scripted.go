// Package llmtest provides a scripted llm.Completer for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Iron-Ham/monologue/internal/conversation"
	"github.com/Iron-Ham/monologue/internal/llm"
)

// Script is one queued answer.
type Script struct {
	Response *llm.Response
	Error    error
	// ExpectFunction, when set, must equal the request's ForceFunction.
	ExpectFunction string
}

// Call is a recorded request.
type Call struct {
	Request llm.Request
}

// ScriptedCompleter answers requests from a FIFO queue of scripts and
// records every request it receives. When the queue is empty it returns the
// fallback response, or an error if none is set.
type ScriptedCompleter struct {
	mu       sync.Mutex
	scripts  []Script
	calls    []Call
	fallback *llm.Response
}

// NewScriptedCompleter creates an empty completer.
func NewScriptedCompleter() *ScriptedCompleter {
	return &ScriptedCompleter{}
}

// WithFallback sets the response used once the queue is exhausted.
func (s *ScriptedCompleter) WithFallback(resp *llm.Response) *ScriptedCompleter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = resp
	return s
}

// Add queues a script.
func (s *ScriptedCompleter) Add(script Script) *ScriptedCompleter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, script)
	return s
}

// AddText queues a free-text answer.
func (s *ScriptedCompleter) AddText(content string) *ScriptedCompleter {
	return s.Add(Script{Response: llm.TextResponse(content)})
}

// AddCall queues a structured call to name with args, and checks that the
// request forced that function.
func (s *ScriptedCompleter) AddCall(name string, args map[string]any) *ScriptedCompleter {
	return s.Add(Script{Response: llm.FunctionResponse(name, args), ExpectFunction: name})
}

// AddError queues a failure.
func (s *ScriptedCompleter) AddError(err error) *ScriptedCompleter {
	return s.Add(Script{Error: err})
}

// Complete implements llm.Completer.
func (s *ScriptedCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The caller's slice may be reused; keep our own copy.
	recorded := req
	recorded.Messages = append([]conversation.Message(nil), req.Messages...)
	s.calls = append(s.calls, Call{Request: recorded})

	if len(s.scripts) == 0 {
		if s.fallback != nil {
			return s.fallback, nil
		}
		return nil, fmt.Errorf("llmtest: no scripted response for call %d", len(s.calls))
	}

	script := s.scripts[0]
	s.scripts = s.scripts[1:]

	if script.ExpectFunction != "" && script.ExpectFunction != req.ForceFunction {
		return nil, fmt.Errorf("llmtest: call %d forced %q, script expected %q",
			len(s.calls), req.ForceFunction, script.ExpectFunction)
	}
	if script.Error != nil {
		return nil, script.Error
	}
	return script.Response, nil
}

// Calls returns every request received so far.
func (s *ScriptedCompleter) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns the number of requests received.
func (s *ScriptedCompleter) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Remaining returns the number of unused scripts.
func (s *ScriptedCompleter) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scripts)
}

package llm

import (
	"context"

	"github.com/Iron-Ham/monologue/internal/conversation"
)

// FunctionSchema describes one callable function offered to the model.
// Parameters is a JSON-schema object ({"type": "object", "properties": ...}).
type FunctionSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single completion call.
type Request struct {
	Model     string
	Messages  []conversation.Message
	Functions []FunctionSchema
	// ForceFunction, when set, names the function the model must call.
	ForceFunction string
}

// Response is the decoded result of a completion call.
type Response struct {
	Role    conversation.Role
	Content string
	// Name and Args are set only for RoleFunction responses.
	Name string
	Args map[string]any
}

// IsFunctionCall reports whether the model answered with a structured call.
func (r *Response) IsFunctionCall() bool {
	return r != nil && r.Role == conversation.RoleFunction
}

// Completer issues completion requests. Implementations block until the
// service answers or ctx is done.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, req Request) (*Response, error)

// Complete calls f(ctx, req).
func (f CompleterFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// TextResponse builds an assistant response.
func TextResponse(content string) *Response {
	return &Response{Role: conversation.RoleAssistant, Content: content}
}

// FunctionResponse builds a structured-call response.
func FunctionResponse(name string, args map[string]any) *Response {
	return &Response{Role: conversation.RoleFunction, Name: name, Args: args}
}

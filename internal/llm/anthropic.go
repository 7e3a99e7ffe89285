package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Iron-Ham/monologue/internal/config"
	"github.com/Iron-Ham/monologue/internal/conversation"
	"github.com/Iron-Ham/monologue/internal/errors"
)

// continuePrompt closes a history that would otherwise end on an assistant
// turn, which the Messages API treats as a prefill.
const continuePrompt = "Continue."

// AnthropicProvider talks to the Anthropic Messages API.
type AnthropicProvider struct {
	client    anthropic.Client
	maxTokens int64
	timeout   time.Duration
}

// NewAnthropic creates a provider. Without an explicit API key the client
// reads ANTHROPIC_API_KEY.
func NewAnthropic(cfg config.CompletionConfig, opts ...option.RequestOption) *AnthropicProvider {
	base := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		base = append(base, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicProvider{
		client:    anthropic.NewClient(append(base, opts...)...),
		maxTokens: int64(cfg.MaxTokens),
		timeout:   cfg.Timeout(),
	}
}

// Name returns "anthropic".
func (p *AnthropicProvider) Name() string { return config.ProviderAnthropic }

// Complete sends one Messages request.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	system, messages := toAnthropicMessages(req.Messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: p.maxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, fn := range req.Functions {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        fn.Name,
				Description: anthropic.String(fn.Description),
				InputSchema: toInputSchema(fn.Parameters),
			},
		})
	}
	if req.ForceFunction != "" {
		params.ToolChoice = anthropic.ToolChoiceParamOfTool(req.ForceFunction)
	}

	var reqOpts []option.RequestOption
	if p.timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(p.timeout))
	}

	msg, err := p.client.Messages.New(ctx, params, reqOpts...)
	if err != nil {
		if terr := requestTimeout(ctx, p.timeout, err); terr != nil {
			return nil, terr
		}
		return nil, p.wrap(req.Model, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case "tool_use":
			args, err := decodeArguments(block.Name, block.Input)
			if err != nil {
				return nil, err
			}
			return FunctionResponse(block.Name, args), nil
		case "text":
			text.WriteString(block.Text)
		}
	}
	if len(msg.Content) == 0 {
		return nil, p.wrap(req.Model, errors.ErrEmptyCompletion).WithRetryable(false)
	}
	return TextResponse(text.String()), nil
}

func (p *AnthropicProvider) wrap(model string, err error) *errors.CompletionError {
	return errors.NewCompletionError("messages", err).
		WithProvider(config.ProviderAnthropic).
		WithModel(model)
}

func toInputSchema(params map[string]any) anthropic.ToolInputSchemaParam {
	schema := anthropic.ToolInputSchemaParam{Properties: params["properties"]}
	switch required := params["required"].(type) {
	case []string:
		schema.Required = required
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	return schema
}

// toAnthropicMessages lifts system entries into the system prompt and folds
// the rest into strictly alternating user/assistant turns. Function entries
// become user text tagged with the function name.
func toAnthropicMessages(msgs []conversation.Message) (string, []anthropic.MessageParam) {
	var system []string
	var out []anthropic.MessageParam

	var role conversation.Role
	var blocks []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(blocks) == 0 {
			return
		}
		if role == conversation.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
		blocks = nil
	}

	for _, m := range msgs {
		if m.Role == conversation.RoleSystem {
			system = append(system, m.Content)
			continue
		}

		turn, text := conversation.RoleUser, m.Content
		switch m.Role {
		case conversation.RoleAssistant:
			turn = conversation.RoleAssistant
		case conversation.RoleFunction:
			text = fmt.Sprintf("[%s]: %s", m.Name, m.Content)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		if turn != role {
			flush()
			role = turn
		}
		blocks = append(blocks, anthropic.NewTextBlock(text))
	}
	flush()

	if len(out) == 0 || out[0].Role != anthropic.MessageParamRoleUser {
		out = append([]anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(continuePrompt))}, out...)
	}
	if out[len(out)-1].Role == anthropic.MessageParamRoleAssistant {
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(continuePrompt)))
	}

	return strings.Join(system, "\n\n"), out
}

package llm

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/azure"
	"github.com/openai/openai-go/v2/option"

	"github.com/Iron-Ham/monologue/internal/config"
	"github.com/Iron-Ham/monologue/internal/conversation"
	"github.com/Iron-Ham/monologue/internal/errors"
)

// OpenAIProvider talks to the Chat Completions API. It serves both the
// public OpenAI endpoint and Azure OpenAI deployments.
type OpenAIProvider struct {
	client    openai.Client
	name      string
	maxTokens int
	timeout   time.Duration
}

// NewOpenAI creates a provider for api.openai.com (or a compatible base URL).
// Without an explicit API key the client reads OPENAI_API_KEY.
func NewOpenAI(cfg config.CompletionConfig, opts ...option.RequestOption) *OpenAIProvider {
	base := make([]option.RequestOption, 0, len(opts)+2)
	if cfg.APIKey != "" {
		base = append(base, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	return newOpenAIProvider(config.ProviderOpenAI, cfg, append(base, opts...)...)
}

// NewAzure creates a provider for an Azure OpenAI deployment. An API key is
// used when configured; otherwise the default Azure credential chain
// (environment, workload identity, managed identity, az CLI) signs requests.
func NewAzure(cfg config.CompletionConfig, opts ...option.RequestOption) (*OpenAIProvider, error) {
	base := []option.RequestOption{option.WithBaseURL(cfg.BaseURL)}
	if cfg.APIKey != "" {
		base = append(base, azure.WithAPIKey(cfg.APIKey))
	} else {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, errors.NewCompletionError("azure credentials", err).
				WithProvider(config.ProviderAzure).
				WithRetryable(false)
		}
		base = append(base, azure.WithTokenCredential(cred))
	}
	return newOpenAIProvider(config.ProviderAzure, cfg, append(base, opts...)...), nil
}

func newOpenAIProvider(name string, cfg config.CompletionConfig, opts ...option.RequestOption) *OpenAIProvider {
	opts = append([]option.RequestOption{option.WithMaxRetries(0)}, opts...)
	return &OpenAIProvider{
		client:    openai.NewClient(opts...),
		name:      name,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout(),
	}
}

// Name returns "openai" or "azure".
func (p *OpenAIProvider) Name() string { return p.name }

// Complete sends one chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	for _, fn := range req.Functions {
		params.Tools = append(params.Tools, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        fn.Name,
					Description: openai.String(fn.Description),
					Parameters:  openai.FunctionParameters(fn.Parameters),
				},
			},
		})
	}
	if req.ForceFunction != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: req.ForceFunction},
			},
		}
	}

	var reqOpts []option.RequestOption
	if p.timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(p.timeout))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params, reqOpts...)
	if err != nil {
		if terr := requestTimeout(ctx, p.timeout, err); terr != nil {
			return nil, terr
		}
		return nil, p.wrap(req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, p.wrap(req.Model, errors.ErrEmptyCompletion).WithRetryable(false)
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		args, err := decodeArguments(call.Function.Name, []byte(call.Function.Arguments))
		if err != nil {
			return nil, err
		}
		return FunctionResponse(call.Function.Name, args), nil
	}
	return TextResponse(msg.Content), nil
}

func (p *OpenAIProvider) wrap(model string, err error) *errors.CompletionError {
	return errors.NewCompletionError("chat completion", err).
		WithProvider(p.name).
		WithModel(model)
}

// toOpenAIMessages maps the log onto chat messages. Function entries are sent
// as function-role messages so the model sees which call produced them.
func toOpenAIMessages(msgs []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case conversation.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case conversation.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case conversation.RoleFunction:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfFunction: &openai.ChatCompletionFunctionMessageParam{
					Name:    m.Name,
					Content: openai.String(m.Content),
				},
			})
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

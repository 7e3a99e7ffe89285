package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/monologue/internal/config"
	"github.com/Iron-Ham/monologue/internal/errors"
)

// ErrUnknownProvider is returned when the configured provider is unsupported.
var ErrUnknownProvider = fmt.Errorf("unknown completion provider")

// NewFromConfig builds the Completer selected by completion.provider.
func NewFromConfig(cfg *config.Config) (Completer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("missing config")
	}

	switch strings.ToLower(cfg.Completion.Provider) {
	case config.ProviderOpenAI, "":
		return NewOpenAI(cfg.Completion), nil
	case config.ProviderAzure:
		return NewAzure(cfg.Completion)
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.Completion), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Completion.Provider)
	}
}

// requestTimeout reports err as a TimeoutError when the per-request timeout
// expired while the caller's context is still live. Other errors return nil.
func requestTimeout(ctx context.Context, timeout time.Duration, err error) error {
	if timeout <= 0 || ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return errors.NewTimeoutError("chat completion", timeout).WithCause(err)
}

// decodeArguments parses a tool call's JSON arguments into a map.
func decodeArguments(function string, raw []byte) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, errors.NewExtractionError(function, err).
			WithMessage("function arguments are not a JSON object").
			WithContent(string(raw))
	}
	return args, nil
}

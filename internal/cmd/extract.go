package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/monologue/internal/conversation"
	"github.com/Iron-Ham/monologue/internal/errors"
	"github.com/Iron-Ham/monologue/internal/reasoner"
)

const extractSystemPrompt = "You use your internal monologue to reason before responding to the user. " +
	"You try to extract important fields from a prompt."

var extractCmd = &cobra.Command{
	Use:   "extract <template> <text>",
	Short: "Extract one typed value from text",
	Long: `Extract a single value from text using a template with exactly one
{field}. The value is requested through a forced function call and decoded
as the given type.

Examples:
  monologue extract "The assignment number is {num}" "Get me assignment 3 of 18.06"
  monologue extract --type float "The course code is {code}" "Get me assignment 3 of 18.06"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runExtract,
}

var extractType string

// extractTypes lists the value types accepted by --type.
var extractTypes = []string{"string", "int", "float", "bool"}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractType, "type", "t", "int", "value type ("+strings.Join(extractTypes, ", ")+")")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	completer, err := newCompleter(cfg)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	r := reasoner.New(completer,
		reasoner.WithSystemPrompt(extractSystemPrompt),
		reasoner.WithModel(cfg.Completion.Model),
		reasoner.WithName("extract"),
		reasoner.WithLogger(logger),
	)
	r.AddMessage(conversation.RoleUser, strings.Join(args[1:], " "), "")

	value, err := extractValue(cmd.Context(), r, args[0], extractType)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

// extractValue runs one extraction with the Go type named by typeName.
func extractValue(ctx context.Context, r *reasoner.Reasoner, template, typeName string) (any, error) {
	switch strings.ToLower(typeName) {
	case "string", "str":
		return reasoner.Extract[string](ctx, r, template)
	case "int", "integer":
		return reasoner.Extract[int](ctx, r, template)
	case "float", "number":
		return reasoner.Extract[float64](ctx, r, template)
	case "bool", "boolean":
		return reasoner.Extract[bool](ctx, r, template)
	default:
		return nil, errors.NewValidationError("unsupported value type").
			WithField("type").
			WithValue(typeName).
			WithCause(fmt.Errorf("valid types: %s", strings.Join(extractTypes, ", ")))
	}
}

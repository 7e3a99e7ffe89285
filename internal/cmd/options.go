package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/monologue/internal/console"
	"github.com/Iron-Ham/monologue/internal/conversation"
	"github.com/Iron-Ham/monologue/internal/reasoner"
)

const optionsSystemPrompt = "You use your internal monologue to reason before responding to the user. " +
	"You are responsible for breaking a command into substeps. " +
	"Each substep must be specific enough for another tool to execute it on its own."

var optionsCmd = &cobra.Command{
	Use:   "options <command>",
	Short: "Break a command into substeps",
	Long: `Ask the model to break a command into a list of concrete substeps.

The list comes back through a forced function call, so the output is always
one substep per line.

Examples:
  monologue options "Download the second assignment of MIT 6.006"
  monologue options --think "Set up a Go project with CI"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOptions,
}

var optionsThink bool

func init() {
	rootCmd.AddCommand(optionsCmd)

	optionsCmd.Flags().BoolVar(&optionsThink, "think", false, "reason in the internal monologue before listing")
}

func runOptions(cmd *cobra.Command, args []string) error {
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
		reasoner.WithSystemPrompt(optionsSystemPrompt),
		reasoner.WithModel(cfg.Completion.Model),
		reasoner.WithName("options"),
		reasoner.WithLogger(logger),
	)
	r.AddMessage(conversation.RoleUser, strings.Join(args, " "), "")

	steps, err := listSteps(cmd.Context(), r, optionsThink)
	if err != nil {
		return err
	}

	printer := console.NewPrinter(cmd.OutOrStdout(), console.WithColor(cfg.Output.Color), console.WithWidth(cfg.Output.Width))
	printer.PrintList("Substeps", steps)
	return nil
}

func listSteps(ctx context.Context, r *reasoner.Reasoner, think bool) ([]string, error) {
	if think {
		if _, err := r.InternalMonologue(ctx, "I should break this command into small steps that can each be executed on their own."); err != nil {
			return nil, err
		}
	}
	return r.ParseResponseOptions(ctx)
}

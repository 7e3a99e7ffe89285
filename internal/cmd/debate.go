package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/monologue/internal/config"
	"github.com/Iron-Ham/monologue/internal/console"
	"github.com/Iron-Ham/monologue/internal/debate"
	"github.com/Iron-Ham/monologue/internal/errors"
	"github.com/Iron-Ham/monologue/internal/event"
	"github.com/Iron-Ham/monologue/internal/reasoner"
)

var debateCmd = &cobra.Command{
	Use:   "debate [topic]",
	Short: "Run a debate between two reasoners",
	Long: `Run a fixed-length debate between two reasoners.

The first debater argues for the topic, the second against it. Each turn
the speaker brainstorms privately, lists candidate arguments, picks one and
presents it. Long argument histories are summarized between rounds. After
the last round both debaters separate objective facts from subjective
opinions.

Without a topic argument, the topic is read from standard input.

Examples:
  monologue debate "Remote work beats office work"
  monologue debate --rounds 2 --show-thoughts
  echo "Tabs are better than spaces" | monologue debate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDebate,
}

var (
	debateRounds       int
	debateShowThoughts bool
	debateNoThinkFirst bool
	debateStrict       bool
)

func init() {
	rootCmd.AddCommand(debateCmd)

	debateCmd.Flags().IntVarP(&debateRounds, "rounds", "r", 0, "number of rounds (default from config)")
	debateCmd.Flags().BoolVar(&debateShowThoughts, "show-thoughts", false, "print internal monologue and candidate arguments")
	debateCmd.Flags().BoolVar(&debateNoThinkFirst, "no-think-first", false, "skip the private brainstorm before each choice")
	debateCmd.Flags().BoolVar(&debateStrict, "strict", false, "fail when a debater picks an option that does not exist")
}

func runDebate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyDebateFlags(cmd, cfg); err != nil {
		return err
	}

	var topic string
	if len(args) > 0 {
		topic = strings.TrimSpace(args[0])
	} else {
		topic, err = readTopic(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
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

	bus := event.NewBus(logger)
	printer := console.NewPrinter(cmd.OutOrStdout(),
		console.WithColor(cfg.Output.Color),
		console.WithWidth(cfg.Output.Width),
		console.WithThoughts(cfg.Debate.ShowThoughts),
	)
	printer.Attach(bus)
	defer printer.Detach(bus)

	debaterOpts := []reasoner.Option{
		reasoner.WithModel(cfg.Completion.Model),
		reasoner.WithLogger(logger),
	}
	if cfg.Debate.StrictChoice {
		debaterOpts = append(debaterOpts, reasoner.WithStrictChoice())
	}

	sess, err := debate.NewSession(topic, debate.Debaters{
		A: debate.NewDebaterA(completer, debaterOpts...),
		B: debate.NewDebaterB(completer, debaterOpts...),
		Summarizer: debate.NewSummarizer(completer,
			reasoner.WithModel(cfg.Completion.SummaryModel),
			reasoner.WithLogger(logger),
		),
	}, debate.ConfigFrom(cfg.Debate), debate.WithBus(bus), debate.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The printer has already rendered the failure.
	if _, err := sess.Run(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return errors.Wrapf(errors.ErrCanceled, "%s interrupted (%d/%d rounds complete)",
				sess.ID(), sess.State().Round, cfg.Debate.Rounds)
		}
		return errors.Wrap(err, sess.ID())
	}
	return nil
}

// applyDebateFlags overrides the config with explicitly set flags and
// validates the result.
func applyDebateFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("rounds") {
		cfg.Debate.Rounds = debateRounds
	}
	if flags.Changed("show-thoughts") {
		cfg.Debate.ShowThoughts = debateShowThoughts
	}
	if flags.Changed("no-think-first") {
		cfg.Debate.ThinkFirst = !debateNoThinkFirst
	}
	if flags.Changed("strict") {
		cfg.Debate.StrictChoice = debateStrict
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return errors.NewValidationError("invalid configuration").WithCause(config.ValidationErrors(errs))
	}
	return nil
}

// readTopic prompts for a topic on out and reads one line from in.
func readTopic(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Choose topic: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read topic: %w", err)
	}
	topic := strings.TrimSpace(line)
	if topic == "" {
		return "", errors.NewValidationError("topic cannot be empty").WithField("topic")
	}
	return topic, nil
}

package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/monologue/internal/config"
	"github.com/Iron-Ham/monologue/internal/errors"
	"github.com/Iron-Ham/monologue/internal/llm"
	"github.com/Iron-Ham/monologue/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "monologue",
	Short: "Debating language models that think before they speak",
	Long: `Monologue drives a completion service through an internal monologue /
external dialogue protocol. Each reasoner thinks privately, lists its
options, picks one through a forced function call, and only then speaks.

The debate command pits two reasoners against each other on a topic; the
options and extract commands run a single structured call.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// newCompleter builds the completion service. Tests replace it.
var newCompleter = func(cfg *config.Config) (llm.Completer, error) {
	return llm.NewFromConfig(cfg)
}

var noColor bool

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/monologue/config.yaml)")
	rootCmd.PersistentFlags().String("provider", "", "completion provider (openai, azure, anthropic)")
	rootCmd.PersistentFlags().StringP("model", "m", "", "model used by the reasoners")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable styled output")

	bindGlobalFlags()
}

// bindGlobalFlags lets the global flags override config file and
// environment values.
func bindGlobalFlags() {
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("completion.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("completion.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MONOLOGUE")
	// e.g. MONOLOGUE_COMPLETION_MODEL for completion.model
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadConfig reads and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.NewValidationError("invalid configuration").WithCause(err)
	}
	if noColor {
		cfg.Output.Color = false
	}
	return cfg, nil
}

// createLogger opens the rotating debug log, or a no-op logger when
// logging is disabled.
func createLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

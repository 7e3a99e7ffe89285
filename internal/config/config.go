package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete monologue configuration
type Config struct {
	Completion CompletionConfig `mapstructure:"completion" yaml:"completion"`
	Debate     DebateConfig     `mapstructure:"debate" yaml:"debate"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
}

// CompletionConfig selects and configures the completion service
type CompletionConfig struct {
	// Provider is the completion backend.
	// Options: "openai", "azure", "anthropic"
	Provider string `mapstructure:"provider" yaml:"provider"`
	// Model is used by the debaters and the one-shot commands
	Model string `mapstructure:"model" yaml:"model"`
	// SummaryModel is used by the history summarizer
	SummaryModel string `mapstructure:"summary_model" yaml:"summary_model"`
	// BaseURL overrides the provider endpoint. Required for azure.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// APIKey overrides the provider's environment variable
	// (OPENAI_API_KEY / ANTHROPIC_API_KEY). With azure, an empty key
	// means the default Azure credential chain is used.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	// TimeoutSeconds bounds a single completion request (0 = transport default)
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// MaxTokens caps the length of each response. Anthropic requires a value.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// DebateConfig controls the debate loop
type DebateConfig struct {
	// Rounds is the fixed number of rounds before closing statements (default: 4)
	Rounds int `mapstructure:"rounds" yaml:"rounds"`
	// CompressThreshold is the history length above which a debater's
	// arguments are summarized into a single entry (default: 5)
	CompressThreshold int `mapstructure:"compress_threshold" yaml:"compress_threshold"`
	// TurnDelayMs pauses between turns so the transcript can be followed live
	TurnDelayMs int `mapstructure:"turn_delay_ms" yaml:"turn_delay_ms"`
	// ThinkFirst runs an internal monologue before listing and picking options
	ThinkFirst bool `mapstructure:"think_first" yaml:"think_first"`
	// StrictChoice rejects a chosen option index outside the offered range
	// instead of passing it through unchanged
	StrictChoice bool `mapstructure:"strict_choice" yaml:"strict_choice"`
	// ShowThoughts prints each debater's internal monologue
	ShowThoughts bool `mapstructure:"show_thoughts" yaml:"show_thoughts"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is active (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level sets the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where debug.log is written. Empty means <config dir>/logs.
	// A leading ~ is expanded to the home directory.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// OutputConfig controls transcript rendering
type OutputConfig struct {
	// Color enables styled output (default: true)
	Color bool `mapstructure:"color" yaml:"color"`
	// Width wraps the transcript at this many columns (0 = terminal width)
	Width int `mapstructure:"width" yaml:"width"`
}

// Provider names accepted by completion.provider
const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
)

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Completion: CompletionConfig{
			Provider:     ProviderOpenAI,
			Model:        "gpt-4",
			SummaryModel: "gpt-3.5-turbo",
			MaxTokens:    1024,
		},
		Debate: DebateConfig{
			Rounds:            4,
			CompressThreshold: 5,
			TurnDelayMs:       500,
			ThinkFirst:        true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Output: OutputConfig{
			Color: true,
		},
	}
}

// Timeout returns the per-request timeout as a time.Duration (0 means none)
func (c *CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TurnDelay returns the pause between turns as a time.Duration
func (c *DebateConfig) TurnDelay() time.Duration {
	return time.Duration(c.TurnDelayMs) * time.Millisecond
}

// ResolveDir returns the directory debug.log is written to.
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir == "" {
		return filepath.Join(ConfigDir(), "logs")
	}
	return expandHome(c.Dir)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Completion defaults
	viper.SetDefault("completion.provider", defaults.Completion.Provider)
	viper.SetDefault("completion.model", defaults.Completion.Model)
	viper.SetDefault("completion.summary_model", defaults.Completion.SummaryModel)
	viper.SetDefault("completion.base_url", defaults.Completion.BaseURL)
	viper.SetDefault("completion.api_key", defaults.Completion.APIKey)
	viper.SetDefault("completion.timeout_seconds", defaults.Completion.TimeoutSeconds)
	viper.SetDefault("completion.max_tokens", defaults.Completion.MaxTokens)

	// Debate defaults
	viper.SetDefault("debate.rounds", defaults.Debate.Rounds)
	viper.SetDefault("debate.compress_threshold", defaults.Debate.CompressThreshold)
	viper.SetDefault("debate.turn_delay_ms", defaults.Debate.TurnDelayMs)
	viper.SetDefault("debate.think_first", defaults.Debate.ThinkFirst)
	viper.SetDefault("debate.strict_choice", defaults.Debate.StrictChoice)
	viper.SetDefault("debate.show_thoughts", defaults.Debate.ShowThoughts)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Output defaults
	viper.SetDefault("output.color", defaults.Output.Color)
	viper.SetDefault("output.width", defaults.Output.Width)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "monologue")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".monologue"
	}
	return filepath.Join(home, ".config", "monologue")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidProviders returns the list of supported completion providers
func ValidProviders() []string {
	return []string{ProviderOpenAI, ProviderAzure, ProviderAnthropic}
}

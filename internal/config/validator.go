package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "debate.rounds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateCompletion()...)
	errors = append(errors, c.validateDebate()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateOutput()...)

	return errors
}

// validateCompletion validates the CompletionConfig
func (c *Config) validateCompletion() []ValidationError {
	var errors []ValidationError

	provider := strings.ToLower(c.Completion.Provider)
	if provider != "" && !slices.Contains(ValidProviders(), provider) {
		errors = append(errors, ValidationError{
			Field:   "completion.provider",
			Value:   c.Completion.Provider,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidProviders(), ", ")),
		})
	}

	if strings.TrimSpace(c.Completion.Model) == "" {
		errors = append(errors, ValidationError{
			Field:   "completion.model",
			Value:   c.Completion.Model,
			Message: "must not be empty",
		})
	}

	// Azure has no public default endpoint
	if provider == ProviderAzure && c.Completion.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "completion.base_url",
			Value:   c.Completion.BaseURL,
			Message: "is required for the azure provider",
		})
	}

	if c.Completion.TimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "completion.timeout_seconds",
			Value:   c.Completion.TimeoutSeconds,
			Message: "must be non-negative",
		})
	}

	if c.Completion.MaxTokens < 0 {
		errors = append(errors, ValidationError{
			Field:   "completion.max_tokens",
			Value:   c.Completion.MaxTokens,
			Message: "must be non-negative",
		})
	}
	if provider == ProviderAnthropic && c.Completion.MaxTokens == 0 {
		errors = append(errors, ValidationError{
			Field:   "completion.max_tokens",
			Value:   c.Completion.MaxTokens,
			Message: "must be positive for the anthropic provider",
		})
	}

	return errors
}

// validateDebate validates the DebateConfig
func (c *Config) validateDebate() []ValidationError {
	var errors []ValidationError

	if c.Debate.Rounds < 1 {
		errors = append(errors, ValidationError{
			Field:   "debate.rounds",
			Value:   c.Debate.Rounds,
			Message: "must be at least 1",
		})
	}

	const maxRounds = 50
	if c.Debate.Rounds > maxRounds {
		errors = append(errors, ValidationError{
			Field:   "debate.rounds",
			Value:   c.Debate.Rounds,
			Message: fmt.Sprintf("exceeds maximum of %d", maxRounds),
		})
	}

	if c.Debate.CompressThreshold < 1 {
		errors = append(errors, ValidationError{
			Field:   "debate.compress_threshold",
			Value:   c.Debate.CompressThreshold,
			Message: "must be at least 1",
		})
	}

	if c.Debate.TurnDelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "debate.turn_delay_ms",
			Value:   c.Debate.TurnDelayMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateOutput validates the OutputConfig
func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	// 0 means "use the terminal width"; anything else must fit a readable line
	if c.Output.Width != 0 && (c.Output.Width < 20 || c.Output.Width > 500) {
		errors = append(errors, ValidationError{
			Field:   "output.width",
			Value:   c.Output.Width,
			Message: "must be 0 or between 20 and 500",
		})
	}

	return errors
}

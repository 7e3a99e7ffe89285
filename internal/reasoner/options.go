package reasoner

import "github.com/Iron-Ham/monologue/internal/logging"

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4"

// Option configures a Reasoner.
type Option func(*Reasoner)

// WithSystemPrompt seeds the log with a system message.
func WithSystemPrompt(prompt string) Option {
	return func(r *Reasoner) {
		r.systemPrompt = prompt
	}
}

// WithModel sets the model sent with every request.
func WithModel(model string) Option {
	return func(r *Reasoner) {
		if model != "" {
			r.model = model
		}
	}
}

// WithName labels the reasoner in logs and events.
func WithName(name string) Option {
	return func(r *Reasoner) {
		r.name = name
	}
}

// WithLogger sets the logger. The reasoner's name is attached as the
// participant attribute.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Reasoner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStrictChoice makes Choose fail with a ChoiceError when the model
// picks an index outside the offered options. By default the index is
// returned as decoded.
func WithStrictChoice() Option {
	return func(r *Reasoner) {
		r.strictChoice = true
	}
}

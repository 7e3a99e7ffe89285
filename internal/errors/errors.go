// Package errors provides centralized error definitions and error handling utilities
// for monologue. It defines sentinel errors, typed errors carrying context about the
// failing operation, and classification helpers used by the CLI.
//
// # Error Types
//
// Extraction errors describe failures of the structured-call protocol:
//   - ExtractionError: a structured call was required but not returned, or its
//     arguments could not be decoded
//   - TemplateError: an extraction format template is malformed
//   - ChoiceError: a decoded choice index falls outside the offered options
//
// Transport errors describe failures talking to the completion service:
//   - CompletionError: the provider returned an error or an empty response
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewExtractionError("choose", errors.ErrUnstructuredResponse).
//	    WithRole("assistant").
//	    WithContent(resp.Content)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrUnstructuredResponse) { ... }
//
//	var tmplErr *errors.TemplateError
//	if errors.As(err, &tmplErr) { ... }
//
// # Error Classification
//
// None of the errors in this package are retried by monologue itself. The
// classification helpers exist so the CLI can decide what to show the user:
//   - Retryable: transient errors that may succeed if the user re-runs
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Extraction-related sentinel errors
var (
	// ErrUnstructuredResponse indicates that free text came back where a
	// structured function call was required.
	ErrUnstructuredResponse = New("expected a function call")
	// ErrMalformedTemplate indicates that an extraction template does not
	// contain exactly one named placeholder.
	ErrMalformedTemplate = New("template must contain exactly one format field")
	// ErrMissingArgument indicates that a function call lacked a required argument.
	ErrMissingArgument = New("function call is missing an argument")
	// ErrChoiceOutOfRange indicates a decoded choice outside the offered options.
	ErrChoiceOutOfRange = New("choice index out of range")
)

// Completion-service sentinel errors
var (
	// ErrCompletionFailed indicates that the completion service call failed.
	ErrCompletionFailed = New("completion request failed")
	// ErrEmptyCompletion indicates a response with no choices or content blocks.
	ErrEmptyCompletion = New("completion response was empty")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// MonologueError is the base interface for all errors defined here.
type MonologueError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed if attempted again.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// formatWithParts renders "<kind> [k=v, ...]: message[: cause]".
func formatWithParts(kind string, parts []string, message string, cause error) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if cause != nil {
		if message == "" {
			return fmt.Sprintf("%s: %v", prefix, cause)
		}
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

// -----------------------------------------------------------------------------
// Extraction Errors
// -----------------------------------------------------------------------------

// ExtractionError reports a failed structured extraction.
//
// Example:
//
//	err := errors.NewExtractionError("store_response_options", errors.ErrUnstructuredResponse)
//	err = err.WithRole("assistant").WithContent("Sure! Here are some ideas")
//	fmt.Println(err) // "extraction error [function=store_response_options, role=assistant]: expected a function call, but got: Sure! Here are some ideas"
type ExtractionError struct {
	baseError
	Function string
	Role     string
	Content  string
}

// NewExtractionError creates a new ExtractionError for the given forced function.
func NewExtractionError(function string, cause error) *ExtractionError {
	return &ExtractionError{
		baseError: baseError{
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Function: function,
	}
}

// WithRole records the role the completion service actually answered with.
func (e *ExtractionError) WithRole(role string) *ExtractionError {
	e.Role = role
	return e
}

// WithContent records the free text returned instead of a function call.
func (e *ExtractionError) WithContent(content string) *ExtractionError {
	e.Content = content
	return e
}

// WithMessage adds detail to the error.
func (e *ExtractionError) WithMessage(message string) *ExtractionError {
	e.message = message
	return e
}

// Error returns the formatted error message.
func (e *ExtractionError) Error() string {
	var parts []string
	if e.Function != "" {
		parts = append(parts, fmt.Sprintf("function=%s", e.Function))
	}
	if e.Role != "" {
		parts = append(parts, fmt.Sprintf("role=%s", e.Role))
	}
	msg := formatWithParts("extraction error", parts, e.message, e.cause)
	if e.Content != "" {
		msg += ", but got: " + e.Content
	}
	return msg
}

// Is checks if this error matches the target.
func (e *ExtractionError) Is(target error) bool {
	if _, ok := target.(*ExtractionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TemplateError reports an extraction format template that does not contain
// exactly one named placeholder. It is raised before any network call.
//
// Example:
//
//	err := errors.NewTemplateError("Two {a} and {b}", 2)
//	fmt.Println(err) // "template error [fields=2]: \"Two {a} and {b}\": template must contain exactly one format field"
type TemplateError struct {
	baseError
	Template string
	Fields   int
}

// NewTemplateError creates a new TemplateError.
func NewTemplateError(template string, fields int) *TemplateError {
	return &TemplateError{
		baseError: baseError{
			message:    fmt.Sprintf("%q", template),
			cause:      ErrMalformedTemplate,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Template: template,
		Fields:   fields,
	}
}

// WithCause replaces the underlying cause, e.g. for unbalanced braces.
func (e *TemplateError) WithCause(cause error) *TemplateError {
	e.cause = Join(ErrMalformedTemplate, cause)
	return e
}

// Error returns the formatted error message.
func (e *TemplateError) Error() string {
	parts := []string{fmt.Sprintf("fields=%d", e.Fields)}
	return formatWithParts("template error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *TemplateError) Is(target error) bool {
	if _, ok := target.(*TemplateError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ChoiceError reports a decoded 1-based choice that does not address one of
// the offered options.
type ChoiceError struct {
	baseError
	Choice  int
	Options int
}

// NewChoiceError creates a new ChoiceError. choice is the 1-based value the
// model returned.
func NewChoiceError(choice, options int) *ChoiceError {
	return &ChoiceError{
		baseError: baseError{
			message:    fmt.Sprintf("choice %d not in [1, %d]", choice, options),
			cause:      ErrChoiceOutOfRange,
			severity:   SeverityError,
			userFacing: true,
		},
		Choice:  choice,
		Options: options,
	}
}

// Error returns the formatted error message.
func (e *ChoiceError) Error() string {
	return formatWithParts("choice error", nil, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ChoiceError) Is(target error) bool {
	if _, ok := target.(*ChoiceError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Transport Errors
// -----------------------------------------------------------------------------

// CompletionError represents a failure of the completion service.
//
// Example:
//
//	err := errors.NewCompletionError("request failed", apiErr).
//	    WithProvider("openai").WithModel("gpt-4")
type CompletionError struct {
	baseError
	Provider string
	Model    string
}

// NewCompletionError creates a new CompletionError.
func NewCompletionError(message string, cause error) *CompletionError {
	return &CompletionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  true,
			userFacing: false,
		},
	}
}

// WithProvider adds the provider name to the error context.
func (e *CompletionError) WithProvider(provider string) *CompletionError {
	e.Provider = provider
	return e
}

// WithModel adds the model identifier to the error context.
func (e *CompletionError) WithModel(model string) *CompletionError {
	e.Model = model
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *CompletionError) WithRetryable(r bool) *CompletionError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *CompletionError) Error() string {
	var parts []string
	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	return formatWithParts("completion error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *CompletionError) Is(target error) bool {
	if _, ok := target.(*CompletionError); ok {
		return true
	}
	if errors.Is(target, ErrCompletionFailed) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("options cannot be empty")
//	err = err.WithField("options").WithValue(0)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return formatWithParts("validation error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for completion", 30*time.Second)
//	fmt.Println(err) // "timeout error: waiting for completion (timeout: 30s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed if the user runs the command again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var monoErr MonologueError
	if As(err, &monoErr) {
		return monoErr.IsRetryable()
	}

	return Is(err, ErrTimeout)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var monoErr MonologueError
	if As(err, &monoErr) {
		return monoErr.IsUserFacing()
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement MonologueError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var monoErr MonologueError
	if As(err, &monoErr) {
		return monoErr.Severity()
	}

	return SeverityError
}

// IsExtractionError returns true if the error came from the structured-call
// protocol (ExtractionError, TemplateError, or ChoiceError).
func IsExtractionError(err error) bool {
	if err == nil {
		return false
	}

	var extractionErr *ExtractionError
	var templateErr *TemplateError
	var choiceErr *ChoiceError

	return As(err, &extractionErr) || As(err, &templateErr) || As(err, &choiceErr)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike a bare fmt.Errorf call, a nil err stays nil.
//
// Example:
//
//	err := errors.Wrap(baseErr, "debater A brainstorm")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
